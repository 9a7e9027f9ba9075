package extract

import (
	"regexp"
	"strings"
)

const monthPattern = `January|Jan\.|February|Feb\.|March|Mar\.|April|Apr\.|May|June|Jun\.|July|Jul\.|August|Aug\.|September|Sept?\.|October|Oct\.|November|Nov\.|December|Dec\.`

// pinTokenPattern is one element of a pin cite: an optional label such as
// "n.", "¶" or "*", then a page:line cite or a page range.
const pinTokenPattern = `(?:(?:(?:& )?note|(?:& )?nn?\.?|(?:& )?fn?\.?|¶{1,2}|§{1,2}|\*{1,4}|pg\.?|pp?\.?) ?)?(?:\d+:\d+(?:-\d+(?::\d+)?)?|\*?\d+(?:-\d+)?)`

const parentheticalPattern = `(?: ?\((?P<parenthetical>.*)\))?`

const lawSubsection = `\([0-9a-zA-Z]{1,4}\)`

var (
	pinHeadRe = regexp.MustCompile(`^,? ?(?:at )?` + pinTokenPattern)
	pinNextRe = regexp.MustCompile(`^, ?` + pinTokenPattern)

	// postFullRe matches what follows a full case citation once any pin
	// cite is consumed: extra text, then a court and date parenthetical,
	// then an optional explanatory parenthetical.
	postFullRe = regexp.MustCompile(`^,? ?(?P<extra>[^(;\[]*)[(\[]` +
		`(?:(?P<court>.*?)\s+)?` +
		`(?:(?P<month>` + monthPattern + `) ?)?` +
		`(?:(?P<day>\d{1,2}),? ?)?` +
		`(?P<year>\d{4})(?:-\d{2})?` +
		`[)\]]` + parentheticalPattern)

	postShortRe = regexp.MustCompile(`^ ?` + parentheticalPattern)

	postLawRe = regexp.MustCompile(`^(?P<pin_cite>(?:` + lawSubsection + `)*(?: and (?:` + lawSubsection + `)+)?(?: et seq\.)?)` +
		` ?(?:\((?P<publisher>[A-Z][a-z]+\.?(?: Supp\.)?)? ?` +
		`(?:(?P<month>` + monthPattern + `) )?` +
		`(?P<day>\d{1,2})?,? ?` +
		`(?:(?P<year>\d{4})(?:-\d{2})?)?\))?` +
		` ?` + parentheticalPattern)

	postJournalRe = regexp.MustCompile(`^ ?(?:\((?P<year>\d{4})(?:-\d{2})?\))? ?` + parentheticalPattern)

	// Antecedents are matched against the text before a token, so these
	// patterns are anchored at the end.
	shortAntecedentRe = regexp.MustCompile(`(?P<antecedent>[A-Za-z][\w\-.]+) ?,? $`)
	supraAntecedentRe = regexp.MustCompile(`(?:(?P<antecedent>[\w\-.]+) ?,? (?P<volume>\d+)|(?P<volume2>\d+)|(?P<antecedent2>[\w\-.]+) ?,?) $`)
	preFullRe         = regexp.MustCompile(`(?P<antecedent>[A-Z][a-z\-.]+) ?,?(?: ?(?:at )?(?P<pin_cite>` + pinTokenPattern + `(?:, ?` + pinTokenPattern + `)*),)? ?$`)

	yearPrefixRe = regexp.MustCompile(`^\d{4}(?:-\d{2})?`)
)

// matchPin returns the end of the pin cite at the start of s, or -1. A pin
// cite must be followed by closing punctuation, an opening parenthesis or
// the end of the text, so it never swallows the start of the next
// citation.
func matchPin(s string) int {
	loc := pinHeadRe.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	ends := []int{loc[1]}
	for pos := loc[1]; ; {
		m := pinNextRe.FindStringIndex(s[pos:])
		if m == nil || m[1] == 0 {
			break
		}
		pos += m[1]
		ends = append(ends, pos)
	}
	for i := len(ends) - 1; i >= 0; i-- {
		if pinTerminated(s, ends[i]) {
			return ends[i]
		}
	}
	return -1
}

func pinTerminated(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	switch s[i] {
	case ',', '.', ';', ')', ']', '\\', '(', '[':
		return true
	case ' ':
		return i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '[')
	}
	return false
}

// pinParts splits a raw pin cite match into the cleaned pin and the
// offset of the cleaned text within raw.
func pinParts(raw string) (pin string, lead int) {
	trimmed := strings.TrimLeft(raw, ", ")
	return strings.TrimRight(trimmed, ", "), len(raw) - len(trimmed)
}

// processParenthetical cuts a greedy parenthetical match at its closing
// parenthesis and drops date-only parentheticals.
func processParenthetical(p string) string {
	depth := 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			return p[:i]
		}
	}
	if yearPrefixRe.MatchString(p) {
		return ""
	}
	return p
}

// submatch returns the text of a named group from a FindStringSubmatchIndex
// result, and whether the group took part in the match.
func submatch(re *regexp.Regexp, s string, m []int, name string) (string, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || m[2*i] < 0 {
		return "", false
	}
	return s[m[2*i]:m[2*i+1]], true
}

func group(re *regexp.Regexp, s string, m []int, name string) string {
	v, _ := submatch(re, s, m, name)
	return v
}

func groupStart(re *regexp.Regexp, m []int, name string) int {
	i := re.SubexpIndex(name)
	if i < 0 {
		return -1
	}
	return m[2*i]
}
