package extract

import (
	"strings"
	"unicode"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

// maxPlaintiffWords bounds the words taken as the plaintiff before "v.".
const maxPlaintiffWords = 8

var (
	nameConnectors = map[string]bool{
		"of": true, "the": true, "and": true, "&": true, "for": true,
		"de": true, "la": true, "ex": true, "rel.": true,
	}

	// leadingNoise are words that open a sentence or signal rather than a
	// party name.
	leadingNoise = map[string]bool{
		"in": true, "see": true, "but": true, "also": true, "and": true,
		"cf": true, "cf.": true, "accord": true, "compare": true,
		"however": true, "thus": true, "moreover": true, "under": true, "as": true,
	}

	corporateSuffixes = map[string]bool{
		"inc.": true, "inc": true, "co.": true, "corp.": true, "ltd.": true,
		"llc": true, "l.l.c.": true, "n.a.": true, "l.p.": true, "llp": true,
	}
)

func (s *state) fullCase(c *citation.FullCaseCitation) citation.Citation {
	s.fullCasePost(c)
	if !s.caseNames(c) {
		s.preCitation(c)
	}
	c.GuessEdition()
	c.GuessCourt()
	return c
}

// fullCasePost reads the pin cite, court, date and parenthetical that
// follow a full case citation.
func (s *state) fullCasePost(c *citation.FullCaseCitation) {
	end := c.Span.End
	window := s.forwardFrom(end, false)

	pinEnd := matchPin(window)
	from := max(pinEnd, 0)
	rest := window[from:]
	m := postFullRe.FindStringSubmatchIndex(rest)
	if m == nil && pinEnd > 0 {
		// The pin may belong to the extra text of a date parenthetical
		// further on.
		if m0 := postFullRe.FindStringSubmatchIndex(window); m0 != nil {
			from, rest, m, pinEnd = 0, window, m0, -1
		}
	}

	if pinEnd > 0 {
		pin, lead := pinParts(window[:pinEnd])
		c.PinCite = pin
		c.PinCiteSpan = citation.Span{Start: end + lead, End: end + lead + len(pin)}
		c.FullSpan.End = end + len(strings.TrimRight(window[:pinEnd], ", "))
	}
	if m == nil {
		return
	}

	c.Extra = strings.Trim(group(postFullRe, rest, m, "extra"), ", ")
	if court := strings.TrimSpace(group(postFullRe, rest, m, "court")); court != "" && s.e.grammar != nil {
		if id, ok := s.e.grammar.CourtByParenthetical(court); ok {
			c.Court = id
		}
	}
	c.Month = group(postFullRe, rest, m, "month")
	c.Day = group(postFullRe, rest, m, "day")
	if year, ok := citation.ParseYear(group(postFullRe, rest, m, "year")); ok {
		c.Year = year
	}
	paren, parenEnd := parenthetical(postFullRe, rest, m)
	c.Parenthetical = paren
	if e := end + from + parenEnd; e > c.FullSpan.End {
		c.FullSpan.End = e
	}
}

// caseNames looks back from the citation for a stop word and takes the
// party names around it. It reports whether a stop word was found.
func (s *state) caseNames(c *citation.FullCaseCitation) bool {
	i := c.Index
	for j := i - 1; j >= 0 && j >= i-backwardSeek; j-- {
		t := s.tokens[j]
		if t.Start < s.floor {
			return false
		}
		switch t.Kind {
		case tokenize.StopWord:
			s.setNames(c, j)
			return true
		case tokenize.PlainWord:
			if strings.HasSuffix(t.Text, ";") {
				return false
			}
		default:
			return false
		}
	}
	return false
}

func (s *state) setNames(c *citation.FullCaseCitation, stop int) {
	i := c.Index
	first := -1
	for j := stop + 1; j < i; j++ {
		if !s.tokens[j].IsSpace() {
			first = j
			break
		}
	}
	if first >= 0 {
		raw := s.between(s.tokens[first].Start, c.Span.Start)
		c.Defendant = trimName(raw)
	}

	if s.tokens[stop].Word != "v" {
		if c.Defendant != "" {
			c.FullSpan.Start = s.tokens[first].Start
		}
		return
	}

	c.FullSpan.Start = s.tokens[stop].Start
	start, offset := s.plaintiffStart(stop)
	if start < 0 {
		return
	}
	from := s.tokens[start].Start + offset
	c.Plaintiff = trimName(s.between(from, s.tokens[stop].Start))
	if c.Plaintiff != "" {
		c.FullSpan.Start = from
	}
}

// plaintiffStart walks back from the "v." token over a run of capitalized
// words. It returns the index of the first token of the name and the byte
// offset of the name within that token, or -1.
func (s *state) plaintiffStart(stop int) (int, int) {
	start, words := -1, 0
	prev := ""
	for j := stop - 1; j >= 0 && j >= stop-backwardSeek; j-- {
		t := s.tokens[j]
		if t.Start < s.floor || t.Kind != tokenize.PlainWord {
			break
		}
		if t.IsSpace() {
			if strings.Count(t.Text, "\n") > 1 {
				break
			}
			continue
		}
		word := strings.TrimLeft(t.Text, "\"'([“‘")
		if word == "" {
			break
		}
		if strings.HasSuffix(word, ";") {
			break
		}
		if strings.HasSuffix(word, ",") && !corporateSuffixes[strings.ToLower(prev)] {
			break
		}
		if !startsUpper(word) && !nameConnectors[strings.ToLower(word)] {
			break
		}
		start, prev = j, strings.TrimRight(word, ",")
		words++
		if words == maxPlaintiffWords || len(word) < len(t.Text) {
			break
		}
	}
	if start < 0 {
		return -1, 0
	}

	// Drop leading signal words and connectors.
	for start < stop {
		t := s.tokens[start]
		if t.IsSpace() {
			start++
			continue
		}
		word := strings.ToLower(strings.Trim(t.Text, "\"'([“‘,"))
		if !leadingNoise[word] && !nameConnectors[word] {
			break
		}
		start++
	}
	if start >= stop {
		return -1, 0
	}
	t := s.tokens[start]
	return start, len(t.Text) - len(strings.TrimLeft(t.Text, "\"'([“‘"))
}

// preCitation handles a full citation written without a stop word, as in
// "Nobelman at 332, 113 S. Ct. 2106", taking the single word before it as
// the antecedent.
func (s *state) preCitation(c *citation.FullCaseCitation) {
	window := s.backward(c.Index)
	m := preFullRe.FindStringSubmatchIndex(window)
	if m == nil {
		return
	}
	base := c.Span.Start - len(window)
	c.AntecedentGuess = group(preFullRe, window, m, "antecedent")
	c.FullSpan.Start = base + groupStart(preFullRe, m, "antecedent")
	if pin, ok := submatch(preFullRe, window, m, "pin_cite"); ok && c.PinCite == "" {
		start := base + groupStart(preFullRe, m, "pin_cite")
		c.PinCite = pin
		c.PinCiteSpan = citation.Span{Start: start, End: start + len(pin)}
	}
}

// linkParallel groups full case citations separated only by a comma, such
// as "410 U.S. 113, 93 S. Ct. 705 (1973)", and shares their metadata.
func (s *state) linkParallel() {
	var run []*citation.FullCaseCitation
	flush := func() {
		if len(run) > 1 {
			shareParallel(run)
		}
		run = run[:0]
	}
	for _, c := range s.citations {
		fc, ok := c.(*citation.FullCaseCitation)
		if !ok {
			flush()
			continue
		}
		if len(run) > 0 && !s.parallel(run[len(run)-1], fc) {
			flush()
		}
		run = append(run, fc)
	}
	flush()
}

func (s *state) parallel(prev, next *citation.FullCaseCitation) bool {
	if prev.Year != 0 || prev.FullSpan.End > next.Span.Start {
		return false
	}
	gap := s.between(prev.FullSpan.End, next.Span.Start)
	if !strings.Contains(gap, ",") {
		return false
	}
	return strings.TrimFunc(gap, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) == ""
}

func shareParallel(run []*citation.FullCaseCitation) {
	first, last := run[0], run[len(run)-1]
	span := citation.Span{Start: first.FullSpan.Start, End: last.FullSpan.End}
	for _, c := range run {
		c.FullSpan = span
		if c.Plaintiff == "" && c.Defendant == "" {
			c.Plaintiff, c.Defendant = first.Plaintiff, first.Defendant
		}
		if c.AntecedentGuess == "" {
			c.AntecedentGuess = first.AntecedentGuess
		}
		if c.Year == 0 {
			c.Year, c.Month, c.Day = last.Year, last.Month, last.Day
		}
		if c.Parenthetical == "" {
			c.Parenthetical = last.Parenthetical
		}
		if c.Court == "" {
			c.Court = last.Court
		}
		c.EditionGuess = nil
		c.GuessEdition()
		c.GuessCourt()
	}
}

func trimName(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}
