package tokenize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

// match is one rule match. All offsets are absolute.
type match struct {
	rule     *grammar.Rule
	start    int
	end      int
	tokenEnd int
	loc      []int
}

// scanner returns the selected match with the smallest valid start at or
// after pos. Implementations keep per-call state and are not shared.
type scanner interface {
	next(pos int) (match, bool)
}

func newMatch(r *grammar.Rule, offset int, loc []int) match {
	abs := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			abs[i] = -1
		} else {
			abs[i] = v + offset
		}
	}
	m := match{rule: r, start: abs[0], end: abs[1], tokenEnd: abs[1], loc: abs}
	if tg := r.TokenGroup(); tg > 0 && abs[2*tg+1] >= 0 {
		m.tokenEnd = abs[2*tg+1]
	}
	return m
}

// better reports whether a beats b for the same start offset: higher
// priority, then longer match, then earlier rule.
func better(a, b match) bool {
	if a.rule.Priority != b.rule.Priority {
		return a.rule.Priority > b.rule.Priority
	}
	if a.end != b.end {
		return a.end > b.end
	}
	return a.rule.Index < b.rule.Index
}

// validStart reports whether a match may begin at offset s: it must not
// start in the middle of a word.
func validStart(text string, s int) bool {
	if s == 0 || s >= len(text) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:s])
	first, _ := utf8.DecodeRuneInString(text[s:])
	return !isWordRune(prev) || !isWordRune(first)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func advance(text string, s int) int {
	if s >= len(text) {
		return s + 1
	}
	_, size := utf8.DecodeRuneInString(text[s:])
	return s + size
}

// findFrom returns the first valid match of re at or after from.
func findFrom(r *grammar.Rule, re *regexp.Regexp, text string, from int) (match, bool) {
	for from < len(text) {
		loc := re.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			return match{}, false
		}
		s := from + loc[0]
		if s >= len(text) {
			return match{}, false
		}
		if validStart(text, s) {
			return newMatch(r, from, loc), true
		}
		from = advance(text, s)
	}
	return match{}, false
}

// run drives a scanner over text and yields the complete token stream.
// It returns false when yield asked to stop.
func run(text string, sc scanner, yield func(Token) bool) bool {
	pos := 0
	for pos < len(text) {
		m, ok := sc.next(pos)
		if !ok {
			break
		}
		if !emitPlain(text, pos, m.start, yield) {
			return false
		}
		end := m.tokenEnd
		if end <= m.start {
			end = m.end
		}
		if end <= m.start {
			end = advance(text, m.start)
		}
		if !yield(tokenFor(text, m, end)) {
			return false
		}
		pos = end
	}
	return emitPlain(text, pos, len(text), yield)
}

func tokenFor(text string, m match, end int) Token {
	tok := Token{
		Kind:  kindForRule(m.rule),
		Start: m.start,
		End:   end,
		Text:  text[m.start:end],
		Rule:  m.rule,
	}
	names := m.rule.Regexp().SubexpNames()
	for i, name := range names {
		if i == 0 || name == "" || name == "token" || 2*i+1 >= len(m.loc) || m.loc[2*i] < 0 {
			continue
		}
		if tok.Groups == nil {
			tok.Groups = make(map[string]string)
		}
		tok.Groups[name] = text[m.loc[2*i]:m.loc[2*i+1]]
	}
	if tok.Kind == StopWord {
		tok.Word = strings.ToLower(tok.Groups["stop_word"])
	}
	return tok
}

// emitPlain yields text[from:to] as alternating word and whitespace runs.
func emitPlain(text string, from, to int, yield func(Token) bool) bool {
	i := from
	for i < to {
		r, size := utf8.DecodeRuneInString(text[i:])
		space := unicode.IsSpace(r)
		j := i + size
		for j < to {
			r2, size2 := utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(r2) != space {
				break
			}
			j += size2
		}
		if !yield(Token{Kind: PlainWord, Start: i, End: j, Text: text[i:j]}) {
			return false
		}
		i = j
	}
	return true
}
