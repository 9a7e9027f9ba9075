package extract

import (
	"regexp"
	"strings"

	"github.com/coolbeans/lexcite/pkg/citation"
)

func (s *state) id(i int) citation.Citation {
	c := &citation.IdCitation{Base: s.base(i)}
	s.shortForm(&c.Base, "")
	return c
}

func (s *state) supra(i int) citation.Citation {
	c := &citation.SupraCitation{Base: s.base(i)}
	s.shortForm(&c.Base, "")

	window := s.backward(i)
	m := supraAntecedentRe.FindStringSubmatchIndex(window)
	if m == nil {
		return c
	}
	start := -1
	if v, ok := submatch(supraAntecedentRe, window, m, "antecedent"); ok {
		c.AntecedentGuess = v
		c.Volume = group(supraAntecedentRe, window, m, "volume")
		start = groupStart(supraAntecedentRe, m, "antecedent")
	} else if v, ok := submatch(supraAntecedentRe, window, m, "antecedent2"); ok {
		c.AntecedentGuess = v
		start = groupStart(supraAntecedentRe, m, "antecedent2")
	} else if v, ok := submatch(supraAntecedentRe, window, m, "volume2"); ok {
		c.Volume = v
		start = groupStart(supraAntecedentRe, m, "volume2")
	}
	if start >= 0 {
		c.FullSpan.Start = c.Span.Start - len(window) + start
	}
	return c
}

// shortCase completes a citation such as "515 U.S., at 241". The page of
// the token doubles as the start of the pin cite.
func (s *state) shortCase(c *citation.ShortCaseCitation, page string) citation.Citation {
	prefix := ""
	if page != "" && strings.HasSuffix(c.Text, page) {
		prefix = page
	}
	s.shortForm(&c.Base, prefix)
	if c.PinCite == "" && prefix != "" {
		end := c.Span.End
		c.PinCite = page
		c.PinCiteSpan = citation.Span{Start: end - len(page), End: end}
	}

	window := s.backward(c.Index)
	if m := shortAntecedentRe.FindStringSubmatchIndex(window); m != nil {
		c.AntecedentGuess = group(shortAntecedentRe, window, m, "antecedent")
		c.FullSpan.Start = c.Span.Start - len(window) + groupStart(shortAntecedentRe, m, "antecedent")
	}
	c.GuessEdition()
	c.GuessCourt()
	return c
}

// shortForm consumes the pin cite and parenthetical after a short form
// citation. The pin cite extends Span and Text; the parenthetical only
// extends FullSpan. prefix is the tail of the token that may begin the
// pin cite.
func (s *state) shortForm(b *citation.Base, prefix string) {
	base := b.Span.End - len(prefix)
	window := prefix + s.forwardFrom(b.Span.End, false)

	rest := len(prefix)
	if m := matchPin(window); m > 0 {
		raw := window[:m]
		pin, lead := pinParts(raw)
		if trimmed := strings.TrimRight(raw, ", "); len(trimmed) > len(prefix) {
			b.Text += trimmed[len(prefix):]
			b.Span.End = base + len(trimmed)
		}
		b.PinCite = pin
		b.PinCiteSpan = citation.Span{Start: base + lead, End: base + lead + len(pin)}
		rest = m
	}
	if b.FullSpan.End < b.Span.End {
		b.FullSpan.End = b.Span.End
	}

	tail := window[rest:]
	m := postShortRe.FindStringSubmatchIndex(tail)
	if m == nil {
		return
	}
	paren, end := parenthetical(postShortRe, tail, m)
	if paren == "" {
		return
	}
	b.Parenthetical = paren
	if e := base + rest + end; e > b.FullSpan.End {
		b.FullSpan.End = e
	}
}

// fullLaw reads the subsections, publisher, date and parenthetical after
// a statute or regulation citation.
func (s *state) fullLaw(c *citation.FullLawCitation) citation.Citation {
	end := c.Span.End
	window := s.forwardFrom(end, false)
	m := postLawRe.FindStringSubmatchIndex(window)
	if m != nil && m[1] > 0 {
		if pin := group(postLawRe, window, m, "pin_cite"); pin != "" {
			start := end + groupStart(postLawRe, m, "pin_cite")
			c.PinCite = pin
			c.PinCiteSpan = citation.Span{Start: start, End: start + len(pin)}
		}
		c.Publisher = group(postLawRe, window, m, "publisher")
		c.Month = group(postLawRe, window, m, "month")
		c.Day = group(postLawRe, window, m, "day")
		if year, ok := citation.ParseYear(group(postLawRe, window, m, "year")); ok {
			c.Year = year
		}
		paren, parenEnd := parenthetical(postLawRe, window, m)
		c.Parenthetical = paren
		if e := end + len(strings.TrimRight(window[:parenEnd], " ")); e > c.FullSpan.End {
			c.FullSpan.End = e
		}
	}
	c.GuessEdition()
	return c
}

func (s *state) fullJournal(c *citation.FullJournalCitation) citation.Citation {
	end := c.Span.End
	window := s.forwardFrom(end, false)

	from := 0
	if p := matchPin(window); p > 0 {
		pin, lead := pinParts(window[:p])
		c.PinCite = pin
		c.PinCiteSpan = citation.Span{Start: end + lead, End: end + lead + len(pin)}
		c.FullSpan.End = end + len(strings.TrimRight(window[:p], ", "))
		from = p
	}
	rest := window[from:]
	if m := postJournalRe.FindStringSubmatchIndex(rest); m != nil {
		if year, ok := citation.ParseYear(group(postJournalRe, rest, m, "year")); ok {
			c.Year = year
		}
		paren, parenEnd := parenthetical(postJournalRe, rest, m)
		c.Parenthetical = paren
		if e := end + from + len(strings.TrimRight(rest[:parenEnd], " ")); e > c.FullSpan.End {
			c.FullSpan.End = e
		}
	}
	c.GuessEdition()
	return c
}

// parenthetical returns the cleaned parenthetical of a match and the
// offset in s where the matched text ends once the parenthetical is cut
// or dropped.
func parenthetical(re *regexp.Regexp, s string, m []int) (string, int) {
	raw, ok := submatch(re, s, m, "parenthetical")
	if !ok {
		return "", m[1]
	}
	start := groupStart(re, m, "parenthetical")
	p := processParenthetical(raw)
	if p == "" {
		return "", len(strings.TrimRight(s[:start], "( "))
	}
	return p, start + len(p) + 1
}
