package citation

import (
	"fmt"
	"strings"
	"unicode"
)

// Identity returns the resource key of c. Case and journal citations are
// keyed by volume, reporter and page; law citations by title, code and
// section. Reporter spelling is normalized to the edition guess when there
// is one, whitespace is ignored, and nominative reporters never take part.
//
// Citations that cannot identify a resource (id, supra, reference, unknown,
// or a resource citation whose page is missing) get a key unique to the
// citation value.
func Identity(c Citation) string {
	switch c := c.(type) {
	case *FullCaseCitation:
		return resourceKey("case", c, &c.Base, &c.ResourceBase, "volume", "page")
	case *ShortCaseCitation:
		return resourceKey("case", c, &c.Base, &c.ResourceBase, "volume", "page")
	case *FullJournalCitation:
		return resourceKey("journal", c, &c.Base, &c.ResourceBase, "volume", "page")
	case *FullLawCitation:
		return resourceKey("law", c, &c.Base, &c.ResourceBase, "title", "section")
	default:
		return uniqueKey(c)
	}
}

func resourceKey(family string, c Citation, b *Base, r *ResourceBase, first, last string) string {
	if r.PageMissing || b.Group(last) == "" {
		return uniqueKey(c)
	}
	reporter := NormalizeReporter(correctedReporter(b, r))
	return fmt.Sprintf("%s:%s|%s|%s", family, squash(b.Group(first)), reporter, squash(b.Group(last)))
}

func uniqueKey(c Citation) string {
	return fmt.Sprintf("%s@%p", c.Kind(), c)
}

// NormalizeReporter removes whitespace from a reporter abbreviation, so
// "F. Supp. 2d" and "F.Supp.2d" compare equal.
func NormalizeReporter(s string) string {
	return squash(s)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CorrectedReporter returns the edition guess name, or the reporter as
// written when there is no guess.
func CorrectedReporter(c ResourceCitation) string {
	return correctedReporter(c.Common(), c.Resource())
}

func correctedReporter(b *Base, r *ResourceBase) string {
	if r.EditionGuess != nil {
		return r.EditionGuess.Name
	}
	return b.Group("reporter")
}

// CorrectedCitation returns the matched text with a variant reporter
// spelling replaced by its edition name. Other citations are returned as
// matched.
func CorrectedCitation(c Citation) string {
	rc, ok := c.(ResourceCitation)
	if !ok {
		return c.Common().Text
	}
	b, r := rc.Common(), rc.Resource()
	text := b.Text
	if written := b.Group("reporter"); r.EditionGuess != nil && written != "" {
		text = strings.Replace(text, written, r.EditionGuess.Name, 1)
	}
	return text
}

// CorrectedCitationFull renders the citation with its parsed metadata,
// for example "Bush v. Gore, 531 U.S. 98, 99-100 (2000)".
func CorrectedCitationFull(c Citation) string {
	var b strings.Builder
	switch c := c.(type) {
	case *FullCaseCitation:
		if c.Plaintiff != "" {
			b.WriteString(c.Plaintiff + " v. ")
		}
		if c.Defendant != "" {
			b.WriteString(c.Defendant + ", ")
		}
		b.WriteString(CorrectedCitation(c))
		if c.PinCite != "" {
			b.WriteString(", " + c.PinCite)
		}
		if c.Extra != "" {
			b.WriteString(" " + c.Extra)
		}
		writeParen(&b, c.Court, yearText(c.Year))
		writeParen(&b, c.Parenthetical)
	case *FullLawCitation:
		b.WriteString(CorrectedCitation(c))
		b.WriteString(c.PinCite)
		writeParen(&b, c.Publisher, c.Month, c.Day, yearText(c.Year))
		writeParen(&b, c.Parenthetical)
	case *FullJournalCitation:
		b.WriteString(CorrectedCitation(c))
		if c.PinCite != "" {
			b.WriteString(", " + c.PinCite)
		}
		writeParen(&b, yearText(c.Year))
		writeParen(&b, c.Parenthetical)
	case *ShortCaseCitation:
		if c.AntecedentGuess != "" {
			b.WriteString(c.AntecedentGuess + ", ")
		}
		b.WriteString(CorrectedCitation(c))
	case *SupraCitation:
		if c.AntecedentGuess != "" {
			b.WriteString(c.AntecedentGuess + ", ")
		}
		if c.Volume != "" {
			b.WriteString(c.Volume + " ")
		}
		b.WriteString("supra")
		if c.PinCite != "" {
			b.WriteString(", " + c.PinCite)
		}
	case *IdCitation:
		b.WriteString("id.")
		if c.PinCite != "" {
			b.WriteString(", " + c.PinCite)
		}
	default:
		b.WriteString(c.Common().Text)
	}
	return b.String()
}

func writeParen(b *strings.Builder, parts ...string) {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) > 0 {
		b.WriteString(" (" + strings.Join(kept, " ") + ")")
	}
}

func yearText(year int) string {
	if year == 0 {
		return ""
	}
	return fmt.Sprint(year)
}
