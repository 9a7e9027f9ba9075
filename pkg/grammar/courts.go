package grammar

import (
	"strings"
	"unicode"
)

type courtEntry struct {
	normalized string
	court      *Court
}

func indexCourts(courts []*Court) []courtEntry {
	entries := make([]courtEntry, 0, len(courts))
	for _, c := range courts {
		entries = append(entries, courtEntry{normalized: StripPunct(c.CitationString), court: c})
	}
	return entries
}

// CourtByParenthetical maps the court part of a citation parenthetical,
// such as "9th Cir." or "D. Mass.", to a court ID. An exact match on the
// punctuation-stripped citation string wins; otherwise the first court
// whose citation string starts with the parenthetical is used.
func (g *Grammar) CourtByParenthetical(paren string) (string, bool) {
	want := StripPunct(paren)
	if want == "" {
		return "", false
	}
	for _, e := range g.courtIndex {
		if e.normalized == want {
			return e.court.ID, true
		}
	}
	for _, e := range g.courtIndex {
		if strings.HasPrefix(e.normalized, want) {
			return e.court.ID, true
		}
	}
	return "", false
}

// StripPunct removes punctuation and collapses whitespace.
func StripPunct(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}
