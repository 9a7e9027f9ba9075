package resolve

import (
	"strings"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/grammar"
)

// Entry is a resource in the history together with the full citation that
// last named it.
type Entry struct {
	Resource Resource
	Full     citation.Citation

	// names are the normalized party names of Full.
	names []string
}

// HasName reports whether name, normalized, is a whole-word part of one
// of the entry's party names.
func (e *Entry) HasName(name string) bool {
	want := normalizeName(name)
	if want == "" {
		return false
	}
	for _, n := range e.names {
		if strings.Contains(" "+n+" ", " "+want+" ") {
			return true
		}
	}
	return false
}

// History is the state a resolution step sees: the full citations
// resolved so far and the resource of the previous citation.
type History struct {
	entries     []*Entry
	last        *Entry
	maxPinDelta int
}

// Recent returns the entries from the most recently cited to the least.
func (h *History) Recent() []*Entry {
	out := make([]*Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(out)-1-i] = e
	}
	return out
}

// Last returns the entry of the previous citation, or nil when it was
// not resolved.
func (h *History) Last() *Entry {
	return h.last
}

// PinPlausible reports whether pin can point into the case cited by full:
// its first page must lie between the case's first page and that page
// plus the plausibility window. Pins and pages that are not numbers pass.
func (h *History) PinPlausible(full citation.Citation, pin string) bool {
	if full == nil || pin == "" {
		return true
	}
	p, ok := citation.PinPage(pin)
	if !ok {
		return true
	}
	page, ok := citation.ParsePage(full.Common().Group("page"))
	if !ok {
		return true
	}
	return page <= p && p <= page+h.maxPinDelta
}

// push records a full citation of res, moving res to the most recent
// position.
func (h *History) push(res Resource, full citation.Citation) {
	key := res.ResourceKey()
	for i, e := range h.entries {
		if e.Resource.ResourceKey() == key {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, &Entry{Resource: res, Full: full, names: partyNames(full)})
}

// find returns the entry of res, or a bare entry when res never appeared
// in a full citation.
func (h *History) find(res Resource) *Entry {
	key := res.ResourceKey()
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Resource.ResourceKey() == key {
			return h.entries[i]
		}
	}
	return &Entry{Resource: res}
}

func partyNames(c citation.Citation) []string {
	fc, ok := c.(*citation.FullCaseCitation)
	if !ok {
		return nil
	}
	raw := []string{fc.Plaintiff, fc.Defendant, fc.AntecedentGuess}
	var names []string
	for _, n := range raw {
		if n = normalizeName(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func normalizeName(s string) string {
	return strings.ToLower(grammar.StripPunct(s))
}
