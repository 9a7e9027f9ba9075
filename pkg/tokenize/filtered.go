package tokenize

import (
	"iter"
	"sort"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

// FilteredTokenizer runs only the rules whose anchor literals occur in the
// text. Candidate rules keep a cursor on their next match and the scan
// merges the cursors by start offset.
type FilteredTokenizer struct {
	compiled *compiled
}

func (t *FilteredTokenizer) Strategy() Strategy { return StrategyFiltered }

func (t *FilteredTokenizer) Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		sc := &filteredScanner{text: text}
		for _, r := range t.candidates(text) {
			sc.cursors = append(sc.cursors, cursor{rule: r})
		}
		run(text, sc, yield)
	}
}

// candidates returns the rules that can match text, in rule order.
func (t *FilteredTokenizer) candidates(text string) []*grammar.Rule {
	c := t.compiled
	seen := make(map[int]bool, len(c.plan.Unfiltered))
	for _, idx := range c.plan.Unfiltered {
		seen[idx] = true
	}
	if c.exact != nil {
		for _, m := range c.exact.FindAllOverlapping([]byte(text)) {
			for _, idx := range c.exactRules[m.PatternID] {
				seen[idx] = true
			}
		}
	}
	if c.folded != nil {
		for _, m := range c.folded.FindAllOverlapping([]byte(foldForFilter(text))) {
			for _, idx := range c.foldedRules[m.PatternID] {
				seen[idx] = true
			}
		}
	}

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	rules := make([]*grammar.Rule, len(indices))
	for i, idx := range indices {
		rules[i] = c.rules[idx]
	}
	return rules
}

type cursor struct {
	rule   *grammar.Rule
	m      match
	cached bool
	done   bool
}

type filteredScanner struct {
	text    string
	cursors []cursor
}

func (s *filteredScanner) next(pos int) (match, bool) {
	var best match
	found := false
	for i := range s.cursors {
		c := &s.cursors[i]
		if c.done {
			continue
		}
		if !c.cached || c.m.start < pos {
			m, ok := findFrom(c.rule, c.rule.Regexp(), s.text, pos)
			if !ok {
				c.done = true
				continue
			}
			c.m, c.cached = m, true
		}
		if !found || c.m.start < best.start || (c.m.start == best.start && better(c.m, best)) {
			best, found = c.m, true
		}
	}
	return best, found
}
