package tokenize

import (
	"iter"
)

// SinglePassTokenizer scans with one alternation of every rule ordered by
// priority. The alternation finds each start offset and its
// highest-priority rule; rules of the same priority are then tried at that
// offset to find the longest match.
type SinglePassTokenizer struct {
	compiled *compiled
}

func (t *SinglePassTokenizer) Strategy() Strategy { return StrategySinglePass }

func (t *SinglePassTokenizer) Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		run(text, &singlePassScanner{c: t.compiled, text: text}, yield)
	}
}

type singlePassScanner struct {
	c    *compiled
	text string
}

func (s *singlePassScanner) next(pos int) (match, bool) {
	if s.c.combined == nil {
		return match{}, false
	}
	text := s.text
	for from := pos; from < len(text); {
		loc := s.c.combined.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			return match{}, false
		}
		start := from + loc[0]
		if start >= len(text) {
			return match{}, false
		}
		if !validStart(text, start) {
			from = advance(text, start)
			continue
		}

		k := 0
		for k < len(s.c.order) && loc[2*(k+1)] < 0 {
			k++
		}
		if k == len(s.c.order) {
			return match{}, false
		}

		var best match
		found := false
		for j := k; j < s.c.plan.TierEnd[k]; j++ {
			r := s.c.order[j]
			l := r.Anchored().FindStringSubmatchIndex(text[start:])
			if l == nil {
				continue
			}
			m := newMatch(r, start, l)
			if !found || better(m, best) {
				best, found = m, true
			}
		}
		if found {
			return best, true
		}
		// The alternation and the rule disagree, which only happens for
		// an empty-width quirk; move on rather than loop.
		from = advance(text, start)
	}
	return match{}, false
}
