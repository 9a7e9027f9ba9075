package extract

import (
	"sort"
	"strings"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/logging"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

// disallowedNames are party names too common to identify a case on their
// own: government parties and the surnames of U.S. attorneys general.
var disallowedNames = func() map[string]bool {
	names := []string{
		"state", "united states", "people", "commonwealth", "mass", "commissioner",
		"akerman", "ashcroft", "barr", "bates", "bell", "berrien", "biddle",
		"black", "bonaparte", "bork", "bradford", "breckinridge", "brewster",
		"brownell", "butler", "civiletti", "clark", "clifford", "crittenden",
		"cummings", "cushing", "daugherty", "devens", "evarts", "garland",
		"gilpin", "gonzales", "gregory", "griggs", "grundy", "harmon", "hoar",
		"holder", "jackson", "johnson", "katzenbach", "kennedy", "kleindienst",
		"knox", "legare", "levi", "lincoln", "lynch", "macveagh", "mason",
		"mcgranery", "mcgrath", "mckenna", "mcreynolds", "meese", "miller",
		"mitchell", "moody", "mukasey", "murphy", "nelson", "olney", "palmer",
		"pierrepont", "randolph", "reno", "richardson", "rodney", "rogers",
		"rush", "sargent", "saxbe", "sessions", "smith", "speed", "stanbery",
		"stanton", "stone", "taft", "taney", "thornburgh", "toucey",
		"wickersham", "williams", "wirt",
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()

// reference builds a reference citation for token t at index i and reads
// any pin cite after it.
func (s *state) reference(t tokenize.Token, i int) citation.Citation {
	span := citation.Span{Start: t.Start, End: t.End}
	c := &citation.ReferenceCitation{
		Base: citation.Base{Index: i, Text: t.Text, Span: span, FullSpan: span},
		Name: t.Word,
	}
	s.shortForm(&c.Base, "")
	return c
}

type referenceMatch struct {
	span   citation.Span
	source *citation.FullCaseCitation
}

// addReferences finds emphasized party names that repeat a full case
// citation's plaintiff or defendant later in the document. When a name
// follows several citations, the nearest preceding one owns it.
func (s *state) addReferences(doc *Document) {
	matches := make(map[citation.Span]referenceMatch)
	for _, c := range s.citations {
		fc, ok := c.(*citation.FullCaseCitation)
		if !ok {
			continue
		}
		names := referenceNames(fc)
		if len(names) == 0 {
			continue
		}
		for _, e := range doc.Emphasis {
			span := doc.PlainSpan(e.Span)
			if span.Start < fc.FullSpan.End {
				continue
			}
			text := s.between(span.Start, span.End)
			if text == "" || !names[strings.ToLower(grammar.StripPunct(text))] {
				continue
			}
			matches[span] = referenceMatch{span: span, source: fc}
		}
	}
	if len(matches) == 0 {
		return
	}

	spans := make([]citation.Span, 0, len(matches))
	for span := range matches {
		spans = append(spans, span)
	}
	sort.Slice(spans, func(a, b int) bool { return spans[a].Start < spans[b].Start })

	var refs []citation.Citation
	for _, span := range spans {
		if s.overlapsCitation(span) {
			continue
		}
		m := matches[span]
		i := sort.Search(len(s.tokens), func(k int) bool { return s.tokens[k].End > span.Start })
		name := s.between(span.Start, span.End)
		ref := s.reference(tokenize.Token{
			Kind:  tokenize.Reference,
			Start: span.Start,
			End:   span.End,
			Text:  name,
			Word:  name,
		}, i).(*citation.ReferenceCitation)
		ref.Plaintiff, ref.Defendant = m.source.Plaintiff, m.source.Defendant
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return
	}
	s.e.logger.Debug("found reference citations", logging.Int("count", len(refs)))

	s.citations = append(s.citations, refs...)
	sort.SliceStable(s.citations, func(a, b int) bool {
		return s.citations[a].Common().Span.Start < s.citations[b].Common().Span.Start
	})
}

// referenceNames returns the normalized party names of c that may be
// used as references.
func referenceNames(c *citation.FullCaseCitation) map[string]bool {
	names := make(map[string]bool)
	for _, n := range []string{c.Plaintiff, c.Defendant} {
		key := strings.ToLower(grammar.StripPunct(n))
		if key == "" || disallowedNames[key] {
			continue
		}
		names[key] = true
	}
	return names
}

func (s *state) overlapsCitation(span citation.Span) bool {
	for _, c := range s.citations {
		if c.Common().Span.Overlaps(span) {
			return true
		}
	}
	return false
}
