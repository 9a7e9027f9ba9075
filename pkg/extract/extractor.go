// Package extract turns a token stream into citations.
//
// The extractor buffers the stream into an append-only arena and walks it
// once. For every citation-bearing token it looks a bounded distance
// backward for party names and antecedents and forward for pin cites,
// dates, courts and parentheticals. Extraction never fails: text that does
// not parse yields fewer citations, not an error.
package extract

import (
	"iter"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/logging"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

const (
	// backwardSeek bounds the tokens searched for a case name.
	backwardSeek = 28

	// maxMatchChars bounds the text matched before or after a token.
	maxMatchChars = 300
)

// Extractor finds citations in token streams. It is safe for concurrent
// use.
type Extractor struct {
	grammar         *grammar.Grammar
	removeAmbiguous bool
	markupAware     bool
	logger          logging.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRemoveAmbiguous drops resource citations whose reporter could not be
// narrowed to one edition.
func WithRemoveAmbiguous(remove bool) Option {
	return func(e *Extractor) { e.removeAmbiguous = remove }
}

// WithMarkupAware enables reference citations found through emphasis tags
// in markup documents.
func WithMarkupAware(aware bool) Option {
	return func(e *Extractor) { e.markupAware = aware }
}

// WithLogger sets the extractor's logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Extractor) { e.logger = logging.OrNop(l) }
}

// New returns an extractor that normalizes courts with g's court table.
func New(g *grammar.Grammar, opts ...Option) *Extractor {
	e := &Extractor{grammar: g, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the citations of a complete token stream in text order.
func (e *Extractor) Extract(tokens iter.Seq[tokenize.Token]) []citation.Citation {
	return e.run(tokens, nil)
}

// ExtractDocument tokenizes doc.Plain with tok and extracts its citations.
// Markup documents also yield reference citations when the extractor is
// markup aware.
func (e *Extractor) ExtractDocument(doc *Document, tok tokenize.Tokenizer) []citation.Citation {
	return e.run(tok.Tokenize(doc.Plain), doc)
}

// state is the per-call arena.
type state struct {
	e         *Extractor
	text      string
	origin    int
	tokens    []tokenize.Token
	citations []citation.Citation

	// floor is the end of the last citation's full span. Backward scans
	// never cross it.
	floor int
}

func (e *Extractor) run(tokens iter.Seq[tokenize.Token], doc *Document) []citation.Citation {
	s := &state{e: e}
	for t := range tokens {
		s.tokens = append(s.tokens, t)
	}
	s.text = tokenize.Join(s.tokens)
	if len(s.tokens) > 0 {
		s.origin = s.tokens[0].Start
	}

	for i := range s.tokens {
		var c citation.Citation
		switch s.tokens[i].Kind {
		case tokenize.Citation:
			c = s.citationToken(i)
		case tokenize.Id:
			c = s.id(i)
		case tokenize.Supra:
			c = s.supra(i)
		case tokenize.Section:
			c = s.unknown(i)
		default:
			continue
		}
		s.citations = append(s.citations, c)
		if end := c.Common().FullSpan.End; end > s.floor {
			s.floor = end
		}
	}

	s.linkParallel()
	if doc != nil && doc.Markup && e.markupAware {
		s.addReferences(doc)
	}

	out := s.citations
	if e.removeAmbiguous {
		out = removeAmbiguous(out)
		if dropped := len(s.citations) - len(out); dropped > 0 {
			e.logger.Debug("dropped ambiguous citations", logging.Int("count", dropped))
		}
	}
	return out
}

func removeAmbiguous(citations []citation.Citation) []citation.Citation {
	out := citations[:0:0]
	for _, c := range citations {
		if rc, ok := c.(citation.ResourceCitation); ok && rc.Resource().EditionGuess == nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *state) base(i int) citation.Base {
	t := s.tokens[i]
	span := citation.Span{Start: t.Start, End: t.End}
	groups := make(map[string]string, len(t.Groups))
	for k, v := range t.Groups {
		groups[k] = v
	}
	return citation.Base{Index: i, Text: t.Text, Span: span, FullSpan: span, Groups: groups}
}

func (s *state) unknown(i int) citation.Citation {
	return &citation.UnknownCitation{Base: s.base(i)}
}

// citationToken builds the citation for a reporter, code or journal match.
// Matches missing a group their kind requires become unknown citations.
func (s *state) citationToken(i int) citation.Citation {
	t := s.tokens[i]
	r := t.Rule
	if r == nil {
		return s.unknown(i)
	}

	source := sourceOf(r)
	required := []string{"reporter", "page"}
	if source == grammar.SourceLaw {
		required = []string{"section"}
	}
	for _, name := range required {
		if t.Groups[name] == "" {
			return s.unknown(i)
		}
	}

	b := s.base(i)
	rb := citation.ResourceBase{ExactEditions: r.ExactEditions, VariationEditions: r.VariationEditions}
	if page, ok := b.Groups["page"]; ok && citation.IsPlaceholderPage(page) {
		delete(b.Groups, "page")
		rb.PageMissing = true
	}

	switch {
	case source == grammar.SourceLaw:
		return s.fullLaw(&citation.FullLawCitation{Base: b, ResourceBase: rb})
	case source == grammar.SourceJournal:
		return s.fullJournal(&citation.FullJournalCitation{Base: b, ResourceBase: rb})
	case r.Short:
		return s.shortCase(&citation.ShortCaseCitation{Base: b, ResourceBase: rb}, b.Groups["page"])
	default:
		return s.fullCase(&citation.FullCaseCitation{Base: b, ResourceBase: rb})
	}
}

// sourceOf picks the citation family from the rule's editions, preferring
// exact editions and case reporters.
func sourceOf(r *grammar.Rule) grammar.Source {
	editions := r.ExactEditions
	if len(editions) == 0 {
		editions = r.VariationEditions
	}
	seen := make(map[grammar.Source]bool)
	for _, e := range editions {
		seen[e.Source] = true
	}
	for _, src := range []grammar.Source{grammar.SourceCase, grammar.SourceLaw, grammar.SourceJournal} {
		if seen[src] {
			return src
		}
	}
	if r.Source != "" {
		return r.Source
	}
	return grammar.SourceCase
}

// forwardFrom returns up to maxMatchChars of text starting at byte offset
// from. With stringsOnly the text ends at the first token that is not a
// plain word; otherwise only paragraph breaks and citation-bearing tokens
// end it.
func (s *state) forwardFrom(from int, stringsOnly bool) string {
	j := sort.Search(len(s.tokens), func(i int) bool { return s.tokens[i].End > from })
	var b strings.Builder
	for ; j < len(s.tokens); j++ {
		t := s.tokens[j]
		if t.Kind == tokenize.Paragraph || (stringsOnly && t.Kind != tokenize.PlainWord) || (!stringsOnly && citesSomething(t.Kind)) {
			break
		}
		text := t.Text
		if t.Start < from {
			text = text[from-t.Start:]
		}
		b.WriteString(text)
		if b.Len() >= maxMatchChars {
			break
		}
	}
	return truncate(b.String(), maxMatchChars)
}

func (s *state) forward(i int, stringsOnly bool) string {
	return s.forwardFrom(s.tokens[i].End, stringsOnly)
}

// backward returns up to maxMatchChars of plain text ending where token i
// starts. It stops at any other kind of token, a paragraph break, or the
// previous citation's full span.
func (s *state) backward(i int) string {
	var parts []string
	n := 0
	for j := i - 1; j >= 0; j-- {
		t := s.tokens[j]
		if t.Kind != tokenize.PlainWord || t.Start < s.floor {
			break
		}
		parts = append(parts, t.Text)
		n += len(t.Text)
		if n >= maxMatchChars {
			break
		}
	}
	var b strings.Builder
	for j := len(parts) - 1; j >= 0; j-- {
		b.WriteString(parts[j])
	}
	text := b.String()
	if len(text) > maxMatchChars {
		cut := len(text) - maxMatchChars
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}
		text = text[cut:]
	}
	return text
}

// between returns the text from byte offset start to end, or "" when the
// range is empty or outside the text.
func (s *state) between(start, end int) string {
	start, end = start-s.origin, end-s.origin
	if start < 0 || end > len(s.text) || start >= end {
		return ""
	}
	return s.text[start:end]
}

func citesSomething(k tokenize.Kind) bool {
	switch k {
	case tokenize.Citation, tokenize.Id, tokenize.Supra, tokenize.Reference:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
