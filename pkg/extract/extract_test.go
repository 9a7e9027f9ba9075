package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/clean"
	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

func setup(t testing.TB) (*grammar.Grammar, tokenize.Tokenizer) {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	tok, err := tokenize.New(g)
	require.NoError(t, err)
	return g, tok
}

func extract(t testing.TB, text string, opts ...Option) []citation.Citation {
	t.Helper()
	g, tok := setup(t)
	return New(g, opts...).Extract(tok.Tokenize(text))
}

func kinds(cites []citation.Citation) []citation.Kind {
	out := make([]citation.Kind, len(cites))
	for i, c := range cites {
		out[i] = c.Kind()
	}
	return out
}

func assertSpansSound(t testing.TB, text string, cites []citation.Citation) {
	t.Helper()
	for _, c := range cites {
		b := c.Common()
		require.True(t, b.Span.Start >= 0 && b.Span.End <= len(text) && b.Span.Start <= b.Span.End, "span %v out of range", b.Span)
		assert.Equal(t, text[b.Span.Start:b.Span.End], b.Text)
		assert.True(t, b.FullSpan.Contains(b.Span), "full span %v does not contain %v", b.FullSpan, b.Span)
	}
}

func TestFullCaseCitation(t *testing.T) {
	text := "Bush v. Gore, 531 U.S. 98, 99-100 (2000)"
	cites := extract(t, text)
	require.Len(t, cites, 1)
	assertSpansSound(t, text, cites)

	c, ok := cites[0].(*citation.FullCaseCitation)
	require.True(t, ok)
	assert.Equal(t, "531 U.S. 98", c.Text)
	assert.Equal(t, "Bush", c.Plaintiff)
	assert.Equal(t, "Gore", c.Defendant)
	assert.Equal(t, "99-100", c.PinCite)
	assert.Equal(t, "99-100", text[c.PinCiteSpan.Start:c.PinCiteSpan.End])
	assert.Equal(t, 2000, c.Year)
	assert.Equal(t, "scotus", c.Court)
	assert.Equal(t, citation.Span{Start: 0, End: len(text)}, c.FullSpan)
	assert.Equal(t, "531", c.Group("volume"))
	assert.Equal(t, "98", c.Group("page"))
	require.NotNil(t, c.EditionGuess)
	assert.Equal(t, "U.S.", c.EditionGuess.Name)
}

func TestCourtAndParenthetical(t *testing.T) {
	text := "Smith v. Jones, 100 F.3d 200, 205 (9th Cir. 1996) (holding that foo)."
	cites := extract(t, text)
	require.Len(t, cites, 1)
	assertSpansSound(t, text, cites)

	c := cites[0].(*citation.FullCaseCitation)
	assert.Equal(t, "ca9", c.Court)
	assert.Equal(t, 1996, c.Year)
	assert.Equal(t, "205", c.PinCite)
	assert.Equal(t, "holding that foo", c.Parenthetical)
	assert.Equal(t, len(text)-1, c.FullSpan.End)
}

func TestCorporatePlaintiff(t *testing.T) {
	text := "Adarand Constructors, Inc. v. Peña, 515 U.S. 200, 227 (1995). Adarand, 515 U.S., at 241."
	cites := extract(t, text)
	require.Equal(t, []citation.Kind{citation.KindFullCase, citation.KindShortCase}, kinds(cites))
	assertSpansSound(t, text, cites)

	full := cites[0].(*citation.FullCaseCitation)
	assert.Equal(t, "Adarand Constructors, Inc.", full.Plaintiff)
	assert.Equal(t, "Peña", full.Defendant)
	assert.Equal(t, 0, full.FullSpan.Start)

	short := cites[1].(*citation.ShortCaseCitation)
	assert.Equal(t, "Adarand", short.AntecedentGuess)
	assert.Equal(t, "241", short.PinCite)
	assert.Equal(t, "scotus", short.Court)
	assert.Equal(t, "Adarand, 515 U.S., at 241", text[short.FullSpan.Start:short.FullSpan.End])
}

func TestIdCitation(t *testing.T) {
	text := "1 U.S. 2. Id. at 3."
	cites := extract(t, text)
	require.Equal(t, []citation.Kind{citation.KindFullCase, citation.KindId}, kinds(cites))
	assertSpansSound(t, text, cites)

	id := cites[1]
	assert.Equal(t, "Id. at 3", id.Common().Text)
	assert.Equal(t, "at 3", id.Common().PinCite)
	assert.Equal(t, citation.Span{Start: 10, End: 18}, id.Common().Span)
}

func TestSupraCitation(t *testing.T) {
	text := "Foo v. Bar, 1 U.S. 2 (1999). Foo, supra, at 5."
	cites := extract(t, text)
	require.Equal(t, []citation.Kind{citation.KindFullCase, citation.KindSupra}, kinds(cites))
	assertSpansSound(t, text, cites)

	full := cites[0].(*citation.FullCaseCitation)
	assert.Equal(t, "Foo", full.Plaintiff)
	assert.Equal(t, "Bar", full.Defendant)
	assert.Equal(t, 1999, full.Year)

	supra := cites[1].(*citation.SupraCitation)
	assert.Equal(t, "Foo", supra.AntecedentGuess)
	assert.Equal(t, "at 5", supra.PinCite)
	assert.Equal(t, "supra, at 5", supra.Text)
	assert.Equal(t, "Foo, supra, at 5", text[supra.FullSpan.Start:supra.FullSpan.End])
}

func TestEditionGuessUsesYear(t *testing.T) {
	tests := []struct {
		text string
		key  string
	}{
		{"20 Wash. 30 (1795)", "Wash. (Va.)"},
		{"20 Wash. 30 (1920)", "Wash."},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cites := extract(t, tt.text)
			require.Len(t, cites, 1)
			c := cites[0].(*citation.FullCaseCitation)
			require.NotNil(t, c.EditionGuess)
			assert.Equal(t, tt.key, c.EditionGuess.ReporterKey)
		})
	}
}

func TestRemoveAmbiguous(t *testing.T) {
	text := "20 Wash. 30 and 1 U.S. 2"
	kept := extract(t, text)
	require.Len(t, kept, 2)
	assert.Nil(t, kept[0].(*citation.FullCaseCitation).EditionGuess)

	filtered := extract(t, text, WithRemoveAmbiguous(true))
	require.Len(t, filtered, 1)
	assert.Equal(t, "1 U.S. 2", filtered[0].Common().Text)
}

func TestParallelCitations(t *testing.T) {
	text := "Roe v. Wade, 410 U.S. 113, 153, 93 S. Ct. 705 (1973)."
	cites := extract(t, text)
	require.Len(t, cites, 2)
	assertSpansSound(t, text, cites)

	for _, c := range cites {
		fc := c.(*citation.FullCaseCitation)
		assert.Equal(t, "Roe", fc.Plaintiff)
		assert.Equal(t, "Wade", fc.Defendant)
		assert.Equal(t, 1973, fc.Year)
		assert.Equal(t, "scotus", fc.Court)
		assert.Equal(t, citation.Span{Start: 0, End: len(text) - 1}, fc.FullSpan)
	}
	assert.Equal(t, "153", cites[0].Common().PinCite)
}

func TestLawCitation(t *testing.T) {
	text := "Under 42 U.S.C. § 1983(a) (2018) relief is available."
	cites := extract(t, text)
	require.Len(t, cites, 1)
	assertSpansSound(t, text, cites)

	c, ok := cites[0].(*citation.FullLawCitation)
	require.True(t, ok)
	assert.Equal(t, "42", c.Group("title"))
	assert.Equal(t, "1983", c.Group("section"))
	assert.Equal(t, "(a)", c.PinCite)
	assert.Equal(t, 2018, c.Year)
	assert.Equal(t, "42 U.S.C. § 1983(a) (2018)", text[c.FullSpan.Start:c.FullSpan.End])
	assert.Equal(t, "law:42|U.S.C.|1983", citation.Identity(c))
}

func TestJournalCitation(t *testing.T) {
	text := "Note, 99 Harv. L. Rev. 1000, 1005 (1986)."
	cites := extract(t, text)
	require.Len(t, cites, 1)
	assertSpansSound(t, text, cites)

	c, ok := cites[0].(*citation.FullJournalCitation)
	require.True(t, ok)
	assert.Equal(t, "1005", c.PinCite)
	assert.Equal(t, 1986, c.Year)
	require.NotNil(t, c.EditionGuess)
	assert.Equal(t, "Harv. L. Rev.", c.EditionGuess.Name)
}

func TestSectionIsUnknown(t *testing.T) {
	cites := extract(t, "See § 12 of the act.")
	require.Equal(t, []citation.Kind{citation.KindUnknown}, kinds(cites))
	assert.Equal(t, "§", cites[0].Common().Text)
}

func TestPlaceholderPage(t *testing.T) {
	cites := extract(t, "Trump v. Hawaii, 585 U.S. ___ (2018)")
	require.Len(t, cites, 1)
	c := cites[0].(*citation.FullCaseCitation)
	assert.True(t, c.PageMissing)
	assert.Empty(t, c.Group("page"))
	assert.Equal(t, 2018, c.Year)
}

func TestNoCitations(t *testing.T) {
	assert.Empty(t, extract(t, ""))
	assert.Empty(t, extract(t, "Nothing to see here, just v. words."))
}

func TestMarkupReferences(t *testing.T) {
	g, tok := setup(t)
	markup := "<p><i>Roe</i> v. <i>Wade</i>, 410 U.S. 113 (1973). Later, <i>Roe</i> at 120.</p>"
	doc, err := NewMarkupDocument(markup, clean.InlineWhitespace)
	require.NoError(t, err)

	plain := New(g).ExtractDocument(doc, tok)
	assert.Equal(t, []citation.Kind{citation.KindFullCase}, kinds(plain))

	cites := New(g, WithMarkupAware(true)).ExtractDocument(doc, tok)
	require.Equal(t, []citation.Kind{citation.KindFullCase, citation.KindReference}, kinds(cites))
	assertSpansSound(t, doc.Plain, cites)

	ref := cites[1].(*citation.ReferenceCitation)
	assert.Equal(t, "Roe", ref.Name)
	assert.Equal(t, "Roe", ref.Plaintiff)
	assert.Equal(t, "Wade", ref.Defendant)
	assert.Equal(t, "at 120", ref.PinCite)
}

func TestDisallowedReferenceNames(t *testing.T) {
	fc := &citation.FullCaseCitation{Plaintiff: "United States", Defendant: "Jones, Inc."}
	names := referenceNames(fc)
	assert.False(t, names["united states"])
	assert.True(t, names["jones inc"])
}

func TestExtractionIsDeterministic(t *testing.T) {
	text := "See Roe v. Wade, 410 U.S. 113, 153 (1973); see also Doe v. Bolton, 410 U.S. 179 (1973). Id. at 180."
	a := extract(t, text)
	b := extract(t, text)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, citation.Dump(a[i]), citation.Dump(b[i]))
	}
	assertSpansSound(t, text, a)
}

func FuzzExtract(f *testing.F) {
	for _, seed := range []string{
		"Bush v. Gore, 531 U.S. 98, 99-100 (2000)",
		"1 U.S. 2. Id. at 3.",
		"Foo, supra, at 5 (quoting (nested) text",
		"42 U.S.C. § 1983(a)(1) et seq. (West 2018)",
		"1 U.S., at 5; 10 F. Supp. 2d 300, 301; 20 Wash. 30 (1795).",
		"v. v. v. 1 U.S. 2, 3 U.S. 4, , 5 U.S. 6 (",
	} {
		f.Add(seed)
	}
	g, tok := setup(f)
	e := New(g)
	f.Fuzz(func(t *testing.T, text string) {
		cites := e.Extract(tok.Tokenize(text))
		assertSpansSound(t, text, cites)
	})
}
