package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/extract"
	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

func cite(t *testing.T, text string) []citation.Citation {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	tok, err := tokenize.New(g)
	require.NoError(t, err)
	return extract.New(g).Extract(tok.Tokenize(text))
}

func texts(g *Group) []string {
	out := make([]string, len(g.Citations))
	for i, c := range g.Citations {
		out[i] = c.Common().Text
	}
	return out
}

func assertTotal(t *testing.T, cites []citation.Citation, r *Resolutions) {
	t.Helper()
	seen := make(map[int]bool)
	for _, g := range r.Groups() {
		for _, i := range g.Indices {
			assert.False(t, seen[i], "citation %d in two groups", i)
			seen[i] = true
			assert.Same(t, g, r.GroupOf(i))
		}
	}
	assert.Len(t, seen, len(cites))
}

func TestResolveId(t *testing.T) {
	cites := cite(t, "1 U.S. 2. Id. at 3.")
	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"1 U.S. 2", "Id. at 3"}, texts(r.Groups()[0]))
	assert.Equal(t, "case:1|U.S.|2", r.Groups()[0].Resource.ResourceKey())
}

func TestResolveSupra(t *testing.T) {
	cites := cite(t, "Foo v. Bar, 1 U.S. 2 (1999). Foo, supra, at 5.")
	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 1, r.Len())
	assert.Len(t, r.Groups()[0].Citations, 2)
	assert.True(t, r.Groups()[0].Resolved)
}

func TestResolveShortCase(t *testing.T) {
	cites := cite(t, "Adarand Constructors, Inc. v. Peña, 515 U.S. 200, 227 (1995). Adarand, 515 U.S., at 241. Id. at 242.")
	require.Len(t, cites, 3)
	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, []int{0, 1, 2}, r.Groups()[0].Indices)
}

func TestResolveImplausiblePinBreaksChain(t *testing.T) {
	cites := cite(t, "Adarand Constructors, Inc. v. Peña, 515 U.S. 200 (1995). 515 U.S., at 400. Id. at 401.")
	require.Len(t, cites, 3)
	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 3, r.Len())
	assert.True(t, r.GroupOf(0).Resolved)
	assert.False(t, r.GroupOf(1).Resolved)
	assert.False(t, r.GroupOf(2).Resolved)
}

func TestResolveShortPrefersName(t *testing.T) {
	text := "Foo v. Bar, 515 U.S. 200 (1995). Baz v. Qux, 515 U.S. 210 (1995). " +
		"Foo, 515 U.S., at 215. See 515 U.S., at 216."
	cites := cite(t, text)
	require.Len(t, cites, 4)
	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 2, r.Len())

	assert.Same(t, r.GroupOf(0), r.GroupOf(2), "named short cite goes to Foo")
	assert.Same(t, r.GroupOf(1), r.GroupOf(3), "bare short cite goes to the nearest case")
}

func TestResolveUnknownClearsIdChain(t *testing.T) {
	cites := cite(t, "1 U.S. 2. See § 12. Id. at 3.")
	require.Equal(t, []citation.Kind{citation.KindFullCase, citation.KindUnknown, citation.KindId},
		[]citation.Kind{cites[0].Kind(), cites[1].Kind(), cites[2].Kind()})
	r := Resolve(cites)
	assertTotal(t, cites, r)
	assert.Equal(t, 3, r.Len())
	assert.False(t, r.GroupOf(2).Resolved)
}

func TestResolveMaxPinDelta(t *testing.T) {
	cites := cite(t, "1 U.S. 2. Id. at 30.")
	assert.Equal(t, 1, Resolve(cites).Len())
	assert.Equal(t, 2, Resolve(cites, WithMaxPinDelta(10)).Len())
}

func TestResolveReference(t *testing.T) {
	full := &citation.FullCaseCitation{
		Base:      citation.Base{Text: "410 U.S. 113", Groups: map[string]string{"volume": "410", "reporter": "U.S.", "page": "113"}},
		Plaintiff: "Roe",
		Defendant: "Wade",
	}
	roe := &citation.ReferenceCitation{Base: citation.Base{Text: "Roe"}, Name: "Roe"}
	doe := &citation.ReferenceCitation{Base: citation.Base{Text: "Doe"}, Name: "Doe"}
	cites := []citation.Citation{full, roe, doe}

	r := Resolve(cites)
	assertTotal(t, cites, r)
	require.Equal(t, 2, r.Len())
	g, ok := r.Lookup(Key("case:410|U.S.|113"))
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, g.Indices)
	assert.False(t, r.GroupOf(2).Resolved)
}

func TestResolveOverrides(t *testing.T) {
	cites := cite(t, "1 U.S. 2. Id. at 3. 5 U.S. 6.")
	require.Len(t, cites, 3)

	idCalls := 0
	r := Resolve(cites, WithOverrides(Overrides{
		Full: func(c citation.Citation, fallback FullFunc) Resource {
			return Key("everything")
		},
		Id: func(c *citation.IdCitation, h *History, fallback IdFunc) (Resource, bool) {
			idCalls++
			return fallback(c, h)
		},
	}))
	assertTotal(t, cites, r)
	assert.Equal(t, 1, idCalls)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "everything", r.Groups()[0].Resource.ResourceKey())
}

func TestResolveEmpty(t *testing.T) {
	r := Resolve(nil)
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.GroupOf(0))
}

func TestEntryHasName(t *testing.T) {
	e := &Entry{names: []string{"adarand constructors inc", "peña"}}
	assert.True(t, e.HasName("Adarand"))
	assert.True(t, e.HasName("Peña,"))
	assert.True(t, e.HasName("Constructors, Inc."))
	assert.False(t, e.HasName("Ada"))
	assert.False(t, e.HasName(""))
}
