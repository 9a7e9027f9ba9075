package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
		in    string
		want  string
	}{
		{"inline whitespace", []string{"inline_whitespace"}, "a  \t b\n\nc", "a b\n\nc"},
		{"all whitespace", []string{"all_whitespace"}, "a  \t b\n\nc", "a b c"},
		{"underscores", []string{"underscores"}, "585 U.S. ___ and a_b", "585 U.S.  and a_b"},
		{"html", []string{"html"}, "<p>1   U.S. 2</p>", "1   U.S. 2"},
		{"html then whitespace", []string{"html", "inline_whitespace"}, "<p>1   U.S. 2</p>", "1 U.S. 2"},
		{
			"html hides scripts and styles",
			[]string{"html", "all_whitespace"},
			"<html><head><style>p{}</style></head><body><script>var x;</script><p>Foo <i>v.</i> Bar</p></body></html>",
			"Foo v. Bar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := Parse(tt.steps)
			require.NoError(t, err)
			got, err := Text(tt.in, steps...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTMLKeepsDocumentOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Foo <i>v.</i> Bar</p>", "Foo v. Bar"},
		{"<p><i>Roe</i> v. <i>Wade</i>, 410 U.S. 113 (1973).</p>", "Roe v. Wade , 410 U.S. 113 (1973)."},
		{"<div><b>1 <em>U.S.</em></b> 2<p>Id. <i>at</i> 3</p></div>", "1 U.S. 2 Id. at 3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Text(tt.in, HTML, AllWhitespace)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomStep(t *testing.T) {
	upper := Func("upper", strings.ToUpper)
	got, err := Text("id. at 3", upper, InlineWhitespace)
	require.NoError(t, err)
	assert.Equal(t, "ID. AT 3", got)
	assert.True(t, HasStep([]Step{upper}, "upper"))
	assert.False(t, HasStep([]Step{upper}, "html"))
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("ocr")
	assert.ErrorContains(t, err, "unknown clean step")

	_, err = Step{Name: "empty"}.Apply("x")
	assert.Error(t, err)
	assert.Equal(t, []string{"all_whitespace", "html", "inline_whitespace", "underscores"}, Names())
}

func TestTextIsDeterministic(t *testing.T) {
	in := "<div>Foo v. Bar, <b>1 U.S. 2</b>\n\n(1999)</div>"
	a, err := Text(in, HTML, AllWhitespace)
	require.NoError(t, err)
	b, err := Text(in, HTML, AllWhitespace)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
