package annotate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexcite/pkg/citation"
)

func span(start, end int) citation.Span {
	return citation.Span{Start: start, End: end}
}

func link(start, end int) Instruction {
	return Instruction{Span: span(start, end), Before: "<a>", After: "</a>"}
}

func TestAnnotateRoundTrip(t *testing.T) {
	text := "Foo v. Bar, 1 U.S. 2 (1999). Id. at 3."

	got, err := Annotate(text, nil)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	empty := []Instruction{{Span: span(12, 20)}, {Span: span(29, 37)}}
	for _, p := range []TagPolicy{TagsUnchecked, TagsSkip, TagsWrap} {
		got, err := Annotate(text, empty, WithUnbalancedTags(p))
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestAnnotateInsertsAtSpans(t *testing.T) {
	text := "1 U.S. 2. Id. at 3."
	got, err := Annotate(text, []Instruction{link(10, 18), link(0, 8)})
	require.NoError(t, err)
	assert.Equal(t, "<a>1 U.S. 2</a>. <a>Id. at 3</a>.", got)
}

func TestAnnotateOverlap(t *testing.T) {
	text := "abcdefghij"
	overlapping := []Instruction{link(0, 5), link(3, 8)}

	_, err := Annotate(text, overlapping, WithOverlap(OverlapError))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, span(0, 5), conflict.First)
	assert.Equal(t, span(3, 8), conflict.Second)

	got, err := Annotate(text, overlapping, WithOverlap(OverlapKeepFirst))
	require.NoError(t, err)
	assert.Equal(t, "<a>abcde</a>fghij", got)

	got, err = Annotate(text, overlapping)
	require.NoError(t, err)
	assert.Equal(t, "<a>abcde</a><a>fgh</a>ij", got)

	got, err = Annotate(text, []Instruction{link(0, 8), link(2, 4)})
	require.NoError(t, err)
	assert.Equal(t, "<a>abcdefgh</a>ij", got)
}

func TestAnnotateSpanOutOfRange(t *testing.T) {
	_, err := Annotate("short", []Instruction{link(2, 50)})
	assert.True(t, errors.Is(err, ErrSpan))

	_, err = Annotate("short", []Instruction{link(4, 2)})
	assert.True(t, errors.Is(err, ErrSpan))
}

func TestAnnotateSourceText(t *testing.T) {
	source := "<p>1   U.S. 2</p>"
	plain := "1 U.S. 2"

	got, err := Annotate(plain, []Instruction{link(0, 8)}, WithSourceText(source))
	require.NoError(t, err)
	assert.Equal(t, "<p><a>1   U.S. 2</a></p>", got)

	got, err = Annotate(plain, []Instruction{link(2, 6)}, WithSourceText(source))
	require.NoError(t, err)
	assert.Equal(t, "<p>1   <a>U.S.</a> 2</p>", got)
}

func TestAnnotateSourceTextUnchanged(t *testing.T) {
	text := "1 U.S. 2"
	got, err := Annotate(text, []Instruction{link(0, 8)}, WithSourceText(text))
	require.NoError(t, err)
	assert.Equal(t, "<a>1 U.S. 2</a>", got)
}

func TestAnnotateTagPolicies(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		span   citation.Span
		policy TagPolicy
		want   string
	}{
		{
			name:   "unchecked splits elements",
			text:   "foo <i>bar baz</i> qux",
			span:   span(7, 22),
			policy: TagsUnchecked,
			want:   "foo <i><a>bar baz</i> qux</a>",
		},
		{
			name:   "wrap reopens around tags",
			text:   "foo <i>bar baz</i> qux",
			span:   span(7, 22),
			policy: TagsWrap,
			want:   "foo <i><a>bar baz</a></i><a> qux</a>",
		},
		{
			name:   "skip stretches over a nearby style tag",
			text:   "foo <i>bar baz</i> qux",
			span:   span(7, 22),
			policy: TagsSkip,
			want:   "foo <a><i>bar baz</i> qux</a>",
		},
		{
			name:   "skip leaves unbalanced block tags alone",
			text:   "<p>foo</p><p>bar</p>",
			span:   span(3, 16),
			policy: TagsSkip,
			want:   "<p>foo</p><p>bar</p>",
		},
		{
			name:   "balanced spans are annotated normally",
			text:   "<p>foo <b>bar</b></p>",
			span:   span(3, 17),
			policy: TagsSkip,
			want:   "<p><a>foo <b>bar</b></a></p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Annotate(tt.text, []Instruction{link(tt.span.Start, tt.span.End)}, WithUnbalancedTags(tt.policy))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotateCustomAnnotator(t *testing.T) {
	in := Instruction{
		Span:   span(4, 12),
		Before: "[",
		After:  "]",
		Annotator: func(before, text, after string) string {
			return before + strings.ToUpper(text) + after
		},
	}
	got, err := Annotate("see 1 u.s. 2 here", []Instruction{in})
	require.NoError(t, err)
	assert.Equal(t, "see [1 U.S. 2] here", got)
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"plain text", true},
		{"a <b>c</b> d", true},
		{"<P>x</p>", true},
		{"line<br>break<br/>", true},
		{`<img src="x.png"/>`, true},
		{"<!-- <p> -->", true},
		{"<!DOCTYPE html>", true},
		{"a < b", true},
		{"<p>", false},
		{"</p>", false},
		{"<i><b></i></b>", false},
		{`<a href="x">y</a>`, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Balanced(tt.in), tt.in)
	}
}

func TestParsePolicies(t *testing.T) {
	p, err := ParseOverlapPolicy("Error")
	require.NoError(t, err)
	assert.Equal(t, OverlapError, p)
	p, err = ParseOverlapPolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, OverlapKeepFirst, p)
	_, err = ParseOverlapPolicy("merge")
	assert.Error(t, err)

	tp, err := ParseTagPolicy("wrap")
	require.NoError(t, err)
	assert.Equal(t, TagsWrap, tp)
	_, err = ParseTagPolicy("fix")
	assert.Error(t, err)
}
