package extract

import (
	"regexp"
	"strings"

	"github.com/coolbeans/lexcite/pkg/align"
	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/clean"
)

// Document pairs the text handed to the tokenizer with the source text it
// was cleaned from.
type Document struct {
	// Plain is the cleaned text that is tokenized. Citation spans index
	// into it.
	Plain string

	// Source is the text as the caller supplied it. Annotations are
	// inserted here.
	Source string

	// Markup is set when Source is HTML.
	Markup bool

	// Emphasis lists the <i> and <em> elements of a markup source, with
	// spans into Source covering the element text.
	Emphasis []Emphasis

	toSource *align.Updater
	toPlain  *align.Updater
}

// Emphasis is one emphasized run of a markup document.
type Emphasis struct {
	Text string
	Span citation.Span
}

var (
	emphasisRe = regexp.MustCompile(`(?is)<(em|i)(?:\s[^>]*)?>(.*?)</(em|i)\s*>`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

// NewDocument cleans text with steps. Source is the original text.
func NewDocument(text string, steps ...clean.Step) (*Document, error) {
	plain, err := clean.Text(text, steps...)
	if err != nil {
		return nil, err
	}
	d := &Document{Plain: plain, Source: text}
	if plain != text {
		d.toSource = align.New(plain, text)
		d.toPlain = align.New(text, plain)
	}
	return d, nil
}

// NewMarkupDocument cleans HTML. The html step runs first even when steps
// does not name it.
func NewMarkupDocument(markup string, steps ...clean.Step) (*Document, error) {
	if !clean.HasStep(steps, clean.HTML.Name) {
		steps = append([]clean.Step{clean.HTML}, steps...)
	}
	plain, err := clean.Text(markup, steps...)
	if err != nil {
		return nil, err
	}
	d := &Document{
		Plain:  plain,
		Source: markup,
		Markup: true,
		// Tags are masked with same-length placeholders before diffing so
		// attribute text cannot align with the plain text.
		toSource: align.New(plain, placeholderMarkup(markup)),
		toPlain:  align.New(markup, plain),
	}
	d.Emphasis = findEmphasis(markup)
	return d, nil
}

// SourceSpan projects a span of Plain onto Source.
func (d *Document) SourceSpan(s citation.Span) citation.Span {
	if d.toSource == nil {
		return s
	}
	start, end := d.toSource.UpdateSpan(s.Start, s.End)
	return citation.Span{Start: start, End: end}
}

// PlainSpan projects a span of Source onto Plain.
func (d *Document) PlainSpan(s citation.Span) citation.Span {
	if d.toPlain == nil {
		return s
	}
	start, end := d.toPlain.UpdateSpan(s.Start, s.End)
	return citation.Span{Start: start, End: end}
}

func placeholderMarkup(markup string) string {
	return tagRe.ReplaceAllStringFunc(markup, func(tag string) string {
		if len(tag) <= 2 {
			return tag
		}
		return "<" + strings.Repeat("X", len(tag)-2) + ">"
	})
}

func findEmphasis(markup string) []Emphasis {
	var out []Emphasis
	for _, m := range emphasisRe.FindAllStringSubmatchIndex(markup, -1) {
		openTag, closeTag := markup[m[2]:m[3]], markup[m[6]:m[7]]
		if !strings.EqualFold(openTag, closeTag) {
			continue
		}
		inner := markup[m[4]:m[5]]
		trimmed := strings.TrimSpace(inner)
		if trimmed == "" || strings.Contains(trimmed, "<") {
			continue
		}
		start := m[4] + strings.Index(inner, trimmed)
		out = append(out, Emphasis{
			Text: trimmed,
			Span: citation.Span{Start: start, End: start + len(trimmed)},
		})
	}
	return out
}
