// Package annotate inserts markup around spans of a text.
//
// Spans usually come from citations found in cleaned text. When the markup
// belongs in the original document instead, WithSourceText projects every
// span onto the source through a character diff before inserting.
package annotate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coolbeans/lexcite/pkg/align"
	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/logging"
)

// Instruction asks for Before and After to be inserted around Span. When
// Annotator is set it replaces the default rendering of before + text +
// after.
type Instruction struct {
	Span      citation.Span
	Before    string
	After     string
	Annotator func(before, text, after string) string
}

// OverlapPolicy decides what happens to an instruction whose span overlaps
// an earlier one.
type OverlapPolicy int

const (
	// OverlapTrim moves the later span's start to the earlier span's end
	// and drops it when nothing is left.
	OverlapTrim OverlapPolicy = iota
	// OverlapKeepFirst drops the later instruction.
	OverlapKeepFirst
	// OverlapError fails with a *ConflictError.
	OverlapError
)

var overlapNames = map[string]OverlapPolicy{
	"trim":       OverlapTrim,
	"keep_first": OverlapKeepFirst,
	"skip":       OverlapKeepFirst,
	"error":      OverlapError,
}

// ParseOverlapPolicy converts "trim", "keep_first" (or "skip") and "error".
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	p, ok := overlapNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown overlap policy %q", s)
	}
	return p, nil
}

// TagPolicy decides what happens when a span would split HTML elements.
type TagPolicy int

const (
	// TagsUnchecked inserts without looking at markup.
	TagsUnchecked TagPolicy = iota
	// TagsSkip leaves spans with unbalanced tags unannotated.
	TagsSkip
	// TagsWrap closes and reopens the annotation around every tag inside
	// the span.
	TagsWrap
)

var tagNames = map[string]TagPolicy{
	"unchecked": TagsUnchecked,
	"skip":      TagsSkip,
	"wrap":      TagsWrap,
}

// ParseTagPolicy converts "unchecked", "skip" and "wrap".
func ParseTagPolicy(s string) (TagPolicy, error) {
	p, ok := tagNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown unbalanced tag policy %q", s)
	}
	return p, nil
}

// ErrConflict is matched by every *ConflictError.
var ErrConflict = errors.New("overlapping annotations")

// ErrSpan reports an instruction span outside the text.
var ErrSpan = errors.New("annotation span out of range")

// ConflictError reports two overlapping instructions under OverlapError.
type ConflictError struct {
	First  citation.Span
	Second citation.Span
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("annotation [%d,%d) overlaps [%d,%d)", e.Second.Start, e.Second.End, e.First.Start, e.First.End)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

type options struct {
	overlap OverlapPolicy
	tags    TagPolicy
	source  *string
	logger  logging.Logger
}

// Option configures Annotate.
type Option func(*options)

// WithOverlap sets the overlap policy. The default is OverlapTrim.
func WithOverlap(p OverlapPolicy) Option {
	return func(o *options) { o.overlap = p }
}

// WithUnbalancedTags sets the tag policy. The default is TagsUnchecked.
func WithUnbalancedTags(p TagPolicy) Option {
	return func(o *options) { o.tags = p }
}

// WithSourceText inserts into src instead of the annotated text. Spans
// are projected from the text onto src.
func WithSourceText(src string) Option {
	return func(o *options) { o.source = &src }
}

// WithLogger sets the logger used to report skipped instructions.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNop(l) }
}

// Annotate applies instructions to text and returns the result. Spans
// index into text.
func Annotate(text string, instructions []Instruction, opts ...Option) (string, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := make([]Instruction, len(instructions))
	copy(ordered, instructions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Span.Start != ordered[j].Span.Start {
			return ordered[i].Span.Start < ordered[j].Span.Start
		}
		return ordered[i].Span.End < ordered[j].Span.End
	})

	kept, err := applyOverlap(text, ordered, o)
	if err != nil {
		return "", err
	}

	target := text
	var updater *align.Updater
	if o.source != nil && *o.source != text {
		target = *o.source
		updater = align.New(text, target)
	}

	var b strings.Builder
	b.Grow(len(target))
	last := 0
	for _, in := range kept {
		start, end := in.Span.Start, in.Span.End
		if updater != nil {
			start, end = updater.UpdateSpan(start, end)
		}
		// Projection can pull neighbouring spans together.
		if start < last {
			start = last
		}
		if start > end {
			continue
		}

		span := target[start:end]
		switch o.tags {
		case TagsSkip:
			start, end = balanceStyleTags(target, start, end)
			span = target[start:end]
			if start < last || !Balanced(span) {
				o.logger.Warn("skipping annotation with unbalanced tags",
					logging.Int("start", start), logging.Int("end", end))
				continue
			}
		case TagsWrap:
			if !Balanced(span) {
				span = wrapTags(span, in.Before, in.After)
			}
		}

		b.WriteString(target[last:start])
		if in.Annotator != nil {
			b.WriteString(in.Annotator(in.Before, span, in.After))
		} else {
			b.WriteString(in.Before)
			b.WriteString(span)
			b.WriteString(in.After)
		}
		last = end
	}
	b.WriteString(target[last:])
	return b.String(), nil
}

// applyOverlap validates spans against text and resolves overlaps between
// consecutive instructions.
func applyOverlap(text string, ordered []Instruction, o options) ([]Instruction, error) {
	kept := ordered[:0:0]
	var prev citation.Span
	for _, in := range ordered {
		s := in.Span
		if s.Start < 0 || s.End > len(text) || s.Start > s.End {
			return nil, fmt.Errorf("%w: [%d,%d) in text of length %d", ErrSpan, s.Start, s.End, len(text))
		}
		if len(kept) > 0 && s.Start < prev.End {
			switch o.overlap {
			case OverlapError:
				return nil, &ConflictError{First: prev, Second: s}
			case OverlapKeepFirst:
				o.logger.Debug("dropping overlapping annotation",
					logging.Int("start", s.Start), logging.Int("end", s.End))
				continue
			default:
				if prev.End >= s.End {
					continue
				}
				in.Span.Start = prev.End
			}
		}
		kept = append(kept, in)
		prev = in.Span
	}
	return kept, nil
}

// wrapTags closes the annotation before every tag in span and reopens it
// after, so that the inserted markup nests inside the existing elements.
func wrapTags(span, before, after string) string {
	return tagRe.ReplaceAllStringFunc(span, func(tag string) string {
		return after + tag + before
	})
}
