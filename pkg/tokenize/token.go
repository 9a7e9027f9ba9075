package tokenize

import (
	"strings"
	"unicode"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

// Kind tags the variant of a Token.
type Kind int

const (
	PlainWord Kind = iota
	StopWord
	Citation
	Paragraph
	Id
	Supra
	Section
	Reference
)

var kindNames = [...]string{
	PlainWord: "plain",
	StopWord:  "stop_word",
	Citation:  "citation",
	Paragraph: "paragraph",
	Id:        "id",
	Supra:     "supra",
	Section:   "section",
	Reference: "reference",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one element of the token stream. Start and End are byte offsets
// into the tokenized text, and Text is text[Start:End].
type Token struct {
	Kind  Kind
	Start int
	End   int
	Text  string

	// Rule is the grammar rule that produced the token. It is nil for
	// plain words and reference tokens.
	Rule *grammar.Rule

	// Groups holds the named capture groups of the rule match that took
	// part in the match, keyed by group name.
	Groups map[string]string

	// Word is the normalized stop word for StopWord tokens, or the party
	// name for Reference tokens.
	Word string
}

// IsSpace reports whether the token is a whitespace run.
func (t Token) IsSpace() bool {
	if t.Kind != PlainWord || t.Text == "" {
		return false
	}
	return strings.TrimFunc(t.Text, unicode.IsSpace) == ""
}

func kindForRule(r *grammar.Rule) Kind {
	switch r.Kind {
	case grammar.KindId:
		return Id
	case grammar.KindSupra:
		return Supra
	case grammar.KindStopWord:
		return StopWord
	case grammar.KindSection:
		return Section
	case grammar.KindParagraph:
		return Paragraph
	default:
		return Citation
	}
}

// Join concatenates token texts. For a complete stream it reproduces the
// tokenized text.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}
