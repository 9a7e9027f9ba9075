// Package tokenize turns text into a contiguous stream of tokens using the
// rules of a citation grammar.
//
// Rule matches are selected greedily from the left. At any offset the
// highest-priority rule wins, then the longest match, then the earliest
// rule in the grammar. Text between matches becomes plain word and
// whitespace tokens, so the token texts always concatenate back to the
// input.
package tokenize

import (
	"iter"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

// Tokenizer produces token streams. Implementations are safe for
// concurrent use.
type Tokenizer interface {
	// Tokenize returns a lazy sequence over text. Each range over the
	// sequence rescans text, and stopping early releases everything.
	Tokenize(text string) iter.Seq[Token]

	// Strategy reports the matching strategy in use.
	Strategy() Strategy
}

type options struct {
	strategy Strategy
	compiler *Compiler
}

// Option configures New.
type Option func(*options)

// WithStrategy selects the matching strategy. The default is
// StrategyFiltered.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithCompiler sets the compiler that builds and caches plans. The default
// is a process-wide compiler without a disk cache.
func WithCompiler(c *Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// New returns a tokenizer for g.
func New(g *grammar.Grammar, opts ...Option) (Tokenizer, error) {
	o := options{strategy: StrategyFiltered}
	for _, opt := range opts {
		opt(&o)
	}
	if o.compiler == nil {
		o.compiler = defaultCompiler
	}

	c, err := o.compiler.compile(g, o.strategy)
	if err != nil {
		return nil, err
	}

	switch o.strategy {
	case StrategySinglePass:
		return &SinglePassTokenizer{compiled: c}, nil
	default:
		return &FilteredTokenizer{compiled: c}, nil
	}
}

// Collect drains a token sequence into a slice.
func Collect(seq iter.Seq[Token]) []Token {
	var tokens []Token
	for tok := range seq {
		tokens = append(tokens, tok)
	}
	return tokens
}
