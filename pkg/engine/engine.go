// Package engine wires the grammar, tokenizer, extractor, resolver and
// annotator together from a Config.
package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coolbeans/lexcite/pkg/annotate"
	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/clean"
	"github.com/coolbeans/lexcite/pkg/config"
	"github.com/coolbeans/lexcite/pkg/extract"
	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/logging"
	"github.com/coolbeans/lexcite/pkg/resolve"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

// Engine runs the citation pipeline. It is safe for concurrent use; a
// grammar reload takes effect for calls that start after it.
type Engine struct {
	cfg      *config.Config
	provider *grammar.Provider
	compiler *tokenize.Compiler
	cache    *tokenize.PlanCache
	logger   logging.Logger

	// served is the grammar whose plans the compiler currently holds.
	served atomic.Pointer[grammar.Grammar]

	citations *prometheus.CounterVec
}

type options struct {
	logger   logging.Logger
	reg      prometheus.Registerer
	provider *grammar.Provider
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger handed to every stage.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNop(l) }
}

// WithRegisterer registers the engine and tokenizer collectors on reg.
// Without it nothing is counted.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// WithGrammarProvider serves grammars from p instead of the one named by
// the configuration.
func WithGrammarProvider(p *grammar.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New builds an engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{cfg: cfg, logger: o.logger}

	compilerOpts := []tokenize.CompilerOption{tokenize.WithLogger(o.logger.Named("tokenize"))}
	if cfg.Tokenizer.CacheDir != "" {
		cache, err := tokenize.OpenPlanCache(cfg.Tokenizer.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening plan cache: %w", err)
		}
		e.cache = cache
		compilerOpts = append(compilerOpts, tokenize.WithPlanCache(cache))
	}
	if o.reg != nil {
		compilerOpts = append(compilerOpts, tokenize.WithMetrics(tokenize.NewMetrics(o.reg)))
		e.citations = promauto.With(o.reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lexcite_citations_extracted_total",
			Help: "Citations extracted, by kind.",
		}, []string{"kind"})
	}
	e.compiler = tokenize.NewCompiler(compilerOpts...)

	provider, err := e.openProvider(o.provider)
	if err != nil {
		return nil, err
	}
	e.provider = provider
	e.served.CompareAndSwap(nil, provider.Grammar())
	return e, nil
}

func (e *Engine) openProvider(p *grammar.Provider) (*grammar.Provider, error) {
	if p != nil {
		return p, nil
	}
	logger := e.logger.Named("grammar")
	if e.cfg.Grammar.Dir == "" {
		g, err := grammar.Default()
		if err != nil {
			return nil, fmt.Errorf("loading embedded grammar: %w", err)
		}
		return grammar.NewProvider(g, grammar.WithLogger(logger)), nil
	}

	p, err := grammar.NewDirectoryProvider(e.cfg.Grammar.Dir,
		grammar.WithLogger(logger),
		grammar.WithOnChange(e.grammarChanged))
	if err != nil {
		return nil, fmt.Errorf("loading grammar from %s: %w", e.cfg.Grammar.Dir, err)
	}
	if e.cfg.Grammar.Watch {
		if err := p.Watch(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (e *Engine) grammarChanged(g *grammar.Grammar) {
	if err := e.compiler.Warm(g, e.cfg.Strategy()); err != nil {
		e.logger.Warn("compiling reloaded grammar", logging.Err(err))
	}
	if old := e.served.Swap(g); old != nil && old != g {
		e.compiler.Forget(old)
	}
}

// Close stops the grammar watcher, if any.
func (e *Engine) Close() {
	e.provider.StopWatch()
}

// Grammar returns the grammar in use.
func (e *Engine) Grammar() *grammar.Grammar {
	return e.provider.Grammar()
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// PlanCache returns the disk plan cache, or nil when it is disabled.
func (e *Engine) PlanCache() *tokenize.PlanCache {
	return e.cache
}

// Warm compiles the current grammar for the given strategies, or for the
// configured one when none is given, filling the plan cache.
func (e *Engine) Warm(strategies ...tokenize.Strategy) error {
	if len(strategies) == 0 {
		strategies = []tokenize.Strategy{e.cfg.Strategy()}
	}
	return e.compiler.Warm(e.Grammar(), strategies...)
}

// Tokenizer returns a tokenizer for the current grammar.
func (e *Engine) Tokenizer() (tokenize.Tokenizer, error) {
	return e.tokenizer(e.Grammar())
}

func (e *Engine) tokenizer(g *grammar.Grammar) (tokenize.Tokenizer, error) {
	return tokenize.New(g,
		tokenize.WithStrategy(e.cfg.Strategy()),
		tokenize.WithCompiler(e.compiler))
}

func (e *Engine) extractor(g *grammar.Grammar) *extract.Extractor {
	return extract.New(g,
		extract.WithRemoveAmbiguous(e.cfg.Extract.RemoveAmbiguous),
		extract.WithMarkupAware(e.cfg.Extract.MarkupAware),
		extract.WithLogger(e.logger.Named("extract")))
}

// Find extracts the citations of plain text.
func (e *Engine) Find(text string) ([]citation.Citation, error) {
	g := e.Grammar()
	tok, err := e.tokenizer(g)
	if err != nil {
		return nil, err
	}
	cites := e.extractor(g).Extract(tok.Tokenize(text))
	e.count(cites)
	return cites, nil
}

// NewDocument cleans text with the named steps, treating it as HTML when
// markup is set.
func (e *Engine) NewDocument(text string, markup bool, steps ...string) (*extract.Document, error) {
	parsed, err := clean.Parse(steps)
	if err != nil {
		return nil, err
	}
	if markup {
		return extract.NewMarkupDocument(text, parsed...)
	}
	return extract.NewDocument(text, parsed...)
}

// FindDocument extracts the citations of doc. Spans index into doc.Plain.
func (e *Engine) FindDocument(doc *extract.Document) ([]citation.Citation, error) {
	g := e.Grammar()
	tok, err := e.tokenizer(g)
	if err != nil {
		return nil, err
	}
	cites := e.extractor(g).ExtractDocument(doc, tok)
	e.count(cites)
	return cites, nil
}

// Resolve groups citations using the configured pin window.
func (e *Engine) Resolve(cites []citation.Citation, opts ...resolve.Option) *resolve.Resolutions {
	base := []resolve.Option{
		resolve.WithMaxPinDelta(e.cfg.Resolve.MaxPinDelta),
		resolve.WithLogger(e.logger.Named("resolve")),
	}
	return resolve.Resolve(cites, append(base, opts...)...)
}

// Annotate applies instructions whose spans index into doc.Plain to
// doc.Source.
func (e *Engine) Annotate(doc *extract.Document, instructions []annotate.Instruction) (string, error) {
	projected := make([]annotate.Instruction, len(instructions))
	for i, in := range instructions {
		in.Span = doc.SourceSpan(in.Span)
		projected[i] = in
	}
	return annotate.Annotate(doc.Source, projected,
		annotate.WithOverlap(e.cfg.OverlapPolicy()),
		annotate.WithUnbalancedTags(e.cfg.TagPolicy()),
		annotate.WithLogger(e.logger.Named("annotate")))
}

// Instructions builds one instruction per citation that render accepts,
// covering the citation's matched text.
func Instructions(cites []citation.Citation, render func(c citation.Citation) (before, after string, ok bool)) []annotate.Instruction {
	var out []annotate.Instruction
	for _, c := range cites {
		before, after, ok := render(c)
		if !ok {
			continue
		}
		out = append(out, annotate.Instruction{Span: c.Common().Span, Before: before, After: after})
	}
	return out
}

func (e *Engine) count(cites []citation.Citation) {
	if e.citations == nil {
		return
	}
	for _, c := range cites {
		e.citations.WithLabelValues(string(c.Kind())).Inc()
	}
}
