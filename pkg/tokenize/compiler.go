package tokenize

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/logging"
)

var defaultCompiler = NewCompiler()

// Compiler builds executable plans and keeps them for reuse. The first
// caller for a grammar and strategy compiles; concurrent callers wait for
// that result and everyone after reuses it.
type Compiler struct {
	cache   *PlanCache
	logger  logging.Logger
	metrics *Metrics

	group singleflight.Group
	mu    sync.RWMutex
	plans map[string]*compiled
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithPlanCache persists plans in cache.
func WithPlanCache(cache *PlanCache) CompilerOption {
	return func(c *Compiler) { c.cache = cache }
}

// WithLogger sets the compiler's logger.
func WithLogger(l logging.Logger) CompilerOption {
	return func(c *Compiler) { c.logger = logging.OrNop(l) }
}

// WithMetrics records cache and compile statistics.
func WithMetrics(m *Metrics) CompilerOption {
	return func(c *Compiler) { c.metrics = m }
}

// NewCompiler returns a compiler with no disk cache unless configured.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		logger: logging.NewNop(),
		plans:  make(map[string]*compiled),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warm compiles g for each strategy so later tokenizers start immediately
// and the plan cache is populated.
func (c *Compiler) Warm(g *grammar.Grammar, strategies ...Strategy) error {
	for _, s := range strategies {
		if _, err := c.compile(g, s); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops every in-memory plan built for g, typically after a grammar
// reload replaced it. Plans on disk are kept.
func (c *Compiler) Forget(g *grammar.Grammar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range []Strategy{StrategyFiltered, StrategySinglePass} {
		delete(c.plans, CacheKey(g, s))
	}
}

// Len returns the number of plans held in memory.
func (c *Compiler) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

func (c *Compiler) compile(g *grammar.Grammar, strategy Strategy) (*compiled, error) {
	if g == nil {
		return nil, fmt.Errorf("nil grammar")
	}
	key := CacheKey(g, strategy)

	c.mu.RLock()
	p, ok := c.plans[key]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		p, ok := c.plans[key]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		p, err := c.build(g, strategy, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.plans[key] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiled), nil
}

func (c *Compiler) build(g *grammar.Grammar, strategy Strategy, key string) (*compiled, error) {
	log := c.logger.With(logging.String("strategy", string(strategy)), logging.String("grammar", g.Version))

	if c.cache != nil {
		plan, err := c.cache.Load(key)
		switch {
		case err == nil:
			start := time.Now()
			p, cerr := compilePlan(g, plan)
			if cerr == nil {
				c.metrics.cacheLookup("hit")
				c.metrics.compiled(strategy, time.Since(start))
				log.Debug("loaded tokenizer plan from cache")
				return p, nil
			}
			c.metrics.cacheLookup("corrupt")
			log.Warn("cached tokenizer plan unusable, rebuilding",
				logging.Err(&CacheError{Path: c.cache.path(key), Err: cerr}))
		case errors.Is(err, ErrCacheMiss):
			c.metrics.cacheLookup("miss")
		default:
			c.metrics.cacheLookup("corrupt")
			log.Warn("cached tokenizer plan unreadable, rebuilding", logging.Err(err))
		}
	}

	start := time.Now()
	plan, err := buildPlan(g, strategy)
	if err != nil {
		return nil, fmt.Errorf("building %s plan: %w", strategy, err)
	}
	p, err := compilePlan(g, plan)
	if err != nil {
		return nil, fmt.Errorf("compiling %s plan: %w", strategy, err)
	}
	elapsed := time.Since(start)
	c.metrics.compiled(strategy, elapsed)
	log.Debug("compiled tokenizer plan", logging.Int("rules", len(g.Rules)), logging.Duration("elapsed", elapsed))

	if c.cache != nil {
		stored, err := c.cache.Store(key, plan)
		switch {
		case err != nil:
			log.Warn("storing tokenizer plan failed", logging.Err(err))
		case !stored:
			log.Debug("plan cache locked by another process, skipped store")
		}
	}
	return p, nil
}
