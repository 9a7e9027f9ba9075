package tokenize

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/logging"
)

func defaultGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	return g
}

func TestCacheKey(t *testing.T) {
	g := defaultGrammar(t)
	a := CacheKey(g, StrategyFiltered)
	b := CacheKey(g, StrategySinglePass)
	assert.Len(t, a, keyLen)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey(g, StrategyFiltered))
}

func TestPlanCacheRoundTrip(t *testing.T) {
	g := defaultGrammar(t)
	cache, err := OpenPlanCache(filepath.Join(t.TempDir(), "plans"))
	require.NoError(t, err)

	key := CacheKey(g, StrategySinglePass)
	_, err = cache.Load(key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	plan, err := buildPlan(g, StrategySinglePass)
	require.NoError(t, err)
	stored, err := cache.Store(key, plan)
	require.NoError(t, err)
	assert.True(t, stored)

	loaded, err := cache.Load(key)
	require.NoError(t, err)
	assert.Equal(t, plan, loaded)

	info, err := os.Stat(cache.path(key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	n, err := cache.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = cache.Load(key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestPlanCacheRejectsSharedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	require.NoError(t, os.Mkdir(dir, 0700))
	require.NoError(t, os.Chmod(dir, 0777))

	_, err := OpenPlanCache(dir)
	assert.ErrorContains(t, err, "writable by group or others")
}

func TestDecodeBlobErrors(t *testing.T) {
	g := defaultGrammar(t)
	key := CacheKey(g, StrategyFiltered)
	plan, err := buildPlan(g, StrategyFiltered)
	require.NoError(t, err)
	blob, err := encodeBlob(key, plan)
	require.NoError(t, err)

	flipped := append([]byte(nil), blob...)
	flipped[len(flipped)-1] ^= 0xff

	tests := []struct {
		name string
		key  string
		blob []byte
		want string
	}{
		{"truncated", key, blob[:10], "truncated"},
		{"magic", key, append([]byte("XXXXXXXX"), blob[8:]...), "bad magic"},
		{"key", CacheKey(g, StrategySinglePass), blob, "key mismatch"},
		{"digest", key, flipped, "digest mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBlob(tt.key, tt.blob)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	decoded, err := decodeBlob(key, blob)
	require.NoError(t, err)
	assert.Equal(t, plan, decoded)
}

func TestCompilerUsesPlanCache(t *testing.T) {
	g := defaultGrammar(t)
	cache, err := OpenPlanCache(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	first := NewCompiler(WithPlanCache(cache), WithMetrics(metrics))
	require.NoError(t, first.Warm(g, StrategyFiltered, StrategySinglePass))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))

	second := NewCompiler(WithPlanCache(cache), WithMetrics(metrics))
	tok, err := New(g, WithStrategy(StrategySinglePass), WithCompiler(second))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))

	tokens := Collect(tok.Tokenize("1 U.S. 2. Id. at 3."))
	assert.Equal(t, Citation, tokens[0].Kind)
}

func TestCompilerRebuildsCorruptCache(t *testing.T) {
	g := defaultGrammar(t)
	cache, err := OpenPlanCache(t.TempDir())
	require.NoError(t, err)

	key := CacheKey(g, StrategyFiltered)
	require.NoError(t, os.WriteFile(cache.path(key), []byte("garbage that is not a plan blob at all, not even close to the header size"), 0600))

	core, logs := observer.New(zapcore.WarnLevel)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewCompiler(WithPlanCache(cache), WithMetrics(metrics), WithLogger(logging.NewFromCore(core)))

	tok, err := New(g, WithCompiler(c))
	require.NoError(t, err)
	assert.NotEmpty(t, Collect(tok.Tokenize("1 U.S. 2")))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("corrupt")))
	assert.Equal(t, 1, logs.FilterMessage("cached tokenizer plan unreadable, rebuilding").Len())

	// The rebuilt plan replaced the corrupt blob.
	plan, err := cache.Load(key)
	require.NoError(t, err)
	assert.Equal(t, g.Fingerprint, plan.Fingerprint)

	_, err = decodeBlob(key, []byte("short"))
	assert.Error(t, err)
}

func TestCompilerRejectsStalePlan(t *testing.T) {
	g := defaultGrammar(t)
	plan, err := buildPlan(g, StrategyFiltered)
	require.NoError(t, err)

	stale := *plan
	stale.Fingerprint = "0000"
	_, err = compilePlan(g, &stale)
	assert.ErrorContains(t, err, "plan built for grammar")

	other := *plan
	other.Format = planFormat + 1
	_, err = compilePlan(g, &other)
	assert.ErrorContains(t, err, "plan format")
}

func TestCompilerCompilesOnce(t *testing.T) {
	g := defaultGrammar(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewCompiler(WithMetrics(metrics))

	var wg sync.WaitGroup
	results := make([]*compiled, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.compile(g, StrategySinglePass)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		assert.Same(t, results[0], p)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.plansCompiled.WithLabelValues(string(StrategySinglePass))))

	assert.Equal(t, 1, c.Len())

	c.Forget(g)
	assert.Equal(t, 0, c.Len())
	p, err := c.compile(g, StrategySinglePass)
	require.NoError(t, err)
	assert.NotSame(t, results[0], p)
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	_, err := New(defaultGrammar(t), WithStrategy("bogus"), WithCompiler(NewCompiler()))
	assert.Error(t, err)
}
