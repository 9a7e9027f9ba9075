package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexcite/pkg/annotate"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

const validConfigYAML = `
tokenizer:
  strategy: single_pass
  cache_dir: /tmp/lexcite-test
grammar:
  dir: ./grammar
  watch: true
extract:
  remove_ambiguous: true
resolve:
  max_pin_delta: 40
annotate:
  overlap: error
  unbalanced_tags: wrap
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexcite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, tokenize.StrategySinglePass, cfg.Strategy())
	assert.Equal(t, "/tmp/lexcite-test", cfg.Tokenizer.CacheDir)
	assert.Equal(t, "./grammar", cfg.Grammar.Dir)
	assert.True(t, cfg.Grammar.Watch)
	assert.True(t, cfg.Extract.RemoveAmbiguous)
	assert.True(t, cfg.Extract.MarkupAware, "unset keys keep their defaults")
	assert.Equal(t, 40, cfg.Resolve.MaxPinDelta)
	assert.Equal(t, annotate.OverlapError, cfg.OverlapPolicy())
	assert.Equal(t, annotate.TagsWrap, cfg.TagPolicy())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, tokenize.StrategyFiltered, cfg.Strategy())
	assert.Equal(t, DefaultCacheDir(), cfg.Tokenizer.CacheDir)
	assert.Equal(t, 150, cfg.Resolve.MaxPinDelta)
	assert.Equal(t, annotate.OverlapTrim, cfg.OverlapPolicy())
	assert.Equal(t, annotate.TagsUnchecked, cfg.TagPolicy())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEXCITE_TOKENIZER_STRATEGY", "single_pass")
	t.Setenv("LEXCITE_RESOLVE_MAX_PIN_DELTA", "12")
	t.Setenv("LEXCITE_EXTRACT_MARKUP_AWARE", "false")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, tokenize.StrategySinglePass, cfg.Strategy())
	assert.Equal(t, 12, cfg.Resolve.MaxPinDelta)
	assert.False(t, cfg.Extract.MarkupAware)

	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Resolve.MaxPinDelta)
	assert.Empty(t, cfg.Grammar.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"strategy", "tokenizer:\n  strategy: greedy\n", "tokenizer.strategy"},
		{"watch without dir", "grammar:\n  watch: true\n", "grammar.watch"},
		{"negative pin delta", "resolve:\n  max_pin_delta: -1\n", "max_pin_delta"},
		{"overlap", "annotate:\n  overlap: merge\n", "annotate.overlap"},
		{"tags", "annotate:\n  unbalanced_tags: fix\n", "annotate.unbalanced_tags"},
		{"log level", "log:\n  level: verbose\n", "log.level"},
		{"log format", "log:\n  format: xml\n", "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Extract.MarkupAware)
	assert.Equal(t, DefaultStrategy, cfg.Tokenizer.Strategy)
}
