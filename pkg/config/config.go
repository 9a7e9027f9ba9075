// Package config loads lexcite settings from a YAML file and LEXCITE_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coolbeans/lexcite/pkg/annotate"
	"github.com/coolbeans/lexcite/pkg/logging"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

// Config is the full set of settings.
type Config struct {
	Tokenizer TokenizerConfig `mapstructure:"tokenizer" yaml:"tokenizer"`
	Grammar   GrammarConfig   `mapstructure:"grammar" yaml:"grammar"`
	Extract   ExtractConfig   `mapstructure:"extract" yaml:"extract"`
	Resolve   ResolveConfig   `mapstructure:"resolve" yaml:"resolve"`
	Annotate  AnnotateConfig  `mapstructure:"annotate" yaml:"annotate"`
	Log       logging.Config  `mapstructure:"log" yaml:"log"`
}

// TokenizerConfig selects the matching strategy and the plan cache.
type TokenizerConfig struct {
	// Strategy is "filtered" or "single_pass".
	Strategy string `mapstructure:"strategy" yaml:"strategy"`

	// CacheDir holds compiled plans. Empty disables the disk cache.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// GrammarConfig points at a grammar directory. Empty Dir uses the
// embedded grammar.
type GrammarConfig struct {
	Dir   string `mapstructure:"dir" yaml:"dir"`
	Watch bool   `mapstructure:"watch" yaml:"watch"`
}

type ExtractConfig struct {
	RemoveAmbiguous bool `mapstructure:"remove_ambiguous" yaml:"remove_ambiguous"`
	MarkupAware     bool `mapstructure:"markup_aware" yaml:"markup_aware"`
}

type ResolveConfig struct {
	MaxPinDelta int `mapstructure:"max_pin_delta" yaml:"max_pin_delta"`
}

type AnnotateConfig struct {
	// Overlap is "trim", "keep_first" or "error".
	Overlap string `mapstructure:"overlap" yaml:"overlap"`

	// UnbalancedTags is "unchecked", "skip" or "wrap".
	UnbalancedTags string `mapstructure:"unbalanced_tags" yaml:"unbalanced_tags"`
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, err := tokenize.ParseStrategy(c.Tokenizer.Strategy); err != nil {
		return fmt.Errorf("tokenizer.strategy: %w", err)
	}
	if c.Grammar.Watch && c.Grammar.Dir == "" {
		return errors.New("grammar.watch requires grammar.dir")
	}
	if c.Resolve.MaxPinDelta < 0 {
		return fmt.Errorf("resolve.max_pin_delta must not be negative, got %d", c.Resolve.MaxPinDelta)
	}
	if _, err := annotate.ParseOverlapPolicy(c.Annotate.Overlap); err != nil {
		return fmt.Errorf("annotate.overlap: %w", err)
	}
	if _, err := annotate.ParseTagPolicy(c.Annotate.UnbalancedTags); err != nil {
		return fmt.Errorf("annotate.unbalanced_tags: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Strategy returns the parsed tokenizer strategy. Call after Validate.
func (c *Config) Strategy() tokenize.Strategy {
	s, _ := tokenize.ParseStrategy(c.Tokenizer.Strategy)
	return s
}

// OverlapPolicy returns the parsed annotate.overlap. Call after Validate.
func (c *Config) OverlapPolicy() annotate.OverlapPolicy {
	p, _ := annotate.ParseOverlapPolicy(c.Annotate.Overlap)
	return p
}

// TagPolicy returns the parsed annotate.unbalanced_tags. Call after
// Validate.
func (c *Config) TagPolicy() annotate.TagPolicy {
	p, _ := annotate.ParseTagPolicy(c.Annotate.UnbalancedTags)
	return p
}

// DefaultCacheDir is lexcite/plans under the user cache directory, or
// empty when the platform has none.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lexcite", "plans")
}
