package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/coolbeans/lexcite/pkg/resolve"
)

const envPrefix = "LEXCITE"

// Defaults for settings left unset by the file and the environment.
const (
	DefaultStrategy       = "filtered"
	DefaultOverlap        = "trim"
	DefaultUnbalancedTags = "unchecked"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// newViper returns a viper reading YAML with LEXCITE_ environment
// overrides, so tokenizer.cache_dir is also LEXCITE_TOKENIZER_CACHE_DIR.
// Every key has a default, which is what lets AutomaticEnv see it during
// Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tokenizer.strategy", DefaultStrategy)
	v.SetDefault("tokenizer.cache_dir", DefaultCacheDir())
	v.SetDefault("grammar.dir", "")
	v.SetDefault("grammar.watch", false)
	v.SetDefault("extract.remove_ambiguous", false)
	v.SetDefault("extract.markup_aware", true)
	v.SetDefault("resolve.max_pin_delta", resolve.DefaultMaxPinDelta)
	v.SetDefault("annotate.overlap", DefaultOverlap)
	v.SetDefault("annotate.unbalanced_tags", DefaultUnbalancedTags)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Default returns the configuration used when there is no file and no
// LEXCITE_ variable is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads the YAML file at path, applies LEXCITE_ overrides and
// validates the result. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	return finalize(v)
}

// LoadFromEnv builds a Config from defaults and LEXCITE_ variables.
func LoadFromEnv() (*Config, error) {
	return finalize(newViper())
}

func finalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}
