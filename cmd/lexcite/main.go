package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lexcite/pkg/config"
	"github.com/coolbeans/lexcite/pkg/engine"
	"github.com/coolbeans/lexcite/pkg/logging"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lexcite",
		Short: "Find, resolve and annotate legal citations",
		Long: `Lexcite finds legal citations in plain text and HTML.

It recognizes:
  - Full case, statute and journal citations
  - Short case, supra and id citations
  - Reference citations to a case name in emphasized markup

and can group citations by the case they refer to or insert markup
around them in the original document.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Config file (YAML); LEXCITE_* variables override it")
	root.PersistentFlags().String("strategy", "", "Tokenizer strategy (filtered, single_pass)")
	root.PersistentFlags().String("grammar", "", "Grammar directory (default: embedded grammar)")

	root.AddCommand(findCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(annotateCmd())
	root.AddCommand(cleanCmd())
	root.AddCommand(grammarCmd())
	root.AddCommand(cacheCmd())
	return root
}

// loadConfig reads the config file named by --config and applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		cfg.Tokenizer.Strategy = s
	}
	if dir, _ := cmd.Flags().GetString("grammar"); dir != "" {
		cfg.Grammar.Dir = dir
	}
	// One-shot commands never watch.
	cfg.Grammar.Watch = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return e, nil
}

// readInput returns the contents of the file named by args, or of stdin
// when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func parseStrategies(names []string) ([]tokenize.Strategy, error) {
	var out []tokenize.Strategy
	for _, name := range names {
		s, err := tokenize.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
