package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lexcite/pkg/grammar"
	"github.com/coolbeans/lexcite/pkg/tokenize"
)

func grammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Inspect and validate citation grammars",
	}
	cmd.AddCommand(grammarInfoCmd())
	cmd.AddCommand(grammarValidateCmd())
	return cmd
}

func grammarInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the version and contents of the grammar in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var g *grammar.Grammar
			if cfg.Grammar.Dir == "" {
				g, err = grammar.Default()
			} else {
				g, err = grammar.LoadDirectory(cfg.Grammar.Dir)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := "embedded"
			if cfg.Grammar.Dir != "" {
				source = cfg.Grammar.Dir
			}
			fmt.Fprintf(out, "Grammar:     %s\n", source)
			fmt.Fprintf(out, "Version:     %s\n", g.Version)
			fmt.Fprintf(out, "Fingerprint: %s\n", g.Fingerprint)
			fmt.Fprintf(out, "Editions:    %d\n", len(g.EditionNames()))
			fmt.Fprintf(out, "Courts:      %d\n", len(g.Courts))
			fmt.Fprintf(out, "Rules:       %d\n", len(g.Rules))
			for _, kind := range []grammar.RuleKind{
				grammar.KindCitation, grammar.KindId, grammar.KindSupra,
				grammar.KindStopWord, grammar.KindSection, grammar.KindParagraph,
			} {
				fmt.Fprintf(out, "  %-10s %d\n", kind, len(g.RulesOfKind(kind)))
			}
			return nil
		},
	}
}

func grammarValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Check a grammar directory for errors",
		Long: `Load every YAML file in a grammar directory, report structural and
pattern errors, and exit non-zero if there are any.

Example:
  lexcite grammar validate ./grammar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			g, err := grammar.LoadDirectory(args[0])
			if err != nil {
				var verrs grammar.ValidationErrors
				if errors.As(err, &verrs) {
					for _, v := range verrs {
						fmt.Fprintf(out, "  ✗ %s\n", v.Error())
					}
					return fmt.Errorf("grammar has %d error(s)", len(verrs))
				}
				return err
			}
			fmt.Fprintf(out, "✓ %s: %d rules, version %s\n", args[0], len(g.Rules), g.Version)
			return nil
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled tokenizer plan cache",
	}
	cmd.AddCommand(cacheWarmCmd())
	cmd.AddCommand(cacheClearCmd())
	return cmd
}

func cacheWarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Compile the grammar and store the plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, _ := cmd.Flags().GetStringSlice("strategies")
			strategies, err := parseStrategies(names)
			if err != nil {
				return err
			}

			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.PlanCache() == nil {
				return fmt.Errorf("plan cache is disabled (tokenizer.cache_dir is empty)")
			}
			if err := e.Warm(strategies...); err != nil {
				return fmt.Errorf("failed to compile grammar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warmed %d plan(s) in %s\n", max(len(strategies), 1), e.PlanCache().Dir())
			return nil
		},
	}
	cmd.Flags().StringSlice("strategies", []string{string(tokenize.StrategyFiltered), string(tokenize.StrategySinglePass)},
		"Strategies to compile")
	return cmd
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Tokenizer.CacheDir == "" {
				return fmt.Errorf("plan cache is disabled (tokenizer.cache_dir is empty)")
			}
			cache, err := tokenize.OpenPlanCache(cfg.Tokenizer.CacheDir)
			if err != nil {
				return err
			}
			removed, err := cache.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d plan(s) from %s\n", removed, cache.Dir())
			return nil
		},
	}
}
