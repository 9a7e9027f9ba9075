package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/clean"
	"github.com/coolbeans/lexcite/pkg/engine"
	"github.com/coolbeans/lexcite/pkg/extract"
	"github.com/coolbeans/lexcite/pkg/link"
)

// addDocumentFlags registers the flags that control how input is cleaned.
func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("html", false, "Treat input as HTML")
	cmd.Flags().StringSlice("clean", []string{}, "Clean steps to apply ("+strings.Join(clean.Names(), ", ")+")")
}

// loadDocument reads the input and cleans it per the document flags.
func loadDocument(cmd *cobra.Command, e *engine.Engine, args []string) (*extract.Document, error) {
	text, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	markup, _ := cmd.Flags().GetBool("html")
	steps, _ := cmd.Flags().GetStringSlice("clean")
	doc, err := e.NewDocument(text, markup, steps...)
	if err != nil {
		return nil, fmt.Errorf("failed to clean input: %w", err)
	}
	return doc, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func findCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [file]",
		Short: "List the citations in a document",
		Long: `List every citation found in a document, in text order.

Reads stdin when no file is given. Spans index into the cleaned text.

Example:
  lexcite find opinion.txt
  lexcite find --html --clean inline_whitespace --format json opinion.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")

			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := loadDocument(cmd, e, args)
			if err != nil {
				return err
			}
			cites, err := e.FindDocument(doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch formatStr {
			case "text":
				for _, c := range cites {
					b := c.Common()
					fmt.Fprintf(out, "%-12s %6d-%-6d %s", c.Kind(), b.Span.Start, b.Span.End, b.Text)
					if corrected := citation.CorrectedCitation(c); corrected != b.Text {
						fmt.Fprintf(out, " => %s", corrected)
					}
					if u := link.URL(c); u != "" {
						fmt.Fprintf(out, " <%s>", u)
					}
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "\n%d citation(s)\n", len(cites))
			case "json":
				dumped := make([]map[string]any, len(cites))
				for i, c := range cites {
					dumped[i] = citation.Dump(c)
				}
				return writeJSON(out, dumped)
			default:
				return fmt.Errorf("unknown format: %s (use text or json)", formatStr)
			}
			return nil
		},
	}
	addDocumentFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	return cmd
}

// groupView is the JSON form of one resolved group.
type groupView struct {
	Resource  string           `json:"resource"`
	Resolved  bool             `json:"resolved"`
	Citations []map[string]any `json:"citations"`
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Group citations by the case or statute they refer to",
		Long: `Find citations and group short, supra, id and reference citations
with the full citation they point back to.

Example:
  lexcite resolve opinion.txt
  lexcite resolve --format json opinion.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")

			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := loadDocument(cmd, e, args)
			if err != nil {
				return err
			}
			cites, err := e.FindDocument(doc)
			if err != nil {
				return err
			}
			r := e.Resolve(cites)

			out := cmd.OutOrStdout()
			switch formatStr {
			case "text":
				for _, g := range r.Groups() {
					label := g.Resource.ResourceKey()
					if !g.Resolved {
						label = "(unresolved)"
					}
					fmt.Fprintf(out, "%s\n", label)
					for _, c := range g.Citations {
						fmt.Fprintf(out, "  %-12s %s\n", c.Kind(), c.Common().Text)
					}
				}
				fmt.Fprintf(out, "\n%d citation(s) in %d group(s)\n", len(cites), r.Len())
			case "json":
				views := make([]groupView, 0, r.Len())
				for _, g := range r.Groups() {
					v := groupView{Resource: g.Resource.ResourceKey(), Resolved: g.Resolved}
					for _, c := range g.Citations {
						v.Citations = append(v.Citations, citation.Dump(c))
					}
					views = append(views, v)
				}
				return writeJSON(out, views)
			default:
				return fmt.Errorf("unknown format: %s (use text or json)", formatStr)
			}
			return nil
		},
	}
	addDocumentFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	return cmd
}

// expandTemplate replaces {text}, {corrected}, {kind}, {key} and {url} in
// tmpl.
func expandTemplate(tmpl string, c citation.Citation) string {
	return strings.NewReplacer(
		"{text}", c.Common().Text,
		"{corrected}", citation.CorrectedCitation(c),
		"{kind}", string(c.Kind()),
		"{key}", citation.Identity(c),
		"{url}", link.URL(c),
	).Replace(tmpl)
}

func annotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate [file]",
		Short: "Insert markup around citations",
		Long: `Insert text before and after every citation and print the annotated
document. Annotations are placed in the original input, so HTML keeps
its markup.

The before and after strings may use {text}, {corrected}, {kind}, {key}
and {url}. {url} is the official online text of U.S. Code and C.F.R.
citations and empty for everything else.

Example:
  lexcite annotate --before '<cite data-key="{key}">' --after '</cite>' --html opinion.html
  lexcite annotate --kinds full_case,short_case opinion.txt
  lexcite annotate --kinds full_law --before '<a href="{url}">' --after '</a>' brief.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _ := cmd.Flags().GetString("before")
			after, _ := cmd.Flags().GetString("after")
			kinds, _ := cmd.Flags().GetStringSlice("kinds")

			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := loadDocument(cmd, e, args)
			if err != nil {
				return err
			}
			cites, err := e.FindDocument(doc)
			if err != nil {
				return err
			}

			wanted := make(map[string]bool, len(kinds))
			for _, k := range kinds {
				wanted[k] = true
			}
			instructions := engine.Instructions(cites, func(c citation.Citation) (string, string, bool) {
				if len(wanted) > 0 && !wanted[string(c.Kind())] {
					return "", "", false
				}
				return expandTemplate(before, c), expandTemplate(after, c), true
			})

			annotated, err := e.Annotate(doc, instructions)
			if err != nil {
				return fmt.Errorf("failed to annotate: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), annotated)
			return nil
		},
	}
	addDocumentFlags(cmd)
	cmd.Flags().String("before", "<cite>", "Text inserted before each citation")
	cmd.Flags().String("after", "</cite>", "Text inserted after each citation")
	cmd.Flags().StringSlice("kinds", []string{}, "Only annotate these citation kinds (empty annotates all)")
	return cmd
}

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Print the cleaned text that citations are found in",
		Long: `Apply clean steps to a document and print the result.

Steps: ` + strings.Join(clean.Names(), ", ") + `

Example:
  lexcite clean --steps html,all_whitespace opinion.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, _ := cmd.Flags().GetStringSlice("steps")

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			steps, err := clean.Parse(names)
			if err != nil {
				return err
			}
			cleaned, err := clean.Text(text, steps...)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cleaned)
			return nil
		},
	}
	cmd.Flags().StringSlice("steps", []string{"html", "inline_whitespace"}, "Clean steps in order")
	return cmd
}
