// Package clean prepares raw document text for citation extraction.
//
// Cleaning is a pipeline of pure steps. Running the same steps over the
// same input always yields the same output, which lets annotations found
// in cleaned text be projected back onto the source.
package clean

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Step is one named text transformation.
type Step struct {
	Name string
	fn   func(string) (string, error)
}

// Apply runs the step on text.
func (s Step) Apply(text string) (string, error) {
	if s.fn == nil {
		return "", fmt.Errorf("clean step %q has no function", s.Name)
	}
	return s.fn(text)
}

// Func wraps a custom transformation as a step.
func Func(name string, f func(string) string) Step {
	return Step{Name: name, fn: func(s string) (string, error) { return f(s), nil }}
}

var (
	// HTML keeps only the text a browser would render, joining text nodes
	// with single spaces.
	HTML = Step{Name: "html", fn: visibleText}

	// InlineWhitespace collapses runs of spaces and tabs into one space.
	InlineWhitespace = Func("inline_whitespace", func(s string) string {
		return inlineSpaceRe.ReplaceAllString(s, " ")
	})

	// AllWhitespace collapses every whitespace run, newlines included,
	// into one space.
	AllWhitespace = Func("all_whitespace", func(s string) string {
		return allSpaceRe.ReplaceAllString(s, " ")
	})

	// Underscores removes runs of two or more underscores, a common
	// artifact of text extracted from PDFs.
	Underscores = Func("underscores", func(s string) string {
		return underscoreRe.ReplaceAllString(s, "")
	})
)

var (
	inlineSpaceRe = regexp.MustCompile(`[ \t]+`)
	allSpaceRe    = regexp.MustCompile(`\s+`)
	underscoreRe  = regexp.MustCompile(`__+`)

	visibleTextExpr = xpath.MustCompile(`//text()[normalize-space() and not(parent::style | parent::link | parent::head | parent::script)]`)
)

var named = map[string]Step{
	HTML.Name:             HTML,
	InlineWhitespace.Name: InlineWhitespace,
	AllWhitespace.Name:    AllWhitespace,
	Underscores.Name:      Underscores,
}

// Names lists the built-in step names.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in step called name.
func Lookup(name string) (Step, error) {
	s, ok := named[name]
	if !ok {
		return Step{}, fmt.Errorf("unknown clean step %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Parse looks up each name in order.
func Parse(names []string) ([]Step, error) {
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// Text applies steps to text in order.
func Text(text string, steps ...Step) (string, error) {
	for _, s := range steps {
		out, err := s.Apply(text)
		if err != nil {
			return "", fmt.Errorf("clean step %s: %w", s.Name, err)
		}
		text = out
	}
	return text, nil
}

// HasStep reports whether steps contains a step called name.
func HasStep(steps []Step, name string) bool {
	for _, s := range steps {
		if s.Name == name {
			return true
		}
	}
	return false
}

func visibleText(markup string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}
	visible := make(map[*html.Node]bool)
	for _, n := range htmlquery.QuerySelectorAll(doc, visibleTextExpr) {
		visible[n] = true
	}

	// Query results are not in document order; walk the tree to restore it.
	parts := make([]string, 0, len(visible))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if visible[n] {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " "), nil
}
