// Package grammar provides the citation grammar: the reporter, law and
// journal editions, the pattern rules built from them, the special tokens
// (id, supra, stop words, sections, paragraph breaks) and the court table.
//
// A Grammar is immutable once built and safe for concurrent use.
package grammar

import (
	"regexp"
	"sort"
	"time"
)

// RuleKind identifies what a rule's matches become in the token stream.
type RuleKind int

const (
	KindCitation RuleKind = iota
	KindId
	KindSupra
	KindStopWord
	KindSection
	KindParagraph
)

var ruleKindNames = map[RuleKind]string{
	KindCitation:  "citation",
	KindId:        "id",
	KindSupra:     "supra",
	KindStopWord:  "stop_word",
	KindSection:   "section",
	KindParagraph: "paragraph",
}

func (k RuleKind) String() string {
	if name, ok := ruleKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseRuleKind converts a grammar file token kind into a RuleKind.
func ParseRuleKind(s string) (RuleKind, bool) {
	for kind, name := range ruleKindNames {
		if name == s {
			return kind, true
		}
	}
	return 0, false
}

// Source is the family of publication an edition belongs to.
type Source string

const (
	SourceCase    Source = "case"
	SourceLaw     Source = "law"
	SourceJournal Source = "journal"
)

// Edition is one series of a reporter, statute compilation or journal,
// for example "F.2d" of the Federal Reporter.
type Edition struct {
	Name        string
	ReporterKey string
	Reporter    string
	Source      Source
	CiteType    string
	Scotus      bool
	// Start and End are inclusive publication years. Zero means unbounded.
	Start int
	End   int
}

// IncludesYear reports whether the edition was published in year. Years
// in the future never match.
func (e *Edition) IncludesYear(year int) bool {
	if year > time.Now().Year() {
		return false
	}
	if e.Start != 0 && year < e.Start {
		return false
	}
	if e.End != 0 && year > e.End {
		return false
	}
	return true
}

// Rule is a compiled pattern that produces one kind of token.
type Rule struct {
	// Index is the rule's position in Grammar.Rules and the final
	// tie-breaker between equally ranked matches.
	Index    int
	Kind     RuleKind
	Source   Source
	Pattern  string
	Priority int
	Short    bool

	// Anchors are literals every match contains. A rule without anchors
	// cannot be prefiltered.
	Anchors  []string
	FoldCase bool

	ExactEditions     []*Edition
	VariationEditions []*Edition

	re         *regexp.Regexp
	anchored   *regexp.Regexp
	tokenGroup int
}

// Regexp returns the compiled pattern.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.re
}

// Anchored returns the pattern compiled to match only at the start of its
// input.
func (r *Rule) Anchored() *regexp.Regexp {
	return r.anchored
}

// TokenGroup returns the submatch index of the "token" group, or 0 when the
// whole match is the token.
func (r *Rule) TokenGroup() int {
	return r.tokenGroup
}

// Court is an entry of the court table used to normalize parenthetical
// court strings.
type Court struct {
	ID             string
	Name           string
	CitationString string
}

// Grammar is the immutable result of loading grammar documents.
type Grammar struct {
	Version     string
	Fingerprint string
	Rules       []*Rule
	Courts      []*Court

	editions   map[string][]*Edition
	courtIndex []courtEntry
}

// Editions returns every edition whose name or variation equals name.
func (g *Grammar) Editions(name string) []*Edition {
	return g.editions[name]
}

// EditionNames returns the sorted list of known edition names.
func (g *Grammar) EditionNames() []string {
	names := make([]string, 0, len(g.editions))
	for name := range g.editions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RulesOfKind returns the rules with the given kind in index order.
func (g *Grammar) RulesOfKind(kind RuleKind) []*Rule {
	var rules []*Rule
	for _, r := range g.Rules {
		if r.Kind == kind {
			rules = append(rules, r)
		}
	}
	return rules
}
