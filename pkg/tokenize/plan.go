package tokenize

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

// Strategy selects how rules are matched. Both strategies produce the same
// token stream.
type Strategy string

const (
	// StrategyFiltered prefilters rules with an Aho-Corasick automaton over
	// their anchor literals and runs only the rules whose anchors occur.
	StrategyFiltered Strategy = "filtered"

	// StrategySinglePass compiles every rule into one alternation and scans
	// the text once.
	StrategySinglePass Strategy = "single_pass"
)

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.ReplaceAll(s, "-", "_"))) {
	case StrategyFiltered, "":
		return StrategyFiltered, nil
	case StrategySinglePass, "singlepass":
		return StrategySinglePass, nil
	}
	return "", fmt.Errorf("unknown tokenizer strategy %q", s)
}

// planFormat is bumped whenever Plan changes shape.
const planFormat = 1

// AnchorEntry maps an anchor literal to the rules that carry it.
type AnchorEntry struct {
	Literal string
	Rules   []int
}

// Plan is the serializable part of a compiled strategy. It is derived
// from the grammar alone and persisted in the plan cache.
type Plan struct {
	Format         int
	Strategy       Strategy
	GrammarVersion string
	Fingerprint    string
	RuleCount      int

	// Filtered strategy.
	Exact      []AnchorEntry
	Folded     []AnchorEntry
	Unfiltered []int

	// Single-pass strategy. Order lists rule indices by priority, highest
	// first; TierEnd[k] is one past the last position in Order with the
	// same priority as Order[k].
	Order    []int
	TierEnd  []int
	Combined string
}

func buildPlan(g *grammar.Grammar, strategy Strategy) (*Plan, error) {
	p := &Plan{
		Format:         planFormat,
		Strategy:       strategy,
		GrammarVersion: g.Version,
		Fingerprint:    g.Fingerprint,
		RuleCount:      len(g.Rules),
	}

	switch strategy {
	case StrategyFiltered:
		exact := make(map[string][]int)
		folded := make(map[string][]int)
		for _, r := range g.Rules {
			if len(r.Anchors) == 0 {
				p.Unfiltered = append(p.Unfiltered, r.Index)
				continue
			}
			for _, a := range r.Anchors {
				if r.FoldCase {
					key := foldForFilter(a)
					folded[key] = append(folded[key], r.Index)
				} else {
					exact[a] = append(exact[a], r.Index)
				}
			}
		}
		p.Exact = anchorEntries(exact)
		p.Folded = anchorEntries(folded)

	case StrategySinglePass:
		order := make([]int, len(g.Rules))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return g.Rules[order[a]].Priority > g.Rules[order[b]].Priority
		})
		p.Order = order
		p.TierEnd = make([]int, len(order))
		for k := len(order) - 1; k >= 0; k-- {
			if k == len(order)-1 || g.Rules[order[k]].Priority != g.Rules[order[k+1]].Priority {
				p.TierEnd[k] = k + 1
			} else {
				p.TierEnd[k] = p.TierEnd[k+1]
			}
		}

		alternatives := make([]string, len(order))
		for k, idx := range order {
			stripped, err := stripCaptures(g.Rules[idx].Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", idx, err)
			}
			alternatives[k] = "(" + stripped + ")"
		}
		p.Combined = strings.Join(alternatives, "|")

	default:
		return nil, fmt.Errorf("unknown tokenizer strategy %q", strategy)
	}

	return p, nil
}

func anchorEntries(m map[string][]int) []AnchorEntry {
	literals := make([]string, 0, len(m))
	for lit := range m {
		literals = append(literals, lit)
	}
	sort.Strings(literals)
	entries := make([]AnchorEntry, len(literals))
	for i, lit := range literals {
		entries[i] = AnchorEntry{Literal: lit, Rules: m[lit]}
	}
	return entries
}

// stripCaptures rewrites pattern with every capture group made
// non-capturing, so the combined expression has exactly one group per
// rule.
func stripCaptures(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	var strip func(*syntax.Regexp) *syntax.Regexp
	strip = func(n *syntax.Regexp) *syntax.Regexp {
		for n.Op == syntax.OpCapture {
			n = n.Sub[0]
		}
		for i, sub := range n.Sub {
			n.Sub[i] = strip(sub)
		}
		return n
	}
	return strip(re).String(), nil
}

// foldForFilter maps every rune to the smallest member of its case
// folding orbit, so a literal and any text the (?i) pattern would accept
// map to the same bytes.
func foldForFilter(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && r != 'k' && r != 'K' && r != 's' && r != 'S' {
			if 'a' <= r && r <= 'z' {
				return r - 'a' + 'A'
			}
			return r
		}
		smallest := r
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f < smallest {
				smallest = f
			}
		}
		return smallest
	}, s)
}

// compiled is a Plan made executable against its grammar. It is immutable
// and shared by every tokenizer using the same grammar and strategy.
type compiled struct {
	plan  *Plan
	rules []*grammar.Rule

	exact       *ahocorasick.Automaton
	exactRules  [][]int
	folded      *ahocorasick.Automaton
	foldedRules [][]int

	combined *regexp.Regexp
	order    []*grammar.Rule
}

func compilePlan(g *grammar.Grammar, p *Plan) (*compiled, error) {
	if p.Format != planFormat {
		return nil, fmt.Errorf("plan format %d, want %d", p.Format, planFormat)
	}
	if p.GrammarVersion != g.Version || p.Fingerprint != g.Fingerprint || p.RuleCount != len(g.Rules) {
		return nil, fmt.Errorf("plan built for grammar %s/%.12s", p.GrammarVersion, p.Fingerprint)
	}

	c := &compiled{plan: p, rules: g.Rules}
	inRange := func(indices []int) error {
		for _, idx := range indices {
			if idx < 0 || idx >= len(g.Rules) {
				return fmt.Errorf("rule index %d out of range", idx)
			}
		}
		return nil
	}

	switch p.Strategy {
	case StrategyFiltered:
		if err := inRange(p.Unfiltered); err != nil {
			return nil, err
		}
		var err error
		if c.exact, c.exactRules, err = buildAutomaton(p.Exact, inRange); err != nil {
			return nil, err
		}
		if c.folded, c.foldedRules, err = buildAutomaton(p.Folded, inRange); err != nil {
			return nil, err
		}

	case StrategySinglePass:
		if len(p.Order) != len(g.Rules) || len(p.TierEnd) != len(p.Order) {
			return nil, fmt.Errorf("plan order covers %d of %d rules", len(p.Order), len(g.Rules))
		}
		if err := inRange(p.Order); err != nil {
			return nil, err
		}
		c.order = make([]*grammar.Rule, len(p.Order))
		for k, idx := range p.Order {
			c.order[k] = g.Rules[idx]
			if p.TierEnd[k] <= k || p.TierEnd[k] > len(p.Order) {
				return nil, fmt.Errorf("invalid tier bound at %d", k)
			}
		}
		if len(p.Order) > 0 {
			re, err := regexp.Compile(p.Combined)
			if err != nil {
				return nil, fmt.Errorf("compiling combined expression: %w", err)
			}
			if re.NumSubexp() != len(p.Order) {
				return nil, fmt.Errorf("combined expression has %d groups, want %d", re.NumSubexp(), len(p.Order))
			}
			c.combined = re
		}

	default:
		return nil, fmt.Errorf("unknown tokenizer strategy %q", p.Strategy)
	}

	return c, nil
}

func buildAutomaton(entries []AnchorEntry, check func([]int) error) (*ahocorasick.Automaton, [][]int, error) {
	if len(entries) == 0 {
		return nil, nil, nil
	}
	literals := make([]string, len(entries))
	rules := make([][]int, len(entries))
	for i, e := range entries {
		if err := check(e.Rules); err != nil {
			return nil, nil, err
		}
		literals[i] = e.Literal
		rules[i] = e.Rules
	}
	ac, err := ahocorasick.NewBuilder().
		AddStrings(literals).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building anchor automaton: %w", err)
	}
	return ac, rules, nil
}
