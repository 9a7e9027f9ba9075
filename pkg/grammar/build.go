package grammar

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Default rule priorities. Higher wins when two rules match at the same
// offset.
const (
	DefaultCitationPriority  = 10
	DefaultIdPriority        = 5
	DefaultSupraPriority     = 5
	DefaultStopWordPriority  = 3
	DefaultSectionPriority   = 2
	DefaultParagraphPriority = 1
)

// romanNumeral matches lowercase Roman numerals from 1 to 199, leaving out
// v, l and c, which are far more often words or initials than page numbers.
const romanNumeral = `c?(?:xc|xl|l?x{1,3})(?:ix|iv|v?i{0,3})|(?:c?l?)(?:ix|iv|v?i{1,3})|(?:lv|cv|cl|clv)`

// PageNumberPattern matches a page: digits, a Roman numeral, or an
// underscore placeholder for a page not yet assigned.
const PageNumberPattern = `(?:\d+|` + romanNumeral + `|_+)`

var builtinVariables = map[string]string{
	"volume":      `(?P<volume>\d+)`,
	"reporter":    `(?P<reporter>$edition)`,
	"page":        `(?P<page>$page_number)`,
	"page_number": PageNumberPattern,
	"full_cite":   `$volume $reporter,? $page`,
	"short_cite":  `$volume $reporter,? at $page`,
	"nominative":  `\((?P<volume_nominative>\d{1,3}) (?P<reporter_nominative>[A-Z][A-Za-z.']*(?: [A-Z][A-Za-z.']*)?)\)`,
	"law_title":   `(?P<title>\d+)`,
	"law_section": `(?P<section>\d+(?:[\w\-]|\.\w)*)`,
	"edition":     "",
}

var defaultTemplates = map[Source]string{
	SourceCase:    "$full_cite",
	SourceJournal: "$full_cite",
	SourceLaw:     `$law_title $reporter,? §{1,2} ?$law_section`,
}

var (
	variableRef = regexp.MustCompile(`\$([a-z][a-z0-9_]*)`)
	maxExpand   = 8
)

// GrammarError reports a grammar that cannot be loaded. It is fatal at
// load time.
type GrammarError struct {
	Source string
	Err    error
}

func (e *GrammarError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("grammar: %v", e.Err)
	}
	return fmt.Sprintf("grammar %s: %v", e.Source, e.Err)
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// NamedDocument pairs a document with the file it came from.
type NamedDocument struct {
	File     string
	Document *Document
}

type ruleDraft struct {
	rule   *Rule
	origin string
}

type builder struct {
	variables map[string]string
	drafts    []*ruleDraft
	byKey     map[string]*ruleDraft
	editions  map[string][]*Edition
	errs      ValidationErrors
}

// Build validates the documents, expands their templates and compiles the
// resulting rules into a Grammar.
func Build(docs []NamedDocument) (*Grammar, error) {
	b := &builder{
		variables: make(map[string]string),
		byKey:     make(map[string]*ruleDraft),
		editions:  make(map[string][]*Edition),
	}

	var version, versionFile string
	for _, nd := range docs {
		b.errs = append(b.errs, ValidateDocument(nd.File, nd.Document)...)
		if nd.Document.Version != "" {
			if version != "" {
				b.errs = append(b.errs, ValidationError{
					File:    nd.File,
					Field:   "version",
					Message: "version already set by " + versionFile,
					Value:   nd.Document.Version,
				})
			}
			version, versionFile = nd.Document.Version, nd.File
		}
		for name, value := range nd.Document.Variables {
			b.variables[name] = value
		}
	}
	if version == "" {
		b.errs = append(b.errs, ValidationError{Field: "version", Message: "no grammar document sets a version"})
	}
	if len(b.errs) > 0 {
		return nil, &GrammarError{Err: b.errs}
	}

	g := &Grammar{Version: version}
	for _, nd := range docs {
		for i := range nd.Document.Reporters {
			b.addReporter(nd.File, SourceCase, &nd.Document.Reporters[i])
		}
		for i := range nd.Document.Laws {
			b.addReporter(nd.File, SourceLaw, &nd.Document.Laws[i])
		}
		for i := range nd.Document.Journals {
			b.addReporter(nd.File, SourceJournal, &nd.Document.Journals[i])
		}
	}
	for _, nd := range docs {
		for i, tok := range nd.Document.Tokens {
			b.addToken(fmt.Sprintf("%s: tokens[%d]", nd.File, i), tok)
		}
		for _, c := range nd.Document.Courts {
			g.Courts = append(g.Courts, &Court{ID: c.ID, Name: c.Name, CitationString: c.CitationString})
		}
	}

	for i, d := range b.drafts {
		d.rule.Index = i
		if err := compileRule(d.rule); err != nil {
			b.errs = append(b.errs, ValidationError{Field: d.origin, Message: err.Error(), Value: d.rule.Pattern})
			continue
		}
		g.Rules = append(g.Rules, d.rule)
	}
	if len(b.errs) > 0 {
		return nil, &GrammarError{Err: b.errs}
	}

	g.editions = b.editions
	g.courtIndex = indexCourts(g.Courts)
	g.Fingerprint = fingerprint(g.Rules)
	return g, nil
}

func (b *builder) addReporter(file string, source Source, spec *ReporterSpec) {
	priority := spec.Priority
	if priority == 0 {
		priority = DefaultCitationPriority
	}

	byName := make(map[string]*Edition)
	templates := make(map[string][]string)
	for _, es := range spec.Editions {
		ed := &Edition{
			Name:        es.Name,
			ReporterKey: spec.Key,
			Reporter:    spec.Name,
			Source:      source,
			CiteType:    spec.CiteType,
			Scotus:      spec.Scotus,
			Start:       es.Start,
			End:         es.End,
		}
		byName[ed.Name] = ed
		b.editions[ed.Name] = append(b.editions[ed.Name], ed)

		regexes := es.Regexes
		if len(regexes) == 0 {
			regexes = []string{defaultTemplates[source]}
		}
		if source == SourceCase {
			var short []string
			for _, tmpl := range regexes {
				if strings.Contains(tmpl, "$full_cite") {
					short = append(short, strings.ReplaceAll(tmpl, "$full_cite", "$short_cite"))
				}
			}
			regexes = append(append([]string(nil), regexes...), short...)
		}
		templates[ed.Name] = regexes

		origin := fmt.Sprintf("%s: %s edition %q", file, spec.Key, ed.Name)
		for _, tmpl := range regexes {
			b.addCitationRule(origin, source, priority, tmpl, ed.Name, ed, true)
		}
	}

	for _, v := range spec.Variations {
		ed := byName[v.Edition]
		b.editions[v.Variant] = append(b.editions[v.Variant], ed)
		origin := fmt.Sprintf("%s: %s variation %q", file, spec.Key, v.Variant)
		for _, tmpl := range templates[v.Edition] {
			b.addCitationRule(origin, source, priority, tmpl, v.Variant, ed, false)
		}
	}
}

func (b *builder) addCitationRule(origin string, source Source, priority int, tmpl, spelling string, ed *Edition, exact bool) {
	expanded, err := b.expand(tmpl, spelling)
	if err != nil {
		b.errs = append(b.errs, ValidationError{Field: origin, Message: err.Error(), Value: tmpl})
		return
	}
	if !strings.Contains(expanded, "(?P<token>") {
		expanded = `(?P<token>` + expanded + `)(?:\W|$)`
	}
	short := strings.Contains(tmpl, "$short_cite")

	key := fmt.Sprintf("%d\x00%s", KindCitation, expanded)
	d, ok := b.byKey[key]
	if !ok {
		d = &ruleDraft{
			origin: origin,
			rule: &Rule{
				Kind:     KindCitation,
				Source:   source,
				Pattern:  expanded,
				Priority: priority,
				Short:    short,
			},
		}
		b.byKey[key] = d
		b.drafts = append(b.drafts, d)
	}
	r := d.rule
	if strings.Contains(tmpl, "$reporter") || strings.Contains(tmpl, "$edition") || strings.Contains(tmpl, "_cite") {
		r.Anchors = appendUnique(r.Anchors, spelling)
	}
	if exact {
		r.ExactEditions = appendEdition(r.ExactEditions, ed)
	} else {
		r.VariationEditions = appendEdition(r.VariationEditions, ed)
	}
}

func (b *builder) addToken(origin string, spec TokenSpec) {
	kind, _ := ParseRuleKind(spec.Kind)
	r := &Rule{
		Kind:     kind,
		Pattern:  spec.Pattern,
		Priority: spec.Priority,
		Anchors:  append([]string(nil), spec.Anchors...),
		FoldCase: spec.FoldCase,
	}
	if r.Priority == 0 {
		r.Priority = defaultTokenPriority(kind)
	}
	if kind == KindStopWord {
		r.Pattern = stopWordPattern(spec.Words)
		r.FoldCase = true
		if len(r.Anchors) == 0 {
			for _, w := range spec.Words {
				r.Anchors = appendUnique(r.Anchors, strings.ToLower(w))
			}
		}
	} else {
		expanded, err := b.expand(spec.Pattern, "")
		if err != nil {
			b.errs = append(b.errs, ValidationError{Field: origin, Message: err.Error(), Value: spec.Pattern})
			return
		}
		r.Pattern = expanded
	}
	if r.FoldCase && !strings.HasPrefix(r.Pattern, "(?i)") {
		r.Pattern = "(?i)" + r.Pattern
	}
	if r.FoldCase {
		for i, a := range r.Anchors {
			r.Anchors[i] = strings.ToLower(a)
		}
	}
	b.drafts = append(b.drafts, &ruleDraft{rule: r, origin: origin})
}

// stopWordPattern builds a case-insensitive pattern over words. Longer
// words come first so "see also" is preferred over "see".
func stopWordPattern(words []string) string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return `(?P<token>[^\sA-Za-z0-9]*(?P<stop_word>` + strings.Join(quoted, "|") + `)[^\sA-Za-z0-9]*)(?:\s|$)`
}

func defaultTokenPriority(kind RuleKind) int {
	switch kind {
	case KindId:
		return DefaultIdPriority
	case KindSupra:
		return DefaultSupraPriority
	case KindStopWord:
		return DefaultStopWordPriority
	case KindSection:
		return DefaultSectionPriority
	default:
		return DefaultParagraphPriority
	}
}

// expand substitutes $variables until none remain.
func (b *builder) expand(tmpl, edition string) (string, error) {
	out := tmpl
	for i := 0; i < maxExpand; i++ {
		var missing string
		next := variableRef.ReplaceAllStringFunc(out, func(ref string) string {
			name := ref[1:]
			if name == "edition" {
				return regexp.QuoteMeta(edition)
			}
			if v, ok := builtinVariables[name]; ok {
				return v
			}
			if v, ok := b.variables[name]; ok {
				return v
			}
			missing = name
			return ref
		})
		if missing != "" {
			return "", fmt.Errorf("unknown variable $%s", missing)
		}
		if next == out {
			return out, nil
		}
		out = next
	}
	return "", fmt.Errorf("variables nested deeper than %d levels", maxExpand)
}

func compileRule(r *Rule) error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("compiling pattern: %w", err)
	}
	r.re = re
	r.anchored = regexp.MustCompile(`^(?:` + r.Pattern + `)`)
	if idx := re.SubexpIndex("token"); idx > 0 {
		r.tokenGroup = idx
	}
	return nil
}

func fingerprint(rules []*Rule) string {
	h := blake3.New()
	for _, r := range rules {
		fmt.Fprintf(h, "%d|%d|%t|%t|%q|%q\n", r.Kind, r.Priority, r.Short, r.FoldCase, r.Pattern, r.Anchors)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func appendEdition(list []*Edition, ed *Edition) []*Edition {
	for _, existing := range list {
		if existing == ed {
			return list
		}
	}
	return append(list, ed)
}
