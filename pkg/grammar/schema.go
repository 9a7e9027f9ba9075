package grammar

import (
	"fmt"
	"regexp"
	"strings"
)

// Document is the on-disk shape of one grammar file. A grammar is the
// union of its documents; exactly one of them must set Version.
type Document struct {
	Version   string            `yaml:"version"`
	Variables map[string]string `yaml:"variables"`
	Tokens    []TokenSpec       `yaml:"tokens"`
	Reporters []ReporterSpec    `yaml:"reporters"`
	Laws      []ReporterSpec    `yaml:"laws"`
	Journals  []ReporterSpec    `yaml:"journals"`
	Courts    []CourtSpec       `yaml:"courts"`
}

// TokenSpec declares a special token rule.
type TokenSpec struct {
	Kind     string   `yaml:"kind"`
	Pattern  string   `yaml:"pattern"`
	Words    []string `yaml:"words"`
	Anchors  []string `yaml:"anchors"`
	FoldCase bool     `yaml:"fold_case"`
	Priority int      `yaml:"priority"`
}

// ReporterSpec declares a reporter, statute compilation or journal with
// its editions and variant spellings.
type ReporterSpec struct {
	Key        string          `yaml:"key"`
	Name       string          `yaml:"name"`
	CiteType   string          `yaml:"cite_type"`
	Scotus     bool            `yaml:"scotus"`
	Priority   int             `yaml:"priority"`
	Editions   []EditionSpec   `yaml:"editions"`
	Variations []VariationSpec `yaml:"variations"`
}

// EditionSpec declares one edition. Regexes are templates; an empty list
// means the family's default template.
type EditionSpec struct {
	Name    string   `yaml:"name"`
	Start   int      `yaml:"start"`
	End     int      `yaml:"end"`
	Regexes []string `yaml:"regexes"`
}

// VariationSpec maps a variant spelling to the edition it stands for.
type VariationSpec struct {
	Variant string `yaml:"variant"`
	Edition string `yaml:"edition"`
}

// CourtSpec declares a court table entry.
type CourtSpec struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	CitationString string `yaml:"citation_string"`
}

// ValidationError represents a grammar validation error with context.
type ValidationError struct {
	File    string
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	field := e.Field
	if e.File != "" {
		field = e.File + ": " + field
	}
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(errs), strings.Join(messages, "\n  - "))
}

var (
	variableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	courtIDPattern      = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
)

// ValidateDocument checks a single grammar document for structural errors.
// Regex compilation errors are reported later by the builder, once
// templates have been expanded.
func ValidateDocument(file string, doc *Document) ValidationErrors {
	var errs ValidationErrors
	add := func(field, message string, value interface{}) {
		errs = append(errs, ValidationError{File: file, Field: field, Message: message, Value: value})
	}

	for name := range doc.Variables {
		if !variableNamePattern.MatchString(name) {
			add("variables", "variable names must be lowercase identifiers", name)
		}
		if _, builtin := builtinVariables[name]; builtin {
			add("variables", "cannot redefine a built-in variable", name)
		}
	}

	for i, tok := range doc.Tokens {
		field := fmt.Sprintf("tokens[%d]", i)
		kind, ok := ParseRuleKind(tok.Kind)
		if !ok || kind == KindCitation {
			add(field+".kind", "must be one of id, supra, stop_word, section, paragraph", tok.Kind)
			continue
		}
		if kind == KindStopWord {
			if len(tok.Words) == 0 {
				add(field+".words", "stop_word tokens need at least one word", nil)
			}
			if tok.Pattern != "" {
				add(field+".pattern", "stop_word tokens are built from words", tok.Pattern)
			}
		} else if tok.Pattern == "" {
			add(field+".pattern", "required field is missing", nil)
		}
		if strings.HasPrefix(tok.Pattern, "^") {
			add(field+".pattern", "patterns cannot be anchored", tok.Pattern)
		}
		if tok.Priority < 0 {
			add(field+".priority", "must be non-negative", tok.Priority)
		}
	}

	families := []struct {
		name  string
		specs []ReporterSpec
	}{
		{"reporters", doc.Reporters},
		{"laws", doc.Laws},
		{"journals", doc.Journals},
	}
	for _, fam := range families {
		for i := range fam.specs {
			field := fmt.Sprintf("%s[%d]", fam.name, i)
			errs = append(errs, validateReporter(file, field, &fam.specs[i])...)
		}
	}

	for i, c := range doc.Courts {
		field := fmt.Sprintf("courts[%d]", i)
		if !courtIDPattern.MatchString(c.ID) {
			add(field+".id", "must be lowercase alphanumeric", c.ID)
		}
		if c.CitationString == "" {
			add(field+".citation_string", "required field is missing", nil)
		}
	}

	return errs
}

func validateReporter(file, field string, spec *ReporterSpec) ValidationErrors {
	var errs ValidationErrors
	add := func(f, message string, value interface{}) {
		errs = append(errs, ValidationError{File: file, Field: field + f, Message: message, Value: value})
	}

	if spec.Key == "" {
		add(".key", "required field is missing", nil)
	}
	if len(spec.Editions) == 0 {
		add(".editions", "at least one edition is needed", nil)
	}
	if spec.Priority < 0 {
		add(".priority", "must be non-negative", spec.Priority)
	}

	names := make(map[string]bool)
	for i, ed := range spec.Editions {
		ef := fmt.Sprintf(".editions[%d]", i)
		if ed.Name == "" {
			add(ef+".name", "required field is missing", nil)
		}
		if names[ed.Name] {
			add(ef+".name", "duplicate edition", ed.Name)
		}
		names[ed.Name] = true
		if ed.End != 0 && ed.Start > ed.End {
			add(ef, "start year is after end year", fmt.Sprintf("%d-%d", ed.Start, ed.End))
		}
		for j, re := range ed.Regexes {
			if strings.HasPrefix(re, "^") {
				add(fmt.Sprintf("%s.regexes[%d]", ef, j), "patterns cannot be anchored", re)
			}
		}
	}

	for i, v := range spec.Variations {
		vf := fmt.Sprintf(".variations[%d]", i)
		if v.Variant == "" {
			add(vf+".variant", "required field is missing", nil)
		}
		if !names[v.Edition] {
			add(vf+".edition", "refers to an unknown edition", v.Edition)
		}
	}

	return errs
}
