// Package link builds official web addresses for statute and regulation
// citations: uscode.house.gov for the United States Code and ecfr.gov for
// the Code of Federal Regulations.
package link

import (
	"fmt"
	"strings"

	"github.com/coolbeans/lexcite/pkg/citation"
)

const (
	// USCBaseURL is the United States Code viewer of the House of
	// Representatives.
	USCBaseURL = "https://uscode.house.gov/view.xhtml"

	// CFRBaseURL is the root of the electronic Code of Federal Regulations.
	CFRBaseURL = "https://www.ecfr.gov/current/"
)

// USCSection addresses one section of the United States Code.
type USCSection struct {
	Title   string `json:"title"`
	Section string `json:"section"`
}

// URL returns the section's page on uscode.house.gov.
func (u USCSection) URL() string {
	return USCBaseURL + "?req=granuleid:USC-prelim-title" + u.Title + "-section" + u.Section + "&edition=prelim"
}

func (u USCSection) String() string {
	return u.Title + " U.S.C. § " + u.Section
}

// CFRSection addresses a part, or a section within a part, of the Code of
// Federal Regulations.
type CFRSection struct {
	Title   string `json:"title"`
	Part    string `json:"part"`
	Section string `json:"section,omitempty"`
}

// URL returns the part or section page on ecfr.gov.
func (c CFRSection) URL() string {
	u := CFRBaseURL + "title-" + c.Title + "/part-" + c.Part
	if c.Section != "" {
		u += "/section-" + c.Part + "." + c.Section
	}
	return u
}

func (c CFRSection) String() string {
	s := c.Title + " C.F.R. § " + c.Part
	if c.Section != "" {
		s += "." + c.Section
	}
	return s
}

// Target is anything with an address.
type Target interface {
	URL() string
}

// For returns the target of a statute or regulation citation. Citations
// of other kinds, or of codes without an online edition here, report
// false.
func For(c citation.Citation) (Target, bool) {
	law, ok := c.(*citation.FullLawCitation)
	if !ok {
		return nil, false
	}
	title, section := law.Group("title"), baseSection(law.Group("section"))
	if title == "" || section == "" {
		return nil, false
	}

	switch code(citation.CorrectedReporter(law)) {
	case "USC":
		return USCSection{Title: title, Section: section}, true
	case "CFR":
		part, sub, _ := strings.Cut(section, ".")
		return CFRSection{Title: title, Part: part, Section: sub}, true
	}
	return nil, false
}

// URL is For followed by Target.URL, returning "" when there is no
// target.
func URL(c citation.Citation) string {
	t, ok := For(c)
	if !ok {
		return ""
	}
	return t.URL()
}

// ParseUSC reads "42 U.S.C. § 1983", "15 U.S.C. Section 1681" or
// "42 USC 1983".
func ParseUSC(s string) (USCSection, error) {
	title, section, err := parseCode(s, "USC")
	if err != nil {
		return USCSection{}, err
	}
	return USCSection{Title: title, Section: baseSection(section)}, nil
}

// ParseCFR reads "45 C.F.R. Part 164", "45 C.F.R. § 164.502" or
// "45 CFR 164".
func ParseCFR(s string) (CFRSection, error) {
	title, section, err := parseCode(s, "CFR")
	if err != nil {
		return CFRSection{}, err
	}
	part, sub, _ := strings.Cut(baseSection(section), ".")
	return CFRSection{Title: title, Part: part, Section: sub}, nil
}

func parseCode(s, name string) (title, section string, err error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 3 {
		return "", "", fmt.Errorf("invalid %s citation: %q", name, s)
	}
	title = fields[0]
	for i := 1; i < len(fields); i++ {
		if code(fields[i]) != name {
			continue
		}
		for _, f := range fields[i+1:] {
			switch strings.ToLower(f) {
			case "§", "§§", "section", "sec.", "part", "parts":
				continue
			}
			return title, f, nil
		}
	}
	return "", "", fmt.Errorf("no section in %s citation: %q", name, s)
}

// code reduces a reporter spelling to its letters: "U. S. C." is "USC".
func code(reporter string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' {
			return -1
		}
		return r
	}, reporter)
}

// baseSection drops subsection designators and trailing punctuation:
// "1983(a)(1)" is "1983".
func baseSection(s string) string {
	if i := strings.IndexAny(s, "(["); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, ".,;:")
}
