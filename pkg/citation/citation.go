// Package citation defines the citations extracted from legal text.
//
// Citation is a closed sum type: the only implementations are the pointer
// types declared in this package, and callers are expected to switch over
// them exhaustively.
package citation

import (
	"github.com/coolbeans/lexcite/pkg/grammar"
)

// Kind names a citation variant.
type Kind string

const (
	KindFullCase    Kind = "full_case"
	KindFullLaw     Kind = "full_law"
	KindFullJournal Kind = "full_journal"
	KindShortCase   Kind = "short_case"
	KindSupra       Kind = "supra"
	KindId          Kind = "id"
	KindReference   Kind = "reference"
	KindUnknown     Kind = "unknown"
)

// Kinds lists every variant in a stable order.
var Kinds = []Kind{
	KindFullCase, KindFullLaw, KindFullJournal, KindShortCase,
	KindSupra, KindId, KindReference, KindUnknown,
}

// Span is a half-open byte range [Start, End) in the tokenized text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Citation is implemented by *FullCaseCitation, *FullLawCitation,
// *FullJournalCitation, *ShortCaseCitation, *SupraCitation, *IdCitation,
// *ReferenceCitation and *UnknownCitation.
type Citation interface {
	Kind() Kind
	// Common returns the fields shared by every variant.
	Common() *Base
	sealed()
}

// Base holds the fields shared by every citation variant.
type Base struct {
	// Index is the position of the citation's token in the token stream.
	Index int

	// Text is the matched text. It always equals text[Span.Start:Span.End].
	Text string

	// Span covers the matched text. FullSpan also covers surrounding
	// context such as party names, pin cite and parentheticals, and always
	// contains Span.
	Span     Span
	FullSpan Span

	// Groups holds the raw capture groups of the matching rule.
	Groups map[string]string

	PinCite       string
	PinCiteSpan   Span
	Parenthetical string
}

// Common returns b.
func (b *Base) Common() *Base { return b }

func (*Base) sealed() {}

// Group returns the named capture group, or "" when absent.
func (b *Base) Group(name string) string {
	return b.Groups[name]
}

// ResourceBase holds the fields of citations that name a reporter, code or
// journal.
type ResourceBase struct {
	ExactEditions     []*grammar.Edition
	VariationEditions []*grammar.Edition

	// EditionGuess is set when the candidate editions narrow to one.
	EditionGuess *grammar.Edition

	// Year is the parsed publication year, or zero. Month and Day are
	// kept as written.
	Year  int
	Month string
	Day   string

	// PageMissing marks a placeholder page such as "___".
	PageMissing bool
}

// Resource returns r.
func (r *ResourceBase) Resource() *ResourceBase { return r }

// Editions returns the exact candidate editions, or the variation
// editions when there are no exact ones.
func (r *ResourceBase) Editions() []*grammar.Edition {
	if len(r.ExactEditions) > 0 {
		return r.ExactEditions
	}
	return r.VariationEditions
}

// AllEditions returns the exact editions followed by the variations.
func (r *ResourceBase) AllEditions() []*grammar.Edition {
	all := make([]*grammar.Edition, 0, len(r.ExactEditions)+len(r.VariationEditions))
	all = append(all, r.ExactEditions...)
	return append(all, r.VariationEditions...)
}

// GuessEdition sets EditionGuess when the candidates, filtered by Year if
// more than one, leave a single edition.
func (r *ResourceBase) GuessEdition() {
	editions := r.Editions()
	if len(editions) > 1 && r.Year != 0 {
		var inRange []*grammar.Edition
		for _, e := range editions {
			if e.IncludesYear(r.Year) {
				inRange = append(inRange, e)
			}
		}
		editions = inRange
	}
	if len(editions) == 1 {
		r.EditionGuess = editions[0]
	}
}

// Ambiguous reports whether the citation has candidates but no guess.
func (r *ResourceBase) Ambiguous() bool {
	return r.EditionGuess == nil
}

func (r *ResourceBase) scotus() bool {
	for _, e := range r.AllEditions() {
		if e.Scotus {
			return true
		}
	}
	return false
}

// ResourceCitation is a citation naming a reporter, code or journal.
type ResourceCitation interface {
	Citation
	Resource() *ResourceBase
}

// FullCaseCitation is the first, fully named citation of a case, such as
// "Bush v. Gore, 531 U.S. 98, 99-100 (2000)".
type FullCaseCitation struct {
	Base
	ResourceBase

	Plaintiff string
	Defendant string
	Extra     string
	Court     string

	// AntecedentGuess is a single-word name written before a citation
	// that has no party names, as in "Nobelman at 332, 113 S. Ct. 2106".
	AntecedentGuess string
}

func (*FullCaseCitation) Kind() Kind { return KindFullCase }

// GuessCourt sets Court to "scotus" when no court was parsed and the
// reporter only reports the Supreme Court.
func (c *FullCaseCitation) GuessCourt() {
	if c.Court == "" && c.scotus() {
		c.Court = "scotus"
	}
}

// FullLawCitation cites a statute or regulation, such as
// "42 U.S.C. § 1983(a)".
type FullLawCitation struct {
	Base
	ResourceBase

	Publisher string
}

func (*FullLawCitation) Kind() Kind { return KindFullLaw }

// FullJournalCitation cites a journal article, such as
// "99 Harv. L. Rev. 1000".
type FullJournalCitation struct {
	Base
	ResourceBase
}

func (*FullJournalCitation) Kind() Kind { return KindFullJournal }

// ShortCaseCitation is a later reference to a case by reporter alone, such
// as "Adarand, 515 U.S., at 241".
type ShortCaseCitation struct {
	Base
	ResourceBase

	AntecedentGuess string
	Court           string
}

func (*ShortCaseCitation) Kind() Kind { return KindShortCase }

// GuessCourt sets Court to "scotus" for Supreme Court reporters.
func (c *ShortCaseCitation) GuessCourt() {
	if c.Court == "" && c.scotus() {
		c.Court = "scotus"
	}
}

// SupraCitation refers back to a case by name, as in
// "Adarand, supra, at 240".
type SupraCitation struct {
	Base

	AntecedentGuess string
	Volume          string
}

func (*SupraCitation) Kind() Kind { return KindSupra }

// IdCitation refers to the immediately preceding authority.
type IdCitation struct {
	Base
}

func (*IdCitation) Kind() Kind { return KindId }

// ReferenceCitation is a party name repeated after a full case citation,
// recognized through emphasis markup, as in "<i>Roe</i> at 240".
type ReferenceCitation struct {
	Base

	// Name is the emphasized name as written.
	Name      string
	Plaintiff string
	Defendant string
}

func (*ReferenceCitation) Kind() Kind { return KindReference }

// UnknownCitation is something citation-shaped that fits no other
// variant, such as a bare section sign.
type UnknownCitation struct {
	Base
}

func (*UnknownCitation) Kind() Kind { return KindUnknown }

// IsFull reports whether c fully identifies its resource.
func IsFull(c Citation) bool {
	switch c.(type) {
	case *FullCaseCitation, *FullLawCitation, *FullJournalCitation:
		return true
	default:
		return false
	}
}
