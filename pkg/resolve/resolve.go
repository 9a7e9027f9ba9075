// Package resolve groups citations by the resource they refer to.
//
// Full citations name their resource directly. Short case, supra, id and
// reference citations are matched against the full citations seen before
// them; anything that cannot be matched is placed in a group of its own.
package resolve

import (
	"fmt"

	"github.com/coolbeans/lexcite/pkg/citation"
	"github.com/coolbeans/lexcite/pkg/logging"
)

// DefaultMaxPinDelta is how many pages past a case's first page a pin
// cite may point and still be plausible.
const DefaultMaxPinDelta = 150

// Resource is the thing a group of citations refers to. Resources are
// equal when their keys are equal.
type Resource interface {
	ResourceKey() string
}

// Key is a Resource identified by a string.
type Key string

// ResourceKey returns k.
func (k Key) ResourceKey() string { return string(k) }

// Group is one resource and the citations that refer to it, in input
// order.
type Group struct {
	Resource  Resource
	Citations []citation.Citation
	// Indices are the positions of Citations in the input.
	Indices []int
	// Resolved is false for the singleton group of a citation that could
	// not be matched.
	Resolved bool
}

// Resolutions holds the groups in order of first appearance.
type Resolutions struct {
	groups []*Group
	byKey  map[string]*Group
	of     []*Group
}

// Groups returns the groups in order of first appearance.
func (r *Resolutions) Groups() []*Group {
	return r.groups
}

// Len returns the number of groups.
func (r *Resolutions) Len() int {
	return len(r.groups)
}

// Lookup returns the group of res.
func (r *Resolutions) Lookup(res Resource) (*Group, bool) {
	g, ok := r.byKey[res.ResourceKey()]
	return g, ok
}

// GroupOf returns the group of the i'th input citation.
func (r *Resolutions) GroupOf(i int) *Group {
	if i < 0 || i >= len(r.of) {
		return nil
	}
	return r.of[i]
}

func (r *Resolutions) add(res Resource, resolved bool, c citation.Citation, i int) {
	key := res.ResourceKey()
	g, ok := r.byKey[key]
	if !ok {
		g = &Group{Resource: res, Resolved: resolved}
		r.byKey[key] = g
		r.groups = append(r.groups, g)
	}
	g.Citations = append(g.Citations, c)
	g.Indices = append(g.Indices, i)
	r.of = append(r.of, g)
}

// unresolved is the private resource of a citation nothing else refers to.
type unresolved struct {
	index int
}

func (u unresolved) ResourceKey() string {
	return fmt.Sprintf("unresolved:%d", u.index)
}

// Step functions resolve one kind of citation against the history. The
// defaults are exported so overrides can fall back to them explicitly.
type (
	FullFunc      func(c citation.Citation) Resource
	ShortFunc     func(c *citation.ShortCaseCitation, h *History) (Resource, bool)
	SupraFunc     func(c *citation.SupraCitation, h *History) (Resource, bool)
	ReferenceFunc func(c *citation.ReferenceCitation, h *History) (Resource, bool)
	IdFunc        func(c *citation.IdCitation, h *History) (Resource, bool)
)

// Overrides replace resolution steps. Each override receives the step it
// replaces as fallback.
type Overrides struct {
	Full      func(c citation.Citation, fallback FullFunc) Resource
	Short     func(c *citation.ShortCaseCitation, h *History, fallback ShortFunc) (Resource, bool)
	Supra     func(c *citation.SupraCitation, h *History, fallback SupraFunc) (Resource, bool)
	Reference func(c *citation.ReferenceCitation, h *History, fallback ReferenceFunc) (Resource, bool)
	Id        func(c *citation.IdCitation, h *History, fallback IdFunc) (Resource, bool)
}

type config struct {
	overrides   Overrides
	maxPinDelta int
	logger      logging.Logger
}

// Option configures Resolve.
type Option func(*config)

// WithOverrides installs resolution step overrides.
func WithOverrides(o Overrides) Option {
	return func(c *config) { c.overrides = o }
}

// WithMaxPinDelta sets the pin cite plausibility window.
func WithMaxPinDelta(pages int) Option {
	return func(c *config) { c.maxPinDelta = pages }
}

// WithLogger sets the logger used to report unresolved citations.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = logging.OrNop(l) }
}

// Resolve groups citations by resource. Every citation ends up in exactly
// one group.
func Resolve(citations []citation.Citation, opts ...Option) *Resolutions {
	cfg := config{maxPinDelta: DefaultMaxPinDelta, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	steps := cfg.steps()

	h := &History{maxPinDelta: cfg.maxPinDelta}
	r := &Resolutions{byKey: make(map[string]*Group)}
	for i, c := range citations {
		var (
			res Resource
			ok  bool
		)
		switch c := c.(type) {
		case *citation.FullCaseCitation, *citation.FullLawCitation, *citation.FullJournalCitation:
			res, ok = steps.full(c), true
			if res != nil {
				h.push(res, c)
			}
		case *citation.ShortCaseCitation:
			res, ok = steps.short(c, h)
		case *citation.SupraCitation:
			res, ok = steps.supra(c, h)
		case *citation.ReferenceCitation:
			res, ok = steps.reference(c, h)
		case *citation.IdCitation:
			res, ok = steps.id(c, h)
		}

		if !ok || res == nil {
			cfg.logger.Debug("unresolved citation",
				logging.String("kind", string(c.Kind())),
				logging.String("text", c.Common().Text))
			h.last = nil
			r.add(unresolved{index: i}, false, c, i)
			continue
		}
		h.last = h.find(res)
		r.add(res, true, c, i)
	}
	return r
}

type steps struct {
	full      FullFunc
	short     ShortFunc
	supra     SupraFunc
	reference ReferenceFunc
	id        IdFunc
}

func (cfg config) steps() steps {
	s := steps{
		full:      DefaultFull,
		short:     DefaultShort,
		supra:     DefaultSupra,
		reference: DefaultReference,
		id:        DefaultId,
	}
	o := cfg.overrides
	if o.Full != nil {
		s.full = func(c citation.Citation) Resource { return o.Full(c, DefaultFull) }
	}
	if o.Short != nil {
		s.short = func(c *citation.ShortCaseCitation, h *History) (Resource, bool) { return o.Short(c, h, DefaultShort) }
	}
	if o.Supra != nil {
		s.supra = func(c *citation.SupraCitation, h *History) (Resource, bool) { return o.Supra(c, h, DefaultSupra) }
	}
	if o.Reference != nil {
		s.reference = func(c *citation.ReferenceCitation, h *History) (Resource, bool) {
			return o.Reference(c, h, DefaultReference)
		}
	}
	if o.Id != nil {
		s.id = func(c *citation.IdCitation, h *History) (Resource, bool) { return o.Id(c, h, DefaultId) }
	}
	return s
}

// DefaultFull keys a full citation by citation.Identity.
func DefaultFull(c citation.Citation) Resource {
	return Key(citation.Identity(c))
}

// DefaultShort matches a short case citation to the nearest earlier full
// case citation with the same reporter and volume and a plausible pin
// cite. A candidate whose party names contain the short citation's
// antecedent is preferred over a nearer one that only matches the
// reporter.
func DefaultShort(c *citation.ShortCaseCitation, h *History) (Resource, bool) {
	var bare *Entry
	for _, e := range h.Recent() {
		full, ok := e.Full.(*citation.FullCaseCitation)
		if !ok || !sameReporter(full, c) || full.Group("volume") != c.Group("volume") {
			continue
		}
		if !h.PinPlausible(full, c.PinCite) {
			continue
		}
		if c.AntecedentGuess == "" {
			return e.Resource, true
		}
		if e.HasName(c.AntecedentGuess) {
			return e.Resource, true
		}
		if bare == nil {
			bare = e
		}
	}
	if bare == nil {
		return nil, false
	}
	return bare.Resource, true
}

// DefaultSupra matches a supra citation to the nearest earlier full
// citation whose party names contain its antecedent, and whose volume
// matches when the supra names one.
func DefaultSupra(c *citation.SupraCitation, h *History) (Resource, bool) {
	if c.AntecedentGuess == "" {
		return nil, false
	}
	for _, e := range h.Recent() {
		if c.Volume != "" && e.Full.Common().Group("volume") != c.Volume {
			continue
		}
		if e.HasName(c.AntecedentGuess) {
			return e.Resource, true
		}
	}
	return nil, false
}

// DefaultReference matches a reference citation to the nearest earlier
// full citation with the same party name.
func DefaultReference(c *citation.ReferenceCitation, h *History) (Resource, bool) {
	name := c.Name
	if name == "" {
		name = c.Common().Text
	}
	for _, e := range h.Recent() {
		if e.HasName(name) {
			return e.Resource, true
		}
	}
	return nil, false
}

// DefaultId resolves an id citation to the previous citation's resource
// when its pin cite is plausible for that resource.
func DefaultId(c *citation.IdCitation, h *History) (Resource, bool) {
	last := h.Last()
	if last == nil {
		return nil, false
	}
	if !h.PinPlausible(last.Full, c.PinCite) {
		return nil, false
	}
	return last.Resource, true
}

func sameReporter(a, b citation.ResourceCitation) bool {
	ra, rb := a.Resource(), b.Resource()
	if ra.EditionGuess != nil && rb.EditionGuess != nil {
		return ra.EditionGuess == rb.EditionGuess
	}
	if citation.NormalizeReporter(citation.CorrectedReporter(a)) == citation.NormalizeReporter(citation.CorrectedReporter(b)) {
		return true
	}
	for _, ea := range ra.AllEditions() {
		for _, eb := range rb.AllEditions() {
			if ea == eb {
				return true
			}
		}
	}
	return false
}
