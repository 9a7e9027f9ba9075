// Package align maps byte offsets in one text to the corresponding offsets
// in an edited version of it.
//
// An Updater is built from a character diff of the two texts. Offsets in
// unchanged regions shift by the accumulated length change; offsets that
// fall inside a deleted or replaced region snap to where that region ends
// up in the other text.
package align

import (
	"sort"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Bias selects how an offset on a region boundary is projected.
type Bias int

const (
	// Right projects an offset that sits exactly on the start of a
	// region using that region. Use it for span starts.
	Right Bias = iota
	// Left projects such an offset using the previous region. Use it for
	// span ends.
	Left
)

// step is one region of the source text. Offsets in [from, next.from)
// are shifted by delta, or replaced by to when replace is set.
type step struct {
	from    int
	delta   int
	replace bool
	to      int
}

// Updater projects offsets from the text it was built from (before) to
// the edited text (after). The zero value is not usable; use New.
type Updater struct {
	steps []step
	// identity is set when the texts are equal.
	identity bool
}

// New diffs before against after.
func New(before, after string) *Updater {
	if before == after {
		return &Updater{identity: true}
	}

	// Common affixes are trimmed before diffing; the matcher is quadratic
	// in the worst case and most edits are local.
	prefix := commonPrefix(before, after)
	suffix := commonSuffix(before[prefix:], after[prefix:])
	a := before[prefix : len(before)-suffix]
	b := after[prefix : len(after)-suffix]

	u := &Updater{}
	offset, delta := 0, 0
	if prefix > 0 {
		u.steps = append(u.steps, step{from: 0})
		offset = prefix
	}

	for _, op := range diffSteps(a, b) {
		switch op.tag {
		case '=':
			u.steps = append(u.steps, step{from: offset, delta: delta})
			offset += op.n
		case '+':
			delta += op.n
		case '-':
			u.steps = append(u.steps, step{from: offset, replace: true, to: offset + delta})
			offset += op.n
			delta -= op.n
		}
	}
	u.steps = append(u.steps, step{from: offset, delta: delta})
	return u
}

// Update projects offset using bias.
func (u *Updater) Update(offset int, bias Bias) int {
	if u.identity || len(u.steps) == 0 {
		return offset
	}
	var i int
	if bias == Right {
		i = sort.Search(len(u.steps), func(i int) bool { return u.steps[i].from > offset })
	} else {
		i = sort.Search(len(u.steps), func(i int) bool { return u.steps[i].from >= offset })
	}
	i--
	if i < 0 {
		i = 0
	}
	s := u.steps[i]
	if s.replace {
		return s.to
	}
	return offset + s.delta
}

// UpdateSpan projects [start, end), starting with Right bias and ending
// with Left bias.
func (u *Updater) UpdateSpan(start, end int) (int, int) {
	s, e := u.Update(start, Right), u.Update(end, Left)
	if e < s {
		e = s
	}
	return s, e
}

type diffOp struct {
	tag byte
	n   int
}

// diffSteps returns the edit script turning a into b as runs of kept
// ('='), inserted ('+') and deleted ('-') bytes. The diff runs over runes
// so multi-byte characters are never split.
func diffSteps(a, b string) []diffOp {
	ra, wa := runes(a)
	rb, wb := runes(b)
	m := difflib.NewMatcherWithJunk(ra, rb, false, nil)

	var ops []diffOp
	for _, oc := range m.GetOpCodes() {
		aLen := wa[oc.I2] - wa[oc.I1]
		bLen := wb[oc.J2] - wb[oc.J1]
		switch oc.Tag {
		case 'e':
			ops = append(ops, diffOp{'=', aLen})
		case 'i':
			ops = append(ops, diffOp{'+', bLen})
		case 'd':
			ops = append(ops, diffOp{'-', aLen})
		case 'r':
			ops = append(ops, diffOp{'-', aLen}, diffOp{'+', bLen})
		}
	}
	return ops
}

// runes splits s into one string per rune, plus the byte offset of every
// rune boundary.
func runes(s string) ([]string, []int) {
	parts := make([]string, 0, len(s))
	widths := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); {
		_, w := utf8.DecodeRuneInString(s[i:])
		parts = append(parts, s[i:i+w])
		widths = append(widths, i)
		i += w
	}
	widths = append(widths, len(s))
	return parts, widths
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	for n > 0 && n < len(a) && !utf8.RuneStart(a[n]) {
		n--
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	for n > 0 && n < len(a) && !utf8.RuneStart(a[len(a)-n]) {
		n--
	}
	return n
}
