package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateInsertion(t *testing.T) {
	u := New("foo bar", "foo baz bar")
	assert.Equal(t, 1, u.Update(1, Right))
	assert.Equal(t, 10, u.Update(6, Right))
	assert.Equal(t, 11, u.Update(7, Left))
}

func TestUpdateIdentity(t *testing.T) {
	u := New("same text", "same text")
	for _, off := range []int{0, 4, 9} {
		assert.Equal(t, off, u.Update(off, Right))
		assert.Equal(t, off, u.Update(off, Left))
	}
}

func TestUpdateSpanIntoMarkup(t *testing.T) {
	cleaned := "1 U.S. 2"
	source := "<p>1   U.S. 2</p>"
	u := New(cleaned, source)

	start, end := u.UpdateSpan(0, len(cleaned))
	assert.Equal(t, "1   U.S. 2", source[start:end])

	start, end = u.UpdateSpan(2, 6)
	assert.Equal(t, "U.S.", source[start:end])
}

func TestUpdateDeletionSnaps(t *testing.T) {
	// "XXXX " is deleted; offsets inside it snap to where it was.
	u := New("foo XXXX baz", "foo baz")
	assert.Equal(t, 4, u.Update(4, Right))
	assert.Equal(t, 4, u.Update(5, Right))
	assert.Equal(t, 4, u.Update(6, Left))
	assert.Equal(t, 4, u.Update(9, Right))
	assert.Equal(t, 7, u.Update(12, Left))
}

func TestUpdateMultibyte(t *testing.T) {
	before := "§ 12 — “quoted” 1 U.S. 2"
	after := "<b>§ 12</b> — “quoted” <i>1 U.S. 2</i>"
	u := New(before, after)

	i := len("§ 12 — “quoted” ")
	start, end := u.UpdateSpan(i, len(before))
	assert.Equal(t, "1 U.S. 2", after[start:end])

	start, end = u.UpdateSpan(0, len("§ 12"))
	assert.Equal(t, "§ 12", after[start:end])
}

func TestUpdateSpanNeverInverts(t *testing.T) {
	u := New("abc def", "abc")
	start, end := u.UpdateSpan(4, 7)
	assert.LessOrEqual(t, start, end)
}
