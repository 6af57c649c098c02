package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternCanonicalIdentity(t *testing.T) {
	tab := NewTable()

	a := tab.Intern("Expr")
	b := tab.Intern("Expr")
	c := tab.Intern("Term")

	assert.True(t, a == b, "equal strings must intern to the same Atom")
	assert.False(t, a == c)
	assert.Equal(t, "Expr", a.String())
	assert.Equal(t, 2, tab.Len())
}

func TestInternZeroAtom(t *testing.T) {
	tab := NewTable()

	var zero Atom
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())

	// The empty string is a real name, distinct from the zero Atom.
	empty := tab.Intern("")
	assert.False(t, empty.IsZero())
	assert.False(t, zero == empty)
}

func TestAtomCompare(t *testing.T) {
	tab := NewTable()

	a := tab.Intern("A")
	b := tab.Intern("B")
	var zero Atom

	tests := []struct {
		name string
		x, y Atom
		want int
	}{
		{"equal", a, a, 0},
		{"less", a, b, -1},
		{"greater", b, a, 1},
		{"zero_first", zero, a, -1},
		{"zero_last", a, zero, 1},
		{"zero_zero", zero, zero, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.x.Compare(tt.y))
		})
	}
}

func TestLookup(t *testing.T) {
	tab := NewTable()

	_, ok := tab.Lookup("Expr")
	assert.False(t, ok)

	a := tab.Intern("Expr")
	got, ok := tab.Lookup("Expr")
	require.True(t, ok)
	assert.True(t, a == got)
}
