// Package intern provides an explicit string-interning table.
//
// The table hands out Atom handles with a single canonical identity per
// distinct string: two Atoms interned from equal strings by the same table
// compare equal with ==. The table is created once per compilation run and
// threaded explicitly through construction; there is no package-level
// interning state.
package intern

// Atom is a canonical handle for an interned string.
//
// The zero Atom means "no name" and is distinct from any interned string,
// including the empty string. Atoms are comparable with == and usable as
// map keys; equality is identity, not content comparison.
type Atom struct {
	s *string
}

// String returns the interned string, or "" for the zero Atom.
func (a Atom) String() string {
	if a.s == nil {
		return ""
	}
	return *a.s
}

// IsZero reports whether a is the zero Atom.
func (a Atom) IsZero() bool {
	return a.s == nil
}

// Compare orders Atoms by their string value. The zero Atom sorts before
// every interned string. Ordering by value (not by interning order) keeps
// derived orderings reproducible across runs regardless of the sequence in
// which names were first seen.
func (a Atom) Compare(b Atom) int {
	switch {
	case a == b:
		return 0
	case a.s == nil:
		return -1
	case b.s == nil:
		return 1
	case *a.s < *b.s:
		return -1
	case *a.s > *b.s:
		return 1
	default:
		return 0
	}
}

// Table interns strings. A Table is not safe for concurrent mutation; the
// construction pipeline is single-writer, and Atoms it has handed out may be
// read concurrently once construction is done.
type Table struct {
	atoms map[string]Atom
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{atoms: make(map[string]Atom)}
}

// Intern returns the canonical Atom for s, creating it on first use.
func (t *Table) Intern(s string) Atom {
	if a, ok := t.atoms[s]; ok {
		return a
	}
	owned := s
	a := Atom{s: &owned}
	t.atoms[s] = a
	return a
}

// Lookup returns the Atom for s if it was interned before.
func (t *Table) Lookup(s string) (Atom, bool) {
	a, ok := t.atoms[s]
	return a, ok
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int {
	return len(t.atoms)
}
