package ir

import (
	"fmt"

	"github.com/roach88/grackle/internal/intern"
)

// Span is a half-open byte range [Start, End) into the grammar definition
// source. Spans are carried through normalization so diagnostics emitted by
// later stages can point back at the definition.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Annotation is a marker attached to a nonterminal declaration, like
// `#[inline]`. The IR records annotations verbatim; individual passes decide
// which ones they honor.
type Annotation struct {
	Span Span
	Name intern.Atom
}

// Pattern is the lexical conversion registered for a terminal: the target
// pattern fragment the code generator matches a token against. The IR treats
// the text as opaque.
type Pattern struct {
	Span Span
	Text string
}

// BuiltinTokenizer describes the tokenizer synthesized when the grammar does
// not declare an external token type. Entries are ordered; earlier entries
// win ties during matching, so the order is semantically significant.
type BuiltinTokenizer struct {
	Span    Span
	Entries []MatchEntry
}

// MatchEntry pairs a literal or regex pattern with the terminal it produces.
// Index is the entry's position in the synthesized tokenizer, used by the
// code generator to number match arms.
type MatchEntry struct {
	Index    int
	Pattern  string
	Terminal intern.Atom
}
