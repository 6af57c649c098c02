package ir

import (
	"fmt"
	"sort"

	"github.com/roach88/grackle/internal/intern"
)

// Types resolves the semantic value type of every terminal and nonterminal.
// It is owned by the Grammar, written only during normalization, and read
// by every backend stage afterward.
//
// Terminals without an explicit registration fall back to the grammar-wide
// token type; that is the registry's only forgiving lookup. Nonterminal
// lookups assume an earlier pass registered the type.
type Types struct {
	tokenType        TypeRepr
	locType          TypeRepr // nil when the grammar declares no location type
	errorType        TypeRepr // nil when the grammar declares no error type
	terminalTypes    map[intern.Atom]TypeRepr
	nonterminalTypes map[intern.Atom]TypeRepr
}

// NewTypes creates a registry with the grammar's declared location, error,
// and token types. locType and errorType may be nil.
func NewTypes(locType, errorType, tokenType TypeRepr) *Types {
	return &Types{
		tokenType:        tokenType,
		locType:          locType,
		errorType:        errorType,
		terminalTypes:    make(map[intern.Atom]TypeRepr),
		nonterminalTypes: make(map[intern.Atom]TypeRepr),
	}
}

// AddType registers the type of a nonterminal. Registering the same
// nonterminal twice is a defect in the normalization pipeline and panics.
func (t *Types) AddType(nonterminal intern.Atom, ty TypeRepr) {
	if prev, ok := t.nonterminalTypes[nonterminal]; ok {
		panic(fmt.Sprintf("ir: type for nonterminal %q registered twice (%s, then %s)",
			nonterminal, prev, ty))
	}
	t.nonterminalTypes[nonterminal] = ty
}

// AddTermType registers the type of a terminal. Registering the same
// terminal twice is a defect in the normalization pipeline and panics.
func (t *Types) AddTermType(terminal intern.Atom, ty TypeRepr) {
	if prev, ok := t.terminalTypes[terminal]; ok {
		panic(fmt.Sprintf("ir: type for terminal %q registered twice (%s, then %s)",
			terminal, prev, ty))
	}
	t.terminalTypes[terminal] = ty
}

// TokenType returns the grammar-wide token type.
func (t *Types) TokenType() TypeRepr {
	return t.tokenType
}

// OptTerminalLocType returns the declared location type, if any.
func (t *Types) OptTerminalLocType() (TypeRepr, bool) {
	if t.locType == nil {
		return nil, false
	}
	return t.locType, true
}

// TerminalLocType returns the declared location type, or the unit tuple
// when the grammar carries no location information.
func (t *Types) TerminalLocType() TypeRepr {
	if t.locType == nil {
		return UnitRepr()
	}
	return t.locType
}

// ErrorType returns the declared error type, or the unit tuple when the
// grammar carries no error information.
func (t *Types) ErrorType() TypeRepr {
	if t.errorType == nil {
		return UnitRepr()
	}
	return t.errorType
}

// TerminalType returns the type registered for a terminal, falling back to
// the token type when none was registered.
func (t *Types) TerminalType(terminal intern.Atom) TypeRepr {
	if ty, ok := t.terminalTypes[terminal]; ok {
		return ty
	}
	return t.tokenType
}

// LookupNonterminalType returns the registered type for a nonterminal, if
// any.
func (t *Types) LookupNonterminalType(nonterminal intern.Atom) (TypeRepr, bool) {
	ty, ok := t.nonterminalTypes[nonterminal]
	return ty, ok
}

// NonterminalType returns the registered type for a nonterminal. Looking up
// a nonterminal no pass registered is a construction defect and panics.
func (t *Types) NonterminalType(nonterminal intern.Atom) TypeRepr {
	ty, ok := t.nonterminalTypes[nonterminal]
	if !ok {
		panic(fmt.Sprintf("ir: no type registered for nonterminal %q", nonterminal))
	}
	return ty
}

// NonterminalTypes returns all registered nonterminal types, ordered by
// nonterminal name for reproducible output.
func (t *Types) NonterminalTypes() []TypeRepr {
	names := make([]intern.Atom, 0, len(t.nonterminalTypes))
	for name := range t.nonterminalTypes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Compare(names[j]) < 0 })

	out := make([]TypeRepr, len(names))
	for i, name := range names {
		out[i] = t.nonterminalTypes[name]
	}
	return out
}

// TripleType returns (location, token, location): the payload the lexer
// hands the generated parser for each token, with its start and end
// positions.
func (t *Types) TripleType() TypeRepr {
	loc := t.TerminalLocType()
	return TupleRepr{Elems: []TypeRepr{loc, t.tokenType, loc}}
}
