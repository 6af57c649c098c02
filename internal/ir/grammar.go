package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/grackle/internal/intern"
)

// Parameter is an extra value parameter declared on the grammar, forwarded
// into every generated action call.
type Parameter struct {
	Name intern.Atom
	Type TypeRepr
}

func (p Parameter) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// Grammar is the aggregate root of the IR: everything the table-construction
// and code-generation backends need, produced incrementally by the
// normalization pipeline and frozen afterward.
type Grammar struct {
	// Prefix is a unique identifier prefix appended to generated names so
	// they cannot collide with identifiers in user action code.
	Prefix string

	// Algorithm is the table-construction strategy the user requested.
	Algorithm Algorithm

	// StartNonterminals maps each nonterminal the user declared public to
	// the synthetic augmenting nonterminal introduced for it. The synthetic
	// nonterminal always has exactly one production of the form
	// `Synthetic = UserStart`.
	StartNonterminals map[intern.Atom]intern.Atom

	// Uses are the import declarations the user wrote, verbatim.
	Uses []string

	// TypeParameters are generic parameters declared on the grammar, in
	// declaration order.
	TypeParameters []TypeParam

	// Parameters are value parameters declared on the grammar, in
	// declaration order; the order is significant for generated call sites.
	Parameters []Parameter

	// WhereClauses are the user's where-clauses, verbatim.
	WhereClauses []string

	// BuiltinTokenizer is present only when the user did not declare an
	// external token type and a tokenizer was synthesized instead.
	BuiltinTokenizer *BuiltinTokenizer

	// ActionFnDefns is the action function table. The Grammar exclusively
	// owns the definitions; everything else refers to them by ActionFn
	// index.
	ActionFnDefns []ActionFnDefn

	// Nonterminals is the grammar proper, keyed by nonterminal name.
	Nonterminals map[intern.Atom]NonterminalData

	// TokenSpan locates the token-type declaration in the source, for
	// diagnostics emitted by later stages.
	TokenSpan Span

	// Conversions maps each terminal to its lexical pattern.
	Conversions map[intern.Atom]Pattern

	// Types resolves terminal and nonterminal types.
	Types *Types
}

// Pattern returns the lexical pattern registered for a terminal. Querying a
// terminal the pipeline never registered is a construction defect and
// panics; callers must only ask about terminals that exist in the grammar.
func (g *Grammar) Pattern(terminal intern.Atom) Pattern {
	p, ok := g.Conversions[terminal]
	if !ok {
		panic(fmt.Sprintf("ir: no conversion registered for terminal %q", terminal))
	}
	return p
}

// ProductionsFor returns the ordered productions of a nonterminal, or nil
// when the nonterminal is absent from the table. Construction guarantees
// that every nonterminal referenced by a production is registered before
// the backends run, and Validate checks exactly that; an absent key here
// therefore only occurs for lookups of names that never appear in the
// grammar at all.
func (g *Grammar) ProductionsFor(nonterminal intern.Atom) []Production {
	if data, ok := g.Nonterminals[nonterminal]; ok {
		return data.Productions
	}
	return nil
}

// ActionFnDefn returns the definition behind a handle.
func (g *Grammar) ActionFnDefn(fn ActionFn) ActionFnDefn {
	return g.ActionFnDefns[fn.Index()]
}

// UserParameterRefs renders the grammar's declared parameters as forwarding
// arguments, each followed by ", ", in declaration order. Generated call
// sites splice the result directly before their own arguments, so the
// trailing separator is intentional.
func (g *Grammar) UserParameterRefs() string {
	var sb strings.Builder
	for _, p := range g.Parameters {
		sb.WriteString(p.Name.String())
		sb.WriteString(", ")
	}
	return sb.String()
}

// SortedNonterminals returns the nonterminal names in name order, for
// reproducible iteration over the nonterminal table.
func (g *Grammar) SortedNonterminals() []intern.Atom {
	names := make([]intern.Atom, 0, len(g.Nonterminals))
	for name := range g.Nonterminals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Compare(names[j]) < 0 })
	return names
}

// SortedTerminals returns the terminal names in name order.
func (g *Grammar) SortedTerminals() []intern.Atom {
	names := make([]intern.Atom, 0, len(g.Conversions))
	for name := range g.Conversions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Compare(names[j]) < 0 })
	return names
}

// ValidationError describes one violated grammar invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the cross-table invariants a fully normalized grammar
// must satisfy. It returns all violations rather than failing fast.
//
// Checked invariants:
//   - every start-nonterminal entry names registered nonterminals, and the
//     synthetic side has exactly one production referencing the user's
//     nonterminal;
//   - every symbol in every production resolves: terminals to a conversion,
//     nonterminals to a nonterminal-table entry;
//   - every action handle indexes into the action function table;
//   - every nonterminal with productions has a registered type.
func (g *Grammar) Validate() []ValidationError {
	var errs []ValidationError

	for _, user := range sortedKeys(g.StartNonterminals) {
		synthetic := g.StartNonterminals[user]
		field := fmt.Sprintf("start.%s", user)

		if _, ok := g.Nonterminals[user]; !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "public nonterminal is not registered",
			})
		}
		data, ok := g.Nonterminals[synthetic]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("synthetic nonterminal %q is not registered", synthetic),
			})
			continue
		}
		if len(data.Productions) != 1 {
			errs = append(errs, ValidationError{
				Field: field,
				Message: fmt.Sprintf("synthetic nonterminal %q has %d productions, want exactly 1",
					synthetic, len(data.Productions)),
			})
			continue
		}
		prod := data.Productions[0]
		if len(prod.Symbols) != 1 || prod.Symbols[0] != Nonterminal(user) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("synthetic production must be %s = %s", synthetic, user),
			})
		}
	}

	for _, name := range g.SortedNonterminals() {
		data := g.Nonterminals[name]
		for i, prod := range data.Productions {
			field := fmt.Sprintf("nonterminals.%s.productions[%d]", name, i)
			for _, sym := range prod.Symbols {
				if sym.IsTerminal() {
					if _, ok := g.Conversions[sym.Name]; !ok {
						errs = append(errs, ValidationError{
							Field:   field,
							Message: fmt.Sprintf("terminal %q has no conversion", sym.Name),
						})
					}
				} else if _, ok := g.Nonterminals[sym.Name]; !ok {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("nonterminal %q is not registered", sym.Name),
					})
				}
			}
			if prod.Action.Fn.Index() >= len(g.ActionFnDefns) {
				errs = append(errs, ValidationError{
					Field: field,
					Message: fmt.Sprintf("action handle %d out of range (table has %d entries)",
						prod.Action.Fn.Index(), len(g.ActionFnDefns)),
				})
			}
		}
		if len(data.Productions) > 0 {
			if _, ok := g.Types.LookupNonterminalType(name); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("nonterminals.%s", name),
					Message: "no type registered",
				})
			}
		}
	}

	return errs
}

func sortedKeys(m map[intern.Atom]intern.Atom) []intern.Atom {
	keys := make([]intern.Atom, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}
