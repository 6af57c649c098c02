package ir

import "github.com/roach88/grackle/internal/intern"

// SymbolKind tags a Symbol as terminal or nonterminal.
type SymbolKind uint8

const (
	// SymbolTerminal references a token produced by lexical analysis.
	SymbolTerminal SymbolKind = iota
	// SymbolNonterminal references a grammar rule.
	SymbolNonterminal
)

// Symbol is one element of a production's right-hand side: a terminal or
// nonterminal reference. A Symbol carries no payload beyond its kind and
// interned name, so values compare with == and are usable as map keys.
type Symbol struct {
	Kind SymbolKind
	Name intern.Atom
}

// Terminal constructs a terminal reference.
func Terminal(name intern.Atom) Symbol {
	return Symbol{Kind: SymbolTerminal, Name: name}
}

// Nonterminal constructs a nonterminal reference.
func Nonterminal(name intern.Atom) Symbol {
	return Symbol{Kind: SymbolNonterminal, Name: name}
}

// IsTerminal reports whether the symbol references a terminal.
func (s Symbol) IsTerminal() bool {
	return s.Kind == SymbolTerminal
}

// Type resolves the symbol's semantic value type against the registry.
// For nonterminals the type must have been registered by an earlier pass.
func (s Symbol) Type(t *Types) TypeRepr {
	if s.IsTerminal() {
		return t.TerminalType(s.Name)
	}
	return t.NonterminalType(s.Name)
}

// Compare orders symbols by kind, then by name. Terminals sort before
// nonterminals.
func (s Symbol) Compare(o Symbol) int {
	if s.Kind != o.Kind {
		return int(s.Kind) - int(o.Kind)
	}
	return s.Name.Compare(o.Name)
}

func (s Symbol) String() string {
	return s.Name.String()
}
