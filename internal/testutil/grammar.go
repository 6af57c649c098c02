// Package testutil provides shared fixtures for store and cli tests.
package testutil

import (
	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
)

// TinyGrammar builds the smallest fully normalized grammar: one public
// nonterminal S with a single production S = Num, plus the synthetic
// augmenting S'. It validates cleanly and hashes deterministically, which
// makes it the standard fixture for cache and CLI tests.
func TinyGrammar(tab *intern.Table) *ir.Grammar {
	s := tab.Intern("S")
	sPrime := tab.Intern("S'")
	num := tab.Intern("Num")
	tok := ir.NominalOf(tab.Intern("Tok"))
	i32 := ir.NominalOf(tab.Intern("i32"))

	types := ir.NewTypes(nil, nil, tok)
	types.AddType(s, i32)
	types.AddType(sPrime, i32)

	return &ir.Grammar{
		Prefix:    "__s",
		Algorithm: ir.LALR1,
		StartNonterminals: map[intern.Atom]intern.Atom{
			s: sPrime,
		},
		ActionFnDefns: []ir.ActionFnDefn{
			{
				Args:    []ir.ActionArg{{Name: tab.Intern("n"), Type: tok}},
				RetType: i32,
				Code:    "n.into()",
			},
			{
				Args:    []ir.ActionArg{{Name: tab.Intern("__0"), Type: i32}},
				RetType: i32,
				Code:    "__0",
			},
		},
		Nonterminals: map[intern.Atom]ir.NonterminalData{
			s: {
				Name: s,
				Productions: []ir.Production{
					{Nonterminal: s, Symbols: []ir.Symbol{ir.Terminal(num)}, Action: ir.Call(ir.NewActionFn(0))},
				},
			},
			sPrime: {
				Name: sPrime,
				Productions: []ir.Production{
					{Nonterminal: sPrime, Symbols: []ir.Symbol{ir.Nonterminal(s)}, Action: ir.Call(ir.NewActionFn(1))},
				},
			},
		},
		Conversions: map[intern.Atom]ir.Pattern{
			num: {Text: "[0-9]+"},
		},
		Types: types,
	}
}

// GrammarWithPrefix is TinyGrammar with a different generated-name prefix,
// for tests that need two grammars with distinct content hashes.
func GrammarWithPrefix(tab *intern.Table, prefix string) *ir.Grammar {
	g := TinyGrammar(tab)
	g.Prefix = prefix
	return g
}
