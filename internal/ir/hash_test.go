package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grackle/internal/intern"
)

func TestGrammarHashDeterministic(t *testing.T) {
	// Two independently built copies of the same grammar, interned in
	// different orders, must hash identically.
	g1 := startGrammar(intern.NewTable())

	tab2 := intern.NewTable()
	tab2.Intern("zzz") // perturb interning order
	tab2.Intern("Num")
	g2 := startGrammar(tab2)

	h1, err := GrammarHash(g1)
	require.NoError(t, err)
	h2, err := GrammarHash(g2)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestGrammarHashSensitivity(t *testing.T) {
	base := MustGrammarHash(startGrammar(intern.NewTable()))

	tests := []struct {
		name   string
		mutate func(tab *intern.Table, g *Grammar)
	}{
		{"prefix", func(tab *intern.Table, g *Grammar) { g.Prefix = "__other" }},
		{"algorithm", func(tab *intern.Table, g *Grammar) { g.Algorithm = LR1 }},
		{"pattern", func(tab *intern.Table, g *Grammar) {
			g.Conversions[tab.Intern("Num")] = Pattern{Text: "[0-9]*"}
		}},
		{"action_code", func(tab *intern.Table, g *Grammar) {
			g.ActionFnDefns[0].Code = "n.try_into().unwrap()"
		}},
		{"uses", func(tab *intern.Table, g *Grammar) {
			g.Uses = []string{"std::str::FromStr"}
		}},
		{"type_parameters", func(tab *intern.Table, g *Grammar) {
			g.TypeParameters = append(g.TypeParameters, Lifetime(tab.Intern("'input")))
		}},
		{"parameters", func(tab *intern.Table, g *Grammar) {
			g.Parameters = append(g.Parameters, Parameter{
				Name: tab.Intern("scale"),
				Type: NominalOf(tab.Intern("u32")),
			})
		}},
		{"where_clauses", func(tab *intern.Table, g *Grammar) {
			g.WhereClauses = []string{"T: Clone"}
		}},
		{"builtin_tokenizer", func(tab *intern.Table, g *Grammar) {
			g.BuiltinTokenizer = &BuiltinTokenizer{Entries: []MatchEntry{
				{Index: 0, Pattern: "[0-9]+", Terminal: tab.Intern("Num")},
			}}
		}},
		{"empty_builtin_tokenizer", func(tab *intern.Table, g *Grammar) {
			// An empty synthesized tokenizer is distinct from none at all.
			g.BuiltinTokenizer = &BuiltinTokenizer{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := intern.NewTable()
			g := startGrammar(tab)
			tt.mutate(tab, g)
			assert.NotEqual(t, base, MustGrammarHash(g))
		})
	}
}

func TestProductionHash(t *testing.T) {
	tab := intern.NewTable()
	p := Production{
		Nonterminal: tab.Intern("Expr"),
		Symbols:     []Symbol{Terminal(tab.Intern("Num"))},
		Action:      Call(NewActionFn(0)),
	}

	h1, err := ProductionHash(p)
	require.NoError(t, err)

	p2 := p
	p2.Action = TryCall(NewActionFn(0))
	h2, err := ProductionHash(p2)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte("payload")
	assert.NotEqual(t,
		hashWithDomain(DomainGrammar, data),
		hashWithDomain(DomainProduction, data))
}
