package ir

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grackle/internal/intern"
)

func TestSymbolCompare(t *testing.T) {
	tab := intern.NewTable()
	num := tab.Intern("Num")
	expr := tab.Intern("Expr")

	// Terminals order before nonterminals, then by name.
	assert.Negative(t, Terminal(num).Compare(Nonterminal(expr)))
	assert.Positive(t, Nonterminal(expr).Compare(Terminal(num)))
	assert.Negative(t, Terminal(expr).Compare(Terminal(num)))
	assert.Zero(t, Nonterminal(expr).Compare(Nonterminal(expr)))
}

func TestSymbolIdentity(t *testing.T) {
	tab := intern.NewTable()
	num := tab.Intern("Num")

	// Same kind and name compare equal with ==; kind matters.
	assert.True(t, Terminal(num) == Terminal(tab.Intern("Num")))
	assert.False(t, Terminal(num) == Nonterminal(num))
	assert.True(t, Terminal(num).IsTerminal())
	assert.False(t, Nonterminal(num).IsTerminal())
}

func TestProductionCompareFieldOrder(t *testing.T) {
	tab := intern.NewTable()
	expr := tab.Intern("Expr")
	term := tab.Intern("Term")
	num := tab.Intern("Num")

	base := Production{
		Nonterminal: expr,
		Symbols:     []Symbol{Nonterminal(expr), Terminal(num)},
		Action:      Call(NewActionFn(0)),
		Span:        Span{Start: 10, End: 20},
	}

	tests := []struct {
		name  string
		other Production
		want  int // sign of base.Compare(other)
	}{
		{"equal", base, 0},
		{
			"nonterminal_first",
			Production{Nonterminal: term, Symbols: base.Symbols, Action: base.Action, Span: base.Span},
			-1,
		},
		{
			"fewer_symbols_prefix",
			Production{Nonterminal: expr, Symbols: base.Symbols[:1], Action: base.Action, Span: base.Span},
			1,
		},
		{
			"action_breaks_tie",
			Production{Nonterminal: expr, Symbols: base.Symbols, Action: TryCall(NewActionFn(0)), Span: base.Span},
			-1,
		},
		{
			"span_last",
			Production{Nonterminal: expr, Symbols: base.Symbols, Action: base.Action, Span: Span{Start: 10, End: 25}},
			-1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Compare(tt.other)
			switch tt.want {
			case 0:
				assert.Zero(t, got)
				assert.True(t, base.Equal(tt.other))
			case -1:
				assert.Negative(t, got)
				assert.Positive(t, tt.other.Compare(base))
			case 1:
				assert.Positive(t, got)
				assert.Negative(t, tt.other.Compare(base))
			}
		})
	}
}

func TestProductionSortIsDeterministic(t *testing.T) {
	tab := intern.NewTable()
	expr := tab.Intern("Expr")
	num := tab.Intern("Num")
	plus := tab.Intern("+")

	prods := []Production{
		{Nonterminal: expr, Symbols: []Symbol{Nonterminal(expr), Terminal(plus), Terminal(num)}, Action: Call(NewActionFn(1))},
		{Nonterminal: expr, Symbols: []Symbol{Terminal(num)}, Action: Call(NewActionFn(0))},
		{Nonterminal: expr, Symbols: []Symbol{Terminal(num)}, Action: Call(NewActionFn(0))},
	}

	shuffled := []Production{prods[2], prods[0], prods[1]}
	sort.Slice(prods, func(i, j int) bool { return prods[i].Compare(prods[j]) < 0 })
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].Compare(shuffled[j]) < 0 })

	require.Len(t, shuffled, 3)
	for i := range prods {
		assert.True(t, prods[i].Equal(shuffled[i]), "position %d differs", i)
	}
}

func TestProductionString(t *testing.T) {
	tab := intern.NewTable()
	p := Production{
		Nonterminal: tab.Intern("Expr"),
		Symbols: []Symbol{
			Nonterminal(tab.Intern("Expr")),
			Terminal(tab.Intern("+")),
			Terminal(tab.Intern("Num")),
		},
		Action: TryCall(NewActionFn(2)),
	}
	assert.Equal(t, "Expr = Expr, +, Num => TryCall(2);", p.String())
}
