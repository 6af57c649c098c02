package compiler

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
)

func compileCalc(t *testing.T) (*intern.Table, *ir.Grammar) {
	t.Helper()
	tab := intern.NewTable()
	g, err := CompileFile(tab, "testdata/calc.cue")
	require.NoError(t, err)
	return tab, g
}

func TestCompileCalcMetadata(t *testing.T) {
	_, g := compileCalc(t)

	assert.Equal(t, ir.LALR1, g.Algorithm)
	assert.Equal(t, "__calc", g.Prefix)
	assert.Equal(t, "Tok", g.Types.TokenType().String())
	assert.Equal(t, "usize", g.Types.TerminalLocType().String())
	assert.Equal(t, "()", g.Types.ErrorType().String())
	assert.Equal(t, "(usize, Tok, usize)", g.Types.TripleType().String())
	assert.Nil(t, g.BuiltinTokenizer, "explicit token type suppresses the builtin tokenizer")
}

func TestCompileCalcStartNonterminal(t *testing.T) {
	tab, g := compileCalc(t)

	expr := tab.Intern("Expr")
	synthetic, ok := g.StartNonterminals[expr]
	require.True(t, ok)
	assert.Equal(t, "Expr'", synthetic.String())

	prods := g.ProductionsFor(synthetic)
	require.Len(t, prods, 1)
	assert.Equal(t, []ir.Symbol{ir.Nonterminal(expr)}, prods[0].Symbols)

	// The synthetic nonterminal inherits the user nonterminal's type.
	assert.Equal(t, "i32", g.Types.NonterminalType(synthetic).String())
}

func TestCompileCalcProductionOrder(t *testing.T) {
	tab, g := compileCalc(t)

	prods := g.ProductionsFor(tab.Intern("Expr"))
	require.Len(t, prods, 2)
	// Declaration order is preserved; it fixes production numbering.
	require.Len(t, prods[0].Symbols, 3)
	assert.Equal(t, ir.Nonterminal(tab.Intern("Expr")), prods[0].Symbols[0])
	assert.Equal(t, ir.Terminal(tab.Intern("+")), prods[0].Symbols[1])
	require.Len(t, prods[1].Symbols, 1)
}

func TestCompileCalcActionDedup(t *testing.T) {
	tab, g := compileCalc(t)

	// The pass-through fragment fn _(__0: i32) -> i32 { __0 } is shared by
	// Expr = Term, Factor = Num, Term = Factor and the synthetic start
	// production: one definition, four use sites.
	exprProds := g.ProductionsFor(tab.Intern("Expr"))
	termProds := g.ProductionsFor(tab.Intern("Term"))
	factorProds := g.ProductionsFor(tab.Intern("Factor"))
	startProds := g.ProductionsFor(tab.Intern("Expr'"))

	passThrough := exprProds[1].Action.Fn
	assert.Equal(t, passThrough, termProds[1].Action.Fn)
	assert.Equal(t, passThrough, factorProds[1].Action.Fn)
	assert.Equal(t, passThrough, startProds[0].Action.Fn)

	assert.Len(t, g.ActionFnDefns, 4)
	assert.Equal(t, "__0", g.ActionFnDefn(passThrough).Code)
}

func TestCompileCalcTerminals(t *testing.T) {
	tab, g := compileCalc(t)

	assert.Equal(t, `\+`, g.Pattern(tab.Intern("+")).Text)
	assert.Equal(t, "[0-9]+", g.Pattern(tab.Intern("Num")).Text)

	// Num has an explicit type; the operators fall back to the token type.
	assert.Equal(t, "i32", g.Types.TerminalType(tab.Intern("Num")).String())
	assert.Equal(t, "Tok", g.Types.TerminalType(tab.Intern("+")).String())
}

func TestCompileCalcValidates(t *testing.T) {
	_, g := compileCalc(t)
	assert.Empty(t, g.Validate())
}

func TestCompileCalcGoldenDump(t *testing.T) {
	_, g := compileCalc(t)

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "calc", []byte(g.DebugString()))
}

func TestCompileBuiltinTokenizer(t *testing.T) {
	src := `
grammar: {
	name: "words"
	start: ["Doc"]
	terminals: {
		Word: {pattern: "[a-z]+"}
		Sep:  {pattern: ","}
	}
	rules: {
		Doc: {
			type: "usize"
			productions: [
				{symbols: ["Word"], action: "1"},
			]
		}
	}
}
`
	tab := intern.NewTable()
	g, err := CompileBytes(tab, []byte(src), "words.cue")
	require.NoError(t, err)

	// No declared token type: the tokenizer is synthesized and the token
	// type becomes the matched slice with its offset.
	require.NotNil(t, g.BuiltinTokenizer)
	assert.Equal(t, "(usize, &'input str)", g.Types.TokenType().String())

	entries := g.BuiltinTokenizer.Entries
	require.Len(t, entries, 2)
	// Entries are ordered by terminal name, independent of source layout.
	assert.Equal(t, "Sep", entries[0].Terminal.String())
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, "Word", entries[1].Terminal.String())
	assert.Equal(t, 1, entries[1].Index)
}

func TestCompileFallibleAction(t *testing.T) {
	src := `
grammar: {
	name:  "nums"
	token: "Tok"
	start: ["N"]
	terminals: {
		Num: {pattern: "[0-9]+", type: "&'input str"}
	}
	typeParams: ["'input"]
	rules: {
		N: {
			type: "i32"
			productions: [
				{symbols: ["Num"], bind: ["s"], action: "s.parse()?", fallible: true},
			]
		}
	}
}
`
	tab := intern.NewTable()
	g, err := CompileBytes(tab, []byte(src), "nums.cue")
	require.NoError(t, err)

	prods := g.ProductionsFor(tab.Intern("N"))
	require.Len(t, prods, 1)
	assert.True(t, prods[0].Action.Fallible)

	defn := g.ActionFnDefn(prods[0].Action.Fn)
	assert.True(t, defn.Fallible)
	assert.Equal(t, "s.parse()?", defn.Code)

	require.Len(t, g.TypeParameters, 1)
	assert.Equal(t, ir.TypeParamLifetime, g.TypeParameters[0].Kind)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantSub string
	}{
		{
			"missing_name",
			`grammar: {start: ["A"], terminals: {T: {pattern: "t"}}, rules: {}}`,
			"name is required",
		},
		{
			"bad_algorithm",
			`grammar: {name: "g", algorithm: "GLR", start: ["A"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {type: "u8", productions: [{symbols: ["T"]}]}}}`,
			"unsupported algorithm",
		},
		{
			"missing_rule_type",
			`grammar: {name: "g", token: "Tok", start: ["A"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {productions: [{symbols: ["T"]}]}}}`,
			"rule type is required",
		},
		{
			"start_without_rule",
			`grammar: {name: "g", token: "Tok", start: ["Missing"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {type: "u8", productions: [{symbols: ["T"]}]}}}`,
			"has no rule",
		},
		{
			"action_required",
			`grammar: {name: "g", token: "Tok", start: ["A"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {type: "u8", productions: [{symbols: ["T", "T"]}]}}}`,
			"action is required",
		},
		{
			"bind_count_mismatch",
			`grammar: {name: "g", token: "Tok", start: ["A"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {type: "u8", productions: [{symbols: ["T"], bind: ["a", "b"], action: "a"}]}}}`,
			"counts must match",
		},
		{
			"no_terminals",
			`grammar: {name: "g", token: "Tok", start: ["A"], terminals: {},
				rules: {A: {type: "u8", productions: [{symbols: []}]}}}`,
			"at least one terminal",
		},
		{
			"dangling_symbol",
			`grammar: {name: "g", token: "Tok", start: ["A"],
				terminals: {T: {pattern: "t"}},
				rules: {A: {type: "u8", productions: [{symbols: ["Ghost"], action: "x"}]}}}`,
			"neither a terminal nor a rule",
		},
		{
			"no_grammar_struct",
			`other: {x: 1}`,
			"top-level grammar struct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileBytes(intern.NewTable(), []byte(tt.src), tt.name+".cue")
			require.Error(t, err)
			if tt.wantSub != "" {
				assert.Contains(t, err.Error(), tt.wantSub)
			}
		})
	}
}

func TestCompileDoubleTerminalTypeIsCaught(t *testing.T) {
	// Each terminal appears once as a CUE field, so the compiler can never
	// register a terminal type twice; the registry still defends against a
	// buggy pass.
	tab := intern.NewTable()
	types := ir.NewTypes(nil, nil, ir.NominalOf(tab.Intern("Tok")))
	num := tab.Intern("Num")
	types.AddTermType(num, ir.NominalOf(tab.Intern("i32")))
	assert.Panics(t, func() {
		types.AddTermType(num, ir.NominalOf(tab.Intern("i64")))
	})
}
