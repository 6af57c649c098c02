package ir

import (
	"fmt"
	"strings"
)

// DebugString renders the whole grammar as text: metadata, terminal
// conversions, nonterminals with their productions, and the action table.
// Nonterminals and terminals print in name order so the output is stable;
// production order within a nonterminal is preserved as-is because it is
// the numbering table construction will use.
//
// This is the one debug rendering of the IR; the CLI and golden tests both
// consume it.
func (g *Grammar) DebugString() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "grammar (algorithm %s, prefix %q)\n", g.Algorithm, g.Prefix)
	if len(g.TypeParameters) > 0 {
		params := make([]string, len(g.TypeParameters))
		for i, p := range g.TypeParameters {
			params[i] = p.String()
		}
		fmt.Fprintf(&sb, "  type parameters: <%s>\n", strings.Join(params, ", "))
	}
	for _, p := range g.Parameters {
		fmt.Fprintf(&sb, "  parameter: %s\n", p)
	}
	for _, w := range g.WhereClauses {
		fmt.Fprintf(&sb, "  where: %s\n", w)
	}
	for _, u := range g.Uses {
		fmt.Fprintf(&sb, "  use: %s\n", u)
	}
	if g.BuiltinTokenizer != nil {
		fmt.Fprintf(&sb, "  builtin tokenizer (%d entries)\n", len(g.BuiltinTokenizer.Entries))
	}

	fmt.Fprintf(&sb, "  token type: %s\n", g.Types.TokenType())
	fmt.Fprintf(&sb, "  location type: %s\n", g.Types.TerminalLocType())
	fmt.Fprintf(&sb, "  error type: %s\n", g.Types.ErrorType())

	for _, user := range sortedKeys(g.StartNonterminals) {
		fmt.Fprintf(&sb, "  start: %s -> %s\n", user, g.StartNonterminals[user])
	}

	sb.WriteString("\nterminals:\n")
	for _, term := range g.SortedTerminals() {
		conv := g.Conversions[term]
		fmt.Fprintf(&sb, "  %s: pattern %q, type %s\n",
			term, conv.Text, g.Types.TerminalType(term))
	}

	sb.WriteString("\nnonterminals:\n")
	for _, name := range g.SortedNonterminals() {
		data := g.Nonterminals[name]
		ty := "?"
		if t, ok := g.Types.LookupNonterminalType(name); ok {
			ty = t.String()
		}
		fmt.Fprintf(&sb, "  %s: %s\n", name, ty)
		for _, prod := range data.Productions {
			fmt.Fprintf(&sb, "    %s\n", prod)
		}
	}

	sb.WriteString("\naction functions:\n")
	for i, defn := range g.ActionFnDefns {
		fmt.Fprintf(&sb, "  %d: %s\n", i, defn)
	}

	return sb.String()
}
