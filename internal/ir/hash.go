package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for hash-layout migration without colliding with old entries.
const (
	DomainGrammar    = "grackle/grammar/v1"
	DomainProduction = "grackle/production/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalJSON serializes the fully normalized grammar as RFC 8785
// canonical JSON. The bytes are the hashing preimage and what the
// compiled-grammar cache persists.
func CanonicalJSON(g *Grammar) ([]byte, error) {
	return MarshalCanonical(g.canonicalMap())
}

// GrammarHash computes the content-addressed identity of a fully normalized
// grammar. Two runs that normalize the same definition produce the same
// hash, which is what lets the compiled-grammar cache skip regeneration.
func GrammarHash(g *Grammar) (string, error) {
	canonical, err := CanonicalJSON(g)
	if err != nil {
		return "", fmt.Errorf("GrammarHash: %w", err)
	}
	return hashWithDomain(DomainGrammar, canonical), nil
}

// ProductionHash computes the content-addressed identity of one production.
func ProductionHash(p Production) (string, error) {
	canonical, err := MarshalCanonical(p.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("ProductionHash: %w", err)
	}
	return hashWithDomain(DomainProduction, canonical), nil
}

// MustGrammarHash is like GrammarHash but panics on error. Use only in
// tests or when the grammar is known to be well-formed.
func MustGrammarHash(g *Grammar) string {
	h, err := GrammarHash(g)
	if err != nil {
		panic(err)
	}
	return h
}

// canonicalMap flattens the grammar into plain maps and slices for
// canonical marshaling. Type expressions are folded through the canonical
// renderer; maps keyed by Atom become name-keyed objects.
func (g *Grammar) canonicalMap() map[string]any {
	starts := make(map[string]any, len(g.StartNonterminals))
	for user, synthetic := range g.StartNonterminals {
		starts[user.String()] = synthetic.String()
	}

	conversions := make(map[string]any, len(g.Conversions))
	for term, pat := range g.Conversions {
		conversions[term.String()] = pat.Text
	}

	nonterminals := make(map[string]any, len(g.Nonterminals))
	for name, data := range g.Nonterminals {
		prods := make([]any, len(data.Productions))
		for i, p := range data.Productions {
			prods[i] = p.canonicalMap()
		}
		nonterminals[name.String()] = prods
	}

	actions := make([]any, len(g.ActionFnDefns))
	for i, defn := range g.ActionFnDefns {
		args := make([]any, len(defn.Args))
		for j, a := range defn.Args {
			args[j] = map[string]any{
				"name": a.Name.String(),
				"type": a.Type.String(),
			}
		}
		actions[i] = map[string]any{
			"args":     args,
			"ret_type": defn.RetType.String(),
			"fallible": defn.Fallible,
			"code":     defn.Code,
		}
	}

	termTypes := make(map[string]any)
	for _, term := range g.SortedTerminals() {
		termTypes[term.String()] = g.Types.TerminalType(term).String()
	}
	ntTypes := make(map[string]any)
	for _, name := range g.SortedNonterminals() {
		if ty, ok := g.Types.LookupNonterminalType(name); ok {
			ntTypes[name.String()] = ty.String()
		}
	}

	uses := make([]any, len(g.Uses))
	for i, u := range g.Uses {
		uses[i] = u
	}
	whereClauses := make([]any, len(g.WhereClauses))
	for i, w := range g.WhereClauses {
		whereClauses[i] = w
	}

	typeParams := make([]any, len(g.TypeParameters))
	for i, p := range g.TypeParameters {
		kind := "id"
		if p.Kind == TypeParamLifetime {
			kind = "lifetime"
		}
		typeParams[i] = map[string]any{"kind": kind, "name": p.Name.String()}
	}

	params := make([]any, len(g.Parameters))
	for i, p := range g.Parameters {
		params[i] = map[string]any{"name": p.Name.String(), "type": p.Type.String()}
	}

	m := map[string]any{
		"ir_version":         IRVersion,
		"prefix":             g.Prefix,
		"algorithm":          g.Algorithm.String(),
		"start_nonterminals": starts,
		"uses":               uses,
		"type_parameters":    typeParams,
		"parameters":         params,
		"where_clauses":      whereClauses,
		"conversions":        conversions,
		"nonterminals":       nonterminals,
		"action_fn_defns":    actions,
		"token_type":         g.Types.TokenType().String(),
		"location_type":      g.Types.TerminalLocType().String(),
		"error_type":         g.Types.ErrorType().String(),
		"terminal_types":     termTypes,
		"nonterminal_types":  ntTypes,
	}

	// Key absence distinguishes "no builtin tokenizer" from an empty one.
	if g.BuiltinTokenizer != nil {
		entries := make([]any, len(g.BuiltinTokenizer.Entries))
		for i, e := range g.BuiltinTokenizer.Entries {
			entries[i] = map[string]any{
				"index":    e.Index,
				"pattern":  e.Pattern,
				"terminal": e.Terminal.String(),
			}
		}
		m["builtin_tokenizer"] = map[string]any{"entries": entries}
	}

	return m
}

func (p Production) canonicalMap() map[string]any {
	syms := make([]any, len(p.Symbols))
	for i, s := range p.Symbols {
		kind := "nonterminal"
		if s.IsTerminal() {
			kind = "terminal"
		}
		syms[i] = map[string]any{"kind": kind, "name": s.Name.String()}
	}
	return map[string]any{
		"nonterminal": p.Nonterminal.String(),
		"symbols":     syms,
		"action":      p.Action.String(),
		"span":        []any{p.Span.Start, p.Span.End},
	}
}
