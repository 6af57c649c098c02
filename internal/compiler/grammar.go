// Package compiler lowers CUE grammar definitions into the normalized IR.
//
// It is the single writer of ir.Grammar: it interns names, registers
// terminal conversions and types, deduplicates action fragments into the
// action function table, synthesizes the augmenting start nonterminals, and
// validates the result before handing it to the backends.
package compiler

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
)

// CompileFile reads a CUE file and compiles the `grammar` struct in it.
func CompileFile(tab *intern.Table, path string) (*ir.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar definition: %w", err)
	}
	return CompileBytes(tab, data, path)
}

// CompileBytes compiles a CUE grammar definition from memory. filename is
// used in positions only.
func CompileBytes(tab *intern.Table, data []byte, filename string) (*ir.Grammar, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	gv := val.LookupPath(cue.ParsePath("grammar"))
	if !gv.Exists() {
		return nil, &CompileError{
			Field:   "grammar",
			Message: "definition must contain a top-level grammar struct",
			Pos:     val.Pos(),
		}
	}
	return CompileGrammar(tab, gv)
}

// CompileGrammar lowers one CUE grammar struct into the IR. The interning
// table is supplied by the caller and shared across everything compiled in
// the same run.
func CompileGrammar(tab *intern.Table, v cue.Value) (*ir.Grammar, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &grammarCompiler{tab: tab, v: v}
	return c.compile()
}

type grammarCompiler struct {
	tab *intern.Table
	v   cue.Value

	grammar   *ir.Grammar
	actionFns map[string]ir.ActionFn // dedup key -> handle
	terminals map[intern.Atom]bool
}

func (c *grammarCompiler) compile() (*ir.Grammar, error) {
	name, err := c.requiredString("name")
	if err != nil {
		return nil, err
	}

	algorithm, err := c.parseAlgorithm()
	if err != nil {
		return nil, err
	}

	prefix := "__" + name
	if pv := c.v.LookupPath(cue.ParsePath("prefix")); pv.Exists() {
		if prefix, err = pv.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	typeParams, err := c.parseTypeParams()
	if err != nil {
		return nil, err
	}

	params, err := c.parseParams()
	if err != nil {
		return nil, err
	}

	uses, err := c.stringList("uses")
	if err != nil {
		return nil, err
	}
	whereClauses, err := c.stringList("where")
	if err != nil {
		return nil, err
	}

	c.grammar = &ir.Grammar{
		Prefix:            prefix,
		Algorithm:         algorithm,
		StartNonterminals: make(map[intern.Atom]intern.Atom),
		Uses:              uses,
		TypeParameters:    typeParams,
		Parameters:        params,
		WhereClauses:      whereClauses,
		Nonterminals:      make(map[intern.Atom]ir.NonterminalData),
		Conversions:       make(map[intern.Atom]ir.Pattern),
	}
	c.actionFns = make(map[string]ir.ActionFn)
	c.terminals = make(map[intern.Atom]bool)

	if err := c.buildTypes(); err != nil {
		return nil, err
	}
	if err := c.buildTerminals(); err != nil {
		return nil, err
	}
	if err := c.registerRuleTypes(); err != nil {
		return nil, err
	}
	if err := c.buildRules(); err != nil {
		return nil, err
	}
	if err := c.buildStarts(); err != nil {
		return nil, err
	}

	if errs := c.grammar.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, &CompileError{
			Field:   "grammar",
			Message: strings.Join(msgs, "; "),
			Pos:     c.v.Pos(),
		}
	}

	return c.grammar, nil
}

func (c *grammarCompiler) parseAlgorithm() (ir.Algorithm, error) {
	av := c.v.LookupPath(cue.ParsePath("algorithm"))
	if !av.Exists() {
		return ir.LALR1, nil
	}
	s, err := av.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	algorithm, ok := ir.AlgorithmFromString(s)
	if !ok {
		return 0, &CompileError{
			Field:   "algorithm",
			Message: fmt.Sprintf("unsupported algorithm %q, expected LR, LR(1), LALR or LALR(1)", s),
			Pos:     av.Pos(),
		}
	}
	return algorithm, nil
}

func (c *grammarCompiler) parseTypeParams() ([]ir.TypeParam, error) {
	raw, err := c.stringList("typeParams")
	if err != nil {
		return nil, err
	}
	out := make([]ir.TypeParam, 0, len(raw))
	for _, s := range raw {
		atom := c.tab.Intern(s)
		if strings.HasPrefix(s, "'") {
			out = append(out, ir.Lifetime(atom))
		} else {
			out = append(out, ir.ID(atom))
		}
	}
	return out, nil
}

func (c *grammarCompiler) parseParams() ([]ir.Parameter, error) {
	pv := c.v.LookupPath(cue.ParsePath("params"))
	if !pv.Exists() {
		return nil, nil
	}
	iter, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Parameter
	for iter.Next() {
		elem := iter.Value()
		name, err := elem.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		tyStr, err := elem.LookupPath(cue.ParsePath("type")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ty, err := ParseTypeExpr(c.tab, tyStr)
		if err != nil {
			return nil, &CompileError{Field: "params", Message: err.Error(), Pos: elem.Pos()}
		}
		out = append(out, ir.Parameter{Name: c.tab.Intern(name), Type: ty})
	}
	return out, nil
}

// buildTypes resolves the token, location, and error types. When no token
// type is declared, a builtin tokenizer is synthesized over the terminal
// patterns and the token type becomes (usize, &'input str).
func (c *grammarCompiler) buildTypes() error {
	var tokenType ir.TypeRepr
	tokenSpan := span(c.v)

	tv := c.v.LookupPath(cue.ParsePath("token"))
	if tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return formatCUEError(err)
		}
		tokenType, err = ParseTypeExpr(c.tab, s)
		if err != nil {
			return &CompileError{Field: "token", Message: err.Error(), Pos: tv.Pos()}
		}
		tokenSpan = span(tv)
	} else {
		tokenType = ir.TupleRepr{Elems: []ir.TypeRepr{
			ir.UsizeRepr(c.tab),
			ir.RefRepr{Lifetime: c.tab.Intern("'input"), Referent: ir.StrRepr(c.tab)},
		}}
		entries, err := c.tokenizerEntries()
		if err != nil {
			return err
		}
		c.grammar.BuiltinTokenizer = &ir.BuiltinTokenizer{
			Span:    tokenSpan,
			Entries: entries,
		}
	}
	c.grammar.TokenSpan = tokenSpan

	locType, err := c.optionalType("location")
	if err != nil {
		return err
	}
	errType, err := c.optionalType("error")
	if err != nil {
		return err
	}

	c.grammar.Types = ir.NewTypes(locType, errType, tokenType)
	return nil
}

func (c *grammarCompiler) optionalType(field string) (ir.TypeRepr, error) {
	fv := c.v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	s, err := fv.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	ty, err := ParseTypeExpr(c.tab, s)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: fv.Pos()}
	}
	return ty, nil
}

// tokenizerEntries lists terminal patterns for the synthesized tokenizer,
// ordered by terminal name so entry numbering does not depend on source
// layout.
func (c *grammarCompiler) tokenizerEntries() ([]ir.MatchEntry, error) {
	labels, fields, err := c.sortedFields("terminals")
	if err != nil {
		return nil, err
	}
	entries := make([]ir.MatchEntry, 0, len(labels))
	for i, label := range labels {
		patStr, err := fields[label].LookupPath(cue.ParsePath("pattern")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		entries = append(entries, ir.MatchEntry{
			Index:    i,
			Pattern:  patStr,
			Terminal: c.tab.Intern(label),
		})
	}
	return entries, nil
}

func (c *grammarCompiler) buildTerminals() error {
	labels, fields, err := c.sortedFields("terminals")
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return &CompileError{
			Field:   "terminals",
			Message: "at least one terminal is required",
			Pos:     c.v.Pos(),
		}
	}
	for _, label := range labels {
		tv := fields[label]
		atom := c.tab.Intern(label)
		c.terminals[atom] = true

		patStr, err := tv.LookupPath(cue.ParsePath("pattern")).String()
		if err != nil {
			return formatCUEError(err)
		}
		c.grammar.Conversions[atom] = ir.Pattern{Span: span(tv), Text: patStr}

		if tyv := tv.LookupPath(cue.ParsePath("type")); tyv.Exists() {
			s, err := tyv.String()
			if err != nil {
				return formatCUEError(err)
			}
			ty, err := ParseTypeExpr(c.tab, s)
			if err != nil {
				return &CompileError{
					Field:   fmt.Sprintf("terminals.%s.type", label),
					Message: err.Error(),
					Pos:     tyv.Pos(),
				}
			}
			c.grammar.Types.AddTermType(atom, ty)
		}
	}
	return nil
}

// registerRuleTypes registers every nonterminal's type before any
// production is built, so symbol types resolve regardless of rule order.
func (c *grammarCompiler) registerRuleTypes() error {
	labels, fields, err := c.sortedFields("rules")
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return &CompileError{
			Field:   "rules",
			Message: "at least one rule is required",
			Pos:     c.v.Pos(),
		}
	}
	for _, label := range labels {
		rv := fields[label]
		tyv := rv.LookupPath(cue.ParsePath("type"))
		if !tyv.Exists() {
			return &CompileError{
				Field:   fmt.Sprintf("rules.%s", label),
				Message: "rule type is required",
				Pos:     rv.Pos(),
			}
		}
		s, err := tyv.String()
		if err != nil {
			return formatCUEError(err)
		}
		ty, err := ParseTypeExpr(c.tab, s)
		if err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("rules.%s.type", label),
				Message: err.Error(),
				Pos:     tyv.Pos(),
			}
		}
		c.grammar.Types.AddType(c.tab.Intern(label), ty)
	}
	return nil
}

func (c *grammarCompiler) buildRules() error {
	labels, fields, err := c.sortedFields("rules")
	if err != nil {
		return err
	}
	for _, label := range labels {
		rv := fields[label]
		atom := c.tab.Intern(label)
		if c.terminals[atom] {
			return &CompileError{
				Field:   fmt.Sprintf("rules.%s", label),
				Message: "name collides with a terminal",
				Pos:     rv.Pos(),
			}
		}

		data := ir.NonterminalData{
			Name: atom,
			Span: span(rv),
		}

		if av := rv.LookupPath(cue.ParsePath("annotations")); av.Exists() {
			iter, err := av.List()
			if err != nil {
				return formatCUEError(err)
			}
			for iter.Next() {
				s, err := iter.Value().String()
				if err != nil {
					return formatCUEError(err)
				}
				data.Annotations = append(data.Annotations, ir.Annotation{
					Span: span(iter.Value()),
					Name: c.tab.Intern(s),
				})
			}
		}

		pv := rv.LookupPath(cue.ParsePath("productions"))
		if !pv.Exists() {
			return &CompileError{
				Field:   fmt.Sprintf("rules.%s", label),
				Message: "at least one production is required",
				Pos:     rv.Pos(),
			}
		}
		iter, err := pv.List()
		if err != nil {
			return formatCUEError(err)
		}
		idx := 0
		for iter.Next() {
			prod, err := c.buildProduction(atom, label, idx, iter.Value())
			if err != nil {
				return err
			}
			data.Productions = append(data.Productions, prod)
			idx++
		}
		if idx == 0 {
			return &CompileError{
				Field:   fmt.Sprintf("rules.%s", label),
				Message: "at least one production is required",
				Pos:     pv.Pos(),
			}
		}

		c.grammar.Nonterminals[atom] = data
	}
	return nil
}

func (c *grammarCompiler) buildProduction(nt intern.Atom, label string, idx int, pv cue.Value) (ir.Production, error) {
	field := fmt.Sprintf("rules.%s.productions[%d]", label, idx)

	symNames, err := stringListAt(pv, "symbols")
	if err != nil {
		return ir.Production{}, err
	}
	symbols := make([]ir.Symbol, len(symNames))
	for i, name := range symNames {
		atom := c.tab.Intern(name)
		if c.terminals[atom] {
			symbols[i] = ir.Terminal(atom)
		} else {
			symbols[i] = ir.Nonterminal(atom)
		}
	}

	bind, err := stringListAt(pv, "bind")
	if err != nil {
		return ir.Production{}, err
	}
	if len(bind) > 0 && len(bind) != len(symbols) {
		return ir.Production{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("bind names %d, symbols %d; counts must match", len(bind), len(symbols)),
			Pos:     pv.Pos(),
		}
	}

	fallible := false
	if fv := pv.LookupPath(cue.ParsePath("fallible")); fv.Exists() {
		if fallible, err = fv.Bool(); err != nil {
			return ir.Production{}, formatCUEError(err)
		}
	}

	code := ""
	av := pv.LookupPath(cue.ParsePath("action"))
	switch {
	case av.Exists():
		if code, err = av.String(); err != nil {
			return ir.Production{}, formatCUEError(err)
		}
	case len(symbols) == 1 && !fallible:
		// A single-symbol production without an action passes its value
		// through unchanged.
		code = c.argName(bind, 0)
	default:
		return ir.Production{}, &CompileError{
			Field:   field,
			Message: "action is required unless the production has exactly one symbol",
			Pos:     pv.Pos(),
		}
	}

	args := make([]ir.ActionArg, len(symbols))
	for i, sym := range symbols {
		if !sym.IsTerminal() {
			if _, ok := c.grammar.Types.LookupNonterminalType(sym.Name); !ok {
				return ir.Production{}, &CompileError{
					Field:   field,
					Message: fmt.Sprintf("symbol %q is neither a terminal nor a rule", sym.Name),
					Pos:     pv.Pos(),
				}
			}
		}
		args[i] = ir.ActionArg{
			Name: c.tab.Intern(c.argName(bind, i)),
			Type: sym.Type(c.grammar.Types),
		}
	}

	defn := ir.ActionFnDefn{
		Args:     args,
		RetType:  c.grammar.Types.NonterminalType(nt),
		Fallible: fallible,
		Code:     code,
	}
	fn := c.internAction(defn)

	action := ir.Call(fn)
	if fallible {
		action = ir.TryCall(fn)
	}

	return ir.Production{
		Nonterminal: nt,
		Symbols:     symbols,
		Action:      action,
		Span:        span(pv),
	}, nil
}

func (c *grammarCompiler) argName(bind []string, i int) string {
	if i < len(bind) && bind[i] != "" && bind[i] != "_" {
		return bind[i]
	}
	return fmt.Sprintf("__%d", i)
}

// internAction stores one ActionFnDefn per distinct fragment. Productions
// created by different rules (or duplicated by later rewrites) that share
// code and signature share the handle.
func (c *grammarCompiler) internAction(defn ir.ActionFnDefn) ir.ActionFn {
	key := fmt.Sprintf("%t\x00%s\x00%s", defn.Fallible, defn.String(), defn.Code)
	if fn, ok := c.actionFns[key]; ok {
		return fn
	}
	fn := ir.NewActionFn(len(c.grammar.ActionFnDefns))
	c.grammar.ActionFnDefns = append(c.grammar.ActionFnDefns, defn)
	c.actionFns[key] = fn
	return fn
}

// buildStarts synthesizes the augmenting nonterminal for each declared
// public nonterminal: S' with the single production S' = S.
func (c *grammarCompiler) buildStarts() error {
	starts, err := c.stringList("start")
	if err != nil {
		return err
	}
	if len(starts) == 0 {
		return &CompileError{
			Field:   "start",
			Message: "at least one start nonterminal is required",
			Pos:     c.v.Pos(),
		}
	}

	for _, name := range starts {
		user := c.tab.Intern(name)
		data, ok := c.grammar.Nonterminals[user]
		if !ok {
			return &CompileError{
				Field:   "start",
				Message: fmt.Sprintf("start nonterminal %q has no rule", name),
				Pos:     c.v.Pos(),
			}
		}

		synthetic := c.tab.Intern(name + "'")
		if _, dup := c.grammar.Nonterminals[synthetic]; dup {
			return &CompileError{
				Field:   "start",
				Message: fmt.Sprintf("synthetic nonterminal %q already exists", name+"'"),
				Pos:     c.v.Pos(),
			}
		}

		userType := c.grammar.Types.NonterminalType(user)
		c.grammar.Types.AddType(synthetic, userType)

		fn := c.internAction(ir.ActionFnDefn{
			Args:    []ir.ActionArg{{Name: c.tab.Intern("__0"), Type: userType}},
			RetType: userType,
			Code:    "__0",
		})

		c.grammar.StartNonterminals[user] = synthetic
		c.grammar.Nonterminals[synthetic] = ir.NonterminalData{
			Name: synthetic,
			Span: data.Span,
			Productions: []ir.Production{{
				Nonterminal: synthetic,
				Symbols:     []ir.Symbol{ir.Nonterminal(user)},
				Action:      ir.Call(fn),
				Span:        data.Span,
			}},
		}
	}
	return nil
}

// sortedFields returns the labels and values of a struct field in name
// order, for order-independent compilation.
func (c *grammarCompiler) sortedFields(field string) ([]string, map[string]cue.Value, error) {
	fv := c.v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	fields := make(map[string]cue.Value)
	var labels []string
	for iter.Next() {
		// Terminal names like "+" appear as quoted string labels.
		sel := iter.Selector()
		label := sel.String()
		if sel.LabelType() == cue.StringLabel {
			label = sel.Unquoted()
		}
		labels = append(labels, label)
		fields[label] = iter.Value()
	}
	sort.Strings(labels)
	return labels, fields, nil
}

func (c *grammarCompiler) requiredString(field string) (string, error) {
	fv := c.v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     c.v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func (c *grammarCompiler) stringList(field string) ([]string, error) {
	return stringListAt(c.v, field)
}

func stringListAt(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func span(v cue.Value) ir.Span {
	pos := v.Pos()
	if !pos.IsValid() {
		return ir.Span{}
	}
	return ir.Span{Start: pos.Offset(), End: pos.Offset()}
}

// CompileError is a grammar-definition problem with a source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE evaluation errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
