package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/grackle/internal/intern"
)

// Production is one rule rewriting a nonterminal into a sequence of symbols,
// paired with the action invoked when the rule is reduced.
type Production struct {
	// Nonterminal duplicates the key under which the production is stored;
	// having it on the value is handy for consumers holding a bare slice.
	Nonterminal intern.Atom
	Symbols     []Symbol
	Action      ActionKind
	Span        Span
}

// Compare is a structural total order over productions, field by field:
// nonterminal, symbols, action, span. Table construction relies on this
// being reproducible across runs so that production numbering is stable.
func (p Production) Compare(o Production) int {
	if c := p.Nonterminal.Compare(o.Nonterminal); c != 0 {
		return c
	}
	for i := 0; i < len(p.Symbols) && i < len(o.Symbols); i++ {
		if c := p.Symbols[i].Compare(o.Symbols[i]); c != 0 {
			return c
		}
	}
	if c := len(p.Symbols) - len(o.Symbols); c != 0 {
		return c
	}
	if c := p.Action.Compare(o.Action); c != 0 {
		return c
	}
	if c := p.Span.Start - o.Span.Start; c != 0 {
		return c
	}
	return p.Span.End - o.Span.End
}

// Equal reports structural equality, consistent with Compare.
func (p Production) Equal(o Production) bool {
	return p.Compare(o) == 0
}

func (p Production) String() string {
	syms := make([]string, len(p.Symbols))
	for i, s := range p.Symbols {
		syms[i] = s.String()
	}
	return fmt.Sprintf("%s = %s => %s;",
		p.Nonterminal, strings.Join(syms, ", "), p.Action)
}

// NonterminalData is the definition of one nonterminal: its declaration
// site, annotations, and productions. Production order is significant — it
// determines the numbering used by table construction and must be stable
// across normalization passes.
type NonterminalData struct {
	Name        intern.Atom
	Span        Span
	Annotations []Annotation
	Productions []Production
}
