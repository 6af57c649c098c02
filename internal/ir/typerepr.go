package ir

import (
	"strings"

	"github.com/roach88/grackle/internal/intern"
)

// TypeRepr is a type expression assigned to a symbol or action function.
// It is a sealed interface: only TupleRepr, NominalRepr, LifetimeRepr and
// RefRepr implement it. Values are immutable trees; construction never
// produces cycles.
//
// String renders valid target-type syntax and is the single canonical
// renderer: diagnostics and code generation both go through it, so there is
// no separate debug formatter to drift out of sync.
type TypeRepr interface {
	typeRepr() // sealed

	// Referenced returns the type parameters (or potential type parameters)
	// this type mentions, in traversal order, without deduplication. For
	// `&'x X` it returns [Lifetime('x), ID(X)]. Identifiers are candidates
	// only: a bare path segment may or may not be one of the grammar's
	// declared type parameters, so callers filter the result against the
	// declared list. Downstream passes use this to prune generated
	// signatures to the parameters they actually use.
	Referenced() []TypeParam

	String() string
}

// TupleRepr is a tuple type like (L, T, L). The empty tuple is the unit
// type, used as the default "no information" representation.
type TupleRepr struct {
	Elems []TypeRepr
}

// Path is a possibly-qualified type name like std::option::Option. Segments
// are interned; rendering joins them with "::".
type Path struct {
	Segments []intern.Atom
}

// PathOf builds a Path from its segments.
func PathOf(segments ...intern.Atom) Path {
	return Path{Segments: segments}
}

// AsID returns the path's sole segment when the path is a single bare
// identifier, which is the only form that can name a type parameter.
func (p Path) AsID() (intern.Atom, bool) {
	if len(p.Segments) == 1 {
		return p.Segments[0], true
	}
	return intern.Atom{}, false
}

func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p.Segments {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// NominalRepr is a named type with optional generic arguments, like
// Vec<T> or super::ast::Expr.
type NominalRepr struct {
	Path Path
	Args []TypeRepr
}

// LifetimeRepr is a lifetime used in type position. The name includes the
// leading tick.
type LifetimeRepr struct {
	Name intern.Atom
}

// RefRepr is a reference type with an optional lifetime and mutability
// qualifier. A zero Lifetime Atom means the lifetime is elided.
type RefRepr struct {
	Lifetime intern.Atom
	Mutable  bool
	Referent TypeRepr
}

func (TupleRepr) typeRepr()    {}
func (NominalRepr) typeRepr()  {}
func (LifetimeRepr) typeRepr() {}
func (RefRepr) typeRepr()      {}

// UnitRepr returns the zero-element tuple type.
func UnitRepr() TypeRepr {
	return TupleRepr{}
}

// NominalOf builds a nominal type from a bare identifier and arguments.
func NominalOf(name intern.Atom, args ...TypeRepr) TypeRepr {
	return NominalRepr{Path: PathOf(name), Args: args}
}

// UsizeRepr returns the target's pointer-sized integer type.
func UsizeRepr(tab *intern.Table) TypeRepr {
	return NominalOf(tab.Intern("usize"))
}

// StrRepr returns the target's string slice type.
func StrRepr(tab *intern.Table) TypeRepr {
	return NominalOf(tab.Intern("str"))
}

func (t TupleRepr) Referenced() []TypeParam {
	var out []TypeParam
	for _, elem := range t.Elems {
		out = append(out, elem.Referenced()...)
	}
	return out
}

func (n NominalRepr) Referenced() []TypeParam {
	var out []TypeParam
	for _, arg := range n.Args {
		out = append(out, arg.Referenced()...)
	}
	if id, ok := n.Path.AsID(); ok {
		out = append(out, ID(id))
	}
	return out
}

func (l LifetimeRepr) Referenced() []TypeParam {
	return []TypeParam{Lifetime(l.Name)}
}

func (r RefRepr) Referenced() []TypeParam {
	var out []TypeParam
	if !r.Lifetime.IsZero() {
		out = append(out, Lifetime(r.Lifetime))
	}
	return append(out, r.Referent.Referenced()...)
}

func (t TupleRepr) String() string {
	return "(" + joinReprs(t.Elems) + ")"
}

func (n NominalRepr) String() string {
	if len(n.Args) == 0 {
		return n.Path.String()
	}
	return n.Path.String() + "<" + joinReprs(n.Args) + ">"
}

func (l LifetimeRepr) String() string {
	return l.Name.String()
}

func (r RefRepr) String() string {
	var sb strings.Builder
	sb.WriteByte('&')
	if !r.Lifetime.IsZero() {
		sb.WriteString(r.Lifetime.String())
		sb.WriteByte(' ')
	}
	if r.Mutable {
		sb.WriteString("mut ")
	}
	sb.WriteString(r.Referent.String())
	return sb.String()
}

func joinReprs(ts []TypeRepr) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// EqualRepr reports structural equality of two type expressions.
func EqualRepr(a, b TypeRepr) bool {
	switch av := a.(type) {
	case TupleRepr:
		bv, ok := b.(TupleRepr)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !EqualRepr(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case NominalRepr:
		bv, ok := b.(NominalRepr)
		if !ok || len(av.Args) != len(bv.Args) {
			return false
		}
		if len(av.Path.Segments) != len(bv.Path.Segments) {
			return false
		}
		for i := range av.Path.Segments {
			if av.Path.Segments[i] != bv.Path.Segments[i] {
				return false
			}
		}
		for i := range av.Args {
			if !EqualRepr(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case LifetimeRepr:
		bv, ok := b.(LifetimeRepr)
		return ok && av.Name == bv.Name
	case RefRepr:
		bv, ok := b.(RefRepr)
		return ok && av.Lifetime == bv.Lifetime && av.Mutable == bv.Mutable &&
			EqualRepr(av.Referent, bv.Referent)
	default:
		return false
	}
}

// CompareRepr is a total order over type expressions, used where IR pieces
// containing types need deterministic ordering. Variants order as
// tuple < nominal < lifetime < ref; within a variant the comparison is
// field-wise.
func CompareRepr(a, b TypeRepr) int {
	ra, rb := reprRank(a), reprRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case TupleRepr:
		return compareReprSlices(av.Elems, b.(TupleRepr).Elems)
	case NominalRepr:
		bv := b.(NominalRepr)
		if c := comparePaths(av.Path, bv.Path); c != 0 {
			return c
		}
		return compareReprSlices(av.Args, bv.Args)
	case LifetimeRepr:
		return av.Name.Compare(b.(LifetimeRepr).Name)
	case RefRepr:
		bv := b.(RefRepr)
		if c := av.Lifetime.Compare(bv.Lifetime); c != 0 {
			return c
		}
		if av.Mutable != bv.Mutable {
			if bv.Mutable {
				return -1
			}
			return 1
		}
		return CompareRepr(av.Referent, bv.Referent)
	default:
		return 0
	}
}

func reprRank(t TypeRepr) int {
	switch t.(type) {
	case TupleRepr:
		return 0
	case NominalRepr:
		return 1
	case LifetimeRepr:
		return 2
	default:
		return 3
	}
}

func comparePaths(a, b Path) int {
	for i := 0; i < len(a.Segments) && i < len(b.Segments); i++ {
		if c := a.Segments[i].Compare(b.Segments[i]); c != 0 {
			return c
		}
	}
	return len(a.Segments) - len(b.Segments)
}

func compareReprSlices(a, b []TypeRepr) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareRepr(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
