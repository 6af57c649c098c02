package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/grackle/internal/intern"
)

// ActionFn is a non-owning handle into Grammar.ActionFnDefns. Productions
// reference their action code through this index instead of embedding the
// code at every use site: normalization passes duplicate and rewrite
// productions freely while the underlying fragment is stored once, and the
// stable index lets later passes recognize productions that share an action.
// Handles are validated by construction order, not runtime checks.
type ActionFn uint32

// NewActionFn creates a handle for slot x of the action function table.
func NewActionFn(x int) ActionFn {
	return ActionFn(x)
}

// Index returns the handle's slot in the action function table.
func (f ActionFn) Index() int {
	return int(f)
}

// ActionArg is one named, typed argument of an action function.
type ActionArg struct {
	Name intern.Atom
	Type TypeRepr
}

// ActionFnDefn is the owned definition of a user action: its argument list,
// return type, fallibility, and the opaque code fragment supplied by the
// grammar author. Definitions are immutable once created and live in
// Grammar.ActionFnDefns, one entry per distinct fragment.
type ActionFnDefn struct {
	Args     []ActionArg
	RetType  TypeRepr
	Fallible bool
	Code     string
}

func (d ActionFnDefn) String() string {
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	return fmt.Sprintf("fn _(%s) -> %s { %s }",
		strings.Join(args, ", "), d.RetType, d.Code)
}

// ActionKind says how a production invokes its action: Call for actions
// that cannot fail, TryCall for actions whose error must propagate. Both
// wrap the same kind of handle; the split lets downstream code decide per
// use site whether to emit error-propagation glue, while the definition
// itself stays agnostic to how it is invoked.
type ActionKind struct {
	Fn       ActionFn
	Fallible bool
}

// Call wraps a handle to an infallible action.
func Call(fn ActionFn) ActionKind {
	return ActionKind{Fn: fn}
}

// TryCall wraps a handle to a fallible action.
func TryCall(fn ActionFn) ActionKind {
	return ActionKind{Fn: fn, Fallible: true}
}

// Compare orders action kinds: infallible calls before fallible ones, then
// by handle index.
func (k ActionKind) Compare(o ActionKind) int {
	if k.Fallible != o.Fallible {
		if o.Fallible {
			return -1
		}
		return 1
	}
	return int(k.Fn) - int(o.Fn)
}

func (k ActionKind) String() string {
	if k.Fallible {
		return fmt.Sprintf("TryCall(%d)", k.Fn.Index())
	}
	return fmt.Sprintf("Call(%d)", k.Fn.Index())
}
