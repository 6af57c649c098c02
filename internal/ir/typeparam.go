package ir

import "github.com/roach88/grackle/internal/intern"

// TypeParamKind distinguishes lifetime parameters from type identifiers.
type TypeParamKind uint8

const (
	// TypeParamLifetime is a lifetime parameter like 'input.
	TypeParamLifetime TypeParamKind = iota
	// TypeParamID is an identifier that may name a type parameter. Whether
	// it actually does is decided by filtering against the grammar's
	// declared parameter list; see TypeRepr.Referenced.
	TypeParamID
)

// TypeParam is a generic parameter declared on the grammar, or a candidate
// parameter extracted from a type expression.
type TypeParam struct {
	Kind TypeParamKind
	Name intern.Atom
}

// Lifetime constructs a lifetime parameter. The name includes the leading
// tick, e.g. "'input".
func Lifetime(name intern.Atom) TypeParam {
	return TypeParam{Kind: TypeParamLifetime, Name: name}
}

// ID constructs an identifier parameter.
func ID(name intern.Atom) TypeParam {
	return TypeParam{Kind: TypeParamID, Name: name}
}

func (p TypeParam) String() string {
	return p.Name.String()
}
