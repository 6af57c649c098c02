package ir

// Algorithm selects the table-construction strategy for a grammar. It is
// chosen once, when the grammar's algorithm annotation is normalized, and
// never changes afterward.
type Algorithm int

const (
	// LR1 builds canonical LR(1) tables: larger, never merges states.
	LR1 Algorithm = iota
	// LALR1 builds LALR(1) tables: merges states with equal cores.
	LALR1
)

// AlgorithmFromString parses the user-facing algorithm name. The aliases
// are case-sensitive; anything else reports no match, and the caller owns
// the unsupported-algorithm diagnostic.
func AlgorithmFromString(s string) (Algorithm, bool) {
	switch s {
	case "LR", "LR(1)":
		return LR1, true
	case "LALR", "LALR(1)":
		return LALR1, true
	default:
		return 0, false
	}
}

func (a Algorithm) String() string {
	switch a {
	case LR1:
		return "LR(1)"
	case LALR1:
		return "LALR(1)"
	default:
		return "unknown"
	}
}
