// Package ir holds the compiled representation of a grammar: the simplified,
// normalized form that the front end lowers a grammar definition into, and
// that table construction and code generation read.
//
// The normalization pipeline is the single writer. It populates a Grammar
// incrementally (adding productions, registering types, allocating action
// function handles); once construction finishes the Grammar is frozen and
// safe to share across read-only backend stages.
//
// Layering rule: every other internal package may import ir; ir imports only
// internal/intern. This keeps the IR the foundational layer with no circular
// dependencies.
//
// Failure model:
//   - User-input problems (unknown algorithm name, malformed definitions)
//     surface as ordinary errors or validation results.
//   - Invariant violations (double type registration, lookups of names the
//     pipeline never registered) are construction defects and panic
//     immediately rather than producing an inconsistent IR.
package ir
