// Package store provides the SQLite-backed compiled-grammar cache.
//
// Each entry is keyed by the grammar's content hash (RFC 8785 canonical
// JSON, SHA-256 with domain separation, computed in internal/ir/hash.go),
// so a definition that normalizes to the same IR always lands on the same
// row. Writes are idempotent: inserting a hash that already exists is a
// no-op, which lets repeated builds of an unchanged grammar skip
// regeneration.
//
// Ordering never uses wall time. Every record carries a seq assigned at
// insert, and listings order by seq ASC, hash ASC COLLATE BINARY so results
// are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
