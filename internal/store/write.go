package store

import (
	"context"
	"fmt"
)

// Put inserts a cache record, assigning its seq inside the transaction.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency: if the grammar is
// already cached, the existing row is untouched and inserted is false.
func (s *Store) Put(ctx context.Context, rec Record) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put grammar: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM grammars`,
	).Scan(&seq); err != nil {
		return false, fmt.Errorf("put grammar: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO grammars
		(hash, build_id, prefix, algorithm, ir_version, source_path, canonical, dump, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		rec.Hash,
		rec.BuildID,
		rec.Prefix,
		rec.Algorithm,
		rec.IRVersion,
		rec.SourcePath,
		rec.Canonical,
		rec.Dump,
		seq,
	)
	if err != nil {
		return false, fmt.Errorf("put grammar: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put grammar: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put grammar: commit: %w", err)
	}

	return rows > 0, nil
}

// Delete removes a cached grammar by hash. Returns whether a row existed.
func (s *Store) Delete(ctx context.Context, hash string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM grammars WHERE hash = ?`, hash)
	if err != nil {
		return false, fmt.Errorf("delete grammar: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete grammar: rows affected: %w", err)
	}
	return rows > 0, nil
}
