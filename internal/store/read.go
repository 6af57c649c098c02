package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record exists for the hash.
var ErrNotFound = errors.New("store: grammar not found")

const recordColumns = `hash, build_id, prefix, algorithm, ir_version, source_path, canonical, dump, seq`

// Get retrieves a cached grammar by its content hash.
// Returns ErrNotFound if the hash is not cached.
func (s *Store) Get(ctx context.Context, hash string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM grammars
		WHERE hash = ?
	`, hash)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get grammar: %w", err)
	}
	return rec, nil
}

// List returns all cached grammars in deterministic order:
// ORDER BY seq ASC, hash ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when the cache is empty.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM grammars
		ORDER BY seq ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list grammars: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list grammars: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grammars: %w", err)
	}

	return records, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.Hash,
		&rec.BuildID,
		&rec.Prefix,
		&rec.Algorithm,
		&rec.IRVersion,
		&rec.SourcePath,
		&rec.Canonical,
		&rec.Dump,
		&rec.Seq,
	)
	return rec, err
}
