package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/grackle/internal/ir"
)

// Record is one cached grammar. Hash is the content-addressed identity;
// BuildID is a fresh UUID naming the build that produced the entry, so two
// builds that hit the same hash can still be told apart in logs.
type Record struct {
	Hash       string
	BuildID    string
	Prefix     string
	Algorithm  string
	IRVersion  string
	SourcePath string
	Canonical  string // RFC 8785 canonical JSON of the normalized grammar
	Dump       string // human-readable rendering, as printed by describe
	Seq        int64  // logical insert order, assigned by Put
}

// NewRecord snapshots a normalized grammar into a cache record. The grammar
// must validate; hashing fails otherwise.
func NewRecord(g *ir.Grammar, sourcePath string) (Record, error) {
	canonical, err := ir.CanonicalJSON(g)
	if err != nil {
		return Record{}, fmt.Errorf("new record: %w", err)
	}
	hash, err := ir.GrammarHash(g)
	if err != nil {
		return Record{}, fmt.Errorf("new record: %w", err)
	}
	return Record{
		Hash:       hash,
		BuildID:    uuid.NewString(),
		Prefix:     g.Prefix,
		Algorithm:  g.Algorithm.String(),
		IRVersion:  ir.IRVersion,
		SourcePath: sourcePath,
		Canonical:  string(canonical),
		Dump:       g.DebugString(),
	}, nil
}
