package cache

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
)

// KindStats is the per-kind slice of the statistics breakdown.
type KindStats struct {
	Entries int64
	Bytes   int64
}

// Stats is a consistent snapshot of the store, taken in a single read
// transaction so counts cannot race concurrent writers.
type Stats struct {
	TotalEntries   int64
	ValidEntries   int64
	ExpiredEntries int64
	SizeBytes      int64 // backing file size on disk
	Kinds          map[Kind]KindStats
	TTL            map[Kind]time.Duration
}

// Stats reports entry counts, sizes and the configured TTL policy. Structured
// data only; formatting is the CLI's concern.
func (s *sqliteStore) Stats(ctx context.Context) (*Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stats transaction")
	}
	defer tx.Rollback()

	now := s.now().UTC().Unix()
	out := &Stats{
		Kinds: make(map[Kind]KindStats),
		TTL:   make(map[Kind]time.Duration),
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0)
		FROM cache_entry`, now,
	).Scan(&out.TotalEntries, &out.ValidEntries); err != nil {
		return nil, errors.Wrap(err, "failed to count cache entries")
	}
	out.ExpiredEntries = out.TotalEntries - out.ValidEntries

	rows, err := tx.QueryContext(ctx, `
		SELECT kind, COUNT(*), COALESCE(SUM(LENGTH(payload)), 0)
		FROM cache_entry GROUP BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to break down cache entries by kind")
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var ks KindStats
		if err := rows.Scan(&kind, &ks.Entries, &ks.Bytes); err != nil {
			return nil, errors.Wrap(err, "failed to scan kind statistics")
		}
		out.Kinds[Kind(kind)] = ks
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate kind statistics")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit stats transaction")
	}

	if fi, err := os.Stat(s.path); err == nil {
		out.SizeBytes = fi.Size()
	}
	for _, kind := range Kinds() {
		out.TTL[kind] = s.cfg.TTL.For(kind)
	}
	return out, nil
}
