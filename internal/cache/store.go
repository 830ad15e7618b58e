// Package cache implements the local TTL cache that sits between the vendor
// API and the rest of the pipeline.
//
// Entries are stored in a single SQLite file (one row per cache key) with a
// creation and an expiration timestamp. Lookups never return a value whose
// TTL has elapsed; expired rows are deleted lazily on read and in bulk by
// ClearExpired. Total payload size is bounded: when a write pushes the store
// over the configured cap, the oldest entries (by creation time, not access
// recency) are evicted until the store is back under the eviction target.
//
// The backing file is opened in WAL mode with a bounded busy timeout, so
// concurrent invocations of the tool sharing one cache directory coordinate
// through SQLite's own locking. A store that fails its integrity check at
// open time is renamed aside with a .corrupt.<timestamp> suffix and replaced
// with a fresh empty one; callers only ever observe an empty cache.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/avelasco/trainsight/internal/core"
)

// Sentinel errors. Absence is never an error; these cover the two conditions
// callers may need to branch on.
var (
	// ErrEmptyKey is returned when an operation is given an empty cache key.
	ErrEmptyKey = errors.New("cache: empty key")

	// ErrPayloadTooLarge is returned by Set when a single payload exceeds the
	// configured maximum store size. The value is simply not cached; callers
	// should treat this as a skip, not a failure.
	ErrPayloadTooLarge = errors.New("cache: payload exceeds maximum store size")

	// ErrContended is returned when a write could not acquire the store lock
	// within the configured busy timeout. Retriable; callers fall back to a
	// live fetch.
	ErrContended = errors.New("cache: store lock contended")
)

// Store is the caching contract consumed by the data-extraction layer.
// Get returns (payload, true, nil) on a hit and (nil, false, nil) on a miss;
// an expired entry is a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, kind Kind, payload []byte, meta map[string]string, ttl time.Duration) error
	ClearExpired(ctx context.Context) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Config carries everything the store needs; it is built by the config
// package and passed in explicitly, the store reads no ambient state.
type Config struct {
	Enabled     bool
	Dir         string        // storage directory, created 0700 if missing
	FileName    string        // backing file name, default trainsight_cache.db
	TTL         TTLPolicy     // per-kind expiration policy
	MaxBytes    int64         // total payload cap, 0 means core.DefaultCacheMaxBytes
	BusyTimeout time.Duration // bounded wait for the write lock
}

func (c *Config) applyDefaults() {
	if c.Dir == "" {
		c.Dir = core.DefaultCacheDir()
	}
	if c.FileName == "" {
		c.FileName = core.DefaultCacheFileName
	}
	if c.TTL.Base <= 0 {
		c.TTL.Base = core.DefaultCacheTTL
	}
	if c.TTL.ExtendedFactor <= 0 {
		c.TTL.ExtendedFactor = core.DefaultExtendedFactor
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = core.DefaultCacheMaxBytes
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = core.DefaultCacheBusyWait
	}
}

// evictTargetRatio is the fill level eviction shrinks the store down to, so
// one oversized write does not trigger eviction on every write that follows.
const evictTargetRatio = 0.7

const schema = `
CREATE TABLE IF NOT EXISTS cache_entry (
	cache_key  TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entry_expires ON cache_entry (expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_entry_created ON cache_entry (created_at);
`

type sqliteStore struct {
	db     *sql.DB
	path   string
	cfg    Config
	logger *slog.Logger

	now func() time.Time // replaced in tests to drive expiry
}

// New opens (or creates) the cache store described by cfg. With caching
// disabled it returns a transparent no-op store that performs no disk I/O.
// A corrupt backing file is quarantined and replaced; that path never
// surfaces as an error.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		return noopStore{}, nil
	}
	cfg.applyDefaults()

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", cfg.Dir)
	}
	// The directory may predate us with looser permissions.
	if err := os.Chmod(cfg.Dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to restrict cache directory permissions")
	}

	path := filepath.Join(cfg.Dir, cfg.FileName)

	db, err := openVerified(path, cfg.BusyTimeout)
	if err != nil {
		// Unreadable or failing its integrity check: quarantine and start
		// fresh. The .corrupt file is kept for forensic inspection.
		quarantine := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UTC().Unix())
		logger.Warn("cache store corrupted, reinitializing",
			slog.String("path", path),
			slog.String("quarantined_as", quarantine),
			slog.String("error", err.Error()))
		if renameErr := os.Rename(path, quarantine); renameErr != nil && !os.IsNotExist(renameErr) {
			return nil, errors.Wrap(renameErr, "failed to quarantine corrupt cache store")
		}
		os.Remove(path + "-wal")
		os.Remove(path + "-shm")

		db, err = openVerified(path, cfg.BusyTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "failed to reinitialize cache store")
		}
	}

	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to restrict cache file permissions")
	}

	return &sqliteStore{
		db:     db,
		path:   path,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// openVerified opens the SQLite file, checks its integrity and ensures the
// schema exists. Any failure means the file is unusable as a cache store.
func openVerified(path string, busyTimeout time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=auto_vacuum(2)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache store")
	}

	var verdict string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&verdict); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "integrity check failed")
	}
	if verdict != "ok" {
		db.Close()
		return nil, errors.Errorf("integrity check failed: %s", verdict)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ensure cache schema")
	}

	return db, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// Get looks up key. Expired rows are treated as absent and deleted on the
// spot so storage does not accumulate between scheduled cleanups.
func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	var payload []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM cache_entry WHERE cache_key = ?", key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		// A read fault degrades to a miss; the caller falls back to the
		// authoritative remote source.
		s.logger.Warn("cache read failed, treating as miss",
			slog.String("key", key), slog.String("error", err.Error()))
		return nil, false, nil
	}

	if expiresAt <= s.now().UTC().Unix() {
		s.logger.Debug("cache entry expired", slog.String("key", key))
		if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entry WHERE cache_key = ?", key); err != nil {
			s.logger.Warn("failed to delete expired cache entry",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false, nil
	}

	return payload, true, nil
}

// Set upserts key with the given payload and TTL. A ttl of zero writes an
// entry that is already expired. Writing may trigger oldest-first eviction
// to keep the store under its size cap.
func (s *sqliteStore) Set(ctx context.Context, key string, kind Kind, payload []byte, meta map[string]string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		return errors.Errorf("cache: negative ttl %v", ttl)
	}
	if int64(len(payload)) > s.cfg.MaxBytes {
		s.logger.Warn("payload exceeds cache size limit, not cached",
			slog.String("key", key),
			slog.Int("payload_bytes", len(payload)),
			slog.Int64("max_bytes", s.cfg.MaxBytes))
		return ErrPayloadTooLarge
	}

	metaJSON := "{}"
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return errors.Wrap(err, "failed to encode cache metadata")
		}
		metaJSON = string(raw)
	}

	createdAt := s.now().UTC()
	expiresAt := createdAt.Add(ttl)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entry (cache_key, kind, payload, metadata, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			metadata = excluded.metadata,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		key, string(kind), payload, metaJSON, createdAt.Unix(), expiresAt.Unix())
	if err != nil {
		if isBusy(err) {
			return errors.Wrapf(ErrContended, "write for key %s: %v", key, err)
		}
		return errors.Wrapf(err, "failed to write cache entry %s", key)
	}

	return s.enforceSizeBound(ctx)
}

// enforceSizeBound evicts the oldest entries until total payload size is at
// or below the eviction target. Age-based on purpose: the cap protects disk
// usage, it is not an LRU hit-rate optimization.
func (s *sqliteStore) enforceSizeBound(ctx context.Context) error {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(LENGTH(payload)), 0) FROM cache_entry").Scan(&total); err != nil {
		return errors.Wrap(err, "failed to measure cache size")
	}
	if total <= s.cfg.MaxBytes {
		return nil
	}

	target := int64(float64(s.cfg.MaxBytes) * evictTargetRatio)
	toFree := total - target

	rows, err := s.db.QueryContext(ctx,
		"SELECT cache_key, LENGTH(payload) FROM cache_entry ORDER BY created_at ASC")
	if err != nil {
		return errors.Wrap(err, "failed to list cache entries for eviction")
	}
	defer rows.Close()

	var victims []any
	var freed int64
	for rows.Next() && freed < toFree {
		var key string
		var size int64
		if err := rows.Scan(&key, &size); err != nil {
			return errors.Wrap(err, "failed to scan eviction candidate")
		}
		victims = append(victims, key)
		freed += size
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate eviction candidates")
	}
	rows.Close()

	if len(victims) == 0 {
		return nil
	}

	stmt := "DELETE FROM cache_entry WHERE cache_key IN (?" +
		strings.Repeat(",?", len(victims)-1) + ")"
	if _, err := s.db.ExecContext(ctx, stmt, victims...); err != nil {
		return errors.Wrap(err, "failed to evict cache entries")
	}
	s.db.ExecContext(ctx, "PRAGMA incremental_vacuum")

	s.logger.Info("evicted oldest cache entries to stay under size cap",
		slog.Int("entries", len(victims)),
		slog.Int64("freed_bytes", freed),
		slog.Int64("cap_bytes", s.cfg.MaxBytes))
	return nil
}

// ClearExpired deletes every entry whose TTL has elapsed. Idempotent.
func (s *sqliteStore) ClearExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entry WHERE expires_at <= ?", s.now().UTC().Unix())
	if err != nil {
		if isBusy(err) {
			return 0, errors.Wrap(ErrContended, err.Error())
		}
		return 0, errors.Wrap(err, "failed to clear expired cache entries")
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.logger.Info("removed expired cache entries", slog.Int64("count", removed))
	}
	return removed, nil
}

// ClearAll deletes every entry and compacts the backing file so the disk
// space is actually reclaimed.
func (s *sqliteStore) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entry")
	if err != nil {
		if isBusy(err) {
			return 0, errors.Wrap(ErrContended, err.Error())
		}
		return 0, errors.Wrap(err, "failed to clear cache")
	}
	removed, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		s.logger.Warn("failed to compact cache store after clear",
			slog.String("error", err.Error()))
	}
	s.logger.Info("cache cleared", slog.Int64("entries_removed", removed))
	return removed, nil
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlitelib.SQLITE_BUSY || code == sqlitelib.SQLITE_LOCKED
	}
	return false
}

