package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type memoryEntry struct {
	kind      Kind
	payload   []byte
	createdAt int64
	expiresAt int64
}

// memoryStore is an in-memory Store for tests and short-lived runs where
// persistence across processes is not wanted. Same TTL semantics as the
// SQLite store, no size bound.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns a Store backed by a process-local map.
func NewMemory() Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expiresAt <= m.now().UTC().Unix() {
		delete(m.entries, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, true, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, kind Kind, payload []byte, meta map[string]string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		return errors.Errorf("cache: negative ttl %v", ttl)
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	created := m.now().UTC().Unix()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		kind:      kind,
		payload:   stored,
		createdAt: created,
		expiresAt: created + int64(ttl/time.Second),
	}
	return nil
}

func (m *memoryStore) ClearExpired(ctx context.Context) (int64, error) {
	cutoff := m.now().UTC().Unix()

	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key, e := range m.entries {
		if e.expiresAt <= cutoff {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryStore) ClearAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.entries))
	m.entries = make(map[string]memoryEntry)
	return removed, nil
}

func (m *memoryStore) Stats(ctx context.Context) (*Stats, error) {
	cutoff := m.now().UTC().Unix()

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		Kinds: make(map[Kind]KindStats),
		TTL:   make(map[Kind]time.Duration),
	}
	for _, e := range m.entries {
		stats.TotalEntries++
		if e.expiresAt > cutoff {
			stats.ValidEntries++
		} else {
			stats.ExpiredEntries++
		}
		stats.SizeBytes += int64(len(e.payload))

		ks := stats.Kinds[e.kind]
		ks.Entries++
		ks.Bytes += int64(len(e.payload))
		stats.Kinds[e.kind] = ks
	}
	return stats, nil
}

func (m *memoryStore) Close() error {
	return nil
}
