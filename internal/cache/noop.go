package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// noopStore backs the disabled-cache mode: same interface, no effect. Every
// read is a miss, every write is dropped, no disk I/O ever happens.
type noopStore struct{}

func (noopStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	return nil, false, nil
}

func (noopStore) Set(_ context.Context, key string, _ Kind, _ []byte, _ map[string]string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		return errors.Errorf("cache: negative ttl %v", ttl)
	}
	return nil
}

func (noopStore) ClearExpired(context.Context) (int64, error) { return 0, nil }
func (noopStore) ClearAll(context.Context) (int64, error)     { return 0, nil }

func (noopStore) Stats(context.Context) (*Stats, error) {
	return &Stats{Kinds: map[Kind]KindStats{}, TTL: map[Kind]time.Duration{}}, nil
}

func (noopStore) Close() error { return nil }
