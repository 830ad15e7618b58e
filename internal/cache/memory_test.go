package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k1", KindActivities, []byte("payload"), nil, time.Hour))

	got, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	_, ok, err = m.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory().(*memoryStore)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k1", KindSleep, []byte("x"), nil, time.Hour))
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPayloadIsolated(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	payload := []byte("abc")
	require.NoError(t, m.Set(ctx, "k1", KindActivities, payload, nil, time.Hour))
	payload[0] = 'z'

	got, ok, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, _, _ := m.Get(ctx, "k1")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryClearAndStats(t *testing.T) {
	m := NewMemory().(*memoryStore)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", KindActivities, []byte("1234"), nil, time.Hour))
	require.NoError(t, m.Set(ctx, "b", KindSleep, []byte("12"), nil, time.Hour))
	require.NoError(t, m.Set(ctx, "c", KindSleep, []byte("12"), nil, 0))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEntries)
	assert.Equal(t, int64(2), stats.ValidEntries)
	assert.Equal(t, int64(1), stats.ExpiredEntries)
	assert.Equal(t, int64(4), stats.Kinds[KindActivities].Bytes)
	assert.NotNil(t, stats.TTL)

	removed, err := m.ClearExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = m.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestMemoryEmptyKeyRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, m.Set(ctx, "", KindActivities, nil, nil, time.Hour), ErrEmptyKey)
	_, _, err := m.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
