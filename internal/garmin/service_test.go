package garmin

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco/trainsight/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, api API) *Service {
	t.Helper()
	store, err := cache.New(cache.Config{
		Enabled: true,
		Dir:     t.TempDir(),
		TTL:     cache.TTLPolicy{Base: 24 * time.Hour, ExtendedFactor: 7},
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(api, store, cache.TTLPolicy{Base: 24 * time.Hour, ExtendedFactor: 7}, testLogger())
}

func seededMock() *MockAPI {
	m := NewMockAPI()
	m.ActivityList = []Activity{
		{ID: 1, Name: "Morning Run", Type: ActivityType{TypeKey: "running"},
			StartTimeLocal: "2025-01-29 07:15:00", DistanceMeters: 10000, DurationSeconds: 3000},
		{ID: 2, Name: "Easy Ride", Type: ActivityType{TypeKey: "cycling"},
			StartTimeLocal: "2025-01-28 18:00:00", DistanceMeters: 25000, DurationSeconds: 4200},
	}
	power := 215.0
	m.Details[1] = &ActivityDetail{ActivityID: 1, AveragePower: &power}
	weight := 72500.0
	m.Body = []BodyComposition{{CalendarDate: "2025-01-29", Weight: &weight}}
	m.Sleep = []SleepSummary{{CalendarDate: "2025-01-29", SleepTimeSeconds: 27000}}
	return m
}

func TestActivitiesCachedAcrossCalls(t *testing.T) {
	mock := seededMock()
	svc := newTestService(t, mock)
	ctx := context.Background()

	first, err := svc.ActivitiesRange(ctx, 30)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, mock.Calls("activities"))

	second, err := svc.ActivitiesRange(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.Calls("activities"), "second call must be served from cache")
}

func TestDistinctWindowsFetchSeparately(t *testing.T) {
	mock := seededMock()
	svc := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.ActivitiesRange(ctx, 30)
	require.NoError(t, err)
	_, err = svc.ActivitiesRange(ctx, 60)
	require.NoError(t, err)

	assert.Equal(t, 2, mock.Calls("activities"))
}

func TestActivityDetailCachedPerID(t *testing.T) {
	mock := seededMock()
	svc := newTestService(t, mock)
	ctx := context.Background()

	d, err := svc.ActivityDetail(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, d.AveragePower)
	assert.Equal(t, 215.0, *d.AveragePower)

	_, err = svc.ActivityDetail(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls("activity_detail"))
}

func TestProfileCached(t *testing.T) {
	mock := seededMock()
	mock.Profile = &UserProfile{FullName: "Ada", UnitSystem: "metric"}
	svc := newTestService(t, mock)
	ctx := context.Background()

	p, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FullName)

	_, err = svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls("user_profile"))
}

func TestNextDayStartsFreshKey(t *testing.T) {
	mock := seededMock()
	svc := newTestService(t, mock)
	ctx := context.Background()

	_, err := svc.SleepRange(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, 1, mock.Calls("sleep"))

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 1) }

	_, err = svc.SleepRange(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls("sleep"))
}

func TestAPIErrorPropagates(t *testing.T) {
	mock := NewMockAPI()
	mock.Err = &APIError{StatusCode: 503, Message: "unavailable"}
	svc := newTestService(t, mock)

	_, err := svc.ActivitiesRange(context.Background(), 30)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestDisabledCacheAlwaysFetches(t *testing.T) {
	mock := seededMock()
	store, err := cache.New(cache.Config{Enabled: false}, testLogger())
	require.NoError(t, err)
	svc := NewService(mock, store, cache.TTLPolicy{Base: time.Hour}, testLogger())
	ctx := context.Background()

	_, err = svc.BodyCompositionRange(ctx, 30)
	require.NoError(t, err)
	_, err = svc.BodyCompositionRange(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, mock.Calls("body_composition"))
}
