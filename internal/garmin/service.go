package garmin

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/avelasco/trainsight/internal/cache"
	"github.com/avelasco/trainsight/internal/core"
)

// Service fronts the vendor API with the local TTL cache. Cache faults
// never fail a fetch: a broken read degrades to a miss and a broken write
// is logged and dropped, so the worst case is an extra API call.
type Service struct {
	api    API
	store  cache.Store
	ttl    cache.TTLPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the API behind the given cache store.
func NewService(api API, store cache.Store, ttl cache.TTLPolicy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// fetchCached resolves key from the cache, falling back to fetch on a miss
// and writing the result back with the kind's TTL. meta describes the fetched
// value and is stored alongside the payload.
func fetchCached[T any](ctx context.Context, s *Service, key string, kind cache.Kind, meta func(T) map[string]string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok, err := s.store.Get(ctx, key); err != nil {
		s.logger.Warn("cache read failed, fetching live",
			slog.String("key", key), slog.Any("error", err))
	} else if ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			s.logger.Debug("cache hit", slog.String("key", key))
			return out, nil
		}
		s.logger.Warn("cached payload undecodable, fetching live", slog.String("key", key))
	}

	out, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to encode %s for caching", kind)
	}
	var fields map[string]string
	if meta != nil {
		fields = meta(out)
	}
	if err := s.store.Set(ctx, key, kind, raw, fields, s.ttl.For(kind)); err != nil {
		s.logger.Warn("cache write failed",
			slog.String("key", key), slog.Any("error", err))
	}
	return out, nil
}

// ActivitiesRange returns the activities of the trailing window of the
// given length, cached per calendar day.
func (s *Service) ActivitiesRange(ctx context.Context, days int) ([]Activity, error) {
	asOf := s.now()
	key := cache.RangeKey(cache.KindActivities, days, asOf)
	start, end := core.AnalysisWindow(asOf, days)
	window := DateRange{Start: start, End: end}

	return fetchCached(ctx, s, key, cache.KindActivities,
		func(out []Activity) map[string]string {
			return map[string]string{"days": strconv.Itoa(days), "records": strconv.Itoa(len(out))}
		},
		func(ctx context.Context) ([]Activity, error) {
			return s.api.Activities(ctx, window)
		})
}

// ActivityDetail returns full metrics for one activity, cached per day.
func (s *Service) ActivityDetail(ctx context.Context, id int64) (*ActivityDetail, error) {
	key := cache.SnapshotKey(cache.KindActivityDetail, strconv.FormatInt(id, 10), s.now())

	return fetchCached(ctx, s, key, cache.KindActivityDetail,
		func(*ActivityDetail) map[string]string {
			return map[string]string{"activity_id": strconv.FormatInt(id, 10)}
		},
		func(ctx context.Context) (*ActivityDetail, error) {
			return s.api.ActivityDetail(ctx, id)
		})
}

// BodyCompositionRange returns scale measurements of the trailing window,
// cached per calendar day.
func (s *Service) BodyCompositionRange(ctx context.Context, days int) ([]BodyComposition, error) {
	asOf := s.now()
	key := cache.RangeKey(cache.KindBodyComposition, days, asOf)
	start, end := core.AnalysisWindow(asOf, days)
	window := DateRange{Start: start, End: end}

	return fetchCached(ctx, s, key, cache.KindBodyComposition,
		func(out []BodyComposition) map[string]string {
			return map[string]string{"days": strconv.Itoa(days), "records": strconv.Itoa(len(out))}
		},
		func(ctx context.Context) ([]BodyComposition, error) {
			return s.api.BodyComposition(ctx, window)
		})
}

// Profile returns the athlete profile. Profiles change rarely, so the
// cache keeps them for the extended TTL.
func (s *Service) Profile(ctx context.Context) (*UserProfile, error) {
	key := cache.SnapshotKey(cache.KindUserProfile, "", s.now())

	return fetchCached(ctx, s, key, cache.KindUserProfile, nil,
		func(ctx context.Context) (*UserProfile, error) {
			return s.api.UserProfile(ctx)
		})
}

// SleepRange returns nightly sleep rollups of the trailing window, cached
// per calendar day.
func (s *Service) SleepRange(ctx context.Context, days int) ([]SleepSummary, error) {
	asOf := s.now()
	key := cache.RangeKey(cache.KindSleep, days, asOf)
	start, end := core.AnalysisWindow(asOf, days)
	window := DateRange{Start: start, End: end}

	return fetchCached(ctx, s, key, cache.KindSleep,
		func(out []SleepSummary) map[string]string {
			return map[string]string{"days": strconv.Itoa(days), "records": strconv.Itoa(len(out))}
		},
		func(ctx context.Context) ([]SleepSummary, error) {
			return s.api.SleepSummaries(ctx, window)
		})
}
