package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRangeKeyFormat(t *testing.T) {
	asOf := time.Date(2025, 1, 30, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "activities_30days_20250130", RangeKey(KindActivities, 30, asOf))
	assert.Equal(t, "body_composition_60days_20250130", RangeKey(KindBodyComposition, 60, asOf))

	// Same logical query on the same day reuses the key; the next day starts
	// a fresh one.
	assert.Equal(t, RangeKey(KindActivities, 30, asOf), RangeKey(KindActivities, 30, asOf.Add(2*time.Hour)))
	assert.NotEqual(t, RangeKey(KindActivities, 30, asOf), RangeKey(KindActivities, 30, asOf.AddDate(0, 0, 1)))
}

func TestSnapshotKeyDefaultsID(t *testing.T) {
	asOf := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "user_profile_default_20250130", SnapshotKey(KindUserProfile, "", asOf))
	assert.Equal(t, "activity_detail_12345_20250130", SnapshotKey(KindActivityDetail, "12345", asOf))
}

func TestTTLPolicy(t *testing.T) {
	p := TTLPolicy{Base: 24 * time.Hour, ExtendedFactor: 7}

	assert.Equal(t, 24*time.Hour, p.For(KindActivities))
	assert.Equal(t, 24*time.Hour, p.For(KindSleep))
	assert.Equal(t, 7*24*time.Hour, p.For(KindUserProfile))
}
