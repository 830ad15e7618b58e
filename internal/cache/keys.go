package cache

import (
	"fmt"
	"time"

	"github.com/avelasco/trainsight/internal/core"
)

// Kind categorizes cached payloads. It drives the TTL policy and the
// per-kind statistics breakdown; the payload bytes themselves are opaque to
// the store.
type Kind string

const (
	KindActivities      Kind = "activities"
	KindActivityDetail  Kind = "activity_detail"
	KindBodyComposition Kind = "body_composition"
	KindUserProfile     Kind = "user_profile"
	KindSleep           Kind = "sleep"
)

// TTLPolicy computes per-kind expiration. Slowly-changing kinds (the user
// profile) live ExtendedFactor times longer than the base TTL.
type TTLPolicy struct {
	Base           time.Duration
	ExtendedFactor int
}

// For returns the TTL applied to entries of the given kind.
func (p TTLPolicy) For(kind Kind) time.Duration {
	if kind == KindUserProfile {
		return p.Base * time.Duration(p.ExtendedFactor)
	}
	return p.Base
}

// Kinds lists every known data kind, in stable order for display.
func Kinds() []Kind {
	return []Kind{KindActivities, KindActivityDetail, KindBodyComposition, KindUserProfile, KindSleep}
}

// Keys are built as {kind}_{window}_{construction date}. Different kinds and
// different query windows never collide, and re-running the same logical
// query within one day reuses the same key. Expiry is still governed solely
// by each entry's expires_at.

// RangeKey derives the cache key for a windowed query, e.g.
// "activities_30days_20250130".
func RangeKey(kind Kind, days int, asOf time.Time) string {
	return fmt.Sprintf("%s_%s_%s", kind, core.WindowLabel(days), asOf.Format(core.KeyDateFmt))
}

// SnapshotKey derives the cache key for a point lookup identified by id,
// e.g. "activity_detail_12345_20250130" or "user_profile_default_20250130".
func SnapshotKey(kind Kind, id string, asOf time.Time) string {
	if id == "" {
		id = "default"
	}
	return fmt.Sprintf("%s_%s_%s", kind, id, asOf.Format(core.KeyDateFmt))
}
