// Package services implements the JISC resource services: the only call
// sites allowed to reach the remote backend for a given resource. Every
// read applies the same check-cache, fetch-on-miss, populate pattern; every
// write commits remotely first and invalidates only after success.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jisc-platform/go-jisc/pkg/cache"
)

// ErrForbidden is returned before any remote or cache interaction when a
// caller's role does not permit the operation.
var ErrForbidden = errors.New("caller role does not permit this operation")

// TTLs per resource class. Static reference data changes rarely; per-entity
// data changes on review actions; filtered lists go stale fastest because
// several actors write concurrently. Tuning is fine as long as the relative
// ordering holds.
const (
	StaticTTL = 30 * time.Minute
	EntityTTL = 10 * time.Minute
	ListTTL   = 3 * time.Minute
)

// Invalidator is the post-write hook shared by all services. Both
// invalidation.Router and invalidation.Broadcaster satisfy it.
type Invalidator interface {
	Athlete(ctx context.Context, athleteID string)
	User(ctx context.Context, userID string)
	AthleteLists(ctx context.Context)
	StaticData(ctx context.Context)
	All(ctx context.Context)
}

// cachedValue resolves a store hit into a typed value. The second result
// reports a confirmed-absent hit; the third reports whether the lookup was a
// usable hit at all. Values from a shared store arrive as JSON and are
// decoded here; a payload that no longer decodes is treated as a miss so the
// read path falls through to the source.
func cachedValue[T any](store cache.Store, key string) (value T, absent bool, ok bool) {
	var zero T
	v, hit := store.Get(key)
	if !hit {
		return zero, false, false
	}
	if cache.IsAbsent(v) {
		return zero, true, true
	}
	if typed, isTyped := v.(T); isTyped {
		return typed, false, true
	}
	if raw, isRaw := v.(json.RawMessage); isRaw {
		var decoded T
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded, false, true
		}
	}
	return zero, false, false
}
