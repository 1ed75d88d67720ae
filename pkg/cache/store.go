// Package cache provides the in-process TTL cache backing the JISC resource
// services, plus a Redis-backed variant for multi-instance deployments.
package cache

import (
	"bytes"
	"encoding/json"
	"time"
)

// Store is the contract the resource services and the invalidation router
// depend on. Operations are total: they never fail and never perform I/O
// (the Redis variant reports its transport errors out of band).
type Store interface {
	// Get returns the cached value for key, or ok=false when the key is
	// absent or its TTL has elapsed. Reading an expired entry removes it.
	Get(key string) (any, bool)
	// Set stores data under key with the store-wide default TTL.
	Set(key string, data any)
	// SetWithTTL stores data under key with an entry-specific TTL.
	SetWithTTL(key string, data any, ttl time.Duration)
	// Has reports whether Get would return a value. Expiry semantics are
	// identical to Get, including the lazy removal side effect.
	Has(key string) bool
	// Delete removes the entry for key and reports whether one was removed.
	Delete(key string) bool
	// DeletePrefix removes every entry whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(prefix string) int
	// Clear removes all entries unconditionally.
	Clear()
	// Cleanup actively sweeps expired entries and returns how many it removed.
	Cleanup() int
	// Stats returns a snapshot of the currently stored entries. It does not
	// force a sweep, so the snapshot may include expired entries.
	Stats() Stats
}

// Stats is a point-in-time view of a store, used by the ops endpoints and
// by tests asserting on expiry side effects.
type Stats struct {
	Size      int      `json:"size"`
	MaxSize   int      `json:"maxSize"`
	Keys      []string `json:"keys"`
	Hits      int64    `json:"hits"`
	Misses    int64    `json:"misses"`
	Evictions int64    `json:"evictions"`
}

// HitRate returns the fraction of reads served from cache, in percent.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type absentMarker struct{}

// absentJSON is the marker's wire form, so confirmed absence survives the
// JSON round trip through the Redis-backed store.
var absentJSON = []byte(`{"__absent__":true}`)

// MarshalJSON gives the marker a distinguishable wire form.
func (absentMarker) MarshalJSON() ([]byte, error) {
	return absentJSON, nil
}

// Absent is cached by the services when a remote read confirms a resource
// does not exist, so repeated lookups of a missing entity short-circuit the
// backend just like any other hit.
var Absent any = absentMarker{}

// IsAbsent reports whether a cached value is the confirmed-absent marker,
// in either its in-memory or JSON form.
func IsAbsent(v any) bool {
	switch val := v.(type) {
	case absentMarker:
		return true
	case json.RawMessage:
		return bytes.Equal(val, absentJSON)
	}
	return false
}
