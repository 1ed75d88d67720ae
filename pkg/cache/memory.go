package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultJanitorInterval is how often StartJanitor sweeps expired entries
// when the caller does not choose an interval.
const DefaultJanitorInterval = 5 * time.Minute

// MemoryConfig holds configuration for the in-memory store.
type MemoryConfig struct {
	// DefaultTTL applies to entries stored via Set.
	DefaultTTL time.Duration
	// MaxSize is the intended entry bound. Reaching it triggers an
	// expired-entry sweep before the next insert; it is not a hard cap.
	MaxSize int
	// Clock overrides the time source, for tests. Defaults to time.Now.
	Clock func() time.Time
}

// NewMemoryConfigDefaults provides a config with sensible defaults.
func NewMemoryConfigDefaults() *MemoryConfig {
	return &MemoryConfig{
		DefaultTTL: 5 * time.Minute,
		MaxSize:    1000,
	}
}

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

// MemoryStore is a thread-safe in-memory TTL store. Expiry is lazy on read,
// with an active sweep run opportunistically when Set finds the store at
// capacity and periodically by the janitor.
//
// The capacity sweep removes only expired entries. A store full of live
// entries will transiently exceed MaxSize until something expires; there is
// no recency-based eviction. Concurrent misses on the same cold key are not
// coalesced either: both callers fetch and the last Set wins, which is
// benign because both carry equivalent data.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time
	logger     zerolog.Logger

	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(cfg *MemoryConfig, logger zerolog.Logger) (*MemoryStore, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be greater than 0")
	}
	if cfg.DefaultTTL <= 0 {
		return nil, fmt.Errorf("defaultTTL must be greater than 0")
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries:    make(map[string]entry),
		defaultTTL: cfg.DefaultTTL,
		maxSize:    cfg.MaxSize,
		now:        now,
		logger:     logger.With().Str("component", "MemoryStore").Logger(),
	}, nil
}

// Get returns the value stored under key. An entry is valid while
// now - storedAt <= ttl; reading it any later deletes it and reports a miss,
// so an expired entry is indistinguishable from an absent one.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.recordMiss()
		return nil, false
	}

	if s.expired(ent, s.now()) {
		s.mu.Lock()
		// Re-check under the write lock: a Set may have refreshed the entry.
		if current, still := s.entries[key]; still && s.expired(current, s.now()) {
			delete(s.entries, key)
			s.evictions++
		}
		s.mu.Unlock()
		s.recordMiss()
		return nil, false
	}

	s.recordHit()
	return ent.data, true
}

// Set stores data under key with the default TTL.
func (s *MemoryStore) Set(key string, data any) {
	s.SetWithTTL(key, data, s.defaultTTL)
}

// SetWithTTL stores data under key with an entry-specific TTL, overwriting
// any existing entry. When the store is at capacity it first sweeps expired
// entries; if nothing has expired the insert proceeds regardless.
func (s *MemoryStore) SetWithTTL(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		removed := s.cleanupLocked()
		if removed == 0 {
			s.logger.Debug().Int("size", len(s.entries)).Int("max_size", s.maxSize).
				Msg("Store at capacity with no expired entries; exceeding intended bound.")
		}
	}

	s.entries[key] = entry{data: data, storedAt: s.now(), ttl: ttl}
}

// Has reports whether key holds a live entry, with Get's expiry semantics.
func (s *MemoryStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes the entry for key if present.
func (s *MemoryStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// DeletePrefix removes every entry whose key starts with prefix. The exact
// set of filter-permutation keys in use is not statically enumerable, so
// list-shaped resources are invalidated by this sweep.
func (s *MemoryStore) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Cleanup sweeps every expired entry, independent of access.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

// cleanupLocked must be called with the write lock held.
func (s *MemoryStore) cleanupLocked() int {
	now := s.now()
	removed := 0
	for key, ent := range s.entries {
		if s.expired(ent, now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.evictions += int64(removed)
	return removed
}

func (s *MemoryStore) expired(ent entry, now time.Time) bool {
	return now.Sub(ent.storedAt) > ent.ttl
}

// Stats snapshots the store without forcing a sweep, so keys stored but not
// yet lazily expired still appear.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return Stats{
		Size:      len(s.entries),
		MaxSize:   s.maxSize,
		Keys:      keys,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}

// StartJanitor runs a periodic active sweep until ctx is cancelled. It keeps
// memory bounded even for keys that are never read again. Pass a
// non-positive interval to use DefaultJanitorInterval.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Debug().Msg("Janitor stopped.")
				return
			case <-ticker.C:
				if removed := s.Cleanup(); removed > 0 {
					s.logger.Debug().Int("removed", removed).Msg("Janitor sweep removed expired entries.")
				}
			}
		}
	}()
}

func (s *MemoryStore) recordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *MemoryStore) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}
