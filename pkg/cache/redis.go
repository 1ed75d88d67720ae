package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// DefaultTTL applies to entries stored via Set.
	DefaultTTL time.Duration
	// OpTimeout bounds each Redis round trip. Defaults to 5s.
	OpTimeout time.Duration
	// KeyPrefix namespaces this application's keys inside a shared Redis.
	KeyPrefix string
}

// NewRedisConfigDefaults provides a config with sensible defaults.
func NewRedisConfigDefaults() *RedisConfig {
	return &RedisConfig{
		DefaultTTL: 5 * time.Minute,
		OpTimeout:  5 * time.Second,
		KeyPrefix:  "jisc:",
	}
}

// RedisStore implements Store over Redis so several app instances can share
// one cache. Values are stored as JSON; Get returns json.RawMessage, which
// the service layer decodes into the expected type. Transport errors are
// logged and surface as misses, keeping the Store contract error-free —
// a cache that cannot be reached behaves like a cache that is empty.
type RedisStore struct {
	client    *redis.Client
	logger    zerolog.Logger
	ttl       time.Duration
	opTimeout time.Duration
	prefix    string

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewRedisStore creates and connects a new RedisStore. It pings the Redis
// server to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	if cfg.DefaultTTL <= 0 {
		return nil, fmt.Errorf("defaultTTL must be greater than 0")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		client:    rdb,
		logger:    logger.With().Str("component", "RedisStore").Logger(),
		ttl:       cfg.DefaultTTL,
		opTimeout: cfg.OpTimeout,
		prefix:    cfg.KeyPrefix,
	}, nil
}

// Get returns the JSON payload cached under key as a json.RawMessage.
func (s *RedisStore) Get(key string) (any, bool) {
	ctx, cancel := s.opCtx()
	defer cancel()

	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error().Err(err).Str("key", key).Msg("Unexpected Redis error during get.")
		}
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return json.RawMessage(data), true
}

// Set stores data under key with the default TTL.
func (s *RedisStore) Set(key string, data any) {
	s.SetWithTTL(key, data, s.ttl)
}

// SetWithTTL stores data under key; Redis expires the entry server-side.
func (s *RedisStore) SetWithTTL(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal data for caching.")
		return
	}

	ctx, cancel := s.opCtx()
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to set data in Redis cache.")
	}
}

// Has reports whether Get would return a value for key.
func (s *RedisStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes the entry for key if present.
func (s *RedisStore) Delete(key string) bool {
	ctx, cancel := s.opCtx()
	defer cancel()

	removed, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete key from Redis cache.")
		return false
	}
	return removed > 0
}

// DeletePrefix scans for keys under prefix and removes them.
func (s *RedisStore) DeletePrefix(prefix string) int {
	ctx, cancel := s.opCtx()
	defer cancel()

	removed := 0
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Error().Err(err).Str("key", iter.Val()).Msg("Failed to delete key during prefix sweep.")
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Str("prefix", prefix).Msg("Redis scan failed during prefix sweep.")
	}
	s.evictions.Add(int64(removed))
	return removed
}

// Clear removes every key in this store's namespace.
func (s *RedisStore) Clear() {
	s.DeletePrefix("")
}

// Cleanup is a no-op: Redis expires entries server-side.
func (s *RedisStore) Cleanup() int {
	return 0
}

// Stats snapshots the keys currently live in this store's namespace.
func (s *RedisStore) Stats() Stats {
	ctx, cancel := s.opCtx()
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Redis scan failed during stats snapshot.")
	}
	return Stats{
		Size:      len(keys),
		Keys:      keys,
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.client.Close()
	}
	return nil
}

func (s *RedisStore) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}
