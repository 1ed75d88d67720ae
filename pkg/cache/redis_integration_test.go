//go:build integration

package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jisc-platform/go-jisc/pkg/cache"
)

// Requires a reachable Redis, e.g. REDIS_ADDR=localhost:6379.
func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	cfg := cache.NewRedisConfigDefaults()
	cfg.Addr = addr
	cfg.KeyPrefix = "jisc-test:"

	store, err := cache.NewRedisStore(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Clear()
		_ = store.Close()
	})

	t.Run("set and get round trip as JSON", func(t *testing.T) {
		store.Set("athlete:a1", map[string]string{"id": "a1"})

		value, ok := store.Get("athlete:a1")
		require.True(t, ok)
		raw, isRaw := value.(json.RawMessage)
		require.True(t, isRaw)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "a1", decoded["id"])
	})

	t.Run("get miss", func(t *testing.T) {
		_, ok := store.Get("nonexistent")
		assert.False(t, ok)
	})

	t.Run("delete prefix sweeps list variants", func(t *testing.T) {
		store.Set("athletes_list::role:admin", []string{"a1"})
		store.Set("athletes_list::role:athletic|athletic:at1", []string{"a2"})
		store.Set("athlete:a2", map[string]string{"id": "a2"})

		removed := store.DeletePrefix("athletes_list")
		assert.Equal(t, 2, removed)
		assert.True(t, store.Has("athlete:a2"))
	})

	t.Run("server-side expiry", func(t *testing.T) {
		store.SetWithTTL("ephemeral", "v", time.Second)
		require.True(t, store.Has("ephemeral"))

		require.Eventually(t, func() bool {
			return !store.Has("ephemeral")
		}, 5*time.Second, 250*time.Millisecond)
	})
}
