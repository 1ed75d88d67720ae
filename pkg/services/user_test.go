package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jisc-platform/go-jisc/pkg/backend"
	"github.com/jisc-platform/go-jisc/pkg/cache"
	"github.com/jisc-platform/go-jisc/pkg/invalidation"
	"github.com/jisc-platform/go-jisc/pkg/services"
	"github.com/jisc-platform/go-jisc/pkg/types"
)

type mockProfileSource struct {
	profiles map[string]*types.Profile
	calls    atomic.Int32
	err      error
}

func (m *mockProfileSource) GetProfile(_ context.Context, userID string) (*types.Profile, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, backend.ErrNotFound
}

func newUserFixture(t *testing.T, source *mockProfileSource) (*services.UserService, *cache.MemoryStore) {
	t.Helper()
	store, err := cache.NewMemoryStore(&cache.MemoryConfig{DefaultTTL: time.Minute, MaxSize: 100}, zerolog.Nop())
	require.NoError(t, err)
	router := invalidation.NewRouter(store, zerolog.Nop())
	return services.NewUserService(store, source, router, zerolog.Nop()), store
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	source := &mockProfileSource{profiles: map[string]*types.Profile{
		"u1": {ID: "u1", Name: "Ana", Role: types.RoleAthlete},
	}}
	service, _ := newUserFixture(t, source)

	t.Run("second read within TTL is a cache hit", func(t *testing.T) {
		profile, err := service.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", profile.Name)

		_, err = service.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("remote errors propagate uncached", func(t *testing.T) {
		source.err = errors.New("backend unavailable")
		_, err := service.GetProfile(ctx, "u2")
		require.Error(t, err)
		require.NotErrorIs(t, err, backend.ErrNotFound)

		source.err = nil
		_, err = service.GetProfile(ctx, "u2")
		require.ErrorIs(t, err, backend.ErrNotFound)
		assert.Equal(t, int32(3), source.calls.Load(), "the failed call must not have been cached")
	})

	t.Run("confirmed absence is cached", func(t *testing.T) {
		before := source.calls.Load()
		_, err := service.GetProfile(ctx, "u2")
		require.ErrorIs(t, err, backend.ErrNotFound)
		assert.Equal(t, before, source.calls.Load())
	})
}

func TestUserService_GetRole(t *testing.T) {
	ctx := context.Background()
	source := &mockProfileSource{profiles: map[string]*types.Profile{
		"u1": {ID: "u1", Name: "Ana", Role: types.RoleAthletic},
	}}
	service, _ := newUserFixture(t, source)

	role, err := service.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAthletic, role)

	_, err = service.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load(), "role is cached on its own key")
}

func TestUserService_InvalidateUser(t *testing.T) {
	ctx := context.Background()
	source := &mockProfileSource{profiles: map[string]*types.Profile{
		"u1": {ID: "u1", Name: "Ana", Role: types.RoleAthlete},
	}}
	service, _ := newUserFixture(t, source)

	_, err := service.GetProfile(ctx, "u1")
	require.NoError(t, err)
	_, err = service.GetRole(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int32(2), source.calls.Load())

	// Simulate a role change committed out of band, then invalidate.
	source.profiles["u1"].Role = types.RoleAthletic
	service.InvalidateUser(ctx, "u1")

	role, err := service.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAthletic, role, "post-invalidation read must see the new role")
	assert.Equal(t, int32(3), source.calls.Load())
}
