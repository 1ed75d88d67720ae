package invalidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jisc-platform/go-jisc/pkg/cache"
	"github.com/jisc-platform/go-jisc/pkg/cachekey"
	"github.com/jisc-platform/go-jisc/pkg/invalidation"
	"github.com/jisc-platform/go-jisc/pkg/types"
)

func newRouterFixture(t *testing.T) (*invalidation.Router, *cache.MemoryStore) {
	t.Helper()
	store, err := cache.NewMemoryStore(&cache.MemoryConfig{DefaultTTL: time.Minute, MaxSize: 100}, zerolog.Nop())
	require.NoError(t, err)
	return invalidation.NewRouter(store, zerolog.Nop()), store
}

func TestRouter_Athlete(t *testing.T) {
	ctx := context.Background()
	router, store := newRouterFixture(t)

	admin := types.AuthContext{UserID: "u1", Role: types.RoleAdmin}
	athletic := types.AuthContext{UserID: "u2", Role: types.RoleAthletic, AthleticID: "at1"}

	// Arrange: the direct keys, both list variants, and an unrelated athlete.
	store.Set(cachekey.Athlete("a1"), "aggregate")
	store.Set(cachekey.AthleteSports("a1"), "sports")
	store.Set(cachekey.AthletePackages("a1"), "packages")
	store.Set(cachekey.AthleteList(admin, types.AthleteFilters{}), "admin list")
	store.Set(cachekey.AthleteList(athletic, types.AthleteFilters{Status: "sent"}), "scoped list")
	store.Set(cachekey.Athlete("a2"), "other aggregate")

	// Act
	router.Athlete(ctx, "a1")

	// Assert: direct keys and every list variant are gone, the unrelated
	// athlete survives.
	assert.False(t, store.Has(cachekey.Athlete("a1")))
	assert.False(t, store.Has(cachekey.AthleteSports("a1")))
	assert.False(t, store.Has(cachekey.AthletePackages("a1")))
	assert.False(t, store.Has(cachekey.AthleteList(admin, types.AthleteFilters{})))
	assert.False(t, store.Has(cachekey.AthleteList(athletic, types.AthleteFilters{Status: "sent"})))
	assert.True(t, store.Has(cachekey.Athlete("a2")))
}

func TestRouter_User(t *testing.T) {
	ctx := context.Background()
	router, store := newRouterFixture(t)

	store.Set(cachekey.UserProfile("u1"), "profile")
	store.Set(cachekey.UserRole("u1"), "role")
	store.Set(cachekey.AthleteByUser("u1"), "mapping")
	store.Set(cachekey.UserProfile("u2"), "other profile")

	router.User(ctx, "u1")

	assert.False(t, store.Has(cachekey.UserProfile("u1")))
	assert.False(t, store.Has(cachekey.UserRole("u1")))
	assert.False(t, store.Has(cachekey.AthleteByUser("u1")), "role changes must also drop the athlete-by-user mapping")
	assert.True(t, store.Has(cachekey.UserProfile("u2")))
}

func TestRouter_AthleteLists(t *testing.T) {
	ctx := context.Background()
	router, store := newRouterFixture(t)

	admin := types.AuthContext{UserID: "u1", Role: types.RoleAdmin}
	store.Set(cachekey.AthleteList(admin, types.AthleteFilters{}), "all")
	store.Set(cachekey.AthleteList(admin, types.AthleteFilters{Status: "approved"}), "approved")
	store.Set(cachekey.Athlete("a1"), "keep")

	router.AthleteLists(ctx)

	assert.False(t, store.Has(cachekey.AthleteList(admin, types.AthleteFilters{})))
	assert.False(t, store.Has(cachekey.AthleteList(admin, types.AthleteFilters{Status: "approved"})))
	assert.True(t, store.Has(cachekey.Athlete("a1")))
}

func TestRouter_StaticData(t *testing.T) {
	ctx := context.Background()
	router, store := newRouterFixture(t)

	store.Set(cachekey.Sports, "sports")
	store.Set(cachekey.Athletics, "athletics")
	store.Set(cachekey.Packages, "packages")
	store.Set(cachekey.StaticData, "aggregate")
	store.Set(cachekey.Athlete("a1"), "keep")

	router.StaticData(ctx)

	assert.False(t, store.Has(cachekey.Sports))
	assert.False(t, store.Has(cachekey.Athletics))
	assert.False(t, store.Has(cachekey.Packages))
	assert.False(t, store.Has(cachekey.StaticData))
	assert.True(t, store.Has(cachekey.Athlete("a1")))
}

func TestRouter_All(t *testing.T) {
	ctx := context.Background()
	router, store := newRouterFixture(t)

	store.Set(cachekey.Athlete("a1"), "x")
	store.Set(cachekey.Sports, "y")

	router.All(ctx)

	assert.Zero(t, store.Stats().Size)
}
