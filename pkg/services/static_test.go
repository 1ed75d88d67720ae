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

type mockStaticSource struct {
	sports    []types.Sport
	athletics []types.Athletic
	packages  []types.Package

	sportCalls    atomic.Int32
	athleticCalls atomic.Int32
	packageCalls  atomic.Int32

	athleticsErr error
}

func (m *mockStaticSource) ListSports(_ context.Context) ([]types.Sport, error) {
	m.sportCalls.Add(1)
	return m.sports, nil
}

func (m *mockStaticSource) ListAthletics(_ context.Context) ([]types.Athletic, error) {
	m.athleticCalls.Add(1)
	if m.athleticsErr != nil {
		return nil, m.athleticsErr
	}
	return m.athletics, nil
}

func (m *mockStaticSource) GetAthletic(_ context.Context, athleticID string) (*types.Athletic, error) {
	m.athleticCalls.Add(1)
	for _, a := range m.athletics {
		if a.ID == athleticID {
			copied := a
			return &copied, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (m *mockStaticSource) ListPackages(_ context.Context) ([]types.Package, error) {
	m.packageCalls.Add(1)
	return m.packages, nil
}

func newStaticFixture(t *testing.T) (*mockStaticSource, *cache.MemoryStore, services.Invalidator) {
	t.Helper()
	store, err := cache.NewMemoryStore(&cache.MemoryConfig{DefaultTTL: time.Minute, MaxSize: 100}, zerolog.Nop())
	require.NoError(t, err)
	source := &mockStaticSource{
		sports:    []types.Sport{{ID: "s1", Name: "Futsal"}, {ID: "s2", Name: "Volei"}},
		athletics: []types.Athletic{{ID: "at1", Name: "Tigres", PixKey: "tigres@jisc.app"}},
		packages:  []types.Package{{ID: "p1", Name: "Full", PriceCents: 15000}},
	}
	return source, store, invalidation.NewRouter(store, zerolog.Nop())
}

func TestSportService_GetAll(t *testing.T) {
	ctx := context.Background()
	source, store, _ := newStaticFixture(t)
	service := services.NewSportService(store, source, zerolog.Nop())

	sports, err := service.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, sports, 2)

	_, err = service.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.sportCalls.Load())
}

func TestAthleticService_GetByID(t *testing.T) {
	ctx := context.Background()
	source, store, _ := newStaticFixture(t)
	service := services.NewAthleticService(store, source, zerolog.Nop())

	athletic, err := service.GetByID(ctx, "at1")
	require.NoError(t, err)
	assert.Equal(t, "tigres@jisc.app", athletic.PixKey)

	_, err = service.GetByID(ctx, "at1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.athleticCalls.Load())

	_, err = service.GetByID(ctx, "missing")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestStaticDataService_Get(t *testing.T) {
	ctx := context.Background()
	source, store, inval := newStaticFixture(t)
	service := services.NewStaticDataService(store, source, source, source, inval, zerolog.Nop())

	t.Run("aggregate is cached as one unit", func(t *testing.T) {
		data, err := service.Get(ctx)
		require.NoError(t, err)
		assert.Len(t, data.Sports, 2)
		assert.Len(t, data.Athletics, 1)
		assert.Len(t, data.Packages, 1)

		_, err = service.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), source.sportCalls.Load())
		assert.Equal(t, int32(1), source.athleticCalls.Load())
		assert.Equal(t, int32(1), source.packageCalls.Load())
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		service.Invalidate(ctx)

		_, err := service.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), source.sportCalls.Load())
	})

	t.Run("a partial failure caches nothing", func(t *testing.T) {
		service.Invalidate(ctx)
		source.athleticsErr = errors.New("backend unavailable")

		_, err := service.Get(ctx)
		require.Error(t, err)

		source.athleticsErr = nil
		data, err := service.Get(ctx)
		require.NoError(t, err)
		assert.Len(t, data.Athletics, 1, "a partial aggregate must never be served")
	})
}
