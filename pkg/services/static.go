package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jisc-platform/go-jisc/pkg/backend"
	"github.com/jisc-platform/go-jisc/pkg/cache"
	"github.com/jisc-platform/go-jisc/pkg/cachekey"
	"github.com/jisc-platform/go-jisc/pkg/types"
)

// SportService serves the sport lookup list.
type SportService struct {
	store  cache.Store
	source backend.SportSource
	logger zerolog.Logger
}

// NewSportService creates a sport service over the given store and source.
func NewSportService(store cache.Store, source backend.SportSource, logger zerolog.Logger) *SportService {
	return &SportService{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "SportService").Logger(),
	}
}

// GetAll returns every championship sport.
func (s *SportService) GetAll(ctx context.Context) ([]types.Sport, error) {
	if sports, _, ok := cachedValue[[]types.Sport](s.store, cachekey.Sports); ok {
		return sports, nil
	}
	sports, err := s.source.ListSports(ctx)
	if err != nil {
		return nil, err
	}
	s.store.SetWithTTL(cachekey.Sports, sports, StaticTTL)
	return sports, nil
}

// AthleticService serves athletic associations.
type AthleticService struct {
	store  cache.Store
	source backend.AthleticSource
	logger zerolog.Logger
}

// NewAthleticService creates an athletic service over the given store and source.
func NewAthleticService(store cache.Store, source backend.AthleticSource, logger zerolog.Logger) *AthleticService {
	return &AthleticService{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "AthleticService").Logger(),
	}
}

// GetAll returns every athletic association.
func (s *AthleticService) GetAll(ctx context.Context) ([]types.Athletic, error) {
	if athletics, _, ok := cachedValue[[]types.Athletic](s.store, cachekey.Athletics); ok {
		return athletics, nil
	}
	athletics, err := s.source.ListAthletics(ctx)
	if err != nil {
		return nil, err
	}
	s.store.SetWithTTL(cachekey.Athletics, athletics, StaticTTL)
	return athletics, nil
}

// GetByID returns a single athletic association.
func (s *AthleticService) GetByID(ctx context.Context, athleticID string) (*types.Athletic, error) {
	key := cachekey.Athletic(athleticID)
	if athletic, absent, ok := cachedValue[*types.Athletic](s.store, key); ok {
		if absent {
			return nil, backend.ErrNotFound
		}
		return athletic, nil
	}

	athletic, err := s.source.GetAthletic(ctx, athleticID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.store.SetWithTTL(key, cache.Absent, StaticTTL)
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	s.store.SetWithTTL(key, athletic, StaticTTL)
	return athletic, nil
}

// PackageService serves the purchasable package lookup list.
type PackageService struct {
	store  cache.Store
	source backend.PackageSource
	logger zerolog.Logger
}

// NewPackageService creates a package service over the given store and source.
func NewPackageService(store cache.Store, source backend.PackageSource, logger zerolog.Logger) *PackageService {
	return &PackageService{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "PackageService").Logger(),
	}
}

// GetAll returns every purchasable package.
func (s *PackageService) GetAll(ctx context.Context) ([]types.Package, error) {
	if packages, _, ok := cachedValue[[]types.Package](s.store, cachekey.Packages); ok {
		return packages, nil
	}
	packages, err := s.source.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	s.store.SetWithTTL(cachekey.Packages, packages, StaticTTL)
	return packages, nil
}

// StaticDataService aggregates the lookup lists fetched together at app
// start, cached under a single key so a cold start costs three remote reads
// at most once per TTL window.
type StaticDataService struct {
	store     cache.Store
	sports    backend.SportSource
	athletics backend.AthleticSource
	packages  backend.PackageSource
	inval     Invalidator
	logger    zerolog.Logger
}

// NewStaticDataService creates the aggregate lookup service.
func NewStaticDataService(
	store cache.Store,
	sports backend.SportSource,
	athletics backend.AthleticSource,
	packages backend.PackageSource,
	inval Invalidator,
	logger zerolog.Logger,
) *StaticDataService {
	return &StaticDataService{
		store:     store,
		sports:    sports,
		athletics: athletics,
		packages:  packages,
		inval:     inval,
		logger:    logger.With().Str("component", "StaticDataService").Logger(),
	}
}

// Get returns the aggregated lookup lists. A failure fetching any list
// propagates and caches nothing, so a partial aggregate is never served.
func (s *StaticDataService) Get(ctx context.Context) (*types.StaticData, error) {
	if data, _, ok := cachedValue[*types.StaticData](s.store, cachekey.StaticData); ok {
		return data, nil
	}

	sports, err := s.sports.ListSports(ctx)
	if err != nil {
		return nil, err
	}
	athletics, err := s.athletics.ListAthletics(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := s.packages.ListPackages(ctx)
	if err != nil {
		return nil, err
	}

	data := &types.StaticData{Sports: sports, Athletics: athletics, Packages: packages}
	s.store.SetWithTTL(cachekey.StaticData, data, StaticTTL)
	return data, nil
}

// Invalidate purges the lookup lists after reference data changes.
func (s *StaticDataService) Invalidate(ctx context.Context) {
	s.inval.StaticData(ctx)
}
