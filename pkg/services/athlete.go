package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jisc-platform/go-jisc/pkg/backend"
	"github.com/jisc-platform/go-jisc/pkg/cache"
	"github.com/jisc-platform/go-jisc/pkg/cachekey"
	"github.com/jisc-platform/go-jisc/pkg/types"
)

// AthleteService serves athlete registrations through the cache and commits
// review mutations to the backend before invalidating.
type AthleteService struct {
	store  cache.Store
	source backend.AthleteSource
	inval  Invalidator
	logger zerolog.Logger
}

// NewAthleteService creates an athlete service over the given store and source.
func NewAthleteService(store cache.Store, source backend.AthleteSource, inval Invalidator, logger zerolog.Logger) *AthleteService {
	return &AthleteService{
		store:  store,
		source: source,
		inval:  inval,
		logger: logger.With().Str("component", "AthleteService").Logger(),
	}
}

// GetByID returns one athlete aggregate.
func (s *AthleteService) GetByID(ctx context.Context, athleteID string) (*types.Athlete, error) {
	key := cachekey.Athlete(athleteID)
	if athlete, absent, ok := cachedValue[*types.Athlete](s.store, key); ok {
		if absent {
			return nil, backend.ErrNotFound
		}
		return athlete, nil
	}

	athlete, err := s.source.GetAthlete(ctx, athleteID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.store.SetWithTTL(key, cache.Absent, EntityTTL)
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	s.store.SetWithTTL(key, athlete, EntityTTL)
	return athlete, nil
}

// GetByUserID returns the athlete registered by a user. Users without a
// registration are a common steady state, so confirmed absence is cached.
func (s *AthleteService) GetByUserID(ctx context.Context, userID string) (*types.Athlete, error) {
	key := cachekey.AthleteByUser(userID)
	if athlete, absent, ok := cachedValue[*types.Athlete](s.store, key); ok {
		if absent {
			return nil, backend.ErrNotFound
		}
		return athlete, nil
	}

	athlete, err := s.source.GetAthleteByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.store.SetWithTTL(key, cache.Absent, EntityTTL)
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	s.store.SetWithTTL(key, athlete, EntityTTL)
	return athlete, nil
}

// GetSports returns the sports joined into an athlete aggregate, cached on
// its own key so sport-roster views do not pin the whole aggregate.
func (s *AthleteService) GetSports(ctx context.Context, athleteID string) ([]types.Sport, error) {
	key := cachekey.AthleteSports(athleteID)
	if sports, _, ok := cachedValue[[]types.Sport](s.store, key); ok {
		return sports, nil
	}

	athlete, err := s.GetByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	s.store.SetWithTTL(key, athlete.Sports, EntityTTL)
	return athlete.Sports, nil
}

// GetPackages returns the packages joined into an athlete aggregate.
func (s *AthleteService) GetPackages(ctx context.Context, athleteID string) ([]types.Package, error) {
	key := cachekey.AthletePackages(athleteID)
	if packages, _, ok := cachedValue[[]types.Package](s.store, key); ok {
		return packages, nil
	}

	athlete, err := s.GetByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	s.store.SetWithTTL(key, athlete.Packages, EntityTTL)
	return athlete.Packages, nil
}

// GetList returns athletes visible to the caller. Authorization scope is
// derived from auth, never from the supplied filters: an athletic caller's
// query is pinned to its own organization before the remote query is built,
// and the scope is part of the cache key so two roles never share a cached
// list. Search, sport and whatsapp filters are applied in memory by the
// athletelist package; only athletic and status constrain the remote query.
func (s *AthleteService) GetList(ctx context.Context, auth types.AuthContext, filters types.AthleteFilters) ([]types.Athlete, error) {
	scoped, err := scopeFilters(auth, filters)
	if err != nil {
		return nil, err
	}

	key := cachekey.AthleteList(auth, scoped)
	if list, _, ok := cachedValue[[]types.Athlete](s.store, key); ok {
		return list, nil
	}

	query := backend.AthleteQuery{AthleticID: scoped.AthleticID}
	if scoped.Status != "" && scoped.Status != "all" {
		query.Status = scoped.Status
	}
	if query.AthleticID == "all" {
		query.AthleticID = ""
	}

	requestID := uuid.NewString()
	s.logger.Debug().Str("request_id", requestID).Str("role", string(auth.Role)).
		Str("athletic_id", query.AthleticID).Str("status", query.Status).
		Msg("Athlete list cache miss; querying backend.")

	list, err := s.source.ListAthletes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}

	s.store.SetWithTTL(key, list, ListTTL)
	return list, nil
}

// scopeFilters recomputes the caller's authorization before any query is
// constructed. Athletic callers are confined to their own organization
// irrespective of any broader filter they request; athlete callers may not
// list registrations at all.
func scopeFilters(auth types.AuthContext, filters types.AthleteFilters) (types.AthleteFilters, error) {
	switch auth.Role {
	case types.RoleAdmin:
		return filters, nil
	case types.RoleAthletic:
		if auth.AthleticID == "" {
			return types.AthleteFilters{}, ErrForbidden
		}
		filters.AthleticID = auth.AthleticID
		return filters, nil
	default:
		return types.AthleteFilters{}, ErrForbidden
	}
}

// UpdateStatus moves a registration to a new review status. The remote write
// commits first; a failed write leaves every cached view untouched and
// therefore still correct.
func (s *AthleteService) UpdateStatus(ctx context.Context, athleteID string, newStatus types.AthleteStatus) error {
	if !newStatus.Valid() {
		return fmt.Errorf("invalid athlete status %q", newStatus)
	}
	if err := s.source.UpdateStatus(ctx, athleteID, newStatus); err != nil {
		return err
	}
	s.inval.Athlete(ctx, athleteID)
	return nil
}

// UpdateWhatsAppStatus records whether the athlete was contacted.
func (s *AthleteService) UpdateWhatsAppStatus(ctx context.Context, athleteID string, sent bool) error {
	if err := s.source.UpdateWhatsAppSent(ctx, athleteID, sent); err != nil {
		return err
	}
	s.inval.Athlete(ctx, athleteID)
	return nil
}

// UpdateAdminApproval flips the final admin approval flag. Admin only:
// the role check fails fast, before any remote or cache interaction.
func (s *AthleteService) UpdateAdminApproval(ctx context.Context, auth types.AuthContext, athleteID string, approved bool) error {
	if !auth.IsAdmin() {
		return ErrForbidden
	}
	if err := s.source.UpdateAdminApproved(ctx, athleteID, approved); err != nil {
		return err
	}
	s.inval.Athlete(ctx, athleteID)
	return nil
}

// InvalidateAthlete purges every cached view of one athlete.
func (s *AthleteService) InvalidateAthlete(ctx context.Context, athleteID string) {
	s.inval.Athlete(ctx, athleteID)
}

// InvalidateList sweeps every cached list variant.
func (s *AthleteService) InvalidateList(ctx context.Context) {
	s.inval.AthleteLists(ctx)
}
