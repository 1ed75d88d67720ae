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

// UserService serves user profiles and roles through the cache.
type UserService struct {
	store  cache.Store
	source backend.ProfileSource
	inval  Invalidator
	logger zerolog.Logger
}

// NewUserService creates a user service over the given store and source.
func NewUserService(store cache.Store, source backend.ProfileSource, inval Invalidator, logger zerolog.Logger) *UserService {
	return &UserService{
		store:  store,
		source: source,
		inval:  inval,
		logger: logger.With().Str("component", "UserService").Logger(),
	}
}

// GetProfile returns a user's profile. A confirmed-absent backend answer is
// cached, so repeated lookups of an unknown user also skip the remote call;
// both paths report backend.ErrNotFound.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	key := cachekey.UserProfile(userID)
	if profile, absent, ok := cachedValue[*types.Profile](s.store, key); ok {
		if absent {
			return nil, backend.ErrNotFound
		}
		return profile, nil
	}

	profile, err := s.source.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.store.SetWithTTL(key, cache.Absent, EntityTTL)
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	s.store.SetWithTTL(key, profile, EntityTTL)
	return profile, nil
}

// GetRole returns a user's role, cached independently of the full profile so
// role checks stay cheap for navigation gating.
func (s *UserService) GetRole(ctx context.Context, userID string) (types.Role, error) {
	key := cachekey.UserRole(userID)
	if role, absent, ok := cachedValue[types.Role](s.store, key); ok {
		if absent {
			return "", backend.ErrNotFound
		}
		return role, nil
	}

	profile, err := s.source.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.store.SetWithTTL(key, cache.Absent, EntityTTL)
			return "", backend.ErrNotFound
		}
		return "", err
	}

	s.store.SetWithTTL(key, profile.Role, EntityTTL)
	return profile.Role, nil
}

// InvalidateUser purges every cached view of a user after an out-of-band
// profile or role change.
func (s *UserService) InvalidateUser(ctx context.Context, userID string) {
	s.inval.User(ctx, userID)
}
