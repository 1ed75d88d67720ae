// Package invalidation translates committed writes into cache removal so
// readers never observe pre-mutation state past the write that replaced it.
package invalidation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jisc-platform/go-jisc/pkg/cache"
	"github.com/jisc-platform/go-jisc/pkg/cachekey"
)

// Router maps a mutation to the set of keys it must purge from a single
// shared store. It owns no data and cannot fail; its callers invoke it only
// after the corresponding remote write is confirmed successful. A skipped
// invalidation manifests as silent staleness, not an error, which is why the
// routing rules are pinned by tests rather than guarded at runtime.
type Router struct {
	store  cache.Store
	logger zerolog.Logger
}

// NewRouter creates a router over the given store.
func NewRouter(store cache.Store, logger zerolog.Logger) *Router {
	return &Router{
		store:  store,
		logger: logger.With().Str("component", "InvalidationRouter").Logger(),
	}
}

// Athlete purges one athlete aggregate: the entity key, the sports and
// packages keys derived from it, and every cached list variant, since any
// list may embed the athlete.
func (r *Router) Athlete(_ context.Context, athleteID string) {
	r.store.Delete(cachekey.Athlete(athleteID))
	r.store.Delete(cachekey.AthleteSports(athleteID))
	r.store.Delete(cachekey.AthletePackages(athleteID))
	removed := r.store.DeletePrefix(cachekey.ListPrefix)
	r.logger.Debug().Str("athlete_id", athleteID).Int("list_variants", removed).Msg("Invalidated athlete.")
}

// User purges a user's profile and role along with the athlete-by-user
// mapping: a profile or role change can alter how that user's athlete record
// is interpreted downstream.
func (r *Router) User(_ context.Context, userID string) {
	r.store.Delete(cachekey.UserProfile(userID))
	r.store.Delete(cachekey.UserRole(userID))
	r.store.Delete(cachekey.AthleteByUser(userID))
	r.logger.Debug().Str("user_id", userID).Msg("Invalidated user.")
}

// AthleteLists sweeps every cached list variant.
func (r *Router) AthleteLists(_ context.Context) {
	removed := r.store.DeletePrefix(cachekey.ListPrefix)
	r.logger.Debug().Int("list_variants", removed).Msg("Invalidated athlete lists.")
}

// StaticData purges the slow-changing lookup lists.
func (r *Router) StaticData(_ context.Context) {
	r.store.Delete(cachekey.Sports)
	r.store.Delete(cachekey.Athletics)
	r.store.Delete(cachekey.Packages)
	r.store.Delete(cachekey.StaticData)
	r.logger.Debug().Msg("Invalidated static data.")
}

// All clears the store. Used for coarse reference-data resets and test
// teardown only.
func (r *Router) All(_ context.Context) {
	r.store.Clear()
	r.logger.Debug().Msg("Cleared cache store.")
}
