// Package backend defines the remote read/write surface the resource
// services depend on, with Firestore implementations. Services accept the
// narrow interfaces so tests substitute call-counting fakes.
package backend

import (
	"context"
	"errors"

	"github.com/jisc-platform/go-jisc/pkg/types"
)

// ErrNotFound marks a confirmed-absent resource. Services cache this outcome
// like any other; every other error propagates uncached.
var ErrNotFound = errors.New("resource not found")

// ProfileSource reads user profiles from the backend.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
}

// SportSource reads the sport lookup list.
type SportSource interface {
	ListSports(ctx context.Context) ([]types.Sport, error)
}

// AthleticSource reads athletic associations.
type AthleticSource interface {
	ListAthletics(ctx context.Context) ([]types.Athletic, error)
	GetAthletic(ctx context.Context, athleticID string) (*types.Athletic, error)
}

// PackageSource reads the package lookup list.
type PackageSource interface {
	ListPackages(ctx context.Context) ([]types.Package, error)
}

// AthleteQuery is the server-side constraint set for list reads. The service
// layer builds it from the caller's authorization scope before any
// client-supplied filter is considered.
type AthleteQuery struct {
	// AthleticID, when set, restricts results to one athletic. For athletic
	// role callers this is always their own organization.
	AthleticID string
	// Status, when set, restricts results to one registration state.
	Status string
}

// AthleteSource reads and mutates athlete registrations.
type AthleteSource interface {
	GetAthlete(ctx context.Context, athleteID string) (*types.Athlete, error)
	GetAthleteByUser(ctx context.Context, userID string) (*types.Athlete, error)
	ListAthletes(ctx context.Context, query AthleteQuery) ([]types.Athlete, error)
	UpdateStatus(ctx context.Context, athleteID string, status types.AthleteStatus) error
	UpdateWhatsAppSent(ctx context.Context, athleteID string, sent bool) error
	UpdateAdminApproved(ctx context.Context, athleteID string, approved bool) error
}
