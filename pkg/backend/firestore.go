package backend

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jisc-platform/go-jisc/pkg/types"
)

// Firestore collection names.
const (
	profilesCollection  = "profiles"
	sportsCollection    = "sports"
	athleticsCollection = "athletics"
	packagesCollection  = "packages"
	athletesCollection  = "athletes"
)

// FirestoreConfig holds configuration for the Firestore-backed sources.
type FirestoreConfig struct {
	ProjectID string
}

// FirestoreBackend implements every source interface over one Firestore
// client. The client's lifecycle is managed by the caller.
type FirestoreBackend struct {
	client *firestore.Client
	logger zerolog.Logger
}

// NewFirestoreBackend creates a backend over an existing Firestore client.
func NewFirestoreBackend(cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Msg("FirestoreBackend initialized.")

	return &FirestoreBackend{
		client: client,
		logger: logger.With().Str("component", "FirestoreBackend").Logger(),
	}, nil
}

// GetProfile fetches a user profile document.
func (b *FirestoreBackend) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	var profile types.Profile
	if err := b.getDoc(ctx, profilesCollection, userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListSports fetches the sport lookup list.
func (b *FirestoreBackend) ListSports(ctx context.Context) ([]types.Sport, error) {
	var sports []types.Sport
	iter := b.client.Collection(sportsCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", sportsCollection, err)
		}
		var sport types.Sport
		if err := doc.DataTo(&sport); err != nil {
			return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
		}
		sports = append(sports, sport)
	}
	return sports, nil
}

// ListAthletics fetches every athletic association.
func (b *FirestoreBackend) ListAthletics(ctx context.Context) ([]types.Athletic, error) {
	var athletics []types.Athletic
	iter := b.client.Collection(athleticsCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", athleticsCollection, err)
		}
		var athletic types.Athletic
		if err := doc.DataTo(&athletic); err != nil {
			return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
		}
		athletics = append(athletics, athletic)
	}
	return athletics, nil
}

// GetAthletic fetches a single athletic document.
func (b *FirestoreBackend) GetAthletic(ctx context.Context, athleticID string) (*types.Athletic, error) {
	var athletic types.Athletic
	if err := b.getDoc(ctx, athleticsCollection, athleticID, &athletic); err != nil {
		return nil, err
	}
	return &athletic, nil
}

// ListPackages fetches the package lookup list.
func (b *FirestoreBackend) ListPackages(ctx context.Context) ([]types.Package, error) {
	var packages []types.Package
	iter := b.client.Collection(packagesCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", packagesCollection, err)
		}
		var pkg types.Package
		if err := doc.DataTo(&pkg); err != nil {
			return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// GetAthlete fetches a single athlete aggregate.
func (b *FirestoreBackend) GetAthlete(ctx context.Context, athleteID string) (*types.Athlete, error) {
	var athlete types.Athlete
	if err := b.getDoc(ctx, athletesCollection, athleteID, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// GetAthleteByUser fetches the athlete registered by a given user.
func (b *FirestoreBackend) GetAthleteByUser(ctx context.Context, userID string) (*types.Athlete, error) {
	iter := b.client.Collection(athletesCollection).Where("user_id", "==", userID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore query athlete by user %s: %w", userID, err)
	}

	var athlete types.Athlete
	if err := doc.DataTo(&athlete); err != nil {
		return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
	}
	return &athlete, nil
}

// ListAthletes fetches athletes matching the server-side query constraints.
func (b *FirestoreBackend) ListAthletes(ctx context.Context, query AthleteQuery) ([]types.Athlete, error) {
	q := b.client.Collection(athletesCollection).Query
	if query.AthleticID != "" {
		q = q.Where("athletic_id", "==", query.AthleticID)
	}
	if query.Status != "" {
		q = q.Where("status", "==", query.Status)
	}

	var athletes []types.Athlete
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list %s: %w", athletesCollection, err)
		}
		var athlete types.Athlete
		if err := doc.DataTo(&athlete); err != nil {
			return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
		}
		athletes = append(athletes, athlete)
	}
	return athletes, nil
}

// UpdateStatus writes a new registration status.
func (b *FirestoreBackend) UpdateStatus(ctx context.Context, athleteID string, newStatus types.AthleteStatus) error {
	return b.updateField(ctx, athleteID, "status", string(newStatus))
}

// UpdateWhatsAppSent writes the whatsapp-contacted flag.
func (b *FirestoreBackend) UpdateWhatsAppSent(ctx context.Context, athleteID string, sent bool) error {
	return b.updateField(ctx, athleteID, "whatsapp_sent", sent)
}

// UpdateAdminApproved writes the admin approval flag.
func (b *FirestoreBackend) UpdateAdminApproved(ctx context.Context, athleteID string, approved bool) error {
	return b.updateField(ctx, athleteID, "admin_approved", approved)
}

func (b *FirestoreBackend) updateField(ctx context.Context, athleteID, field string, value any) error {
	_, err := b.client.Collection(athletesCollection).Doc(athleteID).Update(ctx, []firestore.Update{
		{Path: field, Value: value},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		b.logger.Error().Err(err).Str("athlete_id", athleteID).Str("field", field).Msg("Failed to update athlete document.")
		return fmt.Errorf("firestore update %s for %s: %w", field, athleteID, err)
	}
	return nil
}

func (b *FirestoreBackend) getDoc(ctx context.Context, collection, id string, out any) error {
	docSnap, err := b.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			b.logger.Warn().Str("collection", collection).Str("id", id).Msg("Document not found in Firestore.")
			return ErrNotFound
		}
		b.logger.Error().Err(err).Str("collection", collection).Str("id", id).Msg("Failed to get document from Firestore.")
		return fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	if err := docSnap.DataTo(out); err != nil {
		b.logger.Error().Err(err).Str("collection", collection).Str("id", id).Msg("Failed to map Firestore document data.")
		return fmt.Errorf("firestore DataTo for %s/%s: %w", collection, id, err)
	}
	return nil
}
