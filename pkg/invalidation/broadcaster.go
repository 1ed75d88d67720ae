package invalidation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Broadcaster applies invalidations to the local store and fans them out to
// sibling app instances, so a write committed through one instance does not
// leave the others serving stale reads for a full TTL window. Local routing
// happens first and never depends on the broadcast succeeding: a lost event
// degrades siblings to TTL-bounded staleness, which is the same guarantee a
// single-instance deployment already has.
type Broadcaster struct {
	router     *Router
	publisher  Publisher
	instanceID string
	logger     zerolog.Logger
}

// NewBroadcaster wraps a router with cross-instance fan-out. The generated
// instance id lets this instance's listener skip its own events.
func NewBroadcaster(router *Router, publisher Publisher, logger zerolog.Logger) *Broadcaster {
	instanceID := uuid.NewString()
	return &Broadcaster{
		router:     router,
		publisher:  publisher,
		instanceID: instanceID,
		logger:     logger.With().Str("component", "InvalidationBroadcaster").Str("instance_id", instanceID).Logger(),
	}
}

// InstanceID returns the identity this broadcaster stamps on its events.
func (b *Broadcaster) InstanceID() string {
	return b.instanceID
}

// Athlete invalidates an athlete locally and broadcasts the event.
func (b *Broadcaster) Athlete(ctx context.Context, athleteID string) {
	b.router.Athlete(ctx, athleteID)
	b.publish(ctx, Event{Kind: KindAthlete, ID: athleteID})
}

// User invalidates a user locally and broadcasts the event.
func (b *Broadcaster) User(ctx context.Context, userID string) {
	b.router.User(ctx, userID)
	b.publish(ctx, Event{Kind: KindUser, ID: userID})
}

// AthleteLists sweeps the list variants locally and broadcasts the event.
func (b *Broadcaster) AthleteLists(ctx context.Context) {
	b.router.AthleteLists(ctx)
	b.publish(ctx, Event{Kind: KindAthleteLists})
}

// StaticData invalidates the lookup lists locally and broadcasts the event.
func (b *Broadcaster) StaticData(ctx context.Context) {
	b.router.StaticData(ctx)
	b.publish(ctx, Event{Kind: KindStaticData})
}

// All clears the local store and broadcasts a full reset.
func (b *Broadcaster) All(ctx context.Context) {
	b.router.All(ctx)
	b.publish(ctx, Event{Kind: KindAll})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to marshal invalidation event.")
		return
	}
	attributes := map[string]string{originAttribute: b.instanceID}
	if err := b.publisher.Publish(ctx, payload, attributes); err != nil {
		b.logger.Error().Err(err).Str("kind", string(event.Kind)).Msg("Failed to broadcast invalidation event.")
	}
}
