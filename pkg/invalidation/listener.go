package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// ListenerConfig holds configuration for the invalidation listener.
type ListenerConfig struct {
	SubscriptionID         string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// NewListenerConfigDefaults provides a config with sensible defaults.
func NewListenerConfigDefaults(subID string) *ListenerConfig {
	return &ListenerConfig{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 100,
		NumGoroutines:          2,
	}
}

// Listener consumes invalidation events published by sibling instances and
// applies them to the local router. Events stamped with this instance's own
// id are acked and skipped: the broadcaster already routed them locally.
type Listener struct {
	router       *Router
	subscription *pubsub.Subscription
	instanceID   string
	logger       zerolog.Logger

	stopOnce      sync.Once
	cancelReceive context.CancelFunc
	doneChan      chan struct{}
}

// NewListener creates a listener bound to an existing subscription. The
// instanceID should be the local Broadcaster's id; pass "" when no local
// broadcaster exists.
func NewListener(cfg *ListenerConfig, client *pubsub.Client, router *Router, instanceID string, logger zerolog.Logger) (*Listener, error) {
	sub := client.Subscription(cfg.SubscriptionID)

	existsCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(existsCtx)
	if !exists || err != nil {
		return nil, fmt.Errorf("subscription %s does not exist: %w", cfg.SubscriptionID, err)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	return &Listener{
		router:       router,
		subscription: sub,
		instanceID:   instanceID,
		logger:       logger.With().Str("component", "InvalidationListener").Str("subscription_id", cfg.SubscriptionID).Logger(),
		doneChan:     make(chan struct{}),
	}, nil
}

// Start begins consuming invalidation events until Stop is called or ctx is
// cancelled.
func (l *Listener) Start(ctx context.Context) error {
	receiveCtx, cancel := context.WithCancel(ctx)
	l.cancelReceive = cancel

	go func() {
		defer close(l.doneChan)
		l.logger.Info().Msg("Invalidation listener started.")

		err := l.subscription.Receive(receiveCtx, func(_ context.Context, msg *pubsub.Message) {
			// Events are idempotent deletes, so always ack: redelivery of a
			// handled event is harmless and an unparseable one never becomes
			// parseable.
			defer msg.Ack()

			if l.instanceID != "" && msg.Attributes[originAttribute] == l.instanceID {
				return
			}

			var event Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				l.logger.Error().Err(err).Str("msg_id", msg.ID).Msg("Failed to decode invalidation event.")
				return
			}
			l.apply(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error().Err(err).Msg("Invalidation listener receive exited with error.")
		}
	}()
	return nil
}

func (l *Listener) apply(event Event) {
	ctx := context.Background()
	switch event.Kind {
	case KindAthlete:
		l.router.Athlete(ctx, event.ID)
	case KindUser:
		l.router.User(ctx, event.ID)
	case KindAthleteLists:
		l.router.AthleteLists(ctx)
	case KindStaticData:
		l.router.StaticData(ctx)
	case KindAll:
		l.router.All(ctx)
	default:
		l.logger.Warn().Str("kind", string(event.Kind)).Msg("Unknown invalidation event kind.")
	}
}

// Stop halts consumption and waits for the receive goroutine to exit.
func (l *Listener) Stop() error {
	l.stopOnce.Do(func() {
		if l.cancelReceive != nil {
			l.cancelReceive()
		}
		select {
		case <-l.doneChan:
			l.logger.Info().Msg("Invalidation listener stopped.")
		case <-time.After(30 * time.Second):
			l.logger.Error().Msg("Timeout waiting for invalidation listener to stop.")
		}
	})
	return nil
}

// Done signals when the receive goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.doneChan
}
