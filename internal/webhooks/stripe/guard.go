package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lotepro/lotepro-backend/pkg/redis"
)

// EventGuard is the transport-level duplicate filter in front of the webhook
// handler. It is best-effort: the durable guarantee lives in the database
// claim made while the event is applied.
type EventGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewEventGuard builds a Redis-backed duplicate filter for Stripe events.
func NewEventGuard(store redis.IdempotencyStore, ttl time.Duration) (*EventGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &EventGuard{store: store, ttl: ttl}, nil
}

// Seen marks the event and reports whether it was already marked.
func (g *EventGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(eventSource, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("mark stripe event: %w", err)
	}
	return !set, nil
}

// Release clears the mark so Stripe's retry can reprocess a failed event.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(eventSource, eventID))
}
