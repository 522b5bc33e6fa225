package notify

import (
	"context"
	"time"

	"voltbay/internal/clock"
	"voltbay/internal/repository"
	"voltbay/utils"
)

const defaultRelayBatch = 100

// Relay drains the notification outbox into a Publisher. Delivery is at least
// once: a notification stays pending until its publish is confirmed.
type Relay struct {
	store     repository.NotificationStore
	publisher Publisher
	clock     clock.Clock
	interval  time.Duration
	batch     int
}

func NewRelay(store repository.NotificationStore, publisher Publisher, clk clock.Clock, interval time.Duration) *Relay {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{store: store, publisher: publisher, clock: clk, interval: interval, batch: defaultRelayBatch}
}

// Run polls until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.PublishPending(ctx); err != nil && ctx.Err() == nil {
			utils.Error("notification relay pass failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PublishPending publishes one batch and returns how many were delivered.
// A failed publish is logged and left for the next pass.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	pending, err := r.store.ListUnpublishedNotifications(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := r.publisher.Publish(ctx, n); err != nil {
			utils.Warn("failed to publish notification", map[string]any{"notification_id": n.ID, "error": err.Error()})
			continue
		}
		if err := r.store.MarkNotificationPublished(ctx, n.ID, r.clock.Now()); err != nil {
			utils.Error("failed to mark notification published", map[string]any{"notification_id": n.ID, "error": err.Error()})
			continue
		}
		published++
	}
	return published, nil
}
