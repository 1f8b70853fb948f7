package memory

import (
	"context"

	"github.com/riskibarqy/finboard/internal/domain/webhook"
)

type WebhookEventRepository struct {
	store *Store
}

// Append journals one delivery. A redelivered event id is ignored.
func (r *WebhookEventRepository) Append(_ context.Context, event webhook.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.events {
		if event.ID != "" && existing.ID == event.ID {
			return nil
		}
	}
	event.Payload = append([]byte(nil), event.Payload...)
	r.store.events = append(r.store.events, event)
	return nil
}

// List returns journaled events in arrival order.
func (r *WebhookEventRepository) List(_ context.Context) ([]webhook.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]webhook.Event(nil), r.store.events...), nil
}
