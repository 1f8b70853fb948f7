package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/finboard/internal/domain/webhook"
	qb "github.com/riskibarqy/finboard/internal/platform/querybuilder"
)

type WebhookEventRepository struct {
	db *sqlx.DB
}

func NewWebhookEventRepository(db *sqlx.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Append journals one delivery. A redelivered event id is ignored.
func (r *WebhookEventRepository) Append(ctx context.Context, event webhook.Event) error {
	var payload *string
	if len(event.Payload) > 0 {
		raw := string(event.Payload)
		payload = &raw
	}

	builder, err := qb.InsertModel(webhookEventTable, webhookEventInsertModel{
		ID:         event.ID,
		EventType:  event.Type,
		LinkID:     optionalString(event.LinkID),
		ExternalID: optionalString(event.ExternalID),
		HasErrors:  event.HasErrors,
		Payload:    payload,
		ReceivedAt: event.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("build insert webhook event query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert webhook event query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}
