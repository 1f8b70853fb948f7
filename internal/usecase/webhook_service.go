package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/domain/webhook"
	"github.com/riskibarqy/finboard/internal/platform/id"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/platform/tracing"
)

type webhookPayload struct {
	WebhookID   string             `json:"webhook_id"`
	EventType   string             `json:"event_type"`
	WebhookCode string             `json:"webhook_code"`
	LinkID      string             `json:"link_id"`
	ExternalID  string             `json:"external_id"`
	Data        webhookPayloadData `json:"data"`
}

type webhookPayloadData struct {
	LinkID     string           `json:"link_id"`
	ExternalID string           `json:"external_id"`
	Errors     []map[string]any `json:"errors"`
}

// WebhookOutcome describes what one delivery changed. Err holds a
// reconciliation failure, which never fails the delivery itself.
type WebhookOutcome struct {
	EventType string
	Kind      webhook.Kind
	LinkID    string
	UserID    string
	Applied   bool
	Err       error
}

type WebhookService struct {
	connRepo       bankconnection.Repository
	onboardingRepo onboarding.Repository
	eventRepo      webhook.Repository
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewWebhookService(
	connRepo bankconnection.Repository,
	onboardingRepo onboarding.Repository,
	eventRepo webhook.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *WebhookService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}

	return &WebhookService{
		connRepo:       connRepo,
		onboardingRepo: onboardingRepo,
		eventRepo:      eventRepo,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// Process reconciles one authenticated aggregator delivery. Only a malformed
// body is returned as an error.
func (s *WebhookService) Process(ctx context.Context, body []byte) (WebhookOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WebhookService.Process")
	defer span.End()

	var payload webhookPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		tracing.Fail(span, err)
		return WebhookOutcome{}, fmt.Errorf("%w: malformed webhook payload: %v", ErrInvalidInput, err)
	}

	eventType := firstNonEmpty(payload.EventType, payload.WebhookCode)
	linkID := firstNonEmpty(payload.Data.LinkID, payload.LinkID)
	externalID := firstNonEmpty(payload.Data.ExternalID, payload.ExternalID)
	now := s.now().UTC()

	outcome := WebhookOutcome{
		EventType: eventType,
		Kind:      webhook.Classify(eventType),
		LinkID:    linkID,
		UserID:    externalID,
	}

	s.journal(ctx, payload.WebhookID, webhook.Event{
		Type:       eventType,
		LinkID:     linkID,
		ExternalID: externalID,
		HasErrors:  len(payload.Data.Errors) > 0,
		Payload:    append([]byte(nil), body...),
		ReceivedAt: now,
	})
	if len(payload.Data.Errors) > 0 {
		s.logger.WarnContext(ctx, "aggregator webhook reported errors",
			"event_type", eventType,
			"link_id", linkID,
			"errors", payload.Data.Errors,
		)
	}

	switch outcome.Kind {
	case webhook.KindHistoricalUpdate:
		outcome.Applied, outcome.Err = s.applyHistoricalUpdate(ctx, linkID, externalID, now)
	case webhook.KindRefresh:
		outcome.Applied, outcome.Err = s.touchSync(ctx, linkID, now)
	case webhook.KindConsentLoss:
		outcome.Applied, outcome.UserID, outcome.Err = s.applyConsentLoss(ctx, linkID, externalID, now)
	default:
		s.logger.InfoContext(ctx, "ignore unhandled aggregator webhook", "event_type", eventType, "link_id", linkID)
	}

	if outcome.Err != nil {
		s.logger.ErrorContext(ctx, "reconcile aggregator webhook failed",
			"event_type", eventType,
			"link_id", linkID,
			"error", outcome.Err,
		)
	}
	return outcome, nil
}

func (s *WebhookService) journal(ctx context.Context, webhookID string, event webhook.Event) {
	if s.eventRepo == nil {
		return
	}
	event.ID = strings.TrimSpace(webhookID)
	if event.ID == "" {
		generated, err := s.idGen.NewID()
		if err != nil {
			s.logger.WarnContext(ctx, "generate webhook event id failed", "error", err)
			return
		}
		event.ID = generated
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "journal aggregator webhook failed", "event_type", event.Type, "error", err)
	}
}

// applyHistoricalUpdate confirms first data sync and puts the link back to
// active. The onboarding flag is set from the external id even when the link
// row does not exist yet, since the redirect callback may still be in flight;
// without an external id the link owner is used.
func (s *WebhookService) applyHistoricalUpdate(ctx context.Context, linkID, externalID string, now time.Time) (bool, error) {
	applied := false
	userID := externalID
	if linkID != "" {
		conn, found, err := s.syncLink(ctx, bankconnection.SyncInput{LinkID: linkID, At: now, Activate: true})
		if err != nil {
			return false, err
		}
		applied = found
		if userID == "" && found {
			userID = conn.UserID
		}
	}

	if userID == "" {
		return applied, nil
	}
	connected := true
	patch := onboarding.Patch{
		OpenFinanceConnected: &connected,
		ConnectionDate:       &now,
		At:                   now,
	}
	if linkID != "" {
		patch.BelvoLinkID = &linkID
	}
	if _, err := s.onboardingRepo.Apply(ctx, userID, patch); err != nil {
		return applied, fmt.Errorf("mark onboarding connected: %w", err)
	}
	return true, nil
}

// touchSync records a data refresh. Link status is left as is.
func (s *WebhookService) touchSync(ctx context.Context, linkID string, now time.Time) (bool, error) {
	_, found, err := s.syncLink(ctx, bankconnection.SyncInput{LinkID: linkID, At: now})
	return found, err
}

func (s *WebhookService) syncLink(ctx context.Context, input bankconnection.SyncInput) (bankconnection.Connection, bool, error) {
	if input.LinkID == "" {
		s.logger.WarnContext(ctx, "aggregator webhook without link id")
		return bankconnection.Connection{}, false, nil
	}
	conn, found, err := s.connRepo.TouchSync(ctx, input)
	if err != nil {
		return bankconnection.Connection{}, false, fmt.Errorf("touch bank connection sync: %w", err)
	}
	if !found {
		s.logger.InfoContext(ctx, "aggregator webhook for unknown link", "link_id", input.LinkID)
		return bankconnection.Connection{}, false, nil
	}
	return conn, true, nil
}

func (s *WebhookService) applyConsentLoss(ctx context.Context, linkID, externalID string, now time.Time) (bool, string, error) {
	if linkID == "" {
		s.logger.WarnContext(ctx, "consent loss webhook without link id", "external_id", externalID)
		return false, externalID, nil
	}

	result, err := s.connRepo.ExpireConsent(ctx, bankconnection.ExpireInput{
		LinkID: linkID,
		UserID: externalID,
		At:     now,
	})
	if err != nil {
		return false, externalID, fmt.Errorf("expire bank connection consent: %w", err)
	}
	if !result.LinkFound {
		s.logger.InfoContext(ctx, "consent loss for unknown link", "link_id", linkID)
	}
	if result.UserID != "" {
		s.logger.InfoContext(ctx, "recomputed openfinance flag",
			"user_id", result.UserID,
			"link_id", linkID,
			"active_remaining", result.ActiveRemaining,
			"connected", result.OpenFinanceConnected,
		)
	}
	return result.LinkFound || result.UserID != "", result.UserID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
