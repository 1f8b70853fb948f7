package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/cpf"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/platform/id"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/platform/tracing"
)

// WidgetTokenRequest scopes one aggregator widget session to an end user.
type WidgetTokenRequest struct {
	ExternalID string
	CPF        string
	FullName   string
}

type WidgetToken struct {
	AccessToken  string
	RefreshToken string
}

// AggregatorClient mints widget tokens against the Open Finance aggregator.
type AggregatorClient interface {
	CreateWidgetToken(ctx context.Context, req WidgetTokenRequest) (WidgetToken, error)
	WidgetURL(accessToken, externalID string) string
}

type MintWidgetTokenInput struct {
	ActorUserID string
	UserID      string
	CPF         string
	FullName    string
}

type WidgetSession struct {
	AccessToken  string
	RefreshToken string
	WidgetURL    string
}

type LinkSuccessInput struct {
	ActorUserID string
	LinkID      string
	Institution string
}

type ConnectionService struct {
	connRepo       bankconnection.Repository
	onboardingRepo onboarding.Repository
	aggregator     AggregatorClient
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewConnectionService(
	connRepo bankconnection.Repository,
	onboardingRepo onboarding.Repository,
	aggregator AggregatorClient,
	idGen id.Generator,
	logger *logging.Logger,
) *ConnectionService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}

	return &ConnectionService{
		connRepo:       connRepo,
		onboardingRepo: onboardingRepo,
		aggregator:     aggregator,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// ListConnections returns the caller's bank connections, newest first.
func (s *ConnectionService) ListConnections(ctx context.Context, actorUserID string) ([]bankconnection.Connection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConnectionService.ListConnections")
	defer span.End()

	userID, err := authorizeUser(actorUserID, "")
	if err != nil {
		return nil, err
	}

	items, err := s.connRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bank connections: %w", err)
	}
	return items, nil
}

// MintWidgetToken requests a user-scoped widget token. Nothing is persisted.
func (s *ConnectionService) MintWidgetToken(ctx context.Context, input MintWidgetTokenInput) (WidgetSession, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConnectionService.MintWidgetToken")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return WidgetSession{}, err
	}

	rawCPF := strings.TrimSpace(input.CPF)
	if rawCPF == "" {
		record, exists, err := s.onboardingRepo.GetByUserID(ctx, userID)
		if err != nil {
			return WidgetSession{}, fmt.Errorf("get onboarding record: %w", err)
		}
		if exists {
			rawCPF = record.TaxID
		}
	}
	if rawCPF == "" {
		return WidgetSession{}, fmt.Errorf("%w: cpf is required before connecting a bank", ErrInvalidInput)
	}
	normalized, err := cpf.Validate(rawCPF)
	if err != nil {
		return WidgetSession{}, fmt.Errorf("%w: cpf: %v", ErrInvalidInput, err)
	}

	token, err := s.aggregator.CreateWidgetToken(ctx, WidgetTokenRequest{
		ExternalID: userID,
		CPF:        normalized,
		FullName:   strings.TrimSpace(input.FullName),
	})
	if err != nil {
		tracing.Fail(span, err)
		return WidgetSession{}, fmt.Errorf("create widget token: %w", err)
	}

	return WidgetSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		WidgetURL:    s.aggregator.WidgetURL(token.AccessToken, userID),
	}, nil
}

// HandleLinkSuccess records a completed widget flow: the link is upserted as
// active and the caller's onboarding is marked connected and finished.
func (s *ConnectionService) HandleLinkSuccess(ctx context.Context, input LinkSuccessInput) (bankconnection.Connection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConnectionService.HandleLinkSuccess")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, "")
	if err != nil {
		return bankconnection.Connection{}, err
	}
	linkID := strings.TrimSpace(input.LinkID)
	if linkID == "" {
		return bankconnection.Connection{}, fmt.Errorf("%w: link is required", ErrInvalidInput)
	}
	institution := strings.TrimSpace(input.Institution)

	existing, found, err := s.connRepo.GetByLinkID(ctx, linkID)
	if err != nil {
		return bankconnection.Connection{}, fmt.Errorf("get bank connection: %w", err)
	}
	if found && existing.UserID != userID {
		return bankconnection.Connection{}, s.rejectForeignLink(ctx, userID, linkID)
	}

	connID, err := s.idGen.NewID()
	if err != nil {
		return bankconnection.Connection{}, fmt.Errorf("generate connection id: %w", err)
	}

	now := s.now().UTC()
	conn, err := s.connRepo.UpsertByLinkID(ctx, bankconnection.Connection{
		ID:          connID,
		UserID:      userID,
		LinkID:      linkID,
		Institution: institution,
		Status:      bankconnection.StatusActive,
		ConnectedAt: now,
	})
	if errors.Is(err, bankconnection.ErrLinkOwnedByOtherUser) {
		return bankconnection.Connection{}, s.rejectForeignLink(ctx, userID, linkID)
	}
	if err != nil {
		return bankconnection.Connection{}, fmt.Errorf("upsert bank connection: %w", err)
	}

	connected := true
	completed := true
	step := onboarding.StepFinished
	if _, err := s.onboardingRepo.Apply(ctx, userID, onboarding.Patch{
		CurrentStep:            &step,
		HasCompletedOnboarding: &completed,
		OpenFinanceConnected:   &connected,
		ConnectionDate:         &now,
		BelvoLinkID:            &linkID,
		At:                     now,
	}); err != nil {
		return bankconnection.Connection{}, fmt.Errorf("mark onboarding connected: %w", err)
	}

	s.logger.InfoContext(ctx, "bank connection linked",
		"user_id", userID,
		"link_id", linkID,
		"institution", institution,
	)
	return conn, nil
}

func (s *ConnectionService) rejectForeignLink(ctx context.Context, userID, linkID string) error {
	s.logger.WarnContext(ctx, "bank link belongs to another user", "user_id", userID, "link_id", linkID)
	return fmt.Errorf("%w: link %s belongs to another user", ErrForbidden, linkID)
}
