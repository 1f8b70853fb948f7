package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/infrastructure/repository/memory"
	bankconnectionmock "github.com/riskibarqy/finboard/internal/mocks/domain/bankconnection"
	onboardingmock "github.com/riskibarqy/finboard/internal/mocks/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/platform/id"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type fakeAggregator struct {
	requests []WidgetTokenRequest
	err      error
}

func (f *fakeAggregator) CreateWidgetToken(_ context.Context, req WidgetTokenRequest) (WidgetToken, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return WidgetToken{}, f.err
	}
	return WidgetToken{AccessToken: "access-" + req.ExternalID, RefreshToken: "refresh"}, nil
}

func (f *fakeAggregator) WidgetURL(accessToken, externalID string) string {
	return "https://widget.test/?access_token=" + url.QueryEscape(accessToken) + "&external_id=" + url.QueryEscape(externalID)
}

func newTestConnectionService(store *memory.Store, aggregator AggregatorClient) *ConnectionService {
	service := NewConnectionService(store.BankConnections(), store.Onboarding(), aggregator, &id.SequenceGenerator{Prefix: "conn-"}, logging.NewNop())
	service.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return service
}

func TestConnectionService_MintWidgetTokenAfterSavingCPF(t *testing.T) {
	store := memory.NewStore()
	aggregator := &fakeAggregator{}
	onboardingService := newTestOnboardingService(store)
	service := newTestConnectionService(store, aggregator)

	if _, err := onboardingService.SaveTaxID(t.Context(), SaveTaxIDInput{ActorUserID: "u1", UserID: "u1", CPF: "52998224725"}); err != nil {
		t.Fatalf("save tax id: %v", err)
	}

	session, err := service.MintWidgetToken(t.Context(), MintWidgetTokenInput{ActorUserID: "u1", UserID: "u1"})
	if err != nil {
		t.Fatalf("mint widget token: %v", err)
	}
	if session.AccessToken != "access-u1" || session.WidgetURL == "" {
		t.Fatalf("unexpected widget session: %+v", session)
	}
	if len(aggregator.requests) != 1 || aggregator.requests[0].CPF != "52998224725" || aggregator.requests[0].ExternalID != "u1" {
		t.Fatalf("unexpected aggregator requests: %+v", aggregator.requests)
	}
}

func TestConnectionService_MintWidgetTokenRejectsBeforeCallingAggregator(t *testing.T) {
	aggregator := &fakeAggregator{}
	service := newTestConnectionService(memory.NewStore(), aggregator)

	tests := []struct {
		name    string
		input   MintWidgetTokenInput
		wantErr error
	}{
		{name: "missing cpf", input: MintWidgetTokenInput{ActorUserID: "u1", UserID: "u1"}, wantErr: ErrInvalidInput},
		{name: "invalid cpf", input: MintWidgetTokenInput{ActorUserID: "u1", UserID: "u1", CPF: "12345678900"}, wantErr: ErrInvalidInput},
		{name: "other user", input: MintWidgetTokenInput{ActorUserID: "u2", UserID: "u1", CPF: "52998224725"}, wantErr: ErrForbidden},
		{name: "no session", input: MintWidgetTokenInput{UserID: "u1", CPF: "52998224725"}, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.MintWidgetToken(t.Context(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if len(aggregator.requests) != 0 {
		t.Fatalf("aggregator must not be called, got %d requests", len(aggregator.requests))
	}
}

func TestConnectionService_MintWidgetTokenSurfacesUpstream(t *testing.T) {
	aggregator := &fakeAggregator{err: &UpstreamError{Provider: "belvo", StatusCode: 400, Body: `[{"code":"invalid"}]`}}
	service := newTestConnectionService(memory.NewStore(), aggregator)

	_, err := service.MintWidgetToken(t.Context(), MintWidgetTokenInput{ActorUserID: "u1", UserID: "u1", CPF: "52998224725"})
	var upstream *UpstreamError
	if !errors.Is(err, ErrUpstream) || !errors.As(err, &upstream) || upstream.Body == "" {
		t.Fatalf("expected upstream error with body, got %v", err)
	}
}

func TestConnectionService_HandleLinkSuccessIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	service := newTestConnectionService(store, &fakeAggregator{})

	for i := 0; i < 2; i++ {
		conn, err := service.HandleLinkSuccess(t.Context(), LinkSuccessInput{ActorUserID: "u1", LinkID: "L1", Institution: "ofmockbank_br_retail"})
		if err != nil {
			t.Fatalf("handle link success: %v", err)
		}
		if conn.ID != "conn-1" || conn.Status != bankconnection.StatusActive {
			t.Fatalf("unexpected connection: %+v", conn)
		}
	}

	items, err := service.ListConnections(t.Context(), "u1")
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if len(items) != 1 || items[0].LastSyncAt != nil {
		t.Fatalf("expected one syncing connection, got %+v", items)
	}

	record, _, _ := store.Onboarding().GetByUserID(t.Context(), "u1")
	if !record.OpenFinanceConnected || record.BelvoLinkID != "L1" || record.CurrentStep != onboarding.StepFinished || !record.HasCompletedOnboarding {
		t.Fatalf("unexpected onboarding record: %+v", record)
	}
}

func TestConnectionService_HandleLinkSuccessOnboardingFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	connRepo := bankconnectionmock.NewRepository(t)
	onboardingRepo := onboardingmock.NewRepository(t)
	service := NewConnectionService(connRepo, onboardingRepo, &fakeAggregator{}, &id.SequenceGenerator{Prefix: "c"}, logging.NewNop())

	connRepo.
		On("GetByLinkID", mock.Anything, "L9").
		Return(bankconnection.Connection{}, false, nil).
		Once()
	connRepo.
		On("UpsertByLinkID", mock.Anything, mock.MatchedBy(func(c bankconnection.Connection) bool {
			return c.LinkID == "L9" && c.UserID == "u1" && c.ID == "c1"
		})).
		Return(bankconnection.Connection{ID: "c1", LinkID: "L9", UserID: "u1", Status: bankconnection.StatusActive}, nil).
		Once()
	onboardingRepo.
		On("Apply", mock.Anything, "u1", mock.MatchedBy(func(p onboarding.Patch) bool {
			return p.OpenFinanceConnected != nil && *p.OpenFinanceConnected && p.BelvoLinkID != nil && *p.BelvoLinkID == "L9"
		})).
		Return(onboarding.Record{}, errors.New("db down")).
		Once()

	if _, err := service.HandleLinkSuccess(ctx, LinkSuccessInput{ActorUserID: "u1", LinkID: "L9"}); err == nil {
		t.Fatalf("expected error when onboarding write fails")
	}
}

func TestConnectionService_HandleLinkSuccessRejectsForeignLink(t *testing.T) {
	store := memory.NewStore()
	service := newTestConnectionService(store, &fakeAggregator{})

	if _, err := service.HandleLinkSuccess(t.Context(), LinkSuccessInput{ActorUserID: "u1", LinkID: "L1"}); err != nil {
		t.Fatalf("link for u1: %v", err)
	}
	if _, err := service.HandleLinkSuccess(t.Context(), LinkSuccessInput{ActorUserID: "u2", LinkID: "L1"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	items, _ := service.ListConnections(t.Context(), "u1")
	if len(items) != 1 || items[0].UserID != "u1" {
		t.Fatalf("expected u1 to keep the link, got %+v", items)
	}
	if items, _ := service.ListConnections(t.Context(), "u2"); len(items) != 0 {
		t.Fatalf("expected u2 to have no links, got %+v", items)
	}
	if _, ok, _ := store.Onboarding().GetByUserID(t.Context(), "u2"); ok {
		t.Fatalf("rejected callback must not touch u2 onboarding")
	}
}

func TestConnectionService_HandleLinkSuccessOwnerRaceUsingMockery(t *testing.T) {
	t.Parallel()

	connRepo := bankconnectionmock.NewRepository(t)
	onboardingRepo := onboardingmock.NewRepository(t)
	service := NewConnectionService(connRepo, onboardingRepo, &fakeAggregator{}, &id.SequenceGenerator{Prefix: "c"}, logging.NewNop())

	connRepo.
		On("GetByLinkID", mock.Anything, "L9").
		Return(bankconnection.Connection{}, false, nil).
		Once()
	connRepo.
		On("UpsertByLinkID", mock.Anything, mock.Anything).
		Return(bankconnection.Connection{}, bankconnection.ErrLinkOwnedByOtherUser).
		Once()

	if _, err := service.HandleLinkSuccess(context.Background(), LinkSuccessInput{ActorUserID: "u1", LinkID: "L9"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	onboardingRepo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestConnectionService_HandleLinkSuccessRequiresLink(t *testing.T) {
	service := newTestConnectionService(memory.NewStore(), &fakeAggregator{})

	if _, err := service.HandleLinkSuccess(t.Context(), LinkSuccessInput{ActorUserID: "u1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.HandleLinkSuccess(t.Context(), LinkSuccessInput{LinkID: "L1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
