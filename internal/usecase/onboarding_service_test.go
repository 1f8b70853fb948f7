package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/infrastructure/repository/memory"
)

func newTestOnboardingService(store *memory.Store) *OnboardingService {
	service := NewOnboardingService(store.Onboarding(), store.Goals())
	service.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return service
}

func TestOnboardingService_SaveTaxIDNormalizes(t *testing.T) {
	store := memory.NewStore()
	service := newTestOnboardingService(store)

	record, err := service.SaveTaxID(t.Context(), SaveTaxIDInput{ActorUserID: "u1", UserID: "u1", CPF: "529.982.247-25"})
	if err != nil {
		t.Fatalf("save tax id: %v", err)
	}
	if record.TaxID != "52998224725" {
		t.Fatalf("expected normalized cpf, got %q", record.TaxID)
	}

	got, err := service.GetTaxID(t.Context(), "u1", "u1")
	if err != nil || got != "52998224725" {
		t.Fatalf("GetTaxID()=(%q,%v)", got, err)
	}
}

func TestOnboardingService_SaveTaxIDRejections(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())

	tests := []struct {
		name    string
		input   SaveTaxIDInput
		wantErr error
	}{
		{name: "invalid digits", input: SaveTaxIDInput{ActorUserID: "u1", UserID: "u1", CPF: "52998224724"}, wantErr: ErrInvalidInput},
		{name: "all same", input: SaveTaxIDInput{ActorUserID: "u1", UserID: "u1", CPF: "11111111111"}, wantErr: ErrInvalidInput},
		{name: "other user", input: SaveTaxIDInput{ActorUserID: "u2", UserID: "u1", CPF: "52998224725"}, wantErr: ErrForbidden},
		{name: "no session", input: SaveTaxIDInput{UserID: "u1", CPF: "52998224725"}, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.SaveTaxID(t.Context(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOnboardingService_GetTaxIDNotFound(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())

	if _, err := service.GetTaxID(t.Context(), "u1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetTaxID(t.Context(), "u2", "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign user, got %v", err)
	}
}

func TestOnboardingService_SaveGoalsAppends(t *testing.T) {
	store := memory.NewStore()
	service := newTestOnboardingService(store)
	answers := map[string]string{
		"tracking": "never_tracking",
		"priority": "pay_debts",
		"custom":   "free_text",
	}

	for i := 0; i < 2; i++ {
		saved, err := service.SaveGoals(t.Context(), SaveGoalsInput{ActorUserID: "u1", UserID: "u1", Answers: answers})
		if err != nil {
			t.Fatalf("save goals: %v", err)
		}
		if saved[0].QuestionID != "priority" || saved[0].AnswerText != "Pagar dívidas" {
			t.Fatalf("unexpected first answer: %+v", saved[0])
		}
		if saved[2].QuestionText != "custom" || saved[2].AnswerText != "free_text" {
			t.Fatalf("unknown ids should fall back to raw ids: %+v", saved[2])
		}
	}

	rows, err := store.Goals().ListByUser(t.Context(), "u1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected append-only rows, got %d", len(rows))
	}

	if _, err := service.SaveGoals(t.Context(), SaveGoalsInput{ActorUserID: "u1", UserID: "u1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty answers, got %v", err)
	}
	if _, err := service.SaveGoals(t.Context(), SaveGoalsInput{ActorUserID: "u2", UserID: "u1", Answers: answers}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestOnboardingService_ListGoalsKeepsLatestPerQuestion(t *testing.T) {
	store := memory.NewStore()
	service := NewOnboardingService(store.Onboarding(), store.Goals())

	if _, err := service.SaveGoals(t.Context(), SaveGoalsInput{ActorUserID: "u1", Answers: map[string]string{
		"tracking": "never_tracking",
		"priority": "pay_debts",
	}}); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if _, err := service.SaveGoals(t.Context(), SaveGoalsInput{ActorUserID: "u1", Answers: map[string]string{
		"priority": "emergency_fund",
	}}); err != nil {
		t.Fatalf("second submission: %v", err)
	}

	answers, err := service.ListGoals(t.Context(), "u1", "")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected one answer per question, got %+v", answers)
	}
	if answers[0].QuestionID != "priority" || answers[0].AnswerID != "emergency_fund" || answers[1].AnswerID != "never_tracking" {
		t.Fatalf("unexpected answers: %+v", answers)
	}

	if _, err := service.ListGoals(t.Context(), "u2", "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := service.ListGoals(t.Context(), "", "u1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestOnboardingService_AdvancePersistsEveryTransition(t *testing.T) {
	store := memory.NewStore()
	service := newTestOnboardingService(store)
	ctx := t.Context()

	steps := []struct {
		event string
		want  onboarding.Step
	}{
		{event: "complete", want: onboarding.StepGoals},
		{event: "skip", want: onboarding.StepTaxID},
		{event: "back", want: onboarding.StepGoals},
		{event: "complete", want: onboarding.StepTaxID},
		{event: "complete", want: onboarding.StepBankConnection},
	}
	for _, step := range steps {
		state, err := service.Advance(ctx, AdvanceInput{ActorUserID: "u1", UserID: "u1", Event: step.event})
		if err != nil {
			t.Fatalf("advance %s: %v", step.event, err)
		}
		if state.Current != step.want {
			t.Fatalf("advance %s: got step %s want %s", step.event, state.Current, step.want)
		}
		record, _, _ := store.Onboarding().GetByUserID(ctx, "u1")
		if record.CurrentStep != step.want {
			t.Fatalf("advance %s not persisted: stored %s", step.event, record.CurrentStep)
		}
	}

	state, err := service.Advance(ctx, AdvanceInput{ActorUserID: "u1", UserID: "u1", Event: "complete"})
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !state.Completed || state.Current != onboarding.StepFinished {
		t.Fatalf("unexpected final state: %+v", state)
	}
	record, _, _ := store.Onboarding().GetByUserID(ctx, "u1")
	if !record.HasCompletedOnboarding {
		t.Fatalf("expected completion persisted")
	}

	if _, err := service.Advance(ctx, AdvanceInput{ActorUserID: "u1", UserID: "u1", Event: "back"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput after completion, got %v", err)
	}
}

func TestOnboardingService_AdvanceRejectsBadInput(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())

	if _, err := service.Advance(t.Context(), AdvanceInput{ActorUserID: "u1", Event: "jump"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown event, got %v", err)
	}
	if _, err := service.Advance(t.Context(), AdvanceInput{ActorUserID: "u1", Event: "complete", Step: 9}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out of range step, got %v", err)
	}
}

func TestOnboardingService_SetStepAndComplete(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())
	ctx := context.Background()

	record, err := service.SetStep(ctx, SetStepInput{ActorUserID: "u1", UserID: "u1", Step: 2})
	if err != nil || record.CurrentStep != onboarding.StepGoals {
		t.Fatalf("SetStep()=(%+v,%v)", record, err)
	}
	if _, err := service.SetStep(ctx, SetStepInput{ActorUserID: "u1", UserID: "u1", Step: 6}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	record, err = service.Complete(ctx, "u1", "u1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !record.HasCompletedOnboarding || record.CurrentStep != onboarding.StepFinished {
		t.Fatalf("unexpected completed record: %+v", record)
	}
}

func TestOnboardingService_OpenFinanceFlag(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())
	ctx := context.Background()

	status, err := service.OpenFinanceStatus(ctx, "u1", "u1")
	if err != nil || status.Connected || status.ConnectionDate != nil {
		t.Fatalf("expected disconnected default, got (%+v,%v)", status, err)
	}

	if _, err := service.SetOpenFinance(ctx, SetOpenFinanceInput{ActorUserID: "u1", UserID: "u1", Connected: true}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	status, _ = service.OpenFinanceStatus(ctx, "u1", "u1")
	if !status.Connected || status.ConnectionDate == nil {
		t.Fatalf("expected connected with date, got %+v", status)
	}

	if _, err := service.SetOpenFinance(ctx, SetOpenFinanceInput{ActorUserID: "u1", UserID: "u1", Connected: false}); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	status, _ = service.OpenFinanceStatus(ctx, "u1", "u1")
	if status.Connected || status.ConnectionDate != nil {
		t.Fatalf("expected cleared connection date, got %+v", status)
	}
}

func TestOnboardingService_GetReturnsInitialRecord(t *testing.T) {
	service := newTestOnboardingService(memory.NewStore())

	record, err := service.Get(t.Context(), "u1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.UserID != "u1" || record.CurrentStep != onboarding.StepWelcome || record.HasCompletedOnboarding {
		t.Fatalf("unexpected initial record: %+v", record)
	}
}
