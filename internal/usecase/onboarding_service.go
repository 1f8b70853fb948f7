package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/finboard/internal/domain/cpf"
	"github.com/riskibarqy/finboard/internal/domain/goal"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
)

type SaveTaxIDInput struct {
	ActorUserID string
	UserID      string
	CPF         string
}

type SaveGoalsInput struct {
	ActorUserID string
	UserID      string
	Answers     map[string]string
}

type SetStepInput struct {
	ActorUserID string
	UserID      string
	Step        int
}

type AdvanceInput struct {
	ActorUserID string
	UserID      string
	Event       string
	// Step is the step the event was raised on; zero means the stored step.
	Step int
}

type SetOpenFinanceInput struct {
	ActorUserID string
	UserID      string
	Connected   bool
}

type OpenFinanceStatus struct {
	Connected      bool
	ConnectionDate *time.Time
}

type OnboardingService struct {
	repo     onboarding.Repository
	goalRepo goal.Repository
	now      func() time.Time
}

func NewOnboardingService(repo onboarding.Repository, goalRepo goal.Repository) *OnboardingService {
	return &OnboardingService{
		repo:     repo,
		goalRepo: goalRepo,
		now:      time.Now,
	}
}

// Get returns the caller's onboarding record, or the implicit initial record
// when nothing was written yet.
func (s *OnboardingService) Get(ctx context.Context, actorUserID, userID string) (onboarding.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Get")
	defer span.End()

	userID, err := authorizeUser(actorUserID, userID)
	if err != nil {
		return onboarding.Record{}, err
	}

	record, exists, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("get onboarding record: %w", err)
	}
	if !exists {
		return onboarding.NewRecord(userID), nil
	}
	return record, nil
}

func (s *OnboardingService) SaveTaxID(ctx context.Context, input SaveTaxIDInput) (onboarding.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.SaveTaxID")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return onboarding.Record{}, err
	}
	normalized, err := cpf.Validate(input.CPF)
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("%w: cpf: %v", ErrInvalidInput, err)
	}

	record, err := s.repo.Apply(ctx, userID, onboarding.Patch{
		TaxID: &normalized,
		At:    s.now().UTC(),
	})
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("save tax id: %w", err)
	}
	return record, nil
}

func (s *OnboardingService) GetTaxID(ctx context.Context, actorUserID, userID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.GetTaxID")
	defer span.End()

	userID, err := authorizeUser(actorUserID, userID)
	if err != nil {
		return "", err
	}

	record, exists, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get onboarding record: %w", err)
	}
	if !exists || strings.TrimSpace(record.TaxID) == "" {
		return "", fmt.Errorf("%w: tax id not found for user=%s", ErrNotFound, userID)
	}
	return record.TaxID, nil
}

// SaveGoals appends one row per answer. Earlier submissions are kept.
func (s *OnboardingService) SaveGoals(ctx context.Context, input SaveGoalsInput) ([]goal.Answer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.SaveGoals")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(input.Answers) == 0 {
		return nil, fmt.Errorf("%w: answers are required", ErrInvalidInput)
	}

	questionIDs := make([]string, 0, len(input.Answers))
	for questionID := range input.Answers {
		questionIDs = append(questionIDs, questionID)
	}
	sort.Slice(questionIDs, func(i, j int) bool {
		oi, oj := goal.Order(questionIDs[i]), goal.Order(questionIDs[j])
		if oi != oj {
			return oi < oj
		}
		return questionIDs[i] < questionIDs[j]
	})

	now := s.now().UTC()
	answers := make([]goal.Answer, 0, len(questionIDs))
	for _, questionID := range questionIDs {
		answerID := strings.TrimSpace(input.Answers[questionID])
		questionID = strings.TrimSpace(questionID)
		if questionID == "" || answerID == "" {
			return nil, fmt.Errorf("%w: question and answer ids are required", ErrInvalidInput)
		}
		questionText, answerText := goal.Resolve(questionID, answerID)
		answers = append(answers, goal.Answer{
			UserID:       userID,
			QuestionID:   questionID,
			AnswerID:     answerID,
			QuestionText: questionText,
			AnswerText:   answerText,
			CreatedAt:    now,
		})
	}

	if err := s.goalRepo.Append(ctx, answers); err != nil {
		return nil, fmt.Errorf("append goal answers: %w", err)
	}
	return answers, nil
}

// ListGoals returns the latest answer per question in questionnaire order.
// Rows come back oldest first, so later submissions override earlier ones.
func (s *OnboardingService) ListGoals(ctx context.Context, actorUserID, userID string) ([]goal.Answer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.ListGoals")
	defer span.End()

	userID, err := authorizeUser(actorUserID, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.goalRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goal answers: %w", err)
	}

	latest := make(map[string]goal.Answer, len(rows))
	for _, row := range rows {
		latest[row.QuestionID] = row
	}
	out := make([]goal.Answer, 0, len(latest))
	for _, answer := range latest {
		out = append(out, answer)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := goal.Order(out[i].QuestionID), goal.Order(out[j].QuestionID)
		if oi != oj {
			return oi < oj
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}

func (s *OnboardingService) SetStep(ctx context.Context, input SetStepInput) (onboarding.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.SetStep")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return onboarding.Record{}, err
	}
	step := onboarding.Step(input.Step)
	if !step.Persistable() {
		return onboarding.Record{}, fmt.Errorf("%w: step must be between %d and %d", ErrInvalidInput, onboarding.StepWelcome, onboarding.StepFinished)
	}

	record, err := s.repo.Apply(ctx, userID, onboarding.Patch{
		CurrentStep: &step,
		At:          s.now().UTC(),
	})
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("set onboarding step: %w", err)
	}
	return record, nil
}

// Advance applies one sequencer event to the stored progress and persists the
// resulting step.
func (s *OnboardingService) Advance(ctx context.Context, input AdvanceInput) (onboarding.State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Advance")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return onboarding.State{}, err
	}
	kind, err := onboarding.ParseEventKind(input.Event)
	if err != nil {
		return onboarding.State{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	record, exists, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return onboarding.State{}, fmt.Errorf("get onboarding record: %w", err)
	}
	state := onboarding.InitialState()
	if exists {
		state = record.State()
	}

	next, err := onboarding.Transition(state, onboarding.Event{Kind: kind, Step: onboarding.Step(input.Step)})
	if err != nil {
		if errors.Is(err, onboarding.ErrInvalidStep) || errors.Is(err, onboarding.ErrFlowFinished) {
			return onboarding.State{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return onboarding.State{}, err
	}

	patch := onboarding.Patch{
		CurrentStep: &next.Current,
		At:          s.now().UTC(),
	}
	if next.Completed {
		completed := true
		patch.HasCompletedOnboarding = &completed
	}
	if _, err := s.repo.Apply(ctx, userID, patch); err != nil {
		return onboarding.State{}, fmt.Errorf("persist onboarding transition: %w", err)
	}
	return next, nil
}

func (s *OnboardingService) Complete(ctx context.Context, actorUserID, userID string) (onboarding.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.Complete")
	defer span.End()

	userID, err := authorizeUser(actorUserID, userID)
	if err != nil {
		return onboarding.Record{}, err
	}

	step := onboarding.StepFinished
	completed := true
	record, err := s.repo.Apply(ctx, userID, onboarding.Patch{
		CurrentStep:            &step,
		HasCompletedOnboarding: &completed,
		At:                     s.now().UTC(),
	})
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("complete onboarding: %w", err)
	}
	return record, nil
}

func (s *OnboardingService) SetOpenFinance(ctx context.Context, input SetOpenFinanceInput) (onboarding.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.SetOpenFinance")
	defer span.End()

	userID, err := authorizeUser(input.ActorUserID, input.UserID)
	if err != nil {
		return onboarding.Record{}, err
	}

	now := s.now().UTC()
	connected := input.Connected
	patch := onboarding.Patch{
		OpenFinanceConnected: &connected,
		At:                   now,
	}
	if connected {
		patch.ConnectionDate = &now
	} else {
		patch.ClearConnectionDate = true
	}

	record, err := s.repo.Apply(ctx, userID, patch)
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("set openfinance flag: %w", err)
	}
	return record, nil
}

func (s *OnboardingService) OpenFinanceStatus(ctx context.Context, actorUserID, userID string) (OpenFinanceStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OnboardingService.OpenFinanceStatus")
	defer span.End()

	userID, err := authorizeUser(actorUserID, userID)
	if err != nil {
		return OpenFinanceStatus{}, err
	}

	record, exists, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return OpenFinanceStatus{}, fmt.Errorf("get onboarding record: %w", err)
	}
	if !exists {
		return OpenFinanceStatus{}, nil
	}
	return OpenFinanceStatus{
		Connected:      record.OpenFinanceConnected,
		ConnectionDate: record.ConnectionDate,
	}, nil
}
