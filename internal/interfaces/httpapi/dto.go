package httpapi

import (
	"time"

	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/goal"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
)

type saveCPFRequest struct {
	UserID string `json:"userId"`
	CPF    string `json:"cpf" validate:"required,max=32"`
}

type saveGoalsRequest struct {
	UserID  string            `json:"userId"`
	Answers map[string]string `json:"answers" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

type setStepRequest struct {
	UserID string `json:"userId"`
	Step   int    `json:"step" validate:"required,min=1,max=5"`
}

type advanceRequest struct {
	UserID string `json:"userId"`
	Event  string `json:"event" validate:"required,oneof=complete skip back"`
	Step   int    `json:"step" validate:"omitempty,min=1,max=4"`
}

type completeRequest struct {
	UserID string `json:"userId"`
}

type openFinanceRequest struct {
	UserID    string `json:"userId"`
	Connected *bool  `json:"connected" validate:"required"`
}

type belvoTokenRequest struct {
	UserID   string `json:"userId"`
	CPF      string `json:"cpf" validate:"omitempty,max=32"`
	FullName string `json:"fullName" validate:"omitempty,max=200"`
}

type onboardingRecordDTO struct {
	UserID                 string     `json:"userId"`
	CurrentStep            int        `json:"currentStep"`
	CurrentStepName        string     `json:"currentStepName"`
	HasCompletedOnboarding bool       `json:"hasCompletedOnboarding"`
	TaxID                  string     `json:"taxId,omitempty"`
	OpenFinanceConnected   bool       `json:"openfinanceConnected"`
	ConnectionDate         *time.Time `json:"connectionDate,omitempty"`
	BelvoLinkID            string     `json:"belvoLinkId,omitempty"`
	CreatedAt              *time.Time `json:"createdAt,omitempty"`
	UpdatedAt              *time.Time `json:"updatedAt,omitempty"`
}

type onboardingStateDTO struct {
	CurrentStep     int    `json:"currentStep"`
	CurrentStepName string `json:"currentStepName"`
	Completed       bool   `json:"completed"`
}

type cpfDTO struct {
	CPF       string `json:"cpf"`
	Formatted string `json:"formatted"`
}

type goalAnswerDTO struct {
	QuestionID   string    `json:"questionId"`
	AnswerID     string    `json:"answerId"`
	QuestionText string    `json:"questionText"`
	AnswerText   string    `json:"answerText"`
	CreatedAt    time.Time `json:"createdAt"`
}

type openFinanceStatusDTO struct {
	Connected      bool       `json:"connected"`
	ConnectionDate *time.Time `json:"connection_date"`
}

type widgetSessionDTO struct {
	AccessToken string `json:"access_token"`
	WidgetURL   string `json:"widget_url"`
}

type bankConnectionDTO struct {
	ID          string     `json:"id"`
	LinkID      string     `json:"linkId"`
	Institution string     `json:"institution"`
	Status      string     `json:"status"`
	Syncing     bool       `json:"syncing"`
	ConnectedAt time.Time  `json:"connectedAt"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
}

func onboardingRecordToDTO(record onboarding.Record) onboardingRecordDTO {
	state := record.State()
	out := onboardingRecordDTO{
		UserID:                 record.UserID,
		CurrentStep:            int(state.Current),
		CurrentStepName:        state.Current.String(),
		HasCompletedOnboarding: state.Completed,
		TaxID:                  record.TaxID,
		OpenFinanceConnected:   record.OpenFinanceConnected,
		ConnectionDate:         record.ConnectionDate,
		BelvoLinkID:            record.BelvoLinkID,
	}
	if !record.CreatedAt.IsZero() {
		createdAt := record.CreatedAt
		out.CreatedAt = &createdAt
	}
	if !record.UpdatedAt.IsZero() {
		updatedAt := record.UpdatedAt
		out.UpdatedAt = &updatedAt
	}
	return out
}

func onboardingStateToDTO(state onboarding.State) onboardingStateDTO {
	return onboardingStateDTO{
		CurrentStep:     int(state.Current),
		CurrentStepName: state.Current.String(),
		Completed:       state.Completed,
	}
}

func goalAnswersToDTO(answers []goal.Answer) []goalAnswerDTO {
	out := make([]goalAnswerDTO, 0, len(answers))
	for _, answer := range answers {
		out = append(out, goalAnswerDTO{
			QuestionID:   answer.QuestionID,
			AnswerID:     answer.AnswerID,
			QuestionText: answer.QuestionText,
			AnswerText:   answer.AnswerText,
			CreatedAt:    answer.CreatedAt,
		})
	}
	return out
}

func bankConnectionToDTO(conn bankconnection.Connection) bankConnectionDTO {
	return bankConnectionDTO{
		ID:          conn.ID,
		LinkID:      conn.LinkID,
		Institution: conn.Institution,
		Status:      string(conn.Status),
		Syncing:     conn.Syncing(),
		ConnectedAt: conn.ConnectedAt,
		LastSyncAt:  conn.LastSyncAt,
	}
}
