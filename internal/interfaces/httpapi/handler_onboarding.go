package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/finboard/internal/domain/cpf"
	"github.com/riskibarqy/finboard/internal/usecase"
)

func (h *Handler) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOnboarding")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	record, err := h.onboardingService.Get(ctx, actorID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get onboarding failed", "actor_id", actorID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingRecordToDTO(record))
}

func (h *Handler) SaveCPF(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveCPF")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req saveCPFRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.onboardingService.SaveTaxID(ctx, usecase.SaveTaxIDInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		CPF:         req.CPF,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "save cpf failed", "actor_id", actorID, "user_id", req.UserID, "cpf", cpf.Mask(req.CPF), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cpfDTO{CPF: record.TaxID, Formatted: cpf.Format(record.TaxID)})
}

func (h *Handler) GetCPF(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCPF")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	taxID, err := h.onboardingService.GetTaxID(ctx, actorID, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cpfDTO{CPF: taxID, Formatted: cpf.Format(taxID)})
}

func (h *Handler) SaveGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveGoals")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req saveGoalsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	answers, err := h.onboardingService.SaveGoals(ctx, usecase.SaveGoalsInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		Answers:     req.Answers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "save goals failed", "actor_id", actorID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, goalAnswersToDTO(answers))
}

func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGoals")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	answers, err := h.onboardingService.ListGoals(ctx, actorID, strings.TrimSpace(r.URL.Query().Get("userId")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, goalAnswersToDTO(answers))
}

func (h *Handler) SetStep(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetStep")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req setStepRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.onboardingService.SetStep(ctx, usecase.SetStepInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		Step:        req.Step,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set onboarding step failed", "actor_id", actorID, "step", req.Step, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingRecordToDTO(record))
}

func (h *Handler) AdvanceOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceOnboarding")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req advanceRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.onboardingService.Advance(ctx, usecase.AdvanceInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		Event:       req.Event,
		Step:        req.Step,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "advance onboarding failed", "actor_id", actorID, "event", req.Event, "step", req.Step, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingStateToDTO(state))
}

func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteOnboarding")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req completeRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.onboardingService.Complete(ctx, actorID, req.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "complete onboarding failed", "actor_id", actorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, onboardingRecordToDTO(record))
}

func (h *Handler) SetOpenFinance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetOpenFinance")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req openFinanceRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.onboardingService.SetOpenFinance(ctx, usecase.SetOpenFinanceInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		Connected:   *req.Connected,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set openfinance flag failed", "actor_id", actorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, openFinanceStatusDTO{
		Connected:      record.OpenFinanceConnected,
		ConnectionDate: record.ConnectionDate,
	})
}

func (h *Handler) GetOpenFinanceStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOpenFinanceStatus")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.onboardingService.OpenFinanceStatus(ctx, actorID, strings.TrimSpace(r.URL.Query().Get("userId")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, openFinanceStatusDTO{
		Connected:      status.Connected,
		ConnectionDate: status.ConnectionDate,
	})
}
