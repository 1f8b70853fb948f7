package httpapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/riskibarqy/finboard/internal/domain/cpf"
	"github.com/riskibarqy/finboard/internal/usecase"
)

const (
	processingErrorCode  = "PROCESSING_ERROR"
	defaultExitReason    = "user_cancelled"
	connectStepRetryPath = "/onboarding?step=4"
)

func (h *Handler) ListBankConnections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBankConnections")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.connectionService.ListConnections(ctx, actorID)
	if err != nil {
		h.logger.WarnContext(ctx, "list bank connections failed", "user_id", actorID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]bankConnectionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, bankConnectionToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) MintBelvoToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MintBelvoToken")
	defer span.End()

	actorID, err := requirePrincipalID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req belvoTokenRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.connectionService.MintWidgetToken(ctx, usecase.MintWidgetTokenInput{
		ActorUserID: actorID,
		UserID:      req.UserID,
		CPF:         req.CPF,
		FullName:    req.FullName,
	})
	if err != nil {
		var upstream *usecase.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.ErrorContext(ctx, "belvo token request rejected",
				"user_id", actorID,
				"cpf", cpf.Mask(req.CPF),
				"upstream_status", upstream.StatusCode,
				"upstream_body", upstream.Body,
			)
		} else {
			h.logger.WarnContext(ctx, "mint belvo token failed", "user_id", actorID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, widgetSessionDTO{
		AccessToken: session.AccessToken,
		WidgetURL:   session.WidgetURL,
	})
}

// BelvoCallbackSuccess is the widget's success redirect target.
func (h *Handler) BelvoCallbackSuccess(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BelvoCallbackSuccess")
	defer span.End()

	query := r.URL.Query()
	linkID := strings.TrimSpace(query.Get("link"))
	institution := strings.TrimSpace(query.Get("institution"))

	principal, ok := principalFromContext(ctx)
	if !ok {
		h.redirect(w, r, "/auth/login", nil)
		return
	}
	if linkID == "" {
		h.redirect(w, r, "/belvo/error", url.Values{
			"error_code":    {processingErrorCode},
			"error_message": {"missing link"},
			"user_id":       {principal.UserID},
			"retry_url":     {h.publicAppURL + connectStepRetryPath},
		})
		return
	}

	if _, err := h.connectionService.HandleLinkSuccess(ctx, usecase.LinkSuccessInput{
		ActorUserID: principal.UserID,
		LinkID:      linkID,
		Institution: institution,
	}); err != nil {
		message := "could not save bank connection"
		if errors.Is(err, usecase.ErrForbidden) {
			message = "bank connection belongs to another account"
			h.logger.WarnContext(ctx, "reject belvo success callback", "user_id", principal.UserID, "link_id", linkID, "error", err)
		} else {
			h.logger.ErrorContext(ctx, "process belvo success callback failed", "user_id", principal.UserID, "link_id", linkID, "error", err)
		}
		h.redirect(w, r, "/belvo/error", url.Values{
			"error_code":     {processingErrorCode},
			"error_message":  {message},
			"institution_id": {institution},
			"user_id":        {principal.UserID},
			"retry_url":      {h.publicAppURL + connectStepRetryPath},
		})
		return
	}

	h.redirect(w, r, "/belvo/success", url.Values{
		"link":        {linkID},
		"institution": {institution},
	})
}

// BelvoCallbackExit forwards a user abort to the frontend. Nothing is stored.
func (h *Handler) BelvoCallbackExit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BelvoCallbackExit")
	defer span.End()

	query := r.URL.Query()
	reason := strings.TrimSpace(query.Get("reason"))
	if reason == "" {
		reason = defaultExitReason
	}
	userID := h.callbackUserID(r)

	h.logger.InfoContext(ctx, "belvo widget exited", "user_id", userID, "reason", reason)
	h.redirect(w, r, "/belvo/exit", url.Values{
		"reason":    {reason},
		"user_id":   {userID},
		"retry_url": {h.publicAppURL + connectStepRetryPath},
	})
}

// BelvoCallbackError forwards widget error details to the frontend.
func (h *Handler) BelvoCallbackError(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BelvoCallbackError")
	defer span.End()

	query := r.URL.Query()
	params := url.Values{}
	for _, key := range []string{"error_code", "error_message", "error_type", "institution_id"} {
		if value := strings.TrimSpace(query.Get(key)); value != "" {
			params.Set(key, value)
		}
	}
	params.Set("user_id", h.callbackUserID(r))
	params.Set("retry_url", h.publicAppURL+connectStepRetryPath)

	h.logger.WarnContext(ctx, "belvo widget reported error",
		"user_id", params.Get("user_id"),
		"error_code", params.Get("error_code"),
		"error_type", params.Get("error_type"),
		"institution_id", params.Get("institution_id"),
	)
	h.redirect(w, r, "/belvo/error", params)
}

// BelvoWebhook receives signed aggregator events. A parsed delivery is always
// acknowledged; reconciliation failures are only logged.
func (h *Handler) BelvoWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BelvoWebhook")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome, err := h.webhookService.Process(ctx, body)
	if err != nil {
		h.logger.WarnContext(ctx, "reject belvo webhook", "client_ip", resolveClientIP(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "belvo webhook processed",
		"event_type", outcome.EventType,
		"kind", outcome.Kind.String(),
		"link_id", outcome.LinkID,
		"applied", outcome.Applied,
	)
	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) callbackUserID(r *http.Request) string {
	if userID := strings.TrimSpace(r.URL.Query().Get("user_id")); userID != "" {
		return userID
	}
	if principal, ok := principalFromContext(r.Context()); ok {
		return principal.UserID
	}
	return ""
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string, params url.Values) {
	target := h.publicAppURL + path
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusFound)
}
