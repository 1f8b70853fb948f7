package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	onboardingService *usecase.OnboardingService
	connectionService *usecase.ConnectionService
	webhookService    *usecase.WebhookService
	publicAppURL      string
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	onboardingService *usecase.OnboardingService,
	connectionService *usecase.ConnectionService,
	webhookService *usecase.WebhookService,
	publicAppURL string,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		onboardingService: onboardingService,
		connectionService: connectionService,
		webhookService:    webhookService,
		publicAppURL:      strings.TrimRight(strings.TrimSpace(publicAppURL), "/"),
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeAndValidate reads a strict JSON body into dst and runs struct
// validation on it.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func requirePrincipalID(ctx context.Context) (string, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return "", fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal.UserID, nil
}
