package httpapi

import (
	"net/http"

	"github.com/riskibarqy/finboard/internal/platform/logging"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, cookieName string) {
	registerAuthorizedOnboardingRoutes(mux, handler, verifier, cookieName)
	registerAuthorizedBankConnectionRoutes(mux, handler, verifier, cookieName)
}

func registerAuthorizedOnboardingRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, cookieName string) {
	auth := func(fn http.HandlerFunc) http.Handler { return RequireAuth(verifier, cookieName, fn) }

	mux.Handle("GET /v1/onboarding", auth(handler.GetOnboarding))
	mux.Handle("POST /v1/onboarding/cpf", auth(handler.SaveCPF))
	mux.Handle("GET /v1/onboarding/cpf", auth(handler.GetCPF))
	mux.Handle("POST /v1/onboarding/goals", auth(handler.SaveGoals))
	mux.Handle("GET /v1/onboarding/goals", auth(handler.GetGoals))
	mux.Handle("POST /v1/onboarding/step", auth(handler.SetStep))
	mux.Handle("POST /v1/onboarding/transitions", auth(handler.AdvanceOnboarding))
	mux.Handle("POST /v1/onboarding/complete", auth(handler.CompleteOnboarding))
	mux.Handle("POST /v1/onboarding/openfinance", auth(handler.SetOpenFinance))
	mux.Handle("GET /v1/onboarding/openfinance/status", auth(handler.GetOpenFinanceStatus))
}

func registerAuthorizedBankConnectionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, cookieName string) {
	mux.Handle("GET /v1/bank-connections", RequireAuth(verifier, cookieName, http.HandlerFunc(handler.ListBankConnections)))
	mux.Handle("POST /v1/belvo/token", RequireAuth(verifier, cookieName, http.HandlerFunc(handler.MintBelvoToken)))
}

func registerBelvoCallbackRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, cookieName string, logger *logging.Logger) {
	mux.Handle("GET /api/belvo/callback/success", OptionalAuth(verifier, cookieName, logger, http.HandlerFunc(handler.BelvoCallbackSuccess)))
	mux.Handle("GET /api/belvo/callback/exit", OptionalAuth(verifier, cookieName, logger, http.HandlerFunc(handler.BelvoCallbackExit)))
	mux.Handle("GET /api/belvo/callback/error", OptionalAuth(verifier, cookieName, logger, http.HandlerFunc(handler.BelvoCallbackError)))
}

func registerWebhookRoutes(mux *http.ServeMux, handler *Handler, webhookSecret string) {
	mux.Handle("POST /api/webhooks/belvo", RequireWebhookSignature(webhookSecret, http.HandlerFunc(handler.BelvoWebhook)))
}
