package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/platform/tracing"
	"go.opentelemetry.io/otel/trace"
)

type RouterConfig struct {
	Logger             *logging.Logger
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	SessionCookie      string
	WebhookSecret      string
}

func NewRouter(handler *Handler, verifier TokenVerifier, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled)
	registerAuthorizedRoutes(mux, handler, verifier, cfg.SessionCookie)
	registerBelvoCallbackRoutes(mux, handler, verifier, cfg.SessionCookie, logger)
	registerWebhookRoutes(mux, handler, cfg.WebhookSecret)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				tracing.Fail(trace.SpanFromContext(ctx), fmt.Errorf("panic: %v", rec))
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
