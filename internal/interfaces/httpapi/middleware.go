package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/finboard/internal/domain/user"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultSessionCookie   = "finboard_session"
	webhookSignatureHeader = "X-Belvo-Signature"
	maxWebhookBodyBytes    = 1 << 20
)

// TokenVerifier verifies session tokens against the identity provider.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (user.Principal, error)
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}

// sessionToken reads the bearer header first and falls back to the session
// cookie used by browser redirects.
func sessionToken(r *http.Request, cookieName string) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", fmt.Errorf("%w: invalid Authorization header format", usecase.ErrUnauthorized)
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookieName == "" {
		cookieName = defaultSessionCookie
	}
	if cookie, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value), nil
	}
	return "", fmt.Errorf("%w: missing session", usecase.ErrUnauthorized)
}

func RequireAuth(verifier TokenVerifier, cookieName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := sessionToken(r, cookieName)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		principal, err := verifier.VerifyAccessToken(ctx, token)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
	})
}

// OptionalAuth attaches the principal when a valid session is present and
// lets the request through either way.
func OptionalAuth(verifier TokenVerifier, cookieName string, logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := sessionToken(r, cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := verifier.VerifyAccessToken(ctx, token)
		if err != nil {
			logger.DebugContext(ctx, "session verification failed on redirect", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
	})
}

// RequireWebhookSignature checks the hex HMAC-SHA256 of the raw body before
// the handler sees it. The body is restored for the handler.
func RequireWebhookSignature(secret string, next http.Handler) http.Handler {
	key := []byte(strings.TrimSpace(secret))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if len(key) == 0 {
			writeError(ctx, w, fmt.Errorf("%w: webhook secret is not configured", usecase.ErrDependencyUnavailable))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: read webhook body: %v", usecase.ErrInvalidInput, err))
			return
		}
		if !validSignature(key, raw, r.Header.Get(webhookSignatureHeader)) {
			writeError(ctx, w, fmt.Errorf("%w: invalid webhook signature", usecase.ErrUnauthorized))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		next.ServeHTTP(w, r)
	})
}

func validSignature(key, body []byte, header string) bool {
	provided := strings.TrimSpace(header)
	provided = strings.TrimPrefix(provided, "sha256=")
	if provided == "" {
		return false
	}
	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}

// responseRecorder keeps the status and size for the access log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogging writes one access line per request. Server errors log at
// error level and client errors at warn.
func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"bytes", recorder.bytes,
			"client_ip", resolveClientIP(r),
			"duration_ms", time.Since(started).Milliseconds(),
		}
		switch {
		case recorder.status >= http.StatusInternalServerError:
			logger.ErrorContext(r.Context(), "http request", args...)
		case recorder.status >= http.StatusBadRequest:
			logger.WarnContext(r.Context(), "http request", args...)
		default:
			logger.InfoContext(r.Context(), "http request", args...)
		}
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "finboard-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

// shouldTraceRequest drops health checks and the API docs from tracing.
func shouldTraceRequest(path string) bool {
	path = strings.ToLower(strings.TrimSpace(path))
	switch {
	case path == "/healthz", path == "/openapi.yaml":
		return false
	case strings.HasPrefix(path, "/docs"):
		return false
	default:
		return true
	}
}

func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			allowAll = true
			continue
		}
		allowMap[candidate] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := allowAll
		if !allowed {
			_, allowed = allowMap[origin]
		}
		if allowed {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				// Cookies only flow to an explicitly listed origin.
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept")
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
