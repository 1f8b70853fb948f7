package introspect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/platform/resilience"
	"github.com/riskibarqy/finboard/internal/usecase"
)

func TestClientVerifyAccessToken_SendsAdminKeyAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/v1/auth/introspect" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Errorf("unexpected x-admin-key: %s", got)
		}

		var req map[string]string
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req["token"] != "token-abc" {
			t.Errorf("unexpected token value: %s", req["token"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(map[string]any{
			"active":  true,
			"user_id": "user-123",
			"email":   "maria@example.com",
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		IntrospectPath: "/v1/auth/introspect",
		AdminKey:       "admin-secret",
		CacheTTL:       time.Minute,
		Logger:         logging.NewNop(),
	})

	for i := 0; i < 2; i++ {
		principal, err := client.VerifyAccessToken(context.Background(), "token-abc")
		if err != nil {
			t.Fatalf("verify token failed: %v", err)
		}
		if principal.UserID != "user-123" || principal.Email != "maria@example.com" {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached verification, got %d calls", calls.Load())
	}
}

func TestClientVerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":false}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{HTTPClient: srv.Client(), BaseURL: srv.URL, IntrospectPath: "/introspect", Logger: logging.NewNop()})

	_, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientVerifyAccessToken_EmptyToken(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Logger: logging.NewNop()})
	if _, err := client.VerifyAccessToken(context.Background(), "  "); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientVerifyAccessToken_CircuitOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		IntrospectPath: "/introspect",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1},
	})

	if _, err := client.VerifyAccessToken(context.Background(), "t1"); err == nil {
		t.Fatalf("expected first call to fail")
	}
	if _, err := client.VerifyAccessToken(context.Background(), "t2"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single upstream call, got %d", calls.Load())
	}
}

func TestNewClient_DoesNotMutateSharedHTTPClient(t *testing.T) {
	t.Parallel()

	shared := &http.Client{}
	client := NewClient(ClientConfig{HTTPClient: shared, Logger: logging.NewNop()})

	if shared.Timeout != 0 {
		t.Fatalf("shared client timeout changed to %s", shared.Timeout)
	}
	if client.httpClient == shared || client.httpClient.Timeout != 5*time.Second {
		t.Fatalf("expected private copy with default timeout, got %+v", client.httpClient)
	}
}
