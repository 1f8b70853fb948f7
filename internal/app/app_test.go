package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		HTTPAddr:           ":0",
		PublicAppURL:       "http://localhost:3000",
		StorageDriver:      config.StorageMemory,
		CORSAllowedOrigins: []string{"*"},
		AuthProvider:       config.AuthProviderJWT,
		AuthSessionCookie:  "finboard_session",
		AuthJWTSecret:      "secret",
		BelvoBaseURL:       "http://127.0.0.1:1",
		BelvoWidgetURL:     "https://widget.belvo.io/",
	}
}

func TestNewHTTPServer_MemoryStorage(t *testing.T) {
	app, err := NewHTTPServer(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	rec := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/onboarding", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	if _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestBuildTokenVerifier_JWTRequiresSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthJWTSecret = ""
	if _, err := buildTokenVerifier(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for missing jwt secret")
	}
}

func TestBuildTokenVerifier_Introspect(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthProvider = config.AuthProviderIntrospect
	cfg.AuthIntrospectBaseURL = "http://127.0.0.1:1"
	verifier, err := buildTokenVerifier(cfg, logging.NewNop())
	if err != nil || verifier == nil {
		t.Fatalf("expected introspect verifier, got %v %v", verifier, err)
	}
}
