package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/goal"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/domain/webhook"
	"github.com/riskibarqy/finboard/internal/infrastructure/account/introspect"
	"github.com/riskibarqy/finboard/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/finboard/internal/infrastructure/aggregator/belvo"
	"github.com/riskibarqy/finboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/finboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/finboard/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/finboard/internal/platform/id"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// App is the assembled HTTP service plus the resources it owns.
type App struct {
	Server *http.Server
	db     *sqlx.DB
}

type repositories struct {
	onboarding      onboarding.Repository
	goals           goal.Repository
	bankConnections bankconnection.Repository
	webhookEvents   webhook.Repository
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, db, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	verifier, err := buildTokenVerifier(cfg, logger)
	if err != nil {
		closeDB(db, logger)
		return nil, err
	}

	aggregator := belvo.NewClient(belvo.ClientConfig{
		HTTPClient:        tracedHTTPClient(cfg.BelvoTimeout),
		BaseURL:           cfg.BelvoBaseURL,
		AccessTokenPath:   cfg.BelvoAccessTokenPath,
		SecretID:          cfg.BelvoSecretID,
		SecretPassword:    cfg.BelvoSecretPassword,
		PublicAppURL:      cfg.PublicAppURL,
		WidgetURL:         cfg.BelvoWidgetURL,
		WidgetInstitution: cfg.BelvoWidgetInstitution,
		Locale:            cfg.BelvoWidgetLocale,
		TermsURL:          cfg.BelvoTermsURL,
		TestUserCPF:       cfg.BelvoTestUserCPF,
		TestUserName:      cfg.BelvoTestUserName,
		Logger:            logger,
		CircuitBreaker:    cfg.BelvoCircuitBreaker,
	})
	if cfg.BelvoWebhookSecret == "" {
		logger.Warn("belvo webhook secret is empty, webhook deliveries will be refused")
	}

	ids := idgen.NewUUIDGenerator()
	onboardingSvc := usecase.NewOnboardingService(repos.onboarding, repos.goals)
	connectionSvc := usecase.NewConnectionService(repos.bankConnections, repos.onboarding, aggregator, ids, logger)
	webhookSvc := usecase.NewWebhookService(repos.bankConnections, repos.onboarding, repos.webhookEvents, ids, logger)

	handler := httpapi.NewHandler(onboardingSvc, connectionSvc, webhookSvc, cfg.PublicAppURL, logger)
	router := httpapi.NewRouter(handler, verifier, httpapi.RouterConfig{
		Logger:             logger,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SessionCookie:      cfg.AuthSessionCookie,
		WebhookSecret:      cfg.BelvoWebhookSecret,
	})

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		db: db,
	}, nil
}

// Close releases the database pool. It is safe to call on a memory-backed app.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return repositories{
			onboarding:      store.Onboarding(),
			goals:           store.Goals(),
			bankConnections: store.BankConnections(),
			webhookEvents:   store.WebhookEvents(),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, postgres.Options{URL: cfg.DBURL, BinaryParameters: cfg.DBBinaryParameters})
	if err != nil {
		return repositories{}, nil, err
	}
	logger.Info("postgres connected", "db_name", postgres.DatabaseName(cfg.DBURL))

	return repositories{
		onboarding:      postgres.NewOnboardingRepository(db),
		goals:           postgres.NewGoalRepository(db),
		bankConnections: postgres.NewBankConnectionRepository(db),
		webhookEvents:   postgres.NewWebhookEventRepository(db),
	}, db, nil
}

func buildTokenVerifier(cfg config.Config, logger *logging.Logger) (httpapi.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderIntrospect:
		return introspect.NewClient(introspect.ClientConfig{
			HTTPClient:     tracedHTTPClient(cfg.AuthTimeout),
			BaseURL:        cfg.AuthIntrospectBaseURL,
			IntrospectPath: cfg.AuthIntrospectPath,
			AdminKey:       cfg.AuthIntrospectAdminKey,
			CacheTTL:       cfg.AuthCacheTTL,
			Logger:         logger,
			CircuitBreaker: cfg.AuthCircuitBreaker,
		}), nil
	default:
		verifier, err := jwtauth.NewVerifier(jwtauth.Config{
			Secret:   cfg.AuthJWTSecret,
			Issuer:   cfg.AuthJWTIssuer,
			Audience: cfg.AuthJWTAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("build jwt verifier: %w", err)
		}
		return verifier, nil
	}
}

func closeDB(db *sqlx.DB, logger *logging.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close postgres failed", "error", err)
	}
}

func tracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
