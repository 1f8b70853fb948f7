package belvo

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/riskibarqy/finboard/internal/platform/resilience"
	"github.com/riskibarqy/finboard/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultAccessTokenPath = "/api/token/"
	defaultScopes          = "read_institutions,write_links,read_consents,write_consents,write_consent_callback,delete_consents"
	defaultStaleIn         = "300d"
	defaultLocale          = "pt"
	defaultPurpose         = "Soluções financeiras personalizadas oferecidas por meio de recomendações sob medida, visando melhores ofertas de produtos financeiros e de crédito."
	openFinanceFeature     = "consent_link_creation"
	maxResponseBytes       = 1 << 20
)

var (
	defaultFetchResources = []string{"ACCOUNTS", "TRANSACTIONS", "OWNERS"}
	defaultPermissions    = []string{"REGISTER", "ACCOUNTS", "CREDIT_CARDS", "CREDIT_OPERATIONS"}
)

var errBelvoTransient = crerr.New("belvo transient failure")

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	AccessTokenPath string
	SecretID        string
	SecretPassword  string
	// PublicAppURL is where the widget redirects the browser back to.
	PublicAppURL      string
	WidgetURL         string
	WidgetInstitution string
	Locale            string
	TermsURL          string
	Purpose           string
	// TestUserCPF and TestUserName replace the identification info in sandbox.
	TestUserCPF    string
	TestUserName   string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient        *http.Client
	tokenURL          string
	secretID          string
	secretPassword    string
	publicAppURL      string
	widgetURL         string
	widgetInstitution string
	locale            string
	termsURL          string
	purpose           string
	testUserCPF       string
	testUserName      string
	logger            *logging.Logger
	breaker           *resilience.Breaker
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	// Copy so the timeout never leaks into a client shared with other callers.
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	tokenPath := strings.TrimSpace(cfg.AccessTokenPath)
	if tokenPath == "" {
		tokenPath = defaultAccessTokenPath
	}
	publicAppURL := strings.TrimRight(strings.TrimSpace(cfg.PublicAppURL), "/")
	termsURL := strings.TrimSpace(cfg.TermsURL)
	if termsURL == "" && publicAppURL != "" {
		termsURL = publicAppURL + "/terms"
	}

	return &Client{
		httpClient:        httpClient,
		tokenURL:          buildURL(cfg.BaseURL, tokenPath),
		secretID:          strings.TrimSpace(cfg.SecretID),
		secretPassword:    strings.TrimSpace(cfg.SecretPassword),
		publicAppURL:      publicAppURL,
		widgetURL:         strings.TrimSpace(cfg.WidgetURL),
		widgetInstitution: strings.TrimSpace(cfg.WidgetInstitution),
		locale:            firstNonEmpty(cfg.Locale, defaultLocale),
		termsURL:          termsURL,
		purpose:           firstNonEmpty(cfg.Purpose, defaultPurpose),
		testUserCPF:       strings.TrimSpace(cfg.TestUserCPF),
		testUserName:      strings.TrimSpace(cfg.TestUserName),
		logger:            logger,
		breaker: resilience.NewBreaker("belvo", cfg.CircuitBreaker).OnStateChange(func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "dependency", name, "from", from, "to", to)
		}),
	}
}

// CreateWidgetToken mints a widget access token scoped to one end user.
// Failures are not retried.
func (c *Client) CreateWidgetToken(ctx context.Context, req usecase.WidgetTokenRequest) (usecase.WidgetToken, error) {
	if _, err := validateHTTPBaseURL(c.tokenURL); err != nil {
		return usecase.WidgetToken{}, crerr.Wrap(err, "invalid BELVO_BASE_URL")
	}
	if c.publicAppURL == "" {
		return usecase.WidgetToken{}, crerr.New("APP_PUBLIC_URL is required to build widget callbacks")
	}

	body, err := sonic.Marshal(c.buildTokenRequest(req))
	if err != nil {
		return usecase.WidgetToken{}, crerr.Wrap(err, "marshal belvo token request")
	}

	curlPreview := buildCurlPreview(c.tokenURL, redactSecrets(string(body), c.secretID, c.secretPassword))
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("belvo.token_url", c.tokenURL),
			attribute.String("belvo.external_id", req.ExternalID),
			attribute.String("belvo.request_curl_preview", curlPreview),
		)
	}
	c.logger.DebugContext(ctx, "belvo token request", "external_id", req.ExternalID, "curl_preview", curlPreview)

	var token usecase.WidgetToken
	err = c.breaker.Execute(func() error {
		var postErr error
		token, postErr = c.postToken(ctx, body)
		return postErr
	}, isTransient)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "belvo circuit breaker rejected request", "state", c.breaker.State())
		return usecase.WidgetToken{}, fmt.Errorf("%w: aggregator is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "belvo token request failed", "external_id", req.ExternalID, "error", err)
		return usecase.WidgetToken{}, err
	}
	return token, nil
}

// WidgetURL builds the hosted widget entry point for a full-page redirect.
func (c *Client) WidgetURL(accessToken, externalID string) string {
	values := url.Values{}
	values.Set("access_token", accessToken)
	values.Set("locale", c.locale)
	values.Set("external_id", externalID)
	if c.widgetInstitution != "" {
		values.Set("institution", c.widgetInstitution)
	}

	base := c.widgetURL
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + values.Encode()
}

func (c *Client) buildTokenRequest(req usecase.WidgetTokenRequest) tokenRequest {
	return tokenRequest{
		ID:             c.secretID,
		Password:       c.secretPassword,
		Scopes:         defaultScopes,
		StaleIn:        defaultStaleIn,
		FetchResources: defaultFetchResources,
		Widget: widgetConfig{
			Purpose:            c.purpose,
			OpenFinanceFeature: openFinanceFeature,
			ExternalID:         req.ExternalID,
			CallbackURLs: callbackURLs{
				Success: c.publicAppURL + "/api/belvo/callback/success",
				Exit:    c.publicAppURL + "/api/belvo/callback/exit",
				Event:   c.publicAppURL + "/api/belvo/callback/error",
			},
			Consent: consentConfig{
				TermsAndConditionsURL: c.termsURL,
				Permissions:           defaultPermissions,
				IdentificationInfo: []identificationInfo{
					{
						Type:   "CPF",
						Number: firstNonEmpty(c.testUserCPF, req.CPF),
						Name:   firstNonEmpty(c.testUserName, req.FullName),
					},
				},
			},
		},
	}
}

func (c *Client) postToken(ctx context.Context, body []byte) (usecase.WidgetToken, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return usecase.WidgetToken{}, crerr.Wrap(err, "create belvo token request")
	}
	httpReq.SetBasicAuth(c.secretID, c.secretPassword)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return usecase.WidgetToken{}, fmt.Errorf("%w: send belvo token request: %v", errBelvoTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return usecase.WidgetToken{}, fmt.Errorf("%w: read belvo token response: %v", errBelvoTransient, err)
	}

	if resp.StatusCode/100 != 2 {
		upstream := &usecase.UpstreamError{
			Provider:   "belvo",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
		if isRetryableStatus(resp.StatusCode) {
			return usecase.WidgetToken{}, fmt.Errorf("%w: %w", errBelvoTransient, upstream)
		}
		return usecase.WidgetToken{}, upstream
	}

	var decoded tokenResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return usecase.WidgetToken{}, crerr.Wrap(err, "decode belvo token response")
	}
	if strings.TrimSpace(decoded.Access) == "" {
		return usecase.WidgetToken{}, crerr.New("belvo token response has empty access token")
	}

	return usecase.WidgetToken{
		AccessToken:  decoded.Access,
		RefreshToken: decoded.Refresh,
	}, nil
}

func isTransient(err error) bool {
	return stderrors.Is(err, errBelvoTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
