package onboardingflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
)

const maxResponseBytes = 1 << 20

type APIStoreConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	// Token is the caller's session token, sent as a bearer credential.
	Token   string
	Timeout time.Duration
}

// APIProgressStore saves wizard progress through the finboard HTTP API.
type APIProgressStore struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewAPIProgressStore(cfg APIStoreConfig) *APIProgressStore {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultWriteTimeout
	}

	return &APIProgressStore{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
	}
}

type progressRecord struct {
	CurrentStep            int  `json:"currentStep"`
	HasCompletedOnboarding bool `json:"hasCompletedOnboarding"`
}

type envelope struct {
	Data  progressRecord `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *APIProgressStore) Load(ctx context.Context, userID string) (onboarding.State, error) {
	query := url.Values{}
	query.Set("userId", userID)

	var decoded envelope
	if err := s.do(ctx, http.MethodGet, "/v1/onboarding?"+query.Encode(), nil, &decoded); err != nil {
		return onboarding.State{}, err
	}

	record := onboarding.Record{
		UserID:                 userID,
		CurrentStep:            onboarding.Step(decoded.Data.CurrentStep),
		HasCompletedOnboarding: decoded.Data.HasCompletedOnboarding,
	}
	return record.State(), nil
}

func (s *APIProgressStore) SaveStep(ctx context.Context, userID string, step onboarding.Step) error {
	return s.do(ctx, http.MethodPost, "/v1/onboarding/step", map[string]any{
		"userId": userID,
		"step":   int(step),
	}, nil)
}

func (s *APIProgressStore) Complete(ctx context.Context, userID string) error {
	return s.do(ctx, http.MethodPost, "/v1/onboarding/complete", map[string]any{
		"userId": userID,
	}, nil)
}

func (s *APIProgressStore) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal progress request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return crerr.Wrap(err, "create progress request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return crerr.Wrapf(err, "%s %s", method, path)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return crerr.Wrap(err, "read progress response")
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return crerr.Wrap(err, "decode progress response")
	}
	return nil
}
