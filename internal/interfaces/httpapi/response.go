package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/finboard/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiVersion  = "2.0"
	errorDomain = "finboard"
)

type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
	// Details carries the raw upstream response for aggregator failures.
	Details string `json:"details,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	target error
	status int
	reason string
	code   string
}

// errorClasses is checked in order; the first sentinel in the chain wins.
var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrForbidden, http.StatusForbidden, "forbidden", "PERMISSION_DENIED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
	{usecase.ErrUpstream, http.StatusBadGateway, "upstreamError", "UNAVAILABLE"},
}

var internalClass = errorClass{status: http.StatusInternalServerError, reason: "internalError", code: "INTERNAL"}

func classify(err error) errorClass {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c
		}
	}
	return internalClass
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeError maps err onto the envelope. Internal errors never leak their
// text; upstream errors expose the aggregator body under details.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	class := classify(err)
	message := err.Error()
	details := ""

	var upstream *usecase.UpstreamError
	if errors.As(err, &upstream) {
		message = "aggregator request failed"
		details = upstream.Body
	}
	if class.status == http.StatusInternalServerError {
		message = "internal server error"
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("http.error.code", class.status),
			attribute.String("http.error.reason", class.reason),
		)
	}
	writeErrorBody(w, class, message, details)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeErrorBody(w, internalClass, "internal server error", "")
}

func writeErrorBody(w http.ResponseWriter, class errorClass, message, details string) {
	writeJSON(w, class.status, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    class.status,
			Message: message,
			Status:  class.code,
			Errors:  []errorItem{{Domain: errorDomain, Reason: class.reason, Message: message}},
			Details: details,
		},
	})
}
