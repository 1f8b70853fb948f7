package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrUpstream              = errors.New("upstream request failed")
)

// UpstreamError carries a non-2xx answer from an external provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s status=%d", ErrUpstream.Error(), e.Provider, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
