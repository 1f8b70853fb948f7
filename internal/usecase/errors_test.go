package usecase

import (
	"errors"
	"testing"
)

func TestUpstreamError_UnwrapsToSentinel(t *testing.T) {
	var err error = &UpstreamError{Provider: "belvo", StatusCode: 401, Body: `{"detail":"bad creds"}`}
	wrapped := errors.Join(errors.New("mint token"), err)

	if !errors.Is(wrapped, ErrUpstream) {
		t.Fatalf("expected ErrUpstream in chain, got %v", wrapped)
	}
	var upstream *UpstreamError
	if !errors.As(wrapped, &upstream) || upstream.StatusCode != 401 {
		t.Fatalf("expected UpstreamError with status 401, got %v", upstream)
	}
}

func TestAuthorizeUser(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		target  string
		want    string
		wantErr error
	}{
		{name: "same user", actor: "u1", target: "u1", want: "u1"},
		{name: "target defaults to actor", actor: "u1", target: " ", want: "u1"},
		{name: "no session", actor: "", target: "u1", wantErr: ErrUnauthorized},
		{name: "other user", actor: "u2", target: "u1", wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authorizeUser(tt.actor, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if errors.Is(err, ErrNotFound) {
					t.Fatalf("authorization failure must not look like not-found")
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("authorizeUser()=(%q,%v) want=%q", got, err, tt.want)
			}
		})
	}
}
