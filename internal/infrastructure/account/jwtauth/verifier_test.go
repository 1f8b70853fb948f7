package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/finboard/internal/usecase"
)

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(Config{Secret: "s3cret", Issuer: "finboard-auth", Audience: "finboard"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := verifier.Sign("user-1", "maria@example.com", time.Hour, "finboard-auth", "finboard")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	principal, err := verifier.VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.UserID != "user-1" || principal.Email != "maria@example.com" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	verifier, _ := NewVerifier(Config{Secret: "s3cret", Audience: "finboard"})
	other, _ := NewVerifier(Config{Secret: "other"})

	expired, _ := verifier.Sign("user-1", "", -time.Minute, "", "finboard")
	wrongKey, _ := other.Sign("user-1", "", time.Hour, "", "finboard")
	wrongAudience, _ := verifier.Sign("user-1", "", time.Hour, "", "elsewhere")
	noSubject, _ := verifier.Sign("", "", time.Hour, "", "finboard")
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"expired":        expired,
		"wrong key":      wrongKey,
		"wrong audience": wrongAudience,
		"no subject":     noSubject,
		"alg none":       none,
	}
	for name, token := range tests {
		if _, err := verifier.VerifyAccessToken(context.Background(), token); !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier(Config{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
