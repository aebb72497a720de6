package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shashiranjanraj/brewhaus/pkg/auth"
)

func TestIssueAndVerify(t *testing.T) {
	svc := auth.NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("milton@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	email, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if email != "milton@example.com" {
		t.Errorf("expected claim to round-trip, got %q", email)
	}
}

func TestIssueEmptyClaim(t *testing.T) {
	svc := auth.NewTokenService("test-secret", time.Hour)
	if _, err := svc.Issue(""); !errors.Is(err, auth.ErrEmptyClaim) {
		t.Errorf("expected ErrEmptyClaim, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := auth.NewTokenService("secret-a", time.Hour).Issue("x@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := auth.NewTokenService("secret-b", time.Hour).Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	// Sign a token that expired a minute ago with the same secret the
	// service verifies against.
	claims := auth.Claims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	svc := auth.NewTokenService("test-secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	svc := auth.NewTokenService("test-secret", time.Hour)
	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := svc.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	claims := auth.Claims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	svc := auth.NewTokenService("test-secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}
