package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tripnest/ms-go-session/app/service"
	"github.com/tripnest/ms-go-session/config"
)

func newIssuer(ttl, leeway time.Duration) *service.AccessTokenIssuer {
	return service.NewAccessTokenIssuer(&config.Config{
		JWTSecret:         "test-secret",
		JWTAccessTokenTTL: ttl,
		JWTClockSkew:      leeway,
	})
}

func TestAccessTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := newIssuer(15*time.Minute, 30*time.Second)

	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	subject, err := issuer.Verify(tokenString)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if subject != "user@example.com" {
		t.Fatalf("expected subject user@example.com, got %q", subject)
	}
}

func TestAccessTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer := newIssuer(15*time.Minute, 30*time.Second)
	other := service.NewAccessTokenIssuer(&config.Config{
		JWTSecret:         "other-secret",
		JWTAccessTokenTTL: 15 * time.Minute,
		JWTClockSkew:      30 * time.Second,
	})

	tokenString, err := other.Issue("user@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.Verify(tokenString); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenIssuer_Verify_Garbage(t *testing.T) {
	issuer := newIssuer(15*time.Minute, 30*time.Second)

	if _, err := issuer.Verify("not-a-token"); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenIssuer_Verify_ExpiredBeyondLeeway(t *testing.T) {
	issuer := newIssuer(-time.Minute, time.Second)

	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.Verify(tokenString); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAccessTokenIssuer_Verify_ExpiredWithinLeeway(t *testing.T) {
	// Expired ten seconds ago, but the configured skew tolerates a minute.
	issuer := newIssuer(-10*time.Second, time.Minute)

	tokenString, err := issuer.Issue("user@example.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	subject, err := issuer.Verify(tokenString)
	if err != nil {
		t.Fatalf("expected token within leeway to verify, got %v", err)
	}
	if subject != "user@example.com" {
		t.Fatalf("expected subject user@example.com, got %q", subject)
	}
}
