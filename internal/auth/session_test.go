package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestSessionManager(t *testing.T, clock func() time.Time) *SessionManager {
	t.Helper()
	manager, err := NewSessionManager(SessionManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "fountain-auth",
		SessionTTL:    time.Hour,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return manager
}

func TestNewSessionManagerRequiresSecret(t *testing.T) {
	if _, err := NewSessionManager(SessionManagerConfig{}); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestIssueAndValidateSessionToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	manager := newTestSessionManager(t, func() time.Time { return now })

	token, expiresIn, err := manager.IssueSessionToken("0xauthor", "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expected one hour expiry, got %d", expiresIn)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.Address != "0xauthor" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueSessionTokenRequiresAddress(t *testing.T) {
	manager := newTestSessionManager(t, time.Now)

	if _, _, err := manager.IssueSessionToken("   ", "alice"); !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected missing address error, got %v", err)
	}
}

func TestValidateTokenRejectsExpiredSession(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	clockNow := issuedAt
	manager := newTestSessionManager(t, func() time.Time { return clockNow })

	token, _, err := manager.IssueSessionToken("0xauthor", "")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	clockNow = issuedAt.Add(2 * time.Hour)
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected expired session error, got %v", err)
	}
}

func TestValidateTokenRejectsForeignIssuer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuing, err := NewSessionManager(SessionManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "someone-else",
		Clock:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to create issuing manager: %v", err)
	}
	token, _, err := issuing.IssueSessionToken("0xauthor", "")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	validating := newTestSessionManager(t, func() time.Time { return now })
	if _, err := validating.ValidateToken(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid session error, got %v", err)
	}
}

func TestValidateTokenRejectsTamperedSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	manager := newTestSessionManager(t, func() time.Time { return now })

	token, _, err := manager.IssueSessionToken("0xauthor", "")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := manager.ValidateToken(tampered); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid session error, got %v", err)
	}
}

func TestValidateTokenRejectsEmptyInput(t *testing.T) {
	manager := newTestSessionManager(t, time.Now)

	if _, err := manager.ValidateToken("  "); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid session error, got %v", err)
	}
}
