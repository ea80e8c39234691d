package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/household-ledger/internal/models"
)

// TestTokenRoundTrip проверяет выпуск и разбор токена сессии.
func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", "household-ledger", time.Hour)

	user := models.User{ID: uuid.New(), DisplayName: "Alice", IsAdmin: true}
	token, expiresAt, err := manager.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expected future expiry")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.DisplayName != "Alice" || !claims.IsAdmin {
		t.Fatalf("claims not carried: %+v", claims)
	}
}

// TestTokenWrongSecret: токен с чужим секретом не принимается.
func TestTokenWrongSecret(t *testing.T) {
	issuing := NewTokenManager("secret-a", "household-ledger", time.Hour)
	parsing := NewTokenManager("secret-b", "household-ledger", time.Hour)

	token, _, err := issuing.Issue(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := parsing.Parse(token); err == nil {
		t.Fatal("expected parse error for wrong secret")
	}
}

// TestTokenWrongIssuer: издатель обязателен и сверяется.
func TestTokenWrongIssuer(t *testing.T) {
	issuing := NewTokenManager("secret", "other-app", time.Hour)
	parsing := NewTokenManager("secret", "household-ledger", time.Hour)

	token, _, err := issuing.Issue(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := parsing.Parse(token); err == nil {
		t.Fatal("expected parse error for wrong issuer")
	}
}
