package service

import (
	"errors"
	"testing"
	"time"

	"support-bot/internal/domain"
)

const testJWTSecret = "un-secreto-de-test-suficientemente-largo"

func testUser() domain.User {
	return domain.User{ID: "user-1", Email: "agent@acme.com"}
}

func TestGenerateAndParsePair(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.ExpiresIn != 60 {
		t.Fatalf("expected expires_in 60, got %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "agent@acme.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Fatalf("expected access token type, got %q", claims.TokenType)
	}
}

func TestParseAccessTokenRejectsRefresh(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for refresh token, got %v", err)
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc := NewJWTService(testJWTSecret, -time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)
	other := NewJWTService("otro-secreto-completamente-distinto", time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid with wrong secret, got %v", err)
	}
}

func TestRefreshPairRotates(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rotated, err := svc.RefreshPair(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatalf("expected new pair, got %+v", rotated)
	}

	// El refresh usado queda revocado: una segunda rotacion falla.
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on reuse, got %v", err)
	}
	// El nuevo sigue vigente.
	if _, err := svc.RefreshPair(rotated.RefreshToken); err != nil {
		t.Fatalf("expected rotated token valid: %v", err)
	}
}

func TestRevokeRefresh(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.RevokeRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid after revocation, got %v", err)
	}
}

func TestRefreshPairRejectsAccessToken(t *testing.T) {
	svc := NewJWTService(testJWTSecret, time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.RefreshPair(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for access token, got %v", err)
	}
}
