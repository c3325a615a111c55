package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func issueTestToken(t *testing.T, svc *Service) (string, *Claims, *Administrator) {
	t.Helper()
	admin := mustSignup(t, svc, "Alice", "alice1", "Pw1!")
	result, err := svc.Login(context.Background(), "alice1", "Pw1!", "test-agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	return result.Token, claims, admin
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	for _, token := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseToken(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	token, _, _ := issueTestToken(t, svc)

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.ParseToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, claims, _ := issueTestToken(t, svc)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := forged.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	if _, err := svc.ParseToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, claims, _ := issueTestToken(t, svc)

	claims.Issuer = "someone-else"
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := forged.SignedString(svc.cfg.Secret)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	if _, err := svc.ParseToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc, clock := newTestService(t, Config{TokenTTL: time.Hour})
	token, _, _ := issueTestToken(t, svc)

	clock.Advance(time.Hour + time.Minute)
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestAuthenticateChecksRevocation(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	token, claims, admin := issueTestToken(t, svc)

	if _, err := svc.Authenticate(ctx, token); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := svc.Logout(ctx, admin.ID, claims.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestAuthenticateFailsClosedOnDeletedAccount(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	token, _, admin := issueTestToken(t, svc)

	if err := svc.DeleteAccount(ctx, admin.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after deletion, got %v", err)
	}
}
