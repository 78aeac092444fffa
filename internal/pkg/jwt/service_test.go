package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewHMACService("secret", time.Hour)
	id := uuid.New()

	tok, err := svc.GenerateAccessToken(id, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != id {
		t.Fatalf("user id: got %s, want %s", claims.UserID, id)
	}
	if claims.Handle != "alice" {
		t.Fatalf("handle: got %q, want %q", claims.Handle, "alice")
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("token type: got %q", claims.TokenType)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewHMACService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := svc.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateToken_RejectsNonAccessToken(t *testing.T) {
	svc := NewHMACService("secret", time.Hour)

	now := time.Now().UTC()
	c := Claims{
		UserID:    uuid.New(),
		TokenType: "refresh",
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
		},
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for refresh token, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	minter := NewHMACService("other-secret", time.Hour)
	tok, err := minter.GenerateAccessToken(uuid.New(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc := NewHMACService("secret", time.Hour)
	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateToken_MissingUserID(t *testing.T) {
	svc := NewHMACService("secret", time.Hour)

	tok, err := svc.GenerateAccessToken(uuid.Nil, "ghost")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
