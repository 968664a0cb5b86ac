package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
)

const testSecret = "uma-chave-secreta-para-testes-segura-e-longa"
const testEmail = "learner@example.com"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return tok
}

func TestEmailFromToken(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		tok := signToken(t, jwt.MapClaims{
			"email": testEmail,
			"exp":   time.Now().Add(5 * time.Minute).Unix(),
		})

		email, err := auth.EmailFromToken(tok)
		if err != nil {
			t.Fatalf("EmailFromToken failed unexpectedly: %v", err)
		}
		if email != testEmail {
			t.Errorf("wrong email. expected %s, got %s", testEmail, email)
		}
	})

	t.Run("BearerPrefix", func(t *testing.T) {
		tok := signToken(t, jwt.MapClaims{"email": testEmail})
		email, err := auth.EmailFromToken("Bearer " + tok)
		if err != nil || email != testEmail {
			t.Errorf("expected %s, got %q (%v)", testEmail, email, err)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tok := signToken(t, jwt.MapClaims{
			"email": testEmail,
			"exp":   time.Now().Add(-time.Minute).Unix(),
		})

		_, err := auth.EmailFromToken(tok)
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("wrong error for expired token. expected %v, got %v", jwt.ErrTokenExpired, err)
		}
	})

	t.Run("MissingClaim", func(t *testing.T) {
		tok := signToken(t, jwt.MapClaims{"sub": "user-123"})
		if _, err := auth.EmailFromToken(tok); !errors.Is(err, auth.ErrNoEmailClaim) {
			t.Errorf("expected ErrNoEmailClaim, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := auth.EmailFromToken("not-a-token"); err == nil {
			t.Fatal("EmailFromToken should fail on a malformed token")
		}
	})
}
