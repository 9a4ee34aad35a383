package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewService("test-secret", "loja-checkout", zap.NewNop())

	token, err := svc.IssueToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	userID, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Expected user-1, got %q", userID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", "loja-checkout", zap.NewNop())
	validator := NewService("secret-b", "loja-checkout", zap.NewNop())

	token, err := issuer.IssueToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := validator.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("Expected validation to fail with a different secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	svc := NewService("test-secret", "loja-checkout", zap.NewNop())
	if _, err := svc.ValidateToken(context.Background(), signed); err == nil {
		t.Fatal("Expected validation to fail for an expired token")
	}
}

func TestValidateTokenMissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	svc := NewService("test-secret", "loja-checkout", zap.NewNop())
	if _, err := svc.ValidateToken(context.Background(), signed); err == nil {
		t.Fatal("Expected validation to fail without a subject")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewService("test-secret", "loja-checkout", zap.NewNop())
	if _, err := svc.ValidateToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("Expected validation to fail for malformed input")
	}
}
