package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/uniformhub/api/internal/auth"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	accountID := uuid.New()
	userID := "usr-1001"
	role := "ACCOUNTANT"

	token, err := auth.GenerateToken(secret, accountID, userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.AccountID != accountID {
		t.Errorf("account ID: got %v, want %v", claims.AccountID, accountID)
	}
	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	accountID := uuid.New()

	token, err := auth.GenerateToken("secret-a", accountID, "usr-1001", "ADMIN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	accountID := uuid.New()

	token, err := auth.GenerateRefreshToken("test-secret", accountID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty refresh token")
	}
}
