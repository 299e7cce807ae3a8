package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "my_test_jwt_secret"

func TestGenerateAndParseJWT(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "sid-42", "admin", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if tokenString == "" {
		t.Fatalf("empty token string")
	}

	claims, err := ParseJWT(testSecret, tokenString)
	if err != nil {
		t.Fatalf("failed to parse JWT: %v", err)
	}
	if claims.SessionID != "sid-42" {
		t.Errorf("expected sid=sid-42, got %s", claims.SessionID)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username=admin, got %s", claims.Username)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		t.Errorf("token should not be expired, got expiresAt=%v", claims.ExpiresAt)
	}
}

func TestParseJWT_InvalidToken(t *testing.T) {
	if _, err := ParseJWT(testSecret, "this.is.not.a.valid.jwt"); err == nil {
		t.Errorf("expected error for invalid JWT, got nil")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "sid", "user1", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if _, err = ParseJWT("totally_wrong_secret", tokenString); err == nil {
		t.Errorf("expected error for wrong secret, got nil")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, "sid", "user1", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if _, err = ParseJWT(testSecret, tokenString); err == nil {
		t.Errorf("expected error for expired JWT, got nil")
	}
}

func TestParseJWT_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{SessionID: "sid", Username: "admin"})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(testSecret, signed); err == nil {
		t.Errorf("expected HS512 token to be rejected")
	}
}
