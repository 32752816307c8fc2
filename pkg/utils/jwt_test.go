package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	ConfigureJWT("test-secret", 2)

	token, err := GenerateToken(42, "leo", "user")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "leo" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "42" || claims.Issuer != SessionIssuer {
		t.Fatalf("unexpected registered claims: %+v", claims.RegisteredClaims)
	}
	if TokenLifetime() != 2*time.Hour {
		t.Fatalf("expected 2h lifetime, got %v", TokenLifetime())
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	ConfigureJWT("test-secret", 24)

	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if _, err := ValidateToken(forged); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	ConfigureJWT("test-secret", 24)

	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if _, err := ValidateToken(expired); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestValidateTokenRequiresIssuerAndExpiry(t *testing.T) {
	ConfigureJWT("test-secret", 24)

	cases := map[string]jwt.RegisteredClaims{
		"no issuer": {ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		"no expiry": {Issuer: SessionIssuer},
	}
	for name, registered := range cases {
		t.Run(name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, RegisteredClaims: registered}).
				SignedString([]byte("test-secret"))
			if err != nil {
				t.Fatalf("signing failed: %v", err)
			}
			if _, err := ValidateToken(signed); err == nil {
				t.Fatal("expected token to be rejected")
			}
		})
	}
}
