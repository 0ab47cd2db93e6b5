package identity

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenVerifierParse(t *testing.T) {
	verifier := NewTokenVerifier("app-secret")
	signed := signToken(t, "app-secret", &Claims{
		Username: "alice",
		Nickname: "Alice",
		Email:    "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := verifier.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	user := claims.UserInfo()
	if user.ID != "user-1" || user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("UserInfo() = %+v", user)
	}
}

func TestTokenVerifierRejectsWrongSecret(t *testing.T) {
	signed := signToken(t, "other-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := NewTokenVerifier("app-secret").Parse(signed); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
}

func TestTokenVerifierRejectsExpiredToken(t *testing.T) {
	signed := signToken(t, "app-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if _, err := NewTokenVerifier("app-secret").Parse(signed); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestTokenVerifierRejectsMissingSubject(t *testing.T) {
	signed := signToken(t, "app-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := NewTokenVerifier("app-secret").Parse(signed); err == nil {
		t.Fatalf("expected token without subject to fail")
	}
}

func TestDefaultDocumentSeedsStarterAccess(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	doc := defaultDocument(now)

	if !doc.BasicAccess.ValidAt(now) {
		t.Fatalf("fresh basic access must be valid")
	}
	if doc.BasicAccess.ValidAt(now.Add((defaultAccessDays + 1) * 24 * time.Hour)) {
		t.Fatalf("basic access must expire after %d days", defaultAccessDays)
	}
	if len(doc.Packages) != 1 || doc.Packages[0].PackageID != starterPackageID {
		t.Fatalf("packages = %+v, want starter package", doc.Packages)
	}
}
