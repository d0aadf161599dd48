package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(sub string, roles ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "triage-test",
			Audience:  jwt.ClaimStrings{"triage-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: roles,
	}
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	err := mw(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})(c)
	return seen, err
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), tt.header)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	cfg := JWTConfig{Issuer: "triage-test", Audience: "triage-api", SigningKey: testSigningKey}
	tokenStr := createTestToken(t, validClaims("user-456", "clinician"), testSigningKey)

	seen, err := runMiddleware(t, JWTMiddleware(cfg), "Bearer "+tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil {
		t.Fatal("handler was not called")
	}
	ctx := seen.Request().Context()
	if uid := UserIDFromContext(ctx); uid != "user-456" {
		t.Errorf("expected user_id=user-456, got %s", uid)
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != "clinician" {
		t.Errorf("expected roles=[clinician], got %v", roles)
	}
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	cfg := JWTConfig{Issuer: "triage-test", Audience: "triage-api", SigningKey: testSigningKey}

	expired := validClaims("user-123")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))

	noExpiry := validClaims("user-123")
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims("user-123")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims("user-123")
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	noSubject := validClaims("")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", createTestToken(t, expired, testSigningKey)},
		{"no expiry", createTestToken(t, noExpiry, testSigningKey)},
		{"wrong issuer", createTestToken(t, wrongIssuer, testSigningKey)},
		{"wrong audience", createTestToken(t, wrongAudience, testSigningKey)},
		{"no subject", createTestToken(t, noSubject, testSigningKey)},
		{"wrong key", createTestToken(t, validClaims("user-123"), []byte("another-key-that-is-long-enough!!"))},
		{"garbage", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(cfg), "Bearer "+tt.token)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	seen, err := runMiddleware(t, DevAuthMiddleware(JWTConfig{}), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := seen.Request().Context()
	if uid := UserIDFromContext(ctx); uid != "dev-user" {
		t.Errorf("expected user_id=dev-user, got %s", uid)
	}
	if !HasRole(ctx, RoleClinician) {
		t.Errorf("expected dev user to hold clinician role, got %v", RolesFromContext(ctx))
	}
}

func TestDevAuthMiddleware_ValidatesProvidedToken(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey}

	seen, err := runMiddleware(t, DevAuthMiddleware(cfg), "Bearer "+createTestToken(t, validClaims("real-user", "patient"), testSigningKey))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid := UserIDFromContext(seen.Request().Context()); uid != "real-user" {
		t.Errorf("expected user_id=real-user, got %s", uid)
	}

	_, err = runMiddleware(t, DevAuthMiddleware(cfg), "Bearer junk")
	assertStatus(t, err, http.StatusUnauthorized)
}
