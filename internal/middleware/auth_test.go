package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-backend/internal/ctxkeys"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, userID, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    exp.Unix(),
		"iat":    time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthInjectsUserIntoContext(t *testing.T) {
	var gotID, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = r.Context().Value(ctxkeys.UserID).(string)
		gotRole, _ = r.Context().Value(ctxkeys.UserRole).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-1", "admin", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	Auth(testSecret)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", gotID)
	assert.Equal(t, "admin", gotRole)
}

func TestAuthMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	rec := httptest.NewRecorder()

	Auth(testSecret)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadSignature(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", "u-1", "admin", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	Auth(testSecret)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-1", "admin", time.Now().Add(-time.Hour)))
	rec := httptest.NewRecorder()

	Auth(testSecret)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireMinRole(t *testing.T) {
	tests := []struct {
		role    string
		minRole string
		want    int
	}{
		{"viewer", "operator", http.StatusForbidden},
		{"operator", "operator", http.StatusOK},
		{"admin", "operator", http.StatusOK},
		{"operator", "admin", http.StatusForbidden},
		{"admin", "admin", http.StatusOK},
		{"super_admin", "admin", http.StatusOK},
		{"admin", "super_admin", http.StatusForbidden},
		{"", "viewer", http.StatusForbidden},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.role != "" {
			req = req.WithContext(context.WithValue(req.Context(), ctxkeys.UserRole, tt.role))
		}
		rec := httptest.NewRecorder()

		RequireMinRole(tt.minRole)(next).ServeHTTP(rec, req)

		assert.Equalf(t, tt.want, rec.Code, "role=%q minRole=%q", tt.role, tt.minRole)
	}
}
