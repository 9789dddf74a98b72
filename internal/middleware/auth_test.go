package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citycare/complaint-server/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func captureAuth(got *AuthContext, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if ac, ok := AuthFromContext(r.Context()); ok {
			*got = ac
		}
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	var called bool
	var ac AuthContext
	h := RequireAuth(testSecret)(captureAuth(&ac, &called))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuthValidToken(t *testing.T) {
	var called bool
	var ac AuthContext
	h := RequireAuth(testSecret)(captureAuth(&ac, &called))

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "user-42",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(token))

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, called)
	assert.Equal(t, "user-42", ac.UserID)
	assert.False(t, ac.IsAdmin)
}

func TestRequireAuthAdminRoleHint(t *testing.T) {
	var called bool
	var ac AuthContext
	h := RequireAuth(testSecret)(captureAuth(&ac, &called))

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(token))

	require.True(t, called)
	assert.True(t, ac.IsAdmin)
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})},
		{"expired", signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"no subject", signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			var ac AuthContext
			h := RequireAuth(testSecret)(captureAuth(&ac, &called))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, authedRequest(tc.token))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	dir := identity.NewFake(
		identity.User{ID: "admin-1", Email: "admin@example.com", Role: identity.RoleAdmin},
		identity.User{ID: "user-1", Email: "user@example.com", Role: identity.RoleUser},
	)
	logger := zap.NewNop().Sugar()

	serve := func(userID string) *httptest.ResponseRecorder {
		var called bool
		var ac AuthContext
		h := RequireAdmin(dir, logger)(captureAuth(&ac, &called))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if userID != "" {
			r = r.WithContext(WithAuth(r.Context(), AuthContext{UserID: userID}))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, serve("admin-1").Code)
	assert.Equal(t, http.StatusForbidden, serve("user-1").Code)
	assert.Equal(t, http.StatusForbidden, serve("nobody").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("").Code)
}

func TestRequireAdminSeesRevocationImmediately(t *testing.T) {
	dir := identity.NewFake(
		identity.User{ID: "admin-1", Email: "admin@example.com", Role: identity.RoleAdmin},
	)
	logger := zap.NewNop().Sugar()

	var called bool
	var ac AuthContext
	h := RequireAdmin(dir, logger)(captureAuth(&ac, &called))

	run := func() int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithAuth(r.Context(), AuthContext{UserID: "admin-1"}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, run())

	require.NoError(t, dir.SetRole(context.Background(), "admin-1", identity.RoleUser))
	assert.Equal(t, http.StatusForbidden, run())
}
