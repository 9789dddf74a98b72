package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/citycare/complaint-server/internal/identity"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthContext is the caller identity resolved once per request.
// UserID comes from the verified token; IsAdmin is confirmed against the
// identity directory, the token's role claim is only a hint.
type AuthContext struct {
	UserID  string
	IsAdmin bool
}

type authCtxKey struct{}

// WithAuth returns a context carrying the given AuthContext.
// Exposed for handler tests.
func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey{}, ac)
}

// AuthFromContext returns the request's AuthContext, if any.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(authCtxKey{}).(AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

// RequireAuth validates the bearer token and injects an AuthContext.
// Requests without a valid credential get 401.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))

			if err != nil || !token.Valid {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Token has no subject")
				return
			}

			ac := AuthContext{UserID: sub}
			if role, ok := claims["role"].(string); ok {
				ac.IsAdmin = role == identity.RoleAdmin
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ac)))
		})
	}
}

// RequireAdmin gates a route on the admin role claim. The directory is
// consulted per request so a revoked role takes effect immediately.
func RequireAdmin(dir identity.Directory, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := AuthFromContext(r.Context())
			if !ok || ac.UserID == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			user, err := dir.User(r.Context(), ac.UserID)
			if err != nil {
				if err == identity.ErrUserNotFound {
					writeAuthError(w, http.StatusForbidden, "forbidden", "Admin access required")
					return
				}
				logger.Errorw("Admin check failed", "user_id", ac.UserID, "error", err)
				writeAuthError(w, http.StatusInternalServerError, "storage_error", "Failed to verify admin status")
				return
			}

			if !user.IsAdmin() {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Admin access required")
				return
			}

			ac.IsAdmin = true
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ac)))
		})
	}
}
