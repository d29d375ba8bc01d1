package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AuthenticatedAccountContextKey = ContextKey("authenticatedAccount")

// AuthenticatedAccount is what handlers get out of the request context.
type AuthenticatedAccount struct {
	ID string
}

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (AuthenticatedAccount, bool) {
	acct, ok := ctx.Value(AuthenticatedAccountContextKey).(AuthenticatedAccount)
	return acct, ok
}

// Middleware authenticates requests via the Authorization bearer token and
// rejects anything the verifier does not vouch for.
func Middleware(verifier TokenVerifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(r.Context(), "Missing or malformed Authorization header")
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			accountID, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "Token verification failed", "error", err)
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedAccountContextKey, AuthenticatedAccount{ID: accountID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
