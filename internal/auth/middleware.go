package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the session cookie carrying the bearer token for
// same-origin navigation flows (most importantly the OAuth redirect).
// Cross-origin API calls use the Authorization header instead.
const CookieName = "auth_token"

// TokenResolver maps a plaintext bearer token to the owning user.
// *TokenService is the production implementation; tests substitute fakes.
type TokenResolver interface {
	Resolve(ctx context.Context, plaintext string) (int64, error)
}

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow
// the values this middleware stores.
type contextKey string

const (
	userIDKey contextKey = "userID"
	tokenKey  contextKey = "token"
)

// RequireAuth enforces authentication on protected routes.
//
// The token is taken from the Authorization: Bearer header first, falling
// back to the auth_token cookie. Every request is resolved against the
// token store independently — there is no session cache, so a revoked
// token fails on the very next request.
//
// On success the user id and the presented plaintext token are stored in
// the request context (logout needs the token to know which row to revoke).
func RequireAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken pulls the bearer token from a request without validating it.
// Header wins over cookie. Returns "" when neither is present.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// UserIDFromContext retrieves the authenticated user's id.
// Returns (0, false) on an unauthenticated request.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id != 0
}

// TokenFromContext retrieves the plaintext token the request presented.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthenticated"}`))
}
