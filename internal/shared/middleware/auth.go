package middleware

import (
	"context"
	"net/http"
	"strings"

	"marketplace/internal/domain/access"
	"marketplace/internal/shared/auth"
)

type ContextKey string

const (
	CallerKey ContextKey = "caller"

	// AccessTokenCookie carries the session token for browser clients.
	AccessTokenCookie = "access_token"
)

// Identify attaches the caller named by a valid token to the request context.
// Requests without a valid token continue anonymously; the operations they
// reach decide whether a session is required.
func Identify(jwt *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller := callerFromRequest(jwt, r); caller != nil {
				r = r.WithContext(WithCaller(r.Context(), caller))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that Identify left anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFromContext(r.Context()) == nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithCaller(ctx context.Context, caller *access.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFromContext returns the request's caller, or nil when anonymous.
func CallerFromContext(ctx context.Context) *access.Caller {
	caller, _ := ctx.Value(CallerKey).(*access.Caller)
	return caller
}

func callerFromRequest(jwt *auth.JWT, r *http.Request) *access.Caller {
	token := tokenFromRequest(r)
	if token == "" {
		return nil
	}

	claims, err := jwt.Validate(token)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	return &access.Caller{
		UserID:   userID,
		UserName: claims.UserName,
		Roles:    claims.Roles,
	}
}

func tokenFromRequest(r *http.Request) string {
	// Try HttpOnly cookie first (browser requests)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Fall back to Authorization header (API clients)
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
