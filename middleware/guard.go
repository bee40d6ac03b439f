package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/MrEthical07/tokenauth"
)

// Authenticator resolves the owner of an access token. *tokenauth.Engine
// and *authclient.Client both satisfy it.
type Authenticator interface {
	GetAuthenticatedUser(ctx context.Context, token string) (tokenauth.AuthenticatedUser, error)
}

type userContextKey struct{}

// UserFromContext returns the user stored by [Guard].
func UserFromContext(ctx context.Context) (tokenauth.AuthenticatedUser, bool) {
	u, ok := ctx.Value(userContextKey{}).(tokenauth.AuthenticatedUser)
	return u, ok
}

// WithUser stores u the way [Guard] does. It is meant for handler tests.
func WithUser(ctx context.Context, u tokenauth.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// Guard rejects requests whose Authorization header does not resolve to a
// user. Token and user failures answer 401; any other failure answers 500.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, tokenauth.ErrTokenRequired.Error())
				return
			}

			ctx := RequestContext(r)
			user, err := auth.GetAuthenticatedUser(ctx, header)
			if err != nil {
				if tokenauth.IsAuthenticationError(err) || tokenauth.IsValidationError(err) {
					writeError(w, http.StatusUnauthorized, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// RequestContext copies the caller's IP and User-Agent into the request
// context for audit events.
func RequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	ctx := tokenauth.WithClientIP(r.Context(), host)
	return tokenauth.WithUserAgent(ctx, r.UserAgent())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"message": message,
	})
}
