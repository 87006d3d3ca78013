package middleware

import (
	"context"
	"net/http"
	"strings"
)

// BearerToken copies the token from "Authorization: Bearer <token>" into the
// request context. It never rejects a request; resolvers decide what needs a session.
func BearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := parseBearer(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func parseBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithToken stores a session token in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// TokenFromContext returns the bearer token, or "" when the request had none.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}
