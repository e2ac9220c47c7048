package account

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok && raw != nil
}

// GetRouterClaims looks in the request context first and falls back to
// the locals stored under key.
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if claims, ok := GetClaims(ctx.Context()); ok {
		return claims, true
	}
	if key == "" {
		key = "user"
	}
	claims, ok := ctx.Locals(key).(AuthClaims)
	return claims, ok && claims != nil
}
