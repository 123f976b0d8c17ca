package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the request locals key holding the *AuthContext
const DefaultContextKey = "user"

var authCtxKey = &contextKey{"auth"}

type contextKey struct {
	name string
}

// WithContext sets the AuthContext in the given context
func WithContext(r context.Context, ac *AuthContext) context.Context {
	return context.WithValue(r, authCtxKey, ac)
}

// FromContext finds the AuthContext from the context.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	raw, ok := ctx.Value(authCtxKey).(*AuthContext)
	return raw, ok && raw != nil
}

// IdentityFromContext returns the resolved identity, if any
func IdentityFromContext(ctx context.Context) (*UserView, bool) {
	ac, ok := FromContext(ctx)
	if !ok || !ac.Authenticated() {
		return nil, false
	}
	return ac.Identity, true
}

// GetRouterAuthContext extracts the AuthContext stored by the gate under key
func GetRouterAuthContext(c router.Context, key string) (*AuthContext, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	ac, ok := c.Locals(key).(*AuthContext)
	return ac, ok && ac != nil
}
