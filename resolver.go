package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// AuthContext is the outcome of resolving a request's session. Exactly one
// of Identity and Err is set.
type AuthContext struct {
	Identity *UserView
	Err      *goerrors.Error
}

// Authenticated reports whether the session resolved to an identity
func (a *AuthContext) Authenticated() bool {
	return a != nil && a.Err == nil && a.Identity != nil
}

func resolved(identity *UserView) AuthContext {
	return AuthContext{Identity: identity}
}

func rejected(err *goerrors.Error) AuthContext {
	return AuthContext{Err: err}
}

// SessionResolver turns a raw session token into an identity. It makes a
// single attempt per call and only reads from the store.
type SessionResolver struct {
	verifier TokenVerifier
	store    IdentityStore
	logger   Logger
}

func NewSessionResolver(verifier TokenVerifier, store IdentityStore, logger Logger) *SessionResolver {
	if verifier == nil {
		panic("AUTH: session resolver requires a TokenVerifier")
	}
	if store == nil {
		panic("AUTH: session resolver requires an IdentityStore")
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &SessionResolver{
		verifier: verifier,
		store:    store,
		logger:   logger,
	}
}

// Resolve verifies token and loads the identity it was issued for. An
// empty token is treated as absent.
func (r *SessionResolver) Resolve(ctx context.Context, token string) AuthContext {
	if token == "" {
		return rejected(ErrNoToken)
	}

	claims, err := r.verifier.Verify(token)
	if err != nil {
		authErr := AsAuthError(err)
		r.logger.Debug("session token rejected", "reason", ErrorReason(authErr), "error", errorCause(err))
		return rejected(authErr)
	}

	user, err := r.store.FindByID(ctx, claims.UserID())
	if err != nil {
		if IsAuthError(err, ErrIdentityNotFound) {
			r.logger.Info("session subject not found", "user_id", claims.UserID())
			return rejected(ErrUserNotFound)
		}
		r.logger.Error("session identity lookup failed", "user_id", claims.UserID(), "error", errorCause(err))
		return rejected(NewInternalError(err))
	}

	return resolved(user.View())
}

// ResolveToken adapts Resolve to the gate middleware
func (r *SessionResolver) ResolveToken(ctx context.Context, token string) (*AuthContext, error) {
	ac := r.Resolve(ctx, token)
	if ac.Err != nil {
		return &ac, ac.Err
	}
	return &ac, nil
}
