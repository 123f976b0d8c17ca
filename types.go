package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetCookieName() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	IsDevelopment() bool
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenIssuer mints session tokens
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, time.Time, error)
}

// TokenVerifier validates session tokens and returns their claims
type TokenVerifier interface {
	Verify(token string) (*JWTClaims, error)
}

// IdentityStore is the credential store consumed by the auth core.
// Lookups return ErrIdentityNotFound when no record matches and
// Insert returns ErrDuplicateEmail when the email is taken.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
}

// LoginThrottle limits repeated failed logins per identifier
type LoginThrottle interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(line("[ERR] AUTH", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println(line("[WRN] AUTH", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(line("[INF] AUTH", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(line("[DBG] AUTH", msg, args...))
}

// line renders msg followed by key=value pairs
func line(prefix, msg string, args ...any) string {
	out := prefix + " " + msg
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			continue
		}
		out += fmt.Sprintf(" %v", args[i])
	}
	return out
}
