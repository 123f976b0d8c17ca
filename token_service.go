package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is the session lifetime used when none is configured
const DefaultTokenExpiration = 7 * 24 * time.Hour

// ErrEmptySigningKey is returned when a token service is built without a secret
var ErrEmptySigningKey = errors.New("signing key must not be empty")

// TokenService issues and verifies HS256 session tokens
type TokenService struct {
	signingKey []byte
	expiration time.Duration
	now        func() time.Time
	parser     *jwt.Parser
	logger     Logger
}

type TokenServiceOption func(*TokenService)

// WithTokenClock overrides the time source used to issue and verify tokens
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, expiration time.Duration, opts ...TokenServiceOption) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrEmptySigningKey
	}

	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenService{
		signingKey: key,
		expiration: expiration,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		opt(ts)
	}

	ts.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(ts.now),
	)

	return ts, nil
}

// Expiration returns the default token lifetime
func (ts *TokenService) Expiration() time.Duration {
	return ts.expiration
}

// Issue signs a token for subject that expires after ttl. A non positive
// ttl falls back to the configured expiration.
func (ts *TokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}

	if ttl <= 0 {
		ttl = ts.expiration
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, claims.ExpiresAt.Time, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("TokenService failed to sign claims", "error", err)
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signed, nil
}

// Verify checks structure, then signature, then expiry, and returns the
// claims of a valid token. Failures are ErrTokenMalformed,
// ErrTokenSignature or ErrTokenExpired.
func (ts *TokenService) Verify(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := ts.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	})

	if err != nil {
		return nil, classifyTokenError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// classifyTokenError maps jwt parser failures onto the auth sentinels. The parser
// verifies the signature before it looks at any claim, so an expired token
// with a bad signature is reported as a signature failure.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return withCause(ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return withCause(ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return withCause(ErrTokenExpired, err)
	default:
		return withCause(ErrTokenMalformed, err)
	}
}
