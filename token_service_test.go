package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-session-auth"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewTokenService(t *testing.T) {
	t.Run("rejects empty signing key", func(t *testing.T) {
		ts, err := auth.NewTokenService(nil, time.Hour)
		assert.Nil(t, ts)
		assert.ErrorIs(t, err, auth.ErrEmptySigningKey)
	})

	t.Run("defaults expiration", func(t *testing.T) {
		ts, err := auth.NewTokenService([]byte("k"), 0)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultTokenExpiration, ts.Expiration())
	})

	t.Run("creates token service with logger", func(t *testing.T) {
		logger := &MockLogger{}
		ts, err := auth.NewTokenService([]byte("k"), time.Hour, auth.WithTokenLogger(logger))
		require.NoError(t, err)
		assert.NotNil(t, ts)
		logger.AssertExpectations(t)
	})
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, auth.WithTokenClock(clock.Now))

	token, expiresAt, err := ts.Issue("user-123", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, clock.now.Add(time.Hour).Equal(expiresAt))

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.NotEmpty(t, claims.TokenID())
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, clock.now.Unix(), claims.IssuedAt.Unix())
}

func TestTokenService_IssueDefaults(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, auth.WithTokenClock(clock.Now))

	_, expiresAt, err := ts.Issue("user-123", 0)
	require.NoError(t, err)
	assert.True(t, clock.now.Add(7*24*time.Hour).Equal(expiresAt))

	_, _, err = ts.Issue("", time.Hour)
	assert.Error(t, err)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	ts := newTestTokenService(t)

	first, _, err := ts.Issue("user-123", time.Hour)
	require.NoError(t, err)
	second, _, err := ts.Issue("user-123", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_ExpiryIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, auth.WithTokenClock(clock.Now))

	token, expiresAt, err := ts.Issue("user-123", time.Hour)
	require.NoError(t, err)

	clock.now = expiresAt.Add(-time.Second)
	_, err = ts.Verify(token)
	require.NoError(t, err, "token must verify before expiry")

	steps := []time.Duration{time.Second, time.Minute, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour}
	clock.now = expiresAt
	for _, step := range steps {
		_, err = ts.Verify(token)
		assertAuthErr(t, err, auth.ErrTokenExpired, "at %s", clock.now)
		assert.True(t, auth.IsTokenExpiredError(err))
		clock.Advance(step)
	}
}

func TestTokenService_Verify_Failures(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, auth.WithTokenClock(clock.Now))
	key := []byte("test-signing-key")

	valid := func(sub string, exp time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		}
	}

	tests := []struct {
		name  string
		token string
		want  *goerrors.Error
	}{
		{
			name:  "empty",
			token: "",
			want:  auth.ErrTokenMalformed,
		},
		{
			name:  "not a jwt",
			token: "definitely-not-a-token",
			want:  auth.ErrTokenMalformed,
		},
		{
			name:  "two segments",
			token: "abc.def",
			want:  auth.ErrTokenMalformed,
		},
		{
			name:  "bad base64",
			token: "malformed.token.structure",
			want:  auth.ErrTokenMalformed,
		},
		{
			name:  "wrong secret",
			token: signRaw(t, jwt.SigningMethodHS256, []byte("other-secret"), valid("u1", clock.now.Add(time.Hour))),
			want:  auth.ErrTokenSignature,
		},
		{
			name:  "disallowed algorithm",
			token: signRaw(t, jwt.SigningMethodHS512, key, valid("u1", clock.now.Add(time.Hour))),
			want:  auth.ErrTokenSignature,
		},
		{
			name:  "alg none",
			token: signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid("u1", clock.now.Add(time.Hour))),
			want:  auth.ErrTokenSignature,
		},
		{
			name:  "expired with forged signature reports signature",
			token: signRaw(t, jwt.SigningMethodHS256, []byte("other-secret"), valid("u1", clock.now.Add(-time.Hour))),
			want:  auth.ErrTokenSignature,
		},
		{
			name:  "expired",
			token: signRaw(t, jwt.SigningMethodHS256, key, valid("u1", clock.now.Add(-time.Hour))),
			want:  auth.ErrTokenExpired,
		},
		{
			name:  "missing exp",
			token: signRaw(t, jwt.SigningMethodHS256, key, jwt.MapClaims{"sub": "u1"}),
			want:  auth.ErrTokenMalformed,
		},
		{
			name:  "missing subject",
			token: signRaw(t, jwt.SigningMethodHS256, key, valid("", clock.now.Add(time.Hour))),
			want:  auth.ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Verify(tt.token)
			assert.Nil(t, claims)
			require.Error(t, err)
			assertAuthErr(t, err, tt.want)

			richErr := auth.AsAuthError(err)
			assert.Equal(t, auth.ErrorReason(tt.want), auth.ErrorReason(richErr))
			assert.NotEmpty(t, auth.ErrorReason(richErr))
			assert.Equal(t, 401, auth.StatusCode(richErr))
		})
	}
}

func TestTokenService_TamperedTokensNeverVerify(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.Issue("2f0c8a52-5bf8-4b7e-9d64-0b7d1f1f3c11", time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		claims, err := ts.Verify(tampered)
		require.Error(t, err, "mutation at %d verified", i)
		assert.Nil(t, claims)
		assert.True(t,
			auth.IsAuthError(err, auth.ErrTokenSignature) || auth.IsAuthError(err, auth.ErrTokenMalformed),
			"mutation at %d gave %v", i, err,
		)
	}

	_, err = ts.Verify(strings.TrimSuffix(token, token[len(token)-1:]))
	assert.Error(t, err)
}

func TestTokenService_DistinctSecrets(t *testing.T) {
	a, err := auth.NewTokenService([]byte("secret-a"), time.Hour)
	require.NoError(t, err)
	b, err := auth.NewTokenService([]byte("secret-b"), time.Hour)
	require.NoError(t, err)

	token, _, err := a.Issue("u1", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(token)
	assertAuthErr(t, err, auth.ErrTokenSignature)

	_, err = a.Verify(token)
	assert.NoError(t, err)
}
