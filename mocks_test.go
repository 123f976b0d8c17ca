package auth_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-session-auth"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// assertAuthErr checks err carries the category and text code of target,
// with or without a cause attached
func assertAuthErr(t *testing.T, err error, target *goerrors.Error, msgAndArgs ...any) bool {
	t.Helper()
	if auth.IsAuthError(err, target) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("error %v does not match [%s:%s]", err, target.Category, target.TextCode), msgAndArgs...)
}

// countingHasher counts calls into a real bcrypt hasher
type countingHasher struct {
	inner    auth.PasswordHasher
	hashes   atomic.Int32
	compares atomic.Int32
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: fastHasher()}
}

func (c *countingHasher) HashPassword(password string) (string, error) {
	c.hashes.Add(1)
	return c.inner.HashPassword(password)
}

func (c *countingHasher) ComparePasswordAndHash(password, hash string) error {
	c.compares.Add(1)
	return c.inner.ComparePasswordAndHash(password, hash)
}

// MockHasher implements auth.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) ComparePasswordAndHash(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// MockIdentityStore implements auth.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityStore) Insert(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

// MockTokenVerifier implements auth.TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(token string) (*auth.JWTClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*auth.JWTClaims)
	return claims, args.Error(1)
}

// recordingSink keeps every activity event
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type testConfig struct {
	signingKey  string
	expiration  time.Duration
	development bool
}

func (c testConfig) GetSigningKey() string             { return c.signingKey }
func (c testConfig) GetTokenExpiration() time.Duration { return c.expiration }
func (c testConfig) GetCookieName() string             { return "jwt" }
func (c testConfig) GetContextKey() string             { return "user" }
func (c testConfig) GetTokenLookup() string            { return "" }
func (c testConfig) GetAuthScheme() string             { return "Bearer" }
func (c testConfig) IsDevelopment() bool               { return c.development }

func newTestConfig() testConfig {
	return testConfig{
		signingKey:  "test-signing-key",
		expiration:  auth.DefaultTokenExpiration,
		development: true,
	}
}

// newTestRepo opens a private in-memory sqlite database with migrations applied
func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := auth.OpenDatabase(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := auth.NewRepositoryManager(db, nopLogger{})
	require.NoError(t, repo.Migrate(context.Background()))

	return repo
}

func newTestTokenService(t *testing.T, opts ...auth.TokenServiceOption) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService([]byte("test-signing-key"), auth.DefaultTokenExpiration, opts...)
	require.NoError(t, err)
	return ts
}

// fastHasher keeps bcrypt cheap in tests
func fastHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(4)
}

func validSignup() auth.SignupRequest {
	return auth.SignupRequest{
		Name:             "A",
		Email:            "a@x.com",
		Password:         "p1",
		City:             "C",
		CollegeName:      "Col",
		EnrollmentNumber: "E1",
	}
}
