// Package limiter throttles failed logins with fixed window counters in redis.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/goliatone/go-session-auth"
)

// ErrRedisUnavailable wraps redis failures. Callers treat it as a soft error.
var ErrRedisUnavailable = goerrors.New("login limiter: redis unavailable", goerrors.CategoryExternal).
	WithTextCode("REDIS_UNAVAILABLE")

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
	KeyPrefix   string
}

// Limiter counts failed logins per identifier. Once the count passes
// MaxAttempts further logins are rejected until the window expires.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

var _ auth.LoginThrottle = (*Limiter)(nil)

// New creates a Limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "auth:login"
	}
	return &Limiter{
		redis:  client,
		config: cfg,
	}
}

// NewFromURL parses a redis:// URL and returns a limiter for it
func NewFromURL(rawURL string, cfg Config) (*Limiter, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return New(client, cfg), client, nil
}

// Check returns auth.ErrTooManyAttempts when identifier has used up its allowed
// failed attempts for the current window.
func (l *Limiter) Check(ctx context.Context, identifier string) error {
	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return auth.ErrTooManyAttempts
	}

	return nil
}

// RecordFailure counts a failed attempt. The window starts at the first
// failure.
func (l *Limiter) RecordFailure(ctx context.Context, identifier string) error {
	key := l.key(identifier)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count >= int64(l.config.MaxAttempts) {
		return auth.ErrTooManyAttempts
	}

	return nil
}

// Reset clears the counter after a successful login
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures recorded in the current window
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func (l *Limiter) key(identifier string) string {
	return l.config.KeyPrefix + ":" + strings.ToLower(strings.TrimSpace(identifier))
}
