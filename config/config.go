// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds the service settings. Getters satisfy auth.Config.
type Config struct {
	// auth
	SigningKey      string
	TokenExpiration time.Duration
	CookieName      string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
	BcryptCost      int
	UseHashidIDs    bool

	// server
	Environment string
	Port        string
	ClientURL   string

	// persistence
	DatabaseURL string
	DBDebug     bool

	// login throttling
	RedisURL         string
	LoginMaxAttempts int
	LoginCooldown    time.Duration

	// logging
	LogLevel  string
	LogFormat string
}

// Load reads .env files named in files (".env" when none are given) and
// then the environment. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := loadEnvFiles(files...); err != nil {
		return nil, err
	}

	expiration, err := getEnvAsDuration("JWT_EXPIRATION", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cooldown, err := getEnvAsDuration("LOGIN_COOLDOWN", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cookieName := getEnv("AUTH_COOKIE_NAME", "jwt")

	cfg := &Config{
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: expiration,
		CookieName:      cookieName,
		ContextKey:      getEnv("AUTH_CONTEXT_KEY", "user"),
		TokenLookup:     getEnv("AUTH_TOKEN_LOOKUP", "cookie:"+cookieName+",header:Authorization"),
		AuthScheme:      getEnv("AUTH_SCHEME", "Bearer"),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 10),
		UseHashidIDs:    getEnvAsBool("USER_ID_HASHID", false),

		Environment: strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", EnvProduction))),
		Port:        getEnv("PORT", "5000"),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:3000"),

		DatabaseURL: getEnv("DATABASE_URL", "file:auth.db?cache=shared"),
		DBDebug:     getEnvAsBool("DB_DEBUG", false),

		RedisURL:         os.Getenv("REDIS_URL"),
		LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginCooldown:    cooldown,

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg, nil
}

// Validate checks required settings and ranges
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required),
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.Environment, validation.In(EnvDevelopment, EnvProduction, EnvTest)),
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.LoginMaxAttempts, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
	)
}

func (c Config) GetSigningKey() string             { return c.SigningKey }
func (c Config) GetTokenExpiration() time.Duration { return c.TokenExpiration }
func (c Config) GetCookieName() string             { return c.CookieName }
func (c Config) GetContextKey() string             { return c.ContextKey }
func (c Config) GetTokenLookup() string            { return c.TokenLookup }
func (c Config) GetAuthScheme() string             { return c.AuthScheme }
func (c Config) IsDevelopment() bool               { return c.Environment == EnvDevelopment }
func (c Config) LoginThrottleEnabled() bool        { return c.RedisURL != "" }
func (c Config) ListenAddr() string                { return ":" + c.Port }

// Redacted returns a copy safe to log
func (c Config) Redacted() Config {
	out := c
	if out.SigningKey != "" {
		out.SigningKey = "[REDACTED]"
	}
	out.DatabaseURL = redactURL(out.DatabaseURL)
	out.RedisURL = redactURL(out.RedisURL)
	return out
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func loadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("168h") and whole days ("7d")
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	d, err := ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ParseDuration extends time.ParseDuration with a "d" suffix for days
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}
