package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:jwt,header:" + router.HeaderAuthorization
	// ErrJWTMissing is returned when no extractor produced a token
	ErrJWTMissing = errors.New("missing JWT")
)

// Resolver turns a raw token into a request scoped value. An empty token
// means none was found and it is up to the resolver to reject it.
type Resolver[T any] interface {
	ResolveToken(ctx context.Context, token string) (T, error)
}

type Config[T any] struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	Resolver       Resolver[T]
	ContextKey     string
	// TokenLookup is an ordered list of "<source>:<name>" pairs, with
	// sources cookie, header and query. Defaults to "cookie:jwt,header:Authorization".
	TokenLookup string
	AuthScheme  string

	// ContextEnricher is an optional function to propagate the resolved
	// value to the standard Go context.
	ContextEnricher func(c context.Context, value T) context.Context
}

// New returns a gate that extracts a token, resolves it and stores the
// result in the request locals under ContextKey
func New[T any](config ...Config[T]) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			token, _ := ExtractToken(ctx, extractors)

			value, err := cfg.Resolver.ResolveToken(ctx.Context(), token)
			ctx.Locals(cfg.ContextKey, value)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), value))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig[T any](config ...Config[T]) (cfg Config[T]) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("AUTH: JWT middleware configuration: Resolver is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config[T]) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// ExtractToken runs extractors in order and returns the first token found.
// The boolean is false when every source came up empty.
func ExtractToken(c router.Context, extractors []JWTExtractor) (string, bool) {
	for _, extractor := range extractors {
		if raw, err := extractor(c); err == nil && raw != "" {
			return raw, true
		}
	}
	return "", false
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// cookie:jwt,header:Authorization,query:auth_token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if name == "" {
			continue
		}

		switch source {
		case "header":
			extractors = append(extractors, jwtFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(name))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
// Only the part after the auth scheme is returned.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	l := len(authScheme)
	return func(c router.Context) (string, error) {
		a := c.Header(header)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l+1:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissing
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissing
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissing
		}
		return token, nil
	}
}
