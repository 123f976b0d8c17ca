package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-session-auth/middleware/jwtware"
)

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

type RouteAuthenticator struct {
	resolver         *SessionResolver
	cfg              Config
	cookies          CookiePolicy
	Logger           Logger
	AuthErrorHandler router.ErrorHandler
	ErrorHandler     router.ErrorHandler
}

func NewHTTPAuthenticator(resolver *SessionResolver, cfg Config) *RouteAuthenticator {
	if resolver == nil {
		panic("AUTH: HTTP authenticator requires a SessionResolver")
	}

	a := &RouteAuthenticator{
		resolver: resolver,
		cfg:      cfg,
		cookies:  NewCookiePolicy(cfg.GetCookieName(), cfg.IsDevelopment()),
		Logger:   defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultErrHandler

	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute returns the gate for routes that need an authenticated
// caller. The resolved *AuthContext is available through
// GetRouterAuthContext and FromContext.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config[*AuthContext]{
		Resolver:        a.resolver,
		ErrorHandler:    a.AuthErrorHandler,
		ContextKey:      a.contextKey(),
		TokenLookup:     a.tokenLookup(),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextEnricher: WithContext,
	})
}

// ContextKey returns the request locals key used by the gate
func (a *RouteAuthenticator) ContextKey() string {
	return a.contextKey()
}

func (a *RouteAuthenticator) contextKey() string {
	if key := a.cfg.GetContextKey(); key != "" {
		return key
	}
	return DefaultContextKey
}

func (a *RouteAuthenticator) tokenLookup() string {
	if lookup := a.cfg.GetTokenLookup(); lookup != "" {
		return lookup
	}
	return "cookie:" + a.cookies.Name + ",header:" + router.HeaderAuthorization
}

// SetSessionCookie writes the directive to the response
func (a *RouteAuthenticator) SetSessionCookie(c router.Context, d CookieDirective) {
	setCookie(c, d)
}

// ClearSessionCookie overwrites the session cookie with an expired value
func (a *RouteAuthenticator) ClearSessionCookie(c router.Context) {
	setCookie(c, a.cookies.Clear())
}

func setCookie(c router.Context, d CookieDirective) {
	c.Cookie(&router.Cookie{
		Name:     d.Name,
		Value:    d.Value,
		Path:     d.Path,
		MaxAge:   int(d.MaxAge.Seconds()),
		Expires:  d.Expires,
		HTTPOnly: d.HTTPOnly,
		Secure:   d.Secure,
		SameSite: d.SameSite,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	return WriteError(c, err, a.Logger, a.cfg.IsDevelopment())
}

// NewErrorHandler returns a router.ErrorHandler that renders errors as JSON
func NewErrorHandler(logger Logger, development bool) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return func(c router.Context, err error) error {
		return WriteError(c, err, logger, development)
	}
}

// NewFiberErrorHandler adapts NewErrorHandler for fiber.Config so errors
// returned by any handler share the same JSON body
func NewFiberErrorHandler(logger Logger, development bool) fiber.ErrorHandler {
	handler := NewErrorHandler(logger, development)
	return func(c *fiber.Ctx, err error) error {
		return handler(router.NewFiberContext(c, nil), err)
	}
}

// WriteError renders err as an ErrorResponse. Internal failure detail is
// only included when development is true.
func WriteError(c router.Context, err error, logger Logger, development bool) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.JSON(fiberErr.Code, ErrorResponse{
			Message: fiberErr.Message,
			Error:   http.StatusText(fiberErr.Code),
		})
	}

	authErr := AsAuthError(err)
	fields := ErrorFields(authErr)
	res := ErrorResponse{
		Message: authErr.Message,
		Error:   ErrorKind(authErr),
		Reason:  ErrorReason(authErr),
		Fields:  fields,
	}

	switch {
	case res.Error == KindInternal:
		cause := errorCause(err)
		logger.Error("Request failed",
			"path", c.Path(),
			"method", c.Method(),
			"text_code", authErr.TextCode,
			"error", cause,
		)
		if development && authErr.Source != nil {
			res.Detail = cause.Error()
		}
	case authErr.Category == goerrors.CategoryValidation:
		logger.Debug("Request validation failed", "path", c.Path(), "fields", print.MaybePrettyJSON(fields))
	default:
		logger.Debug("Request rejected", "path", c.Path(), "error", res.Error, "reason", res.Reason)
	}

	return c.JSON(StatusCode(authErr), res)
}
