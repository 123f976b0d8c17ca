package auth

import "time"

// DefaultCookieName is the session cookie name
const DefaultCookieName = "jwt"

// CookieDirective describes a cookie the transport should set. It carries
// no transport types so policy stays out of route handlers.
type CookieDirective struct {
	Name     string
	Value    string
	Path     string
	MaxAge   time.Duration
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// CookiePolicy builds session cookie directives
type CookiePolicy struct {
	Name   string
	Path   string
	Secure bool
}

// NewCookiePolicy returns the policy for a deployment. Secure is set
// unless development is true.
func NewCookiePolicy(name string, development bool) CookiePolicy {
	if name == "" {
		name = DefaultCookieName
	}
	return CookiePolicy{
		Name:   name,
		Path:   "/",
		Secure: !development,
	}
}

// Attach returns the directive that stores token for ttl
func (p CookiePolicy) Attach(token string, ttl time.Duration, expiresAt time.Time) CookieDirective {
	return CookieDirective{
		Name:     p.Name,
		Value:    token,
		Path:     p.Path,
		MaxAge:   ttl,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: "Strict",
	}
}

// Clear returns the directive that overwrites the session cookie with an
// empty, already expired value
func (p CookiePolicy) Clear() CookieDirective {
	return CookieDirective{
		Name:     p.Name,
		Value:    "",
		Path:     p.Path,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: "Strict",
	}
}
