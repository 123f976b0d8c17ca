package auth

import (
	"context"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
)

// Session is the result of a successful signup or login
type Session struct {
	User      *UserView
	Token     string
	ExpiresAt time.Time
	Cookie    CookieDirective
}

type Auther struct {
	store        IdentityStore
	hasher       PasswordHasher
	issuer       TokenIssuer
	cookies      CookiePolicy
	ttl          time.Duration
	logger       Logger
	activitySink ActivitySink
	throttle     LoginThrottle
	useHashid    bool
	now          func() time.Time

	// compared against when the email is unknown
	placeholder string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store IdentityStore, issuer TokenIssuer, opts Config) *Auther {
	if store == nil {
		panic("AUTH: authenticator requires an IdentityStore")
	}
	if issuer == nil {
		panic("AUTH: authenticator requires a TokenIssuer")
	}

	ttl := opts.GetTokenExpiration()
	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}

	a := &Auther{
		store:        store,
		hasher:       NewBcryptHasher(DefaultPasswordCost),
		issuer:       issuer,
		cookies:      NewCookiePolicy(opts.GetCookieName(), opts.IsDevelopment()),
		ttl:          ttl,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
	a.placeholder = a.hashPlaceholder()

	return a
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithPasswordHasher replaces the default bcrypt hasher
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
		s.placeholder = s.hashPlaceholder()
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithLoginThrottle enables failed login limiting
func (s *Auther) WithLoginThrottle(throttle LoginThrottle) *Auther {
	s.throttle = throttle
	return s
}

// WithHashidIDs derives new user ids from their email address
func (s *Auther) WithHashidIDs(enabled bool) *Auther {
	s.useHashid = enabled
	return s
}

// WithClock overrides the time source used for activity timestamps
func (s *Auther) WithClock(now func() time.Time) *Auther {
	if now != nil {
		s.now = now
	}
	return s
}

// CookiePolicy returns the session cookie policy
func (s *Auther) CookiePolicy() CookiePolicy {
	return s.cookies
}

// Signup registers a new identity and starts a session for it
func (s *Auther) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	select {
	case <-ctx.Done():
		return nil, NewInternalError(ctx.Err())
	default:
	}

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !IsAuthError(err, ErrIdentityNotFound):
		s.logger.Error("Signup lookup error", "error", err)
		return nil, NewInternalError(err)
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		if IsAuthError(err, ErrPasswordTooLong) {
			return nil, newFieldError(ErrValidation, "password", errPasswordTooLong.Error(), err)
		}
		s.logger.Error("Signup hash password error", "error", err)
		return nil, NewInternalError(err)
	}

	user := &User{
		Name:             req.Name,
		Email:            email,
		PasswordHash:     hash,
		City:             req.City,
		CollegeName:      req.CollegeName,
		EnrollmentNumber: req.EnrollmentNumber,
	}

	if s.useHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	created, err := s.store.Insert(ctx, user)
	if err != nil {
		if IsAuthError(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		s.logger.Error("Signup insert error", "error", err)
		return nil, NewInternalError(err)
	}

	session, err := s.startSession(created)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventSignupSuccess, created.ID.String(), email, nil)

	return session, nil
}

// Login checks the credentials and starts a session. Unknown emails and
// wrong passwords fail with the same ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	select {
	case <-ctx.Done():
		return nil, NewInternalError(ctx.Err())
	default:
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)

	if err := s.checkThrottle(ctx, email); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, map[string]any{
			"reason": "throttled",
		})
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !IsAuthError(err, ErrIdentityNotFound) {
			s.logger.Error("Login lookup error", "error", err)
			return nil, NewInternalError(err)
		}
		// burn the same bcrypt work as a real comparison
		_ = s.hasher.ComparePasswordAndHash(req.Password, s.placeholder)
		return nil, s.failLogin(ctx, email, "", "unknown_identity")
	}

	if err := s.hasher.ComparePasswordAndHash(req.Password, user.PasswordHash); err != nil {
		return nil, s.failLogin(ctx, email, user.ID.String(), "password_mismatch")
	}

	s.resetThrottle(ctx, email)

	session, err := s.startSession(user)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), email, nil)

	return session, nil
}

// Logout returns the directive that clears the session cookie. Tokens are
// stateless so nothing is invalidated server side.
func (s *Auther) Logout(ctx context.Context) CookieDirective {
	s.emitAuthEvent(ctx, ActivityEventLogout, "", "", nil)
	return s.cookies.Clear()
}

func (s *Auther) startSession(user *User) (*Session, error) {
	token, expiresAt, err := s.issuer.Issue(user.ID.String(), s.ttl)
	if err != nil {
		s.logger.Error("Session token issue error", "error", err)
		return nil, NewInternalError(err)
	}

	return &Session{
		User:      user.View(),
		Token:     token,
		ExpiresAt: expiresAt,
		Cookie:    s.cookies.Attach(token, s.ttl, expiresAt),
	}, nil
}

func (s *Auther) failLogin(ctx context.Context, email, userID, reason string) error {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil && !IsAuthError(err, ErrTooManyAttempts) {
			s.logger.Warn("Login throttle record failure error", "error", err)
		}
	}

	s.emitAuthEvent(ctx, ActivityEventLoginFailure, userID, email, map[string]any{
		"reason": reason,
	})

	return ErrInvalidCredentials
}

// checkThrottle fails open when the throttle backend is unavailable
func (s *Auther) checkThrottle(ctx context.Context, email string) error {
	if s.throttle == nil {
		return nil
	}

	err := s.throttle.Check(ctx, email)
	if err == nil {
		return nil
	}

	if IsAuthError(err, ErrTooManyAttempts) {
		return ErrTooManyAttempts
	}

	s.logger.Warn("Login throttle check error", "error", err)
	return nil
}

func (s *Auther) resetThrottle(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("Login throttle reset error", "error", err)
	}
}

// hashPlaceholder hashes a throwaway password with the current hasher so
// unknown emails cost one comparison, same as a wrong password
func (s *Auther) hashPlaceholder() string {
	hash, err := s.hasher.HashPassword("placeholder-password")
	if err != nil {
		s.logger.Warn("Placeholder hash error", "error", err)
		return ""
	}
	return hash
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, email string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Email:      email,
		Metadata:   metadata,
		OccurredAt: s.now().UTC(),
	}

	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Warn("Activity sink error", "event", eventType, "error", err)
	}
}
