package auth

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes for failures go-errors has no code for
const (
	TextCodeValidation       = "VALIDATION_ERROR"
	TextCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	TextCodeNoToken          = "NO_TOKEN"
	TextCodeTokenSignature   = "TOKEN_INVALID_SIGNATURE"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
	TextCodePasswordTooLong  = "PASSWORD_TOO_LONG"
	TextCodeInternal         = "INTERNAL_ERROR"
)

// Error names written to clients in the "error" field
const (
	KindValidation         = "validation_error"
	KindDuplicateEmail     = "duplicate_email"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthorized       = "unauthorized"
	KindRateLimited        = "rate_limited"
	KindInternal           = "internal_error"
)

// Reason codes written to clients for rejected sessions
const (
	ReasonNoToken          = "no_token"
	ReasonMalformed        = "malformed"
	ReasonInvalidSignature = "invalid_signature"
	ReasonExpired          = "expired"
	ReasonUserNotFound     = "user_not_found"
)

// ErrValidation is returned when required signup fields are missing
var ErrValidation = goerrors.New("All fields are required", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail is surfaced as a 400 like every other signup failure
var ErrDuplicateEmail = goerrors.New("Email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials covers unknown emails and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

var ErrNoToken = goerrors.New("Unauthorized - No Token Provided", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoToken).
	WithCode(goerrors.CodeUnauthorized)

var ErrTokenMalformed = goerrors.New("Unauthorized - Invalid Token", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

var ErrTokenSignature = goerrors.New("Unauthorized - Invalid Token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

var ErrTokenExpired = goerrors.New("Unauthorized - Token Expired", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

var ErrUserNotFound = goerrors.New("Unauthorized - User not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeUnauthorized)

var ErrTooManyAttempts = goerrors.New("Too many login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(goerrors.TextCodeTooManyAttempts).
	WithCode(goerrors.CodeTooManyRequests)

var ErrInternal = goerrors.New("Internal server error", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(goerrors.TextCodeEmptyPassword)

// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash
var ErrPasswordTooLong = goerrors.New("password must be at most 72 bytes", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong)

var unauthorizedReasons = map[string]string{
	TextCodeNoToken:                 ReasonNoToken,
	goerrors.TextCodeTokenMalformed: ReasonMalformed,
	TextCodeTokenSignature:          ReasonInvalidSignature,
	goerrors.TextCodeTokenExpired:   ReasonExpired,
	TextCodeUserNotFound:            ReasonUserNotFound,
}

// withCause returns a copy of base carrying err as its source. Sentinels
// are never mutated.
func withCause(base *goerrors.Error, err error) *goerrors.Error {
	clone := base.Clone()
	clone.Source = err
	return clone
}

// NewInternalError wraps an unexpected failure
func NewInternalError(err error) *goerrors.Error {
	return withCause(ErrInternal, err)
}

// AsAuthError returns the first *goerrors.Error in err's chain, treating
// anything else as internal
func AsAuthError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr
	}
	return NewInternalError(err)
}

// IsAuthError reports whether err carries the category and text code of
// target, so copies with a cause attached still match their sentinel
func IsAuthError(err error, target *goerrors.Error) bool {
	if err == nil || target == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return false
	}
	return richErr.Category == target.Category && richErr.TextCode == target.TextCode
}

// StatusCode returns the HTTP status for err. An explicit code wins,
// otherwise the category decides.
func StatusCode(err *goerrors.Error) int {
	if err == nil {
		return http.StatusOK
	}
	if err.Code != 0 {
		return err.Code
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKind returns the client facing name for err
func ErrorKind(err *goerrors.Error) string {
	if err == nil {
		return ""
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return KindValidation
	case goerrors.CategoryConflict:
		return KindDuplicateEmail
	case goerrors.CategoryRateLimit:
		return KindRateLimited
	case goerrors.CategoryAuth:
		if err.TextCode == goerrors.TextCodeInvalidCredentials {
			return KindInvalidCredentials
		}
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// ErrorReason returns the reason code for a rejected session, or "" for
// any other error
func ErrorReason(err *goerrors.Error) string {
	if err == nil {
		return ""
	}
	return unauthorizedReasons[err.TextCode]
}

// ErrorFields returns the per field validation messages carried by err
func ErrorFields(err *goerrors.Error) map[string]string {
	if err == nil || len(err.ValidationErrors) == 0 {
		return nil
	}
	return err.ValidationMap()
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return IsAuthError(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return IsAuthError(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed")
}

// errorCause returns the innermost error behind err. go-errors only
// renders the public message, so logs need the source explicitly.
func errorCause(err error) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && richErr.Source != nil {
		return goerrors.RootCause(richErr.Source)
	}
	return err
}
