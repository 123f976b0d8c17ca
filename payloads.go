package auth

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

// SignupRequest is the payload accepted by signup
type SignupRequest struct {
	Name             string `json:"name" form:"name"`
	Email            string `json:"email" form:"email"`
	Password         string `json:"password" form:"password"`
	City             string `json:"city" form:"city"`
	CollegeName      string `json:"collegeName" form:"collegeName"`
	EnrollmentNumber string `json:"enrollmentNumber" form:"enrollmentNumber"`
}

// Normalize trims surrounding whitespace from every field but the password
func (r SignupRequest) Normalize() SignupRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.City = strings.TrimSpace(r.City)
	r.CollegeName = strings.TrimSpace(r.CollegeName)
	r.EnrollmentNumber = strings.TrimSpace(r.EnrollmentNumber)
	return r
}

// Validate checks every field is present once trimmed, the email is well
// formed and the password fits bcrypt
func (r SignupRequest) Validate() error {
	r = r.Normalize()
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(MaxPasswordBytes))),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.CollegeName, validation.Required),
		validation.Field(&r.EnrollmentNumber, validation.Required),
	)
	return asValidationError(err, ErrValidation)
}

// LoginRequest is the payload accepted by login
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

var errLoginFieldsRequired = goerrors.New("Email and password are required", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

func (r LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
	return asValidationError(err, errLoginFieldsRequired)
}

// maxBytes limits a string by its encoded length rather than its runes
func maxBytes(limit int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > limit {
			return errPasswordTooLong
		}
		return nil
	}
}

var errPasswordTooLong = errors.New("must be at most 72 bytes long")

// newFieldError builds a copy of base reporting a single field
func newFieldError(base *goerrors.Error, field, message string, cause error) *goerrors.Error {
	out := withCause(base, cause)
	out.ValidationErrors = goerrors.ValidationErrors{{Field: field, Message: message}}
	return out
}

func asValidationError(err error, base *goerrors.Error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return NewInternalError(err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := withCause(base, err)
	out.ValidationErrors = make(goerrors.ValidationErrors, 0, len(fields))
	for _, field := range fields {
		out.ValidationErrors = append(out.ValidationErrors, goerrors.FieldError{
			Field:   field,
			Message: fieldErrs[field].Error(),
		})
	}
	return out
}
