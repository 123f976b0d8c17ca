package auth_test

import (
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-session-auth"
)

func TestSignupRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.SignupRequest)
		missing string
	}{
		{"name", func(r *auth.SignupRequest) { r.Name = "" }, "name"},
		{"email", func(r *auth.SignupRequest) { r.Email = "" }, "email"},
		{"password", func(r *auth.SignupRequest) { r.Password = "" }, "password"},
		{"city", func(r *auth.SignupRequest) { r.City = "" }, "city"},
		{"college", func(r *auth.SignupRequest) { r.CollegeName = "" }, "collegeName"},
		{"enrollment", func(r *auth.SignupRequest) { r.EnrollmentNumber = "" }, "enrollmentNumber"},
		{"blank name", func(r *auth.SignupRequest) { r.Name = "   " }, "name"},
		{"blank email", func(r *auth.SignupRequest) { r.Email = " \t " }, "email"},
		{"blank city", func(r *auth.SignupRequest) { r.City = "\n" }, "city"},
		{"invalid email", func(r *auth.SignupRequest) { r.Email = "not-an-email" }, "email"},
		{"password too long", func(r *auth.SignupRequest) {
			r.Password = strings.Repeat("x", auth.MaxPasswordBytes+1)
		}, "password"},
	}

	require.NoError(t, validSignup().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			err := req.Validate()
			require.Error(t, err)
			assertAuthErr(t, err, auth.ErrValidation)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, "All fields are required", richErr.Message)
			assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

			fields := auth.ErrorFields(richErr)
			assert.Contains(t, fields, tt.missing)
			assert.Len(t, fields, 1)
		})
	}
}

func TestSignupRequest_ValidateDoesNotMutateSentinel(t *testing.T) {
	err := auth.SignupRequest{}.Validate()
	require.Error(t, err)

	assert.NotSame(t, auth.ErrValidation, auth.AsAuthError(err))
	assert.Empty(t, auth.ErrValidation.ValidationErrors)
	assert.Nil(t, auth.ErrValidation.Source)
}

func TestSignupRequest_ValidateAllMissing(t *testing.T) {
	err := auth.SignupRequest{}.Validate()

	richErr := auth.AsAuthError(err)
	require.NotNil(t, richErr)
	assert.Len(t, auth.ErrorFields(richErr), 6)
	assert.Equal(t, 400, auth.StatusCode(richErr))
	assert.Equal(t, auth.KindValidation, auth.ErrorKind(richErr))
}

func TestSignupRequest_PasswordByteLimit(t *testing.T) {
	req := validSignup()
	req.Password = strings.Repeat("x", auth.MaxPasswordBytes)
	assert.NoError(t, req.Validate())

	// 36 runes, 72 bytes
	req.Password = strings.Repeat("é", 36)
	assert.NoError(t, req.Validate())

	req.Password = strings.Repeat("é", 37)
	assertAuthErr(t, req.Validate(), auth.ErrValidation)
}

func TestSignupRequest_Normalize(t *testing.T) {
	req := auth.SignupRequest{
		Name:             "  A ",
		Email:            " a@x.com\n",
		Password:         " keep me ",
		City:             "\tC",
		CollegeName:      "Col  ",
		EnrollmentNumber: " E1 ",
	}.Normalize()

	assert.Equal(t, "A", req.Name)
	assert.Equal(t, "a@x.com", req.Email)
	assert.Equal(t, " keep me ", req.Password)
	assert.Equal(t, "C", req.City)
	assert.Equal(t, "Col", req.CollegeName)
	assert.Equal(t, "E1", req.EnrollmentNumber)
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, auth.LoginRequest{Email: "a@x.com", Password: "p1"}.Validate())

	for _, req := range []auth.LoginRequest{
		{Email: "a@x.com"},
		{Password: "p1"},
		{Email: "   ", Password: "p1"},
		{},
	} {
		err := req.Validate()
		require.Error(t, err)
		assertAuthErr(t, err, auth.ErrValidation)

		richErr := auth.AsAuthError(err)
		assert.Equal(t, "Email and password are required", richErr.Message)
		assert.Equal(t, 400, auth.StatusCode(richErr))
	}
}
