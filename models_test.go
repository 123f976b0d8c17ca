package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-session-auth"
)

func TestUser_View(t *testing.T) {
	id := uuid.New()
	user := &auth.User{
		ID:               id,
		Name:             "A",
		Email:            "a@x.com",
		PasswordHash:     "$2a$04$secret",
		City:             "C",
		CollegeName:      "Col",
		EnrollmentNumber: "E1",
	}

	view := user.View()
	assert.Equal(t, &auth.UserView{
		ID:               id.String(),
		Name:             "A",
		Email:            "a@x.com",
		City:             "C",
		CollegeName:      "Col",
		EnrollmentNumber: "E1",
	}, view)

	var nilUser *auth.User
	assert.Nil(t, nilUser.View())
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "$2a$04$secret"}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.Contains(t, string(raw), `"_id"`)
}
