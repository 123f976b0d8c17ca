package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash never leaves the package in JSON.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,type:varchar(36)" json:"_id"`
	Name             string     `bun:"name,notnull" json:"name"`
	Email            string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	City             string     `bun:"city,notnull" json:"city"`
	CollegeName      string     `bun:"college_name,notnull" json:"collegeName"`
	EnrollmentNumber string     `bun:"enrollment_number,notnull" json:"enrollmentNumber"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// UserView is the outward representation of a User
type UserView struct {
	ID               string `json:"_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	City             string `json:"city"`
	CollegeName      string `json:"collegeName"`
	EnrollmentNumber string `json:"enrollmentNumber"`
}

// View strips credential material from the user
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:               u.ID.String(),
		Name:             u.Name,
		Email:            u.Email,
		City:             u.City,
		CollegeName:      u.CollegeName,
		EnrollmentNumber: u.EnrollmentNumber,
	}
}
