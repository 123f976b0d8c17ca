package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured
const DefaultPasswordCost = 10

// BcryptHasher implements PasswordHasher with a configurable work factor
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or DefaultPasswordCost when
// cost falls outside the range bcrypt accepts
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// HashPassword will generate a password hash
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", withCause(ErrPasswordTooLong, err)
	}
	return string(hash), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password. Any failure, including a
// malformed hash, is reported as ErrMismatchedHashAndPassword.
func (h *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// Verify reports whether password matches hash
func (h *BcryptHasher) Verify(password, hash string) bool {
	return h.ComparePasswordAndHash(password, hash) == nil
}

// HashCost returns the work factor embedded in hash
func HashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
