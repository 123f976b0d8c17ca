package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTClaims are the claims carried by a session token
type JWTClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued for
func (c *JWTClaims) UserID() string {
	return c.Subject
}

// TokenID returns the unique token identifier
func (c *JWTClaims) TokenID() string {
	return c.ID
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
