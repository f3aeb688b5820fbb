package signup

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload of an established session
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// UserID returns the account id
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the granted role
func (c *SessionClaims) Role() Role {
	return Role(c.UserRole)
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Session converts the claims into the session handed to callers
func (c *SessionClaims) Session() *Session {
	return &Session{
		AccountID: c.UserID(),
		Username:  c.Username,
		Email:     c.Email,
		Role:      c.Role(),
		IssuedAt:  c.IssuedAt(),
		ExpiresAt: c.Expires(),
	}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
