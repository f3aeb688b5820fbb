package signup

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile is the application owned account record, keyed by identity id
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            string     `bun:"id,pk" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	Email         string     `bun:"email,notnull" json:"email"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name"`
	LastName      string     `bun:"last_name,notnull" json:"last_name"`
	Phone         *string    `bun:"phone" json:"phone,omitempty"`
	DateOfBirth   time.Time  `bun:"date_of_birth,notnull" json:"date_of_birth"`
	UserImage     *string    `bun:"user_image" json:"user_image,omitempty"`
	ReferrerID    *string    `bun:"referrer_id" json:"referrer_id,omitempty"`
	Role          Role       `bun:"role,notnull" json:"role"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Identity is the credential record owned by the identity store
type Identity struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`
	ID            string     `bun:"id,pk" json:"id"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	EmailVerified bool       `bun:"email_verified" json:"email_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
