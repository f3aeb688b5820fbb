package signup

import (
	"context"
	"fmt"
	"time"
)

// Logger is the structured logger used across the package. glog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds signup and session options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetCookieName() string
	GetCookieSecure() bool
	GetProtectedPaths() []string
	GetAuthOnlyPaths() []string
	GetSignInPath() string
	GetLandingPath() string
	GetRedirectQueryKey() string
}

// IdentityStore is the identity collaborator that owns email and credential.
type IdentityStore interface {
	Create(ctx context.Context, email, password string) (string, error)
	Delete(ctx context.Context, id string) error
	Verify(ctx context.Context, email, password string) (string, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
}

// ProfileStore is the profile collaborator that owns public account data.
type ProfileStore interface {
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	Insert(ctx context.Context, profile *Profile) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	LookupReferrerID(ctx context.Context, username string) (string, bool, error)
}

// PasswordHasher hashes and compares credentials
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Clock returns the current time, tests replace it.
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Printf("[DBG] SIGNUP %s %v\n", msg, args)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Printf("[INF] SIGNUP %s %v\n", msg, args)
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Printf("[WRN] SIGNUP %s %v\n", msg, args)
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Printf("[ERR] SIGNUP %s %v\n", msg, args)
}
