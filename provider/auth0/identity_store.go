package auth0

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/auth0/go-auth0"
	"github.com/auth0/go-auth0/authentication"
	"github.com/auth0/go-auth0/authentication/oauth"
	"github.com/auth0/go-auth0/management"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-signup"
)

// Users is the slice of the management users API the store needs,
// *management.UserManager satisfies it.
type Users interface {
	Create(ctx context.Context, u *management.User, opts ...management.RequestOption) error
	Delete(ctx context.Context, id string, opts ...management.RequestOption) error
	ListByEmail(ctx context.Context, email string, opts ...management.RequestOption) ([]*management.User, error)
}

// PasswordGrant checks a credential pair against the tenant.
type PasswordGrant interface {
	LoginWithPassword(ctx context.Context, email, password string) error
}

// IdentityStore implements signup.IdentityStore backed by an Auth0
// database connection.
type IdentityStore struct {
	users      Users
	grant      PasswordGrant
	connection string
	logger     signup.Logger
}

var _ signup.IdentityStore = (*IdentityStore)(nil)

// Option configures the identity store
type Option func(*IdentityStore)

// WithLogger sets the logger
func WithLogger(logger signup.Logger) Option {
	return func(s *IdentityStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUsers replaces the management users client
func WithUsers(users Users) Option {
	return func(s *IdentityStore) {
		s.users = users
	}
}

// WithPasswordGrant replaces the password grant client
func WithPasswordGrant(grant PasswordGrant) Option {
	return func(s *IdentityStore) {
		s.grant = grant
	}
}

// NewIdentityStore creates an Auth0 backed identity store. Clients are
// only dialed for collaborators not supplied through options.
func NewIdentityStore(ctx context.Context, cfg Config, opts ...Option) (*IdentityStore, error) {
	store := &IdentityStore{
		connection: cfg.connection(),
		logger:     nopLogger{},
	}

	for _, opt := range opts {
		opt(store)
	}

	if store.users != nil && store.grant != nil {
		return store, nil
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if store.users == nil {
		mgmt, err := management.New(
			cfg.domain(),
			management.WithClientCredentials(ctx, cfg.ClientID, cfg.ClientSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("auth0: failed to create management client: %w", err)
		}
		store.users = mgmt.User
	}

	if store.grant == nil {
		client, err := authentication.New(
			ctx,
			cfg.domain(),
			authentication.WithClientID(cfg.ClientID),
			authentication.WithClientSecret(cfg.ClientSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("auth0: failed to create authentication client: %w", err)
		}
		store.grant = &passwordRealmGrant{client: client, realm: store.connection}
	}

	return store, nil
}

// Create registers a confirmed credential pair in the database connection
// and returns the Auth0 user id.
func (s *IdentityStore) Create(ctx context.Context, email, password string) (string, error) {
	user := &management.User{
		Connection:    sdk.String(s.connection),
		Email:         sdk.String(normalizeEmail(email)),
		Password:      sdk.String(password),
		EmailVerified: sdk.Bool(true),
		VerifyEmail:   sdk.Bool(false),
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Debug("auth0 create user failed", "status", statusOf(err), "error", err)
		return "", fmt.Errorf("auth0: create user: %w", err)
	}

	id := user.GetID()
	if id == "" {
		return "", fmt.Errorf("auth0: create user returned no id")
	}

	return id, nil
}

// Delete removes the identity. A missing user is reported as a record not
// found error so compensation can treat it as done.
func (s *IdentityStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"identity_id": id})
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return repository.NewRecordNotFound().
				WithMetadata(map[string]any{"identity_id": id})
		}
		return fmt.Errorf("auth0: delete user: %w", err)
	}

	return nil
}

// Verify runs the password grant and resolves the matching user id.
func (s *IdentityStore) Verify(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	if err := s.grant.LoginWithPassword(ctx, email, password); err != nil {
		switch statusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return "", signup.ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth0: password grant: %w", err)
	}

	identity, err := s.FindByEmail(ctx, email)
	if err != nil {
		if signup.IsNotFound(err) {
			return "", signup.ErrInvalidCredentials
		}
		return "", err
	}

	return identity.ID, nil
}

// FindByEmail looks the user up in the configured connection.
func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*signup.Identity, error) {
	email = normalizeEmail(email)

	users, err := s.users.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("auth0: list users by email: %w", err)
	}

	for _, u := range users {
		if !s.inConnection(u) {
			continue
		}
		return &signup.Identity{
			ID:            u.GetID(),
			Email:         strings.ToLower(u.GetEmail()),
			EmailVerified: u.GetEmailVerified(),
			CreatedAt:     u.CreatedAt,
		}, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{"email": email})
}

func (s *IdentityStore) inConnection(u *management.User) bool {
	if u == nil {
		return false
	}
	if len(u.Identities) == 0 {
		return u.GetConnection() == "" || u.GetConnection() == s.connection
	}
	for _, identity := range u.Identities {
		if identity.GetConnection() == s.connection {
			return true
		}
	}
	return false
}

type passwordRealmGrant struct {
	client *authentication.Authentication
	realm  string
}

func (g *passwordRealmGrant) LoginWithPassword(ctx context.Context, email, password string) error {
	_, err := g.client.OAuth.LoginWithPassword(ctx, oauth.LoginWithPasswordRequest{
		Username: email,
		Password: password,
		Realm:    g.realm,
	}, oauth.IDTokenValidationOptions{})
	return err
}

// statusOf extracts the HTTP status from SDK errors, 0 when unknown.
func statusOf(err error) int {
	var statusErr interface{ Status() int }
	if goerrors.As(err, &statusErr) {
		return statusErr.Status()
	}
	return 0
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
