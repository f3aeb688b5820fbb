package auth0

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdk "github.com/auth0/go-auth0"
	"github.com/auth0/go-auth0/management"
	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusError struct {
	status int
}

func (e statusError) Error() string { return http.StatusText(e.status) }
func (e statusError) Status() int   { return e.status }

type fakeUsers struct {
	created   []*management.User
	deleted   []string
	byEmail   map[string][]*management.User
	createErr error
	deleteErr error
	listErr   error
}

func (f *fakeUsers) Create(_ context.Context, u *management.User, _ ...management.RequestOption) error {
	if f.createErr != nil {
		return f.createErr
	}
	u.ID = sdk.String("auth0|" + u.GetEmail())
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string, _ ...management.RequestOption) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) ListByEmail(_ context.Context, email string, _ ...management.RequestOption) ([]*management.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byEmail[email], nil
}

type fakeGrant struct {
	err   error
	email string
}

func (f *fakeGrant) LoginWithPassword(_ context.Context, email, _ string) error {
	f.email = email
	return f.err
}

func newTestStore(t *testing.T, users *fakeUsers, grant *fakeGrant) *IdentityStore {
	t.Helper()
	store, err := NewIdentityStore(context.Background(), Config{}, WithUsers(users), WithPasswordGrant(grant))
	require.NoError(t, err)
	return store
}

func aliceUser(connection string) *management.User {
	return &management.User{
		ID:            sdk.String("auth0|alice"),
		Email:         sdk.String("a@x.com"),
		EmailVerified: sdk.Bool(true),
		Identities: []*management.UserIdentity{
			{Connection: sdk.String(connection)},
		},
	}
}

func TestNewIdentityStore_RequiresDomain(t *testing.T) {
	_, err := NewIdentityStore(context.Background(), Config{ClientID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain is required")
}

func TestConfig_Domain(t *testing.T) {
	cfg := DefaultConfig("https://acme.us.auth0.com/", "id", "secret")
	assert.Equal(t, "acme.us.auth0.com", cfg.domain())
	assert.Equal(t, DefaultConnection, cfg.connection())
}

func TestIdentityStore_Create(t *testing.T) {
	users := &fakeUsers{}
	store := newTestStore(t, users, &fakeGrant{})

	id, err := store.Create(context.Background(), " A@X.com ", "Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "auth0|a@x.com", id)

	require.Len(t, users.created, 1)
	created := users.created[0]
	assert.Equal(t, DefaultConnection, created.GetConnection())
	assert.Equal(t, "a@x.com", created.GetEmail())
	assert.Equal(t, "Str0ng!Passw0rd", created.GetPassword())
	assert.True(t, created.GetEmailVerified())
	assert.False(t, created.GetVerifyEmail(), "no verification mail for confirmed signups")
}

func TestIdentityStore_CreateConflict(t *testing.T) {
	store := newTestStore(t, &fakeUsers{createErr: statusError{http.StatusConflict}}, &fakeGrant{})

	_, err := store.Create(context.Background(), "a@x.com", "Str0ng!Passw0rd")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestIdentityStore_Delete(t *testing.T) {
	t.Run("removes the user", func(t *testing.T) {
		users := &fakeUsers{}
		store := newTestStore(t, users, &fakeGrant{})

		require.NoError(t, store.Delete(context.Background(), "auth0|alice"))
		assert.Equal(t, []string{"auth0|alice"}, users.deleted)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		store := newTestStore(t, &fakeUsers{deleteErr: statusError{http.StatusNotFound}}, &fakeGrant{})

		err := store.Delete(context.Background(), "auth0|ghost")
		assert.True(t, signup.IsNotFound(err))
	})

	t.Run("transport failure surfaces", func(t *testing.T) {
		store := newTestStore(t, &fakeUsers{deleteErr: errors.New("connection reset")}, &fakeGrant{})

		err := store.Delete(context.Background(), "auth0|alice")
		require.Error(t, err)
		assert.False(t, signup.IsNotFound(err))
	})
}

func TestIdentityStore_Verify(t *testing.T) {
	users := &fakeUsers{byEmail: map[string][]*management.User{
		"a@x.com": {aliceUser(DefaultConnection)},
	}}

	t.Run("valid credentials", func(t *testing.T) {
		grant := &fakeGrant{}
		store := newTestStore(t, users, grant)

		id, err := store.Verify(context.Background(), "A@x.com", "Str0ng!Passw0rd")
		require.NoError(t, err)
		assert.Equal(t, "auth0|alice", id)
		assert.Equal(t, "a@x.com", grant.email)
	})

	t.Run("rejected grant", func(t *testing.T) {
		store := newTestStore(t, users, &fakeGrant{err: statusError{http.StatusForbidden}})

		_, err := store.Verify(context.Background(), "a@x.com", "wrong")
		assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
	})

	t.Run("grant outage is not a credential failure", func(t *testing.T) {
		store := newTestStore(t, users, &fakeGrant{err: statusError{http.StatusServiceUnavailable}})

		_, err := store.Verify(context.Background(), "a@x.com", "Str0ng!Passw0rd")
		require.Error(t, err)
		assert.NotErrorIs(t, err, signup.ErrInvalidCredentials)
	})
}

func TestIdentityStore_FindByEmail(t *testing.T) {
	users := &fakeUsers{byEmail: map[string][]*management.User{
		"a@x.com":      {aliceUser(DefaultConnection)},
		"social@x.com": {aliceUser("google-oauth2")},
	}}
	store := newTestStore(t, users, &fakeGrant{})

	identity, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "auth0|alice", identity.ID)
	assert.True(t, identity.EmailVerified)

	_, err = store.FindByEmail(context.Background(), "social@x.com")
	assert.True(t, signup.IsNotFound(err), "users from other connections are ignored")

	_, err = store.FindByEmail(context.Background(), "nobody@x.com")
	assert.True(t, signup.IsNotFound(err))
}
