package signup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionEstablisher_Login(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()
	bob := seedProfile(t, repo, "bob99", signup.RoleAdmin, nil)

	sink := &capturingSink{}
	metrics := newCountingRecorder()
	establisher := signup.NewSessionEstablisher(repo.Identities(), repo.Profiles(), newTestTokenService(),
		signup.WithLoginActivitySink(sink),
		signup.WithLoginMetrics(metrics),
		signup.WithLoginLogger(&captureLogger{}),
	)

	t.Run("by email", func(t *testing.T) {
		session, err := establisher.Login(ctx, "BOB99@example.com", "Str0ng!Passw0rd")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, session.AccountID)
		assert.Equal(t, "bob99", session.Username)
		assert.Equal(t, signup.RoleAdmin, session.Role)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("by username", func(t *testing.T) {
		session, err := establisher.Login(ctx, "Bob99", "Str0ng!Passw0rd")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, session.AccountID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := establisher.Login(ctx, "bob99", "nope")
		assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
		assert.Equal(t, signup.KindInvalidCredentials, signup.KindOf(err))
	})

	t.Run("unknown account looks the same", func(t *testing.T) {
		_, err := establisher.Login(ctx, "ghost", "Str0ng!Passw0rd")
		assert.ErrorIs(t, err, signup.ErrInvalidCredentials)

		_, err = establisher.Login(ctx, "ghost@example.com", "Str0ng!Passw0rd")
		assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := establisher.Login(ctx, "  ", "")
		assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
	})

	assert.Equal(t, 2, metrics.logins["success"])
	assert.Equal(t, 4, metrics.logins["invalid"])
	assert.Contains(t, sink.types(), signup.ActivityEventLoginSuccess)
	assert.Contains(t, sink.types(), signup.ActivityEventLoginFailure)
}

func TestSessionEstablisher_IdentityWithoutProfile(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()

	_, err := repo.Identities().Create(ctx, "orphan@x.com", "Str0ng!Passw0rd")
	require.NoError(t, err)

	establisher := signup.NewSessionEstablisher(repo.Identities(), repo.Profiles(), newTestTokenService())

	_, err = establisher.Login(ctx, "orphan@x.com", "Str0ng!Passw0rd")
	assert.ErrorIs(t, err, signup.ErrInvalidCredentials)
}

func TestSessionEstablisher_TransportFailure(t *testing.T) {
	identities := new(MockIdentityStore)
	profiles := new(MockProfileStore)
	metrics := newCountingRecorder()

	profiles.On("GetByUsername", mock.Anything, "al_ice").Return(&signup.Profile{ID: "id-1", Email: "a@x.com"}, nil)
	identities.On("Verify", mock.Anything, "a@x.com", "Str0ng!Passw0rd").Return("", errors.New("connection reset"))

	establisher := signup.NewSessionEstablisher(identities, profiles, newTestTokenService(),
		signup.WithLoginMetrics(metrics),
		signup.WithLoginLogger(&captureLogger{}),
	)

	_, err := establisher.Login(context.Background(), "al_ice", "Str0ng!Passw0rd")
	require.Error(t, err)
	assert.Equal(t, signup.KindTransportFailure, signup.KindOf(err))
	assert.Equal(t, 1, metrics.logins["error"])
}
