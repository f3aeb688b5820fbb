package signup_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesRepository_GetByUsername(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()

	bob := seedProfile(t, repo, "bob99", signup.RoleAdmin, nil)

	t.Run("case insensitive match", func(t *testing.T) {
		found, err := repo.Profiles().GetByUsername(ctx, "BOB99")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, found.ID)
		assert.Equal(t, signup.RoleAdmin, found.Role)
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := repo.Profiles().GetByUsername(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, signup.IsNotFound(err))
	})

	t.Run("by id", func(t *testing.T) {
		found, err := repo.Profiles().GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob99", found.Username)

		_, err = repo.Profiles().GetByID(ctx, newID())
		assert.True(t, signup.IsNotFound(err))
	})
}

func TestProfilesRepository_UsernameAvailable(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()
	seedProfile(t, repo, "bob99", signup.RoleAdmin, nil)

	available, err := repo.Profiles().UsernameAvailable(ctx, "Bob99")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = repo.Profiles().UsernameAvailable(ctx, "al_ice")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestProfilesRepository_LookupReferrerID(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()
	bob := seedProfile(t, repo, "bob99", signup.RoleAdmin, nil)

	id, found, err := repo.Profiles().LookupReferrerID(ctx, "bob99")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bob.ID, id)

	id, found, err = repo.Profiles().LookupReferrerID(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestProfilesRepository_InsertConstraints(t *testing.T) {
	repo, _ := setupManager(t)
	ctx := context.Background()
	bob := seedProfile(t, repo, "bob99", signup.RoleAdmin, nil)

	base := func(username string) *signup.Profile {
		return &signup.Profile{
			ID:          newID(),
			Username:    username,
			Email:       username + "@example.com",
			FirstName:   "Al",
			LastName:    "Ice",
			DateOfBirth: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
			ReferrerID:  strPtr(bob.ID),
		}
	}

	t.Run("defaults role and normalizes email", func(t *testing.T) {
		p := base("al_ice")
		p.Email = "  AL@Example.COM "
		require.NoError(t, repo.Profiles().Insert(ctx, p))

		stored, err := repo.Profiles().GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.RoleBasicMember, stored.Role)
		assert.Equal(t, "al@example.com", stored.Email)
		require.NotNil(t, stored.ReferrerID)
		assert.Equal(t, bob.ID, *stored.ReferrerID)
		assert.Nil(t, stored.UserImage)
	})

	t.Run("duplicate username is a unique violation", func(t *testing.T) {
		err := repo.Profiles().Insert(ctx, base("AL_ICE"))
		require.Error(t, err)
		assert.Equal(t, signup.ConstraintUnique, signup.ConstraintOf(err))
	})

	t.Run("member without referrer is a check violation", func(t *testing.T) {
		p := base("carol")
		p.ReferrerID = nil
		err := repo.Profiles().Insert(ctx, p)
		require.Error(t, err)
		assert.Equal(t, signup.ConstraintCheck, signup.ConstraintOf(err))
	})

	t.Run("unknown referrer is a foreign key violation", func(t *testing.T) {
		p := base("dave")
		p.ReferrerID = strPtr(newID())
		err := repo.Profiles().Insert(ctx, p)
		require.Error(t, err)
		assert.Equal(t, signup.ConstraintForeignKey, signup.ConstraintOf(err))
	})
}
