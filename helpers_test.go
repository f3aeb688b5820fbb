package signup_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-signup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// fastHasher keeps repository tests quick, bcrypt is covered separately
type fastHasher struct{}

func (fastHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", signup.ErrNoEmptyString
	}
	return "plain:" + password, nil
}

func (fastHasher) ComparePasswordAndHash(password, hash string) error {
	if hash != "plain:"+password {
		return signup.ErrMismatchedHashAndPassword
	}
	return nil
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "signup.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	sqldb, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	require.NoError(t, signup.Migrate(context.Background(), sqldb, "sqlite3"))

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func setupManager(t *testing.T) (signup.RepositoryManager, *bun.DB) {
	t.Helper()
	db := setupDB(t)
	repo := signup.NewRepositoryManager(db, fastHasher{})
	require.NoError(t, repo.Validate())
	return repo, db
}

// seedProfile stores an identity and profile pair and returns the profile
func seedProfile(t *testing.T, repo signup.RepositoryManager, username string, role signup.Role, referrerID *string) *signup.Profile {
	t.Helper()
	ctx := context.Background()

	id, err := repo.Identities().Create(ctx, username+"@example.com", "Str0ng!Passw0rd")
	require.NoError(t, err)

	profile := &signup.Profile{
		ID:          id,
		Username:    username,
		Email:       username + "@example.com",
		FirstName:   "Seed",
		LastName:    "User",
		DateOfBirth: time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC),
		ReferrerID:  referrerID,
		Role:        role,
	}
	require.NoError(t, repo.Profiles().Insert(ctx, profile))
	return profile
}

func strPtr(s string) *string {
	return &s
}

func newID() string {
	return uuid.NewString()
}
