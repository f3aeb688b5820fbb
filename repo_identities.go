package signup

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type identities struct {
	db     *bun.DB
	hasher PasswordHasher
}

// NewIdentitiesRepository creates the SQL backed IdentityStore
func NewIdentitiesRepository(db *bun.DB, hasher PasswordHasher) IdentityStore {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &identities{db: db, hasher: hasher}
}

// Create stores a confirmed identity and returns its id
func (r *identities) Create(ctx context.Context, email, password string) (string, error) {
	hash, err := r.hasher.HashPassword(password)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	record := &Identity{
		ID:            uuid.NewString(),
		Email:         normalizeEmail(email),
		PasswordHash:  hash,
		EmailVerified: true,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return "", classifyConstraint(err)
	}

	return record.ID, nil
}

// Delete removes the identity, a missing identity is reported as not found
func (r *identities) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*Identity)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}
	return nil
}

// Verify returns the identity id when password matches
func (r *identities) Verify(ctx context.Context, email, password string) (string, error) {
	identity, err := r.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := r.hasher.ComparePasswordAndHash(password, identity.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	return identity.ID, nil
}

func (r *identities) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	record := &Identity{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}
	return record, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsNotFound reports whether err is a missing record
func IsNotFound(err error) bool {
	return repository.IsRecordNotFound(err)
}
