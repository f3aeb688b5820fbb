package signup

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type profiles struct {
	db *bun.DB
}

// NewProfilesRepository creates the bun backed profile repository
func NewProfilesRepository(db *bun.DB) ProfileStore {
	return &profiles{db: db}
}

func (r *profiles) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	record := &Profile{}
	err := r.db.NewSelect().
		Model(record).
		Where("lower(?TableAlias.username) = lower(?)", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"username": username})
		}
		return nil, err
	}
	return record, nil
}

func (r *profiles) GetByID(ctx context.Context, id string) (*Profile, error) {
	record := &Profile{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id})
		}
		return nil, err
	}
	return record, nil
}

func (r *profiles) Insert(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return errors.New("profile is required")
	}
	prepareProfileDefaults(profile)

	if _, err := r.db.NewInsert().Model(profile).Exec(ctx); err != nil {
		return classifyConstraint(err)
	}
	return nil
}

// UsernameAvailable is the username_available remote procedure
func (r *profiles) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Profile)(nil)).
		Where("lower(?TableAlias.username) = lower(?)", strings.TrimSpace(username)).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// LookupReferrerID is the lookup_referrer_id remote procedure
func (r *profiles) LookupReferrerID(ctx context.Context, username string) (string, bool, error) {
	var id string
	err := r.db.NewSelect().
		Model((*Profile)(nil)).
		Column("id").
		Where("lower(?TableAlias.username) = lower(?)", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func prepareProfileDefaults(record *Profile) {
	record.Username = strings.TrimSpace(record.Username)
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	if record.Role == "" {
		record.Role = RoleBasicMember
	}
}
