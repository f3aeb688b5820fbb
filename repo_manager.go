package signup

import (
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes the SQL backed stores
type RepositoryManager interface {
	repository.Validator
	Profiles() ProfileStore
	Identities() IdentityStore
}

type mngr struct {
	db         *bun.DB
	profiles   ProfileStore
	identities IdentityStore
}

// NewRepositoryManager wires both stores over db
func NewRepositoryManager(db *bun.DB, hasher PasswordHasher) RepositoryManager {
	return &mngr{
		db:         db,
		profiles:   NewProfilesRepository(db),
		identities: NewIdentitiesRepository(db, hasher),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.identities == nil {
		return errors.New("repository identities should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) Profiles() ProfileStore {
	return m.profiles
}

func (m mngr) Identities() IdentityStore {
	return m.identities
}
