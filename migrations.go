package signup

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded migrations. dialect is a goose dialect name
// such as "sqlite3" or "postgres".
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unsupported migration dialect").
			WithMetadata(map[string]any{"dialect": dialect})
	}

	if err := goose.UpContext(ctx, db, MigrationsDir); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migrations")
	}

	return nil
}
