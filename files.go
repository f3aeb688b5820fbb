package signup

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsDir is the directory of the migration files inside GetMigrationsFS
const MigrationsDir = "data/sql/migrations"

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
