package auth

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir is the directory inside GetMigrationsFS holding the SQL files
const MigrationsDir = "data/sql/migrations"

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() fs.FS {
	return migrationsFS
}
