package store

import (
	"embed"

	"github.com/thermosentry/thermosentry/internal/infrastructure/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
}
