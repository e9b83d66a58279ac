// Package migrations embeds SQL migration files into the binary.
//
// The fixture store can be migrated without the SQL files present on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/lightmount-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS)
}
