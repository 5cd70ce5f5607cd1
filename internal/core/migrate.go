// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in migrationsFS.
func Migrate(ctx context.Context, db *sqlx.DB, migrationsFS fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, migrationsFS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		if res.Error != nil {
			return fmt.Errorf("migration %s: %w", res.Source.Path, res.Error)
		}
	}

	return nil
}
