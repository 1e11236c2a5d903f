package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campiestivi/campi/internal/migrate"
)

// RunMigrations brings the users, admins, camps, children and enrollments
// schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("campi schema: %w", err)
	}
	return nil
}
