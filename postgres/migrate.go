package postgres

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

// Migrate applies the SQL migrations in dir, or rolls them all back when down
// is set, and returns how many ran.
func Migrate(db *gorm.DB, dir string, down bool) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("postgres: get sql db: %w", err)
	}

	direction := migrate.Up
	if down {
		direction = migrate.Down
	}
	n, err := migrate.Exec(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: dir}, direction)
	if err != nil {
		return n, fmt.Errorf("postgres: migrate %s: %w", dir, err)
	}
	return n, nil
}
