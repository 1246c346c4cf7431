package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// idColumn returns the auto-increment primary key DDL for the given driver.
// Everything else in the schema sticks to types all three engines accept.
func idColumn(driver string) string {
	switch driver {
	case "pgx":
		return "id BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "id BIGINT PRIMARY KEY AUTO_INCREMENT"
	default:
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// migrate creates the schema if it does not exist. Statements are idempotent
// so the server can run them on every start.
//
// The admins table carries a singleton column that is forced to 1 and
// declared UNIQUE. A second insert violates the constraint no matter how the
// two requests interleave, which is what keeps the single-admin rule safe
// under concurrency.
func migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS admins (
			%s,
			singleton INTEGER NOT NULL DEFAULT 1 UNIQUE CHECK (singleton = 1),
			username VARCHAR(190) NOT NULL UNIQUE,
			password_hash VARCHAR(100) NOT NULL,
			email VARCHAR(190) NOT NULL DEFAULT '',
			role VARCHAR(32) NOT NULL DEFAULT 'admin',
			last_login_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, idColumn(driver)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS projects (
			%s,
			public_id VARCHAR(36) NOT NULL UNIQUE,
			title VARCHAR(190) NOT NULL,
			slug VARCHAR(190) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL,
			image_url VARCHAR(500) NOT NULL DEFAULT '',
			live_url VARCHAR(500) NOT NULL DEFAULT '',
			featured BOOLEAN NOT NULL DEFAULT FALSE,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, idColumn(driver)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS contact_messages (
			%s,
			name VARCHAR(190) NOT NULL,
			email VARCHAR(190) NOT NULL,
			company VARCHAR(190) NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, idColumn(driver)),

		`CREATE TABLE IF NOT EXISTS page_meta (
			page VARCHAR(100) PRIMARY KEY,
			title VARCHAR(190) NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			keywords TEXT NOT NULL,
			og_image VARCHAR(500) NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			name VARCHAR(190) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// MySQL has no IF NOT EXISTS for indexes, so duplicate-name errors from
	// reruns are tolerated here.
	indexes := []string{
		`CREATE INDEX idx_projects_published ON projects (published, sort_order)`,
		`CREATE INDEX idx_contact_messages_read ON contact_messages (is_read, created_at)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil && !isDuplicateObject(err) {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
