package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates the schema if it does not exist. Statements are idempotent
// so Migrate runs unconditionally on startup.
func (s *Store) Migrate(ctx context.Context) error {
	if s.driver == driverPostgres {
		if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	blob := "BYTEA"
	autoID := "BIGSERIAL PRIMARY KEY"
	if s.driver == driverMySQL {
		blob = "LONGBLOB"
		autoID = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS staff (
				id                VARCHAR(16) PRIMARY KEY,
				full_name         VARCHAR(255) NOT NULL,
				assigned_unit     VARCHAR(64) NOT NULL,
				registered_at     TIMESTAMP NOT NULL,
				primary_photo     %s NOT NULL,
				recognition_token VARCHAR(255) NOT NULL DEFAULT '',
				feature_vector    %s
			)
		`, blob, vectorColumn(s.driver)),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS staff_images (
				staff_id   VARCHAR(16) NOT NULL,
				angle      VARCHAR(16) NOT NULL,
				photo      %s NOT NULL,
				created_at TIMESTAMP NOT NULL,
				PRIMARY KEY (staff_id, angle)
			)
		`, blob),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS checkins (
				id            %s,
				staff_id      VARCHAR(16) NOT NULL,
				staff_name    VARCHAR(255) NOT NULL,
				assigned_unit VARCHAR(64) NOT NULL,
				occurred_at   TIMESTAMP NOT NULL,
				confidence    DOUBLE PRECISION NOT NULL
			)
		`, autoID),
		`
			CREATE TABLE IF NOT EXISTS settings (
				setting_key   VARCHAR(128) PRIMARY KEY,
				setting_value TEXT NOT NULL
			)
		`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS staff_registered_at_idx ON staff (registered_at)",
		"CREATE INDEX IF NOT EXISTS staff_token_idx ON staff (recognition_token)",
		"CREATE INDEX IF NOT EXISTS checkins_occurred_at_idx ON checkins (occurred_at)",
	}
	if s.driver == driverMySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; duplicate-index errors on
		// re-run are harmless and ignored.
		for _, stmt := range indexes {
			s.db.ExecContext(ctx, stripIfNotExists(stmt))
		}
		return nil
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func stripIfNotExists(stmt string) string {
	return strings.Replace(stmt, "IF NOT EXISTS ", "", 1)
}
