package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aliyuchatgptt/falgates/internal/store"
)

// GetSetting returns the value for key, or "" when the key is unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, "SELECT setting_value FROM settings WHERE setting_key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts the value for key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	var query string
	if s.driver == driverPostgres {
		query = `
			INSERT INTO settings (setting_key, setting_value)
			VALUES ($1, $2)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
		`
	} else {
		query = `
			INSERT INTO settings (setting_key, setting_value)
			VALUES ($1, $2)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)
		`
	}
	if _, err := s.exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

var _ store.SettingsStore = (*Store)(nil)
