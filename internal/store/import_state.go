package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Import state keys
const (
	StateLastImport       = "last_import"
	StateLastImportSource = "last_import_source"
)

// GetImportState retrieves an import state value by key.
// Returns empty string if key doesn't exist
func (db *DB) GetImportState(ctx context.Context, key string) (string, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM import_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading import state %s: %w", key, err)
	}
	return value, nil
}

// SetImportState sets an import state value
func (db *DB) SetImportState(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO import_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing import state %s: %w", key, err)
	}
	return nil
}
