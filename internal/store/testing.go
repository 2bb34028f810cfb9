package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// OpenInMemory opens a migrated in-memory SQLite database.
// This is only intended for use in tests.
func OpenInMemory() (*DB, error) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)
	return initDB(db)
}
