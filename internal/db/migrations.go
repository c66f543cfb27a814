package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: speed up attribute search and field-delete cleanup, both of
	// which filter on the key alone.
	`CREATE INDEX IF NOT EXISTS idx_media_attributes_key ON media_attributes(attribute_key)`,
	// Migration 2: list views sort on created_at.
	`CREATE INDEX IF NOT EXISTS idx_media_items_created ON media_items(created_at)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
