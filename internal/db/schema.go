package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Relations between the tables are kept
// by the application: there are no foreign keys, deletes cascade in store code.
const schema = `
CREATE TABLE IF NOT EXISTS media_types (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS media_type_fields (
    id            INTEGER PRIMARY KEY,
    type_id       INTEGER NOT NULL,
    field_key     TEXT NOT NULL,
    field_label   TEXT NOT NULL,
    field_type    TEXT NOT NULL DEFAULT 'text' CHECK (field_type IN (
                      'text', 'number', 'date', 'select', 'textarea', 'boolean',
                      'checkbox', 'radio', 'image', 'rating', 'keyvalue')),
    required      INTEGER NOT NULL DEFAULT 0,
    options       TEXT,
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_media_type_fields_type_key
    ON media_type_fields(type_id, field_key);

CREATE TABLE IF NOT EXISTS media_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    type_id       INTEGER NOT NULL,
    title         TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'borrowed', 'lost')),
    borrowed_by   TEXT,
    borrowed_date TEXT,
    notes         TEXT,
    cover_image   TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_items_type ON media_items(type_id);

CREATE TABLE IF NOT EXISTS media_attributes (
    id              INTEGER PRIMARY KEY,
    media_id        INTEGER NOT NULL,
    attribute_key   TEXT NOT NULL,
    attribute_value TEXT
);

CREATE INDEX IF NOT EXISTS idx_media_attributes_media ON media_attributes(media_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
