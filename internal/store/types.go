package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/vinylbank/internal/model"
)

// ListTypes returns all media types ordered by name, each with its fields
// ordered by display order.
func ListTypes(ctx context.Context, db *sql.DB) ([]model.TypeConfig, error) {
	types, err := ListTypesBrief(ctx, db)
	if err != nil {
		return nil, err
	}

	fields, err := listAllFields(ctx, db)
	if err != nil {
		return nil, err
	}
	byType := make(map[int64][]model.Field)
	for _, f := range fields {
		byType[f.TypeID] = append(byType[f.TypeID], f)
	}

	configs := make([]model.TypeConfig, 0, len(types))
	for _, t := range types {
		fs := byType[t.ID]
		if fs == nil {
			fs = []model.Field{}
		}
		configs = append(configs, model.TypeConfig{MediaType: t, Fields: fs})
	}
	return configs, nil
}

// ListTypesBrief returns all media types without their fields, ordered by name.
func ListTypesBrief(ctx context.Context, db *sql.DB) ([]model.MediaType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM media_types ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing media types: %w", err)
	}
	defer rows.Close()

	types := []model.MediaType{}
	for rows.Next() {
		var t model.MediaType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning media type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GetType returns a media type by ID.
func GetType(ctx context.Context, db *sql.DB, id int64) (*model.MediaType, error) {
	t := &model.MediaType{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM media_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting media type: %w", err)
	}
	return t, nil
}

// GetTypeByName returns a media type by its unique name.
func GetTypeByName(ctx context.Context, db *sql.DB, name string) (*model.MediaType, error) {
	t := &model.MediaType{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM media_types WHERE name = ?`, name,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting media type by name: %w", err)
	}
	return t, nil
}

// CreateType creates a new media type.
func CreateType(ctx context.Context, db *sql.DB, name string) (*model.MediaType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.Invalid("name", "is required")
	}

	result, err := db.ExecContext(ctx, `INSERT INTO media_types (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating media type %q: %w", name, model.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating media type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting media type id: %w", err)
	}

	return GetType(ctx, db, id)
}

// UpdateType renames a media type. Renaming an unknown ID is not an error.
func UpdateType(ctx context.Context, db *sql.DB, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return model.Invalid("name", "is required")
	}

	_, err := db.ExecContext(ctx, `UPDATE media_types SET name = ? WHERE id = ?`, name, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("renaming media type to %q: %w", name, model.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating media type: %w", err)
	}
	return nil
}

// DeleteType deletes a media type together with its items, their attributes
// and its fields, in that order. Each statement commits on its own.
func DeleteType(ctx context.Context, db *sql.DB, id int64) error {
	steps := []struct {
		what  string
		query string
	}{
		{"attributes", `DELETE FROM media_attributes WHERE media_id IN (SELECT id FROM media_items WHERE type_id = ?)`},
		{"items", `DELETE FROM media_items WHERE type_id = ?`},
		{"fields", `DELETE FROM media_type_fields WHERE type_id = ?`},
		{"type row", `DELETE FROM media_types WHERE id = ?`},
	}
	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.query, id); err != nil {
			return fmt.Errorf("deleting media type %d (%s): %w", id, s.what, err)
		}
	}
	return nil
}
