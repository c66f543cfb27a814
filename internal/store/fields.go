package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/vinylbank/internal/model"
)

const fieldColumns = `id, type_id, field_key, field_label, field_type, required, options, display_order, created_at`

func scanFields(rows *sql.Rows) ([]model.Field, error) {
	fields := []model.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	return fields, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanField(row rowScanner) (*model.Field, error) {
	var f model.Field
	var required int
	var options sql.NullString
	if err := row.Scan(&f.ID, &f.TypeID, &f.Key, &f.Label, &f.Type, &required, &options, &f.DisplayOrder, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Required = required != 0
	f.Options = options.String
	return &f, nil
}

func listAllFields(ctx context.Context, db *sql.DB) ([]model.Field, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM media_type_fields ORDER BY type_id, display_order, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	defer rows.Close()

	fields, err := scanFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning field: %w", err)
	}
	return fields, nil
}

// ListFields returns the fields of a media type ordered by display order.
func ListFields(ctx context.Context, db *sql.DB, typeID int64) ([]model.Field, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM media_type_fields WHERE type_id = ? ORDER BY display_order, id`,
		typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	defer rows.Close()

	fields, err := scanFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning field: %w", err)
	}
	return fields, nil
}

// FieldKeySet returns the set of field keys configured for a media type.
func FieldKeySet(ctx context.Context, db *sql.DB, typeID int64) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT field_key FROM media_type_fields WHERE type_id = ?`, typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing field keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning field key: %w", err)
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// GetField returns a field by ID.
func GetField(ctx context.Context, db *sql.DB, id int64) (*model.Field, error) {
	f, err := scanField(db.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM media_type_fields WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting field: %w", err)
	}
	return f, nil
}

// AddField appends a field to a media type. Without an explicit key, the key
// is slugified from the label; either way it is made unique within the type
// by suffixing _1, _2, ...
func AddField(ctx context.Context, db *sql.DB, typeID int64, in model.FieldInput) (*model.Field, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	if _, err := GetType(ctx, db, typeID); err != nil {
		return nil, err
	}

	existing, err := ListFields(ctx, db, typeID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(existing))
	for _, f := range existing {
		keys = append(keys, f.Key)
	}

	base := strings.TrimSpace(in.Key)
	if base == "" {
		base = model.SlugifyFieldKey(in.Label)
	}

	f := model.Field{
		TypeID:       typeID,
		Key:          model.UniqueFieldKey(base, keys),
		Label:        in.Label,
		Type:         in.Type,
		Required:     in.Required,
		DisplayOrder: len(existing),
	}
	if f.Type == "" {
		f.Type = model.FieldText
	}
	if in.Options != nil {
		f.Options = *in.Options
	}
	if in.DisplayOrder != nil {
		f.DisplayOrder = *in.DisplayOrder
	}

	id, err := InsertField(ctx, db, f)
	if err != nil {
		return nil, err
	}
	return GetField(ctx, db, id)
}

// InsertField stores a field definition as given.
func InsertField(ctx context.Context, db *sql.DB, f model.Field) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO media_type_fields (type_id, field_key, field_label, field_type, required, options, display_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.TypeID, f.Key, f.Label, f.Type, boolInt(f.Required), nullString(f.Options), f.DisplayOrder,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("creating field %q: %w", f.Key, model.ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("creating field: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting field id: %w", err)
	}
	return id, nil
}

// UpdateField applies a partial update to a field. The key never changes.
func UpdateField(ctx context.Context, db *sql.DB, id int64, patch model.FieldPatch) (*model.Field, error) {
	if patch.Label != nil {
		label := strings.TrimSpace(*patch.Label)
		patch.Label = &label
	}
	if err := model.Validate(patch); err != nil {
		return nil, err
	}
	if _, err := GetField(ctx, db, id); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	if patch.Label != nil {
		sets = append(sets, "field_label = ?")
		args = append(args, *patch.Label)
	}
	if patch.Type != nil {
		sets = append(sets, "field_type = ?")
		args = append(args, *patch.Type)
	}
	if patch.Required != nil {
		sets = append(sets, "required = ?")
		args = append(args, boolInt(*patch.Required))
	}
	if patch.Options != nil {
		sets = append(sets, "options = ?")
		args = append(args, nullString(*patch.Options))
	}
	if patch.DisplayOrder != nil {
		sets = append(sets, "display_order = ?")
		args = append(args, *patch.DisplayOrder)
	}

	if len(sets) > 0 {
		args = append(args, id)
		_, err := db.ExecContext(ctx,
			`UPDATE media_type_fields SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating field: %w", err)
		}
	}

	return GetField(ctx, db, id)
}

// DeleteField removes a field and every attribute stored under its key on
// items of the field's type. Deleting an unknown ID is a no-op.
func DeleteField(ctx context.Context, db *sql.DB, id int64) error {
	f, err := GetField(ctx, db, id)
	if err == model.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`DELETE FROM media_attributes
		 WHERE attribute_key = ? AND media_id IN (SELECT id FROM media_items WHERE type_id = ?)`,
		f.Key, f.TypeID,
	)
	if err != nil {
		return fmt.Errorf("deleting attributes of field %q: %w", f.Key, err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM media_type_fields WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting field: %w", err)
	}
	return nil
}

// DeleteTypeFields removes every field of a media type, leaving attributes alone.
func DeleteTypeFields(ctx context.Context, db *sql.DB, typeID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM media_type_fields WHERE type_id = ?`, typeID); err != nil {
		return fmt.Errorf("deleting fields of media type %d: %w", typeID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
