package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/vinylbank/internal/model"
)

const itemSelect = `SELECT m.id, m.type_id, t.name, m.title, m.status, m.borrowed_by, m.borrowed_date,
        m.notes, m.cover_image, m.created_at, m.updated_at
 FROM media_items m
 JOIN media_types t ON t.id = m.type_id`

const itemOrder = ` ORDER BY m.created_at DESC, m.id DESC`

// ItemRecord is a fully resolved item row, as written by imports.
type ItemRecord struct {
	TypeID       int64
	Title        string
	Status       string
	BorrowedBy   string
	BorrowedDate string
	Notes        string
	CoverImage   string
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var typeName, borrowedBy, borrowedDate, notes, coverImage sql.NullString
	err := row.Scan(&item.ID, &item.TypeID, &typeName, &item.Title, &item.Status,
		&borrowedBy, &borrowedDate, &notes, &coverImage, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.TypeName = typeName.String
	item.BorrowedBy = borrowedBy.String
	item.BorrowedDate = borrowedDate.String
	item.Notes = notes.String
	item.CoverImage = coverImage.String
	return item, nil
}

// queryItems runs an item query, closes the result set and then attaches
// attributes to every returned item.
func queryItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	if err := attachAttributes(ctx, db, items); err != nil {
		return nil, err
	}
	return items, nil
}

func attachAttributes(ctx context.Context, db *sql.DB, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	attrs, err := loadAttributes(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Attributes = attrs[items[i].ID]
	}
	return nil
}

// filterClause returns the WHERE conditions for f, joined with AND, and
// their arguments. It returns an empty string when f matches everything.
func filterClause(f model.ItemFilter) (string, []any) {
	var conds []string
	var args []any
	if f.TypeID != nil {
		conds = append(conds, "m.type_id = ?")
		args = append(args, *f.TypeID)
	}
	if f.Status != "" {
		conds = append(conds, "m.status = ?")
		args = append(args, f.Status)
	}
	return strings.Join(conds, " AND "), args
}

// ListItems returns items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter model.ItemFilter) ([]model.Item, error) {
	query := itemSelect
	where, args := filterClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	return queryItems(ctx, db, query+itemOrder, args...)
}

// ListAllItems returns every item ordered by ID, as exported.
func ListAllItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	return queryItems(ctx, db, itemSelect+` ORDER BY m.id`)
}

// GetItem returns an item by ID with its type name and attributes.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	item.Attributes, err = GetAttributes(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// checkItemType returns a validation error when the type does not exist.
func checkItemType(ctx context.Context, db *sql.DB, typeID int64) error {
	_, err := GetType(ctx, db, typeID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Invalid("type_id", "does not refer to an existing media type")
	}
	return err
}

// CreateItem validates and stores a new item together with its attributes.
// Attribute keys are stored as given.
func CreateItem(ctx context.Context, db *sql.DB, in model.ItemInput) (*model.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	date, err := model.NormalizeDate(in.BorrowedDate)
	if err != nil {
		return nil, err
	}
	if err := checkItemType(ctx, db, in.TypeID); err != nil {
		return nil, err
	}

	rec := ItemRecord{
		TypeID:       in.TypeID,
		Title:        in.Title,
		Status:       in.Status,
		BorrowedBy:   in.BorrowedBy,
		BorrowedDate: date,
		Notes:        in.Notes,
	}
	if in.CoverImage != nil {
		rec.CoverImage = *in.CoverImage
	}

	id, err := InsertItem(ctx, db, rec)
	if err != nil {
		return nil, err
	}
	if err := InsertAttributes(ctx, db, id, in.Attributes, nil); err != nil {
		return nil, err
	}
	return GetItem(ctx, db, id)
}

// InsertItem writes an item row without validation. An empty status is
// stored as available.
func InsertItem(ctx context.Context, db *sql.DB, rec ItemRecord) (int64, error) {
	if rec.Status == "" {
		rec.Status = model.StatusAvailable
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO media_items (type_id, title, status, borrowed_by, borrowed_date, notes, cover_image)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.TypeID, rec.Title, rec.Status, nullString(rec.BorrowedBy),
		nullString(rec.BorrowedDate), nullString(rec.Notes), nullString(rec.CoverImage),
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// UpdateItem replaces an item's metadata. A zero TypeID or empty Title keeps
// the current value, an empty Status resets to available and a nil
// CoverImage leaves the cover untouched. When the type changes, attributes
// are replaced by the given ones restricted to the new type's fields; when
// it does not, given attributes replace the stored ones verbatim.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, in model.ItemInput) (*model.Item, error) {
	current, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.TypeID == 0 {
		in.TypeID = current.TypeID
	}
	if in.Title == "" {
		in.Title = current.Title
	}
	if in.Status == "" {
		in.Status = model.StatusAvailable
	}
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	date, err := model.NormalizeDate(in.BorrowedDate)
	if err != nil {
		return nil, err
	}

	typeChanged := in.TypeID != current.TypeID
	if typeChanged {
		if err := checkItemType(ctx, db, in.TypeID); err != nil {
			return nil, err
		}
	}

	query := `UPDATE media_items SET type_id = ?, title = ?, status = ?, borrowed_by = ?,
		borrowed_date = ?, notes = ?, updated_at = CURRENT_TIMESTAMP`
	args := []any{in.TypeID, in.Title, in.Status, nullString(in.BorrowedBy), nullString(date), nullString(in.Notes)}
	if in.CoverImage != nil {
		query += `, cover_image = ?`
		args = append(args, nullString(*in.CoverImage))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	switch {
	case typeChanged:
		keys, err := FieldKeySet(ctx, db, in.TypeID)
		if err != nil {
			return nil, err
		}
		if err := ReplaceAttributes(ctx, db, id, in.Attributes, keys); err != nil {
			return nil, err
		}
	case in.Attributes != nil:
		if err := ReplaceAttributes(ctx, db, id, in.Attributes, nil); err != nil {
			return nil, err
		}
	}

	return GetItem(ctx, db, id)
}

// DeleteItem removes an item row. Its attribute rows are left in place.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SetCoverImage sets the cover image URL of an item.
func SetCoverImage(ctx context.Context, db *sql.DB, id int64, url string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE media_items SET cover_image = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(url), id,
	)
	if err != nil {
		return fmt.Errorf("setting cover image: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ItemExists reports whether an item with the given ID exists.
func ItemExists(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_items WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return n > 0, nil
}

// ClearCatalog deletes every attribute and then every item.
func ClearCatalog(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM media_attributes`); err != nil {
		return fmt.Errorf("clearing attributes: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM media_items`); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	return nil
}
