package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// attributeBatch bounds the number of ids bound into one IN (...) list.
const attributeBatch = 500

// GetAttributes returns the attribute map of an item, or nil when it has none.
func GetAttributes(ctx context.Context, db *sql.DB, mediaID int64) (map[string]string, error) {
	all, err := loadAttributes(ctx, db, []int64{mediaID})
	if err != nil {
		return nil, err
	}
	return all[mediaID], nil
}

// loadAttributes returns the attribute maps of the given items keyed by item
// ID. Items without attribute rows have no entry. NULL values read as "".
func loadAttributes(ctx context.Context, db *sql.DB, ids []int64) (map[int64]map[string]string, error) {
	out := make(map[int64]map[string]string)
	for start := 0; start < len(ids); start += attributeBatch {
		end := min(start+attributeBatch, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := db.QueryContext(ctx,
			`SELECT media_id, attribute_key, attribute_value FROM media_attributes
			 WHERE media_id IN (`+placeholders(len(batch))+`) ORDER BY id`, args...,
		)
		if err != nil {
			return nil, fmt.Errorf("loading attributes: %w", err)
		}

		for rows.Next() {
			var mediaID int64
			var key string
			var value sql.NullString
			if err := rows.Scan(&mediaID, &key, &value); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning attribute: %w", err)
			}
			if out[mediaID] == nil {
				out[mediaID] = make(map[string]string)
			}
			out[mediaID][key] = value.String
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("loading attributes: %w", err)
		}
	}
	return out, nil
}

// InsertAttributes adds one row per key. When allowed is non-nil, keys not in
// it are dropped. A nil value is stored as NULL.
func InsertAttributes(ctx context.Context, db *sql.DB, mediaID int64, attrs map[string]*string, allowed map[string]bool) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if allowed != nil && !allowed[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var value sql.NullString
		if v := attrs[k]; v != nil {
			value = sql.NullString{String: *v, Valid: true}
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO media_attributes (media_id, attribute_key, attribute_value) VALUES (?, ?, ?)`,
			mediaID, k, value,
		)
		if err != nil {
			return fmt.Errorf("inserting attribute %q: %w", k, err)
		}
	}
	return nil
}

// ReplaceAttributes deletes all attributes of an item and inserts attrs,
// filtered by allowed when it is non-nil.
func ReplaceAttributes(ctx context.Context, db *sql.DB, mediaID int64, attrs map[string]*string, allowed map[string]bool) error {
	if err := DeleteItemAttributes(ctx, db, mediaID); err != nil {
		return err
	}
	return InsertAttributes(ctx, db, mediaID, attrs, allowed)
}

// DeleteItemAttributes removes every attribute row of an item.
func DeleteItemAttributes(ctx context.Context, db *sql.DB, mediaID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM media_attributes WHERE media_id = ?`, mediaID); err != nil {
		return fmt.Errorf("deleting attributes: %w", err)
	}
	return nil
}

// SetAttribute sets a single attribute, updating the existing row for the key
// or inserting one.
func SetAttribute(ctx context.Context, db *sql.DB, mediaID int64, key, value string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE media_attributes SET attribute_value = ? WHERE media_id = ? AND attribute_key = ?`,
		value, mediaID, key,
	)
	if err != nil {
		return fmt.Errorf("updating attribute %q: %w", key, err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO media_attributes (media_id, attribute_key, attribute_value) VALUES (?, ?, ?)`,
		mediaID, key, value,
	)
	if err != nil {
		return fmt.Errorf("inserting attribute %q: %w", key, err)
	}
	return nil
}
