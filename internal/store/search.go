package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/vinylbank/internal/model"
)

// SearchItems returns items whose title, notes, borrower or type name
// contain query, followed by items matched only through an attribute key or
// value. Both groups honour the filter and are ordered newest first. A blank
// query lists all items matching the filter.
func SearchItems(ctx context.Context, db *sql.DB, query string, filter model.ItemFilter) ([]model.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ListItems(ctx, db, filter)
	}
	term := "%" + query + "%"
	where, filterArgs := filterClause(filter)

	direct := itemSelect + ` WHERE (m.title LIKE ? OR m.notes LIKE ? OR m.borrowed_by LIKE ? OR t.name LIKE ?)`
	args := []any{term, term, term, term}
	if where != "" {
		direct += " AND " + where
		args = append(args, filterArgs...)
	}
	items, err := queryItems(ctx, db, direct+itemOrder, args...)
	if err != nil {
		return nil, err
	}

	viaAttributes := itemSelect + ` WHERE m.id IN (
		SELECT DISTINCT media_id FROM media_attributes
		WHERE attribute_key LIKE ? OR attribute_value LIKE ?)`
	args = []any{term, term}
	if where != "" {
		viaAttributes += " AND " + where
		args = append(args, filterArgs...)
	}
	more, err := queryItems(ctx, db, viaAttributes+itemOrder, args...)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		seen[item.ID] = true
	}
	for _, item := range more {
		if !seen[item.ID] {
			items = append(items, item)
		}
	}
	return items, nil
}
