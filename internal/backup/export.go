// Package backup serializes the type registry and the item catalog to JSON
// snapshots and spreadsheets, and rebuilds them from snapshots.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/vinylbank/internal/model"
	"github.com/erazemk/vinylbank/internal/store"
)

// Export builds a snapshot of every item ordered by ID. With includeConfig
// the snapshot also carries every type with its fields.
func Export(ctx context.Context, db *sql.DB, includeConfig bool) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		Version:    model.SnapshotVersion,
		ExportedAt: time.Now().UTC(),
	}

	if includeConfig {
		types, err := store.ListTypes(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("exporting types: %w", err)
		}
		snap.Config = &model.SnapshotConfig{Types: types}
	}

	items, err := store.ListAllItems(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("exporting items: %w", err)
	}

	exported := make([]model.ExportedItem, 0, len(items))
	for _, item := range items {
		attrs := item.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		exported = append(exported, model.ExportedItem{
			ID:           item.ID,
			TypeID:       item.TypeID,
			TypeName:     item.TypeName,
			Title:        item.Title,
			Status:       item.Status,
			BorrowedBy:   item.BorrowedBy,
			BorrowedDate: item.BorrowedDate,
			Notes:        item.Notes,
			CoverImage:   item.CoverImage,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
			Attributes:   attrs,
		})
	}
	snap.Data = &model.SnapshotData{Items: exported}

	return snap, nil
}

// FileName returns the attachment name of an export written at t.
func FileName(kind string, t time.Time) string {
	date := t.Format(time.DateOnly)
	switch kind {
	case "data":
		return "vinylbank-data-export-" + date + ".json"
	case "xlsx":
		return "vinylbank-export-" + date + ".xlsx"
	default:
		return "vinylbank-export-" + date + ".json"
	}
}
