package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/model"
	"github.com/erazemk/vinylbank/internal/store"
)

// Result reports what a data import could not bring in.
type Result struct {
	SkippedItems  []string `json:"skippedItems,omitempty"`
	SkippedFields []string `json:"skippedFields,omitempty"`
}

// ImportFull reconciles the type registry with the snapshot's config and then,
// when the snapshot carries items, replaces the whole catalog with them.
//
// Types are matched by name. A matched or created type has its fields
// replaced by the incoming list. Items are resolved to a type by name first,
// then by ID; unresolved items are logged and skipped. Statements are not
// wrapped in a transaction, so a failure leaves the work done so far.
func ImportFull(ctx context.Context, db *sql.DB, snap *model.Snapshot, log *zap.SugaredLogger) error {
	if snap == nil || snap.Config == nil || snap.Data == nil {
		return model.Invalid("snapshot", "missing config or data")
	}

	for _, tc := range snap.Config.Types {
		if err := importType(ctx, db, tc); err != nil {
			return err
		}
	}

	if snap.Data.Items == nil {
		return nil
	}

	if err := store.ClearCatalog(ctx, db); err != nil {
		return err
	}

	types, err := store.ListTypesBrief(ctx, db)
	if err != nil {
		return err
	}
	byName := make(map[string]int64, len(types))
	byID := make(map[int64]bool, len(types))
	for _, t := range types {
		byName[t.Name] = t.ID
		byID[t.ID] = true
	}

	for _, item := range snap.Data.Items {
		typeID, ok := byName[item.TypeName]
		if !ok && byID[item.TypeID] {
			typeID, ok = item.TypeID, true
		}
		if !ok {
			log.Warnw("Skipping imported item: type not found",
				"title", item.Title, "type_name", item.TypeName, "type_id", item.TypeID)
			continue
		}
		if _, err := importItem(ctx, db, typeID, item, nil); err != nil {
			return err
		}
	}

	return nil
}

func importType(ctx context.Context, db *sql.DB, tc model.TypeConfig) error {
	var typeID int64
	existing, err := store.GetTypeByName(ctx, db, tc.Name)
	switch {
	case err == nil:
		typeID = existing.ID
		if err := store.UpdateType(ctx, db, typeID, tc.Name); err != nil {
			return err
		}
	case errors.Is(err, model.ErrNotFound):
		created, err := store.CreateType(ctx, db, tc.Name)
		if err != nil {
			return err
		}
		typeID = created.ID
	default:
		return err
	}

	if err := store.DeleteTypeFields(ctx, db, typeID); err != nil {
		return err
	}

	var keys []string
	for _, f := range tc.Fields {
		f.TypeID = typeID
		if f.Key == "" {
			f.Key = model.UniqueFieldKey(model.SlugifyFieldKey(f.Label), keys)
		}
		if f.Type == "" {
			f.Type = model.FieldText
		}
		if _, err := store.InsertField(ctx, db, f); err != nil {
			return fmt.Errorf("importing fields of %q: %w", tc.Name, err)
		}
		keys = append(keys, f.Key)
	}
	return nil
}

// importItem inserts an item of the resolved type. When allowed is non-nil,
// attribute keys outside it are not stored and are returned.
func importItem(ctx context.Context, db *sql.DB, typeID int64, item model.ExportedItem, allowed map[string]bool) ([]string, error) {
	date, err := model.NormalizeDate(item.BorrowedDate)
	if err != nil {
		return nil, fmt.Errorf("importing %q: %w", item.Title, err)
	}

	id, err := store.InsertItem(ctx, db, store.ItemRecord{
		TypeID:       typeID,
		Title:        item.Title,
		Status:       item.Status,
		BorrowedBy:   item.BorrowedBy,
		BorrowedDate: date,
		Notes:        item.Notes,
		CoverImage:   item.CoverImage,
	})
	if err != nil {
		return nil, fmt.Errorf("importing %q: %w", item.Title, err)
	}

	attrs := make(map[string]*string, len(item.Attributes))
	var skipped []string
	for key, value := range item.Attributes {
		if allowed != nil && !allowed[key] {
			skipped = append(skipped, key)
			continue
		}
		if value == "" {
			attrs[key] = nil
			continue
		}
		v := value
		attrs[key] = &v
	}

	if err := store.InsertAttributes(ctx, db, id, attrs, nil); err != nil {
		return nil, fmt.Errorf("importing %q: %w", item.Title, err)
	}
	return skipped, nil
}

// ImportData appends the snapshot's items to the catalog. Items are resolved
// to a type by ID first, then by name. Unresolved items and attributes whose
// key is not a field of the resolved type are skipped and reported.
func ImportData(ctx context.Context, db *sql.DB, snap *model.Snapshot) (*Result, error) {
	if snap == nil || snap.Data == nil || snap.Data.Items == nil {
		return nil, model.Invalid("snapshot", "missing data")
	}

	types, err := store.ListTypes(ctx, db)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(types))
	fieldKeys := make(map[int64]map[string]bool, len(types))
	for _, t := range types {
		byName[t.Name] = t.ID
		keys := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			keys[f.Key] = true
		}
		fieldKeys[t.ID] = keys
	}

	result := &Result{}
	for _, item := range snap.Data.Items {
		typeID := item.TypeID
		if _, ok := fieldKeys[typeID]; !ok {
			var found bool
			typeID, found = byName[item.TypeName]
			if !found {
				result.SkippedItems = append(result.SkippedItems, item.Title)
				continue
			}
		}

		skipped, err := importItem(ctx, db, typeID, item, fieldKeys[typeID])
		if err != nil {
			return nil, err
		}
		sort.Strings(skipped)
		for _, key := range skipped {
			result.SkippedFields = append(result.SkippedFields, item.Title+": "+key)
		}
	}

	return result, nil
}
