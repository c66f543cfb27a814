package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vinylbank/internal/db"
	"github.com/erazemk/vinylbank/internal/model"
)

func TestVinylScenario(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	vinyl, err := CreateType(ctx, database, "Vinyl")
	require.NoError(t, err)
	f1, err := AddField(ctx, database, vinyl.ID, model.FieldInput{Label: "Artist"})
	require.NoError(t, err)
	f2, err := AddField(ctx, database, vinyl.ID, model.FieldInput{Label: "Artist"})
	require.NoError(t, err)
	assert.Equal(t, "artist", f1.Key)
	assert.Equal(t, "artist_1", f2.Key)

	item, err := CreateItem(ctx, database, model.ItemInput{
		TypeID:     vinyl.ID,
		Title:      "OK Computer",
		Attributes: map[string]*string{"artist": strPtr("Radiohead")},
	})
	require.NoError(t, err)

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "OK Computer", got.Title)
	assert.Equal(t, "Vinyl", got.TypeName)
	assert.Equal(t, model.StatusAvailable, got.Status)
	assert.Equal(t, map[string]string{"artist": "Radiohead"}, got.Attributes)
}

func TestCreateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	vinyl, _ := CreateType(ctx, database, "Vinyl")

	tests := []struct {
		name  string
		in    model.ItemInput
		field string
	}{
		{"missing title", model.ItemInput{TypeID: vinyl.ID}, "title"},
		{"blank title", model.ItemInput{TypeID: vinyl.ID, Title: "  "}, "title"},
		{"missing type", model.ItemInput{Title: "X"}, "type_id"},
		{"unknown type", model.ItemInput{TypeID: 9999, Title: "X"}, "type_id"},
		{"bad status", model.ItemInput{TypeID: vinyl.ID, Title: "X", Status: "sold"}, "status"},
		{"bad date", model.ItemInput{TypeID: vinyl.ID, Title: "X", BorrowedDate: "yesterday"}, "borrowed_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateItem(ctx, database, tt.in)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateItemStoresEverything(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	book, _ := CreateType(ctx, database, "Book")
	item, err := CreateItem(ctx, database, model.ItemInput{
		TypeID:       book.ID,
		Title:        "Dune",
		Status:       model.StatusBorrowed,
		BorrowedBy:   "Ana",
		BorrowedDate: "2024-03-05T10:00:00Z",
		Notes:        "first edition",
		CoverImage:   strPtr("/api/upload/images/1_x.jpg"),
		Attributes:   map[string]*string{"undeclared": strPtr("kept"), "blank": nil},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusBorrowed, item.Status)
	assert.Equal(t, "Ana", item.BorrowedBy)
	assert.Equal(t, "2024-03-05", item.BorrowedDate)
	assert.Equal(t, "first edition", item.Notes)
	assert.Equal(t, "/api/upload/images/1_x.jpg", item.CoverImage)
	assert.Equal(t, map[string]string{"undeclared": "kept", "blank": ""}, item.Attributes)
}

func TestItemWithoutAttributes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	item, err := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "Silence"})
	require.NoError(t, err)
	assert.Nil(t, item.Attributes)
}

func TestUpdateItemKeepsAndResets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	item, err := CreateItem(ctx, database, model.ItemInput{
		TypeID: cd.ID, Title: "Homogenic", Status: model.StatusBorrowed,
		BorrowedBy: "Luka", BorrowedDate: "2024-01-02", Notes: "scratched",
		CoverImage: strPtr("/cover.jpg"),
		Attributes: map[string]*string{"artist": strPtr("Bjork")},
	})
	require.NoError(t, err)

	updated, err := UpdateItem(ctx, database, item.ID, model.ItemInput{Notes: "returned"})
	require.NoError(t, err)
	assert.Equal(t, "Homogenic", updated.Title, "omitted title keeps the current one")
	assert.Equal(t, cd.ID, updated.TypeID)
	assert.Equal(t, model.StatusAvailable, updated.Status, "omitted status resets")
	assert.Empty(t, updated.BorrowedBy)
	assert.Empty(t, updated.BorrowedDate)
	assert.Equal(t, "returned", updated.Notes)
	assert.Equal(t, "/cover.jpg", updated.CoverImage, "omitted cover is untouched")
	assert.Equal(t, map[string]string{"artist": "Bjork"}, updated.Attributes, "omitted attributes are untouched")

	updated, err = UpdateItem(ctx, database, item.ID, model.ItemInput{
		CoverImage: strPtr(""),
		Attributes: map[string]*string{"label": strPtr("One Little Indian")},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.CoverImage)
	assert.Equal(t, map[string]string{"label": "One Little Indian"}, updated.Attributes)

	updated, err = UpdateItem(ctx, database, item.ID, model.ItemInput{Attributes: map[string]*string{}})
	require.NoError(t, err)
	assert.Nil(t, updated.Attributes)

	_, err = UpdateItem(ctx, database, 9999, model.ItemInput{Title: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateItemTypeChangeFiltersAttributes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	vinyl, _ := CreateType(ctx, database, "Vinyl")
	cd, _ := CreateType(ctx, database, "CD")
	_, _ = AddField(ctx, database, vinyl.ID, model.FieldInput{Label: "Artist"})
	_, _ = AddField(ctx, database, vinyl.ID, model.FieldInput{Label: "RPM"})
	_, _ = AddField(ctx, database, cd.ID, model.FieldInput{Label: "Artist"})
	_, _ = AddField(ctx, database, cd.ID, model.FieldInput{Label: "Discs"})

	item, err := CreateItem(ctx, database, model.ItemInput{
		TypeID: vinyl.ID, Title: "Remain in Light",
		Attributes: map[string]*string{"artist": strPtr("Talking Heads"), "rpm": strPtr("33")},
	})
	require.NoError(t, err)

	updated, err := UpdateItem(ctx, database, item.ID, model.ItemInput{
		TypeID: cd.ID,
		Attributes: map[string]*string{
			"artist": strPtr("Talking Heads"),
			"rpm":    strPtr("33"),
			"discs":  strPtr("1"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, cd.ID, updated.TypeID)
	assert.Equal(t, "CD", updated.TypeName)
	assert.Equal(t, map[string]string{"artist": "Talking Heads", "discs": "1"}, updated.Attributes)

	// A type change without attributes drops them all.
	updated, err = UpdateItem(ctx, database, item.ID, model.ItemInput{TypeID: vinyl.ID})
	require.NoError(t, err)
	assert.Nil(t, updated.Attributes)

	_, err = UpdateItem(ctx, database, item.ID, model.ItemInput{TypeID: 9999})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	item, _ := CreateItem(ctx, database, model.ItemInput{
		TypeID: cd.ID, Title: "Gone",
		Attributes: map[string]*string{"artist": strPtr("Nobody")},
	})

	require.NoError(t, DeleteItem(ctx, database, item.ID))
	_, err := GetItem(ctx, database, item.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, DeleteItem(ctx, database, item.ID), model.ErrNotFound)

	// A new item never inherits the orphaned attribute rows.
	fresh, err := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "New"})
	require.NoError(t, err)
	assert.NotEqual(t, item.ID, fresh.ID)
	assert.Nil(t, fresh.Attributes)
}

func TestItemsWithoutTypeAreHidden(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	tape, _ := CreateType(ctx, database, "Tape")
	kept, _ := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "Kept"})
	orphan, _ := CreateItem(ctx, database, model.ItemInput{TypeID: tape.ID, Title: "Orphaned"})

	// Only the type row goes, as after an interrupted type delete.
	_, err := database.ExecContext(ctx, `DELETE FROM media_types WHERE id = ?`, tape.ID)
	require.NoError(t, err)

	items, err := ListItems(ctx, database, model.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].ID)

	all, err := ListAllItems(ctx, database)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := SearchItems(ctx, database, "Orphaned", model.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = GetItem(ctx, database, orphan.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListItemsFilterAndOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	book, _ := CreateType(ctx, database, "Book")
	a, _ := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "A"})
	b, _ := CreateItem(ctx, database, model.ItemInput{TypeID: book.ID, Title: "B", Status: model.StatusLost})
	c, _ := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "C", Status: model.StatusLost})

	all, err := ListItems(ctx, database, model.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, itemIDs(all), "newest first")

	byType, err := ListItems(ctx, database, model.ParseItemFilter(formatID(cd.ID), "all"))
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID}, itemIDs(byType))

	lostCDs, err := ListItems(ctx, database, model.ParseItemFilter(formatID(cd.ID), "lost"))
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, itemIDs(lostCDs))

	ignored, err := ListItems(ctx, database, model.ParseItemFilter("abc", "sold"))
	require.NoError(t, err)
	assert.Len(t, ignored, 3)
}

func TestSetCoverImageAndAttribute(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	item, _ := CreateItem(ctx, database, model.ItemInput{TypeID: cd.ID, Title: "Cover"})

	require.NoError(t, SetCoverImage(ctx, database, item.ID, "/api/upload/images/a.jpg"))
	require.NoError(t, SetAttribute(ctx, database, item.ID, "booklet", "/b1.jpg"))
	require.NoError(t, SetAttribute(ctx, database, item.ID, "booklet", "/b2.jpg"))

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "/api/upload/images/a.jpg", got.CoverImage)
	assert.Equal(t, map[string]string{"booklet": "/b2.jpg"}, got.Attributes)

	assert.ErrorIs(t, SetCoverImage(ctx, database, 9999, "/x.jpg"), model.ErrNotFound)
}

func TestClearCatalog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cd, _ := CreateType(ctx, database, "CD")
	_, _ = CreateItem(ctx, database, model.ItemInput{
		TypeID: cd.ID, Title: "One", Attributes: map[string]*string{"k": strPtr("v")},
	})

	require.NoError(t, ClearCatalog(ctx, database))
	items, err := ListItems(ctx, database, model.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	types, err := ListTypesBrief(ctx, database)
	require.NoError(t, err)
	assert.Len(t, types, 1, "types survive")
}
