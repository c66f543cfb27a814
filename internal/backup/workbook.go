package backup

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/vinylbank/internal/model"
)

const maxSheetName = 31

var baseHeaders = []string{"Title", "Status", "Borrowed by", "Borrowed date", "Notes"}

// WriteWorkbook renders a full snapshot as an XLSX workbook with one sheet per
// media type. Each sheet has the fixed item columns followed by the type's
// fields in display order, and one row per item of that type.
func WriteWorkbook(w io.Writer, snap *model.Snapshot) error {
	if snap == nil || snap.Config == nil {
		return model.Invalid("snapshot", "missing config")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	itemsByType := make(map[int64][]model.ExportedItem)
	if snap.Data != nil {
		for _, item := range snap.Data.Items {
			itemsByType[item.TypeID] = append(itemsByType[item.TypeID], item)
		}
	}

	used := make(map[string]bool)
	for i, tc := range snap.Config.Types {
		sheet := uniqueSheetName(sheetName(tc.Name), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}

		header := make([]any, 0, len(baseHeaders)+len(tc.Fields))
		for _, h := range baseHeaders {
			header = append(header, h)
		}
		for _, field := range tc.Fields {
			header = append(header, field.Label)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("writing header of %q: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("styling header of %q: %w", sheet, err)
		}

		for r, item := range itemsByType[tc.ID] {
			row := []any{item.Title, item.Status, item.BorrowedBy, item.BorrowedDate, item.Notes}
			for _, field := range tc.Fields {
				row = append(row, item.Attributes[field.Key])
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("writing row %d of %q: %w", r+2, sheet, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// sheetName strips characters Excel does not allow in sheet names and
// truncates to the maximum length.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		name = "Sheet"
	}
	runes := []rune(name)
	if len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

// uniqueSheetName appends " (2)", " (3)", ... until name is unused. Excel
// compares sheet names case-insensitively.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
