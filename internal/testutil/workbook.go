// Package testutil builds monthly extract workbooks for tests.
package testutil

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/schema"
)

// DataSheet is the name of the sheet holding the extract.
const DataSheet = "Extract"

// Line is one data row of a fixture workbook. Amounts are decimal strings;
// an empty amount leaves the cell blank.
type Line struct {
	Key       model.Key
	Amount    string
	AmountEUR string
}

// Key returns a dimension key with Entity, Scenario and Account set.
func Key(entity, account string) model.Key {
	var k model.Key
	k[0] = entity
	k[2] = "ACT"
	k[5] = account
	return k
}

// WriteMonthly writes dir/name with the expected header at zero-based row 4 of
// DataSheet, preceded by a small notes sheet, and returns the path.
func WriteMonthly(t testing.TB, dir, name string, lines ...Line) string {
	t.Helper()
	return WriteWithHeader(t, dir, name, schema.Expected(), lines...)
}

// WriteWithHeader is WriteMonthly with a custom header row. Line cells are
// written in schema order regardless of header.
func WriteWithHeader(t testing.TB, dir, name string, header []string, lines ...Line) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	notes := f.GetSheetName(0)
	if err := f.SetSheetName(notes, "Notes"); err != nil {
		t.Fatalf("renaming sheet: %v", err)
	}
	setRow(t, f, "Notes", 1, []any{"Generated extract", "see Extract sheet"})

	if _, err := f.NewSheet(DataSheet); err != nil {
		t.Fatalf("creating sheet: %v", err)
	}
	setRow(t, f, DataSheet, 1, []any{"EPM Monthly Extract"})
	setRow(t, f, DataSheet, 2, []any{"Scenario", "ACT"})
	setRow(t, f, DataSheet, 4, []any{"Generated for tests"})

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	setRow(t, f, DataSheet, 5, hdr)

	for i, l := range lines {
		row := make([]any, 0, schema.NumDimensions+2)
		for _, v := range l.Key {
			row = append(row, v)
		}
		row = append(row, amountCell(t, l.Amount), amountCell(t, l.AmountEUR))
		setRow(t, f, DataSheet, 6+i, row)
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook %s: %v", path, err)
	}
	return path
}

func amountCell(t testing.TB, s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("bad fixture amount %q: %v", s, err)
	}
	return v
}

func setRow(t testing.TB, f *excelize.File, sheet string, row int, values []any) {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		t.Fatalf("cell name: %v", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		t.Fatalf("writing row %d of %s: %v", row, sheet, err)
	}
}
