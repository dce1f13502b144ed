package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/schema"
)

// SheetName is the name of the single output sheet.
const SheetName = "MTD"

// Output column names for the period.
const (
	ColYear  = "YEAR"
	ColMonth = "MONTH"
)

const timestampFormat = "060102_1504"

// FileName returns e.g. "MTD03_LCCEUR_240415_0930.xlsx".
func FileName(closingMonth int, mode model.CurrencyMode, at time.Time) string {
	return fmt.Sprintf("MTD%02d_%s_%s.xlsx", closingMonth, mode.Code(), at.Format(timestampFormat))
}

// Header returns the output columns: dimensions, the mode's amount columns, YEAR, MONTH.
func Header(mode model.CurrencyMode) []string {
	cols := append([]string{}, schema.Dimensions()...)
	cols = append(cols, mode.Columns()...)
	return append(cols, ColYear, ColMonth)
}

// MarshalRecord converts a record into output cell values, in Header order.
func MarshalRecord(rec model.DeltaRecord, mode model.CurrencyMode) []any {
	row := make([]any, 0, schema.NumDimensions+4)
	for _, v := range rec.Key {
		row = append(row, v)
	}
	for _, c := range mode.Columns() {
		switch c {
		case model.ColLCCAmount:
			row = append(row, rec.LCC.InexactFloat64())
		case model.ColEURAmount:
			row = append(row, rec.EUR.InexactFloat64())
		}
	}
	return append(row, rec.Year, rec.Month)
}

// WriteWorkbook writes records to w as an xlsx workbook with a single MTD sheet.
func WriteWorkbook(w io.Writer, records []model.DeltaRecord, mode model.CurrencyMode) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	header := Header(mode)
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := sw.SetRow("A1", hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := sw.SetRow(cell, MarshalRecord(rec, mode)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
