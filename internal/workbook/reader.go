package workbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/schema"
)

// Defaults for where the header sits and how much of a sheet is sampled.
const (
	DefaultHeaderRow  = 4 // zero-based
	DefaultSampleRows = 500
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no worksheets")

// ErrMissingColumn is returned when an expected column is absent from the header.
var ErrMissingColumn = errors.New("missing expected column")

// Reader extracts monthly tables from xlsx workbooks.
type Reader struct {
	headerRow  int
	sampleRows int
	logger     *zap.Logger
}

// NewReader creates a Reader. Non-positive sampleRows and negative headerRow fall back to defaults.
func NewReader(headerRow, sampleRows int, logger *zap.Logger) *Reader {
	if headerRow < 0 {
		headerRow = DefaultHeaderRow
	}
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{headerRow: headerRow, sampleRows: sampleRows, logger: logger}
}

// PrimarySheet returns the worksheet with the most cells (rows x columns) in its
// first sampleRows data rows. The first row of the sample counts as its header.
// Ties go to the sheet listed first; unreadable sheets count as empty.
func (r *Reader) PrimarySheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrNoSheets
	}

	best, bestSize := sheets[0], -1
	for _, name := range sheets {
		size := 0
		rows, err := readRows(f, name, r.sampleRows+1)
		if err != nil {
			r.logger.Debug("sheet unreadable, counted as empty",
				zap.String("op", "workbook.PrimarySheet"),
				zap.String("sheet", name),
				zap.Error(err))
		} else {
			size = sampleSize(rows)
		}
		if size > bestSize {
			best, bestSize = name, size
		}
	}
	return best, nil
}

// sampleSize counts data cells the way a header-first table parse would:
// non-blank rows after the first, times the widest row.
func sampleSize(rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}
	width, data := 0, 0
	for i, row := range rows {
		if w := len(row); w > width {
			width = w
		}
		if i > 0 && !isBlank(row) {
			data++
		}
	}
	return width * data
}

// Columns returns the cleaned header of the workbook's primary sheet.
func (r *Reader) Columns(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := r.PrimarySheet(f)
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w", path, err)
	}
	rows, err := readRows(f, sheet, r.headerRow+1)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if len(rows) <= r.headerRow {
		return nil, nil
	}
	return schema.CleanHeader(rows[r.headerRow]), nil
}

// Extract reads the primary sheet of file's workbook.
func (r *Reader) Extract(ctx context.Context, file model.MonthlyFile) (model.Table, error) {
	f, err := excelize.OpenFile(file.Path)
	if err != nil {
		return model.Table{}, fmt.Errorf("opening workbook %s: %w", file.Name, err)
	}
	defer f.Close()

	sheet, err := r.PrimarySheet(f)
	if err != nil {
		return model.Table{}, fmt.Errorf("workbook %s: %w", file.Name, err)
	}
	table, err := r.ExtractSheet(ctx, f, sheet)
	if err != nil {
		return model.Table{}, fmt.Errorf("workbook %s: %w", file.Name, err)
	}

	r.logger.Debug("extracted table",
		zap.String("op", "workbook.Extract"),
		zap.String("file", file.Name),
		zap.String("sheet", sheet),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// ExtractSheet parses sheet from the header row down, keeping only the expected
// columns in schema order. Cells are taken verbatim; an empty cell is "".
// Fully blank rows are skipped and a blank amount counts as zero.
func (r *Reader) ExtractSheet(ctx context.Context, f *excelize.File, sheet string) (model.Table, error) {
	rows, err := readRows(f, sheet, -1)
	if err != nil {
		return model.Table{}, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	table := model.Table{Sheet: sheet}
	if len(rows) <= r.headerRow {
		return table, nil
	}

	index, err := columnIndex(rows[r.headerRow])
	if err != nil {
		return model.Table{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	intern := make(map[string]string)
	values := make([]string, schema.NumDimensions)
	for i, row := range rows[r.headerRow+1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return model.Table{}, err
			}
		}
		if isBlank(row) {
			continue
		}
		// Spreadsheet row numbers are 1-based.
		rowNum := r.headerRow + i + 2

		for d := 0; d < schema.NumDimensions; d++ {
			v := cell(row, index[d])
			if s, ok := intern[v]; ok {
				v = s
			} else {
				intern[v] = v
			}
			values[d] = v
		}
		amount, err := parseAmount(cell(row, index[schema.NumDimensions]))
		if err != nil {
			return model.Table{}, fmt.Errorf("row %d: parsing %s: %w", rowNum, schema.ColAmount, err)
		}
		amountEUR, err := parseAmount(cell(row, index[schema.NumDimensions+1]))
		if err != nil {
			return model.Table{}, fmt.Errorf("row %d: parsing %s: %w", rowNum, schema.ColAmountEUR, err)
		}
		table.Rows = append(table.Rows, model.Row{
			Key:       model.KeyFromRow(values),
			Amount:    amount,
			AmountEUR: amountEUR,
		})
	}
	return table, nil
}

// columnIndex maps each expected column, in schema order, to its position in header.
func columnIndex(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	expected := schema.Expected()
	index := make([]int, len(expected))
	for i, name := range expected {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		index[i] = p
	}
	return index, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// readRows returns up to limit rows of sheet as raw cell values; limit < 0 reads all.
func readRows(f *excelize.File, sheet string, limit int) ([][]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		out = append(out, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
