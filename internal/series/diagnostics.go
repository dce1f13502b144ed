package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/epm-tools/mtd/internal/model"
)

// DiagnosticsHeader is the header of the per-file diagnostics table.
const DiagnosticsHeader = "File,Year,Month,Valid,ColumnCheck,Consecutive"

const (
	numFields      = 6
	colFile        = 0
	colYear        = 1
	colMonth       = 2
	colValid       = 3
	colColumnCheck = 4
	colConsecutive = 5
)

// MarshalFile converts a file verdict to a diagnostics row.
// Year and month stay blank for files whose name carries no period.
func MarshalFile(f model.MonthlyFile) []string {
	row := make([]string, numFields)
	row[colFile] = f.Name
	if f.Valid {
		row[colYear] = strconv.Itoa(f.Year)
		row[colMonth] = strconv.Itoa(f.Month)
	}
	row[colValid] = strconv.FormatBool(f.Valid)
	row[colColumnCheck] = strconv.FormatBool(f.ColumnsMatch)
	row[colConsecutive] = strconv.FormatBool(f.Consecutive)
	return row
}

// WriteDiagnostics writes one row per file, header first.
func WriteDiagnostics(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(DiagnosticsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, f := range r.Files {
		if err := cw.Write(MarshalFile(f)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
