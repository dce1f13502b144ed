// Package runlog keeps an append-only CSV history of conversion runs.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileName is the run log file inside the log directory.
const FileName = "run-log.csv"

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,files,closing_month,currency,rows,output"

const (
	numFields       = 7
	colTimestamp    = 0
	colRunID        = 1
	colFiles        = 2
	colClosingMonth = 3
	colCurrency     = 4
	colRows         = 5
	colOutput       = 6

	fileSep = ";"
)

// Entry is one conversion run.
type Entry struct {
	Timestamp    time.Time
	RunID        uuid.UUID
	Files        []string
	ClosingMonth int
	Currency     string // currency mode code, e.g. LCCEUR
	Rows         int
	Output       string
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID.String()
	row[colFiles] = strings.Join(e.Files, fileSep)
	row[colClosingMonth] = strconv.Itoa(e.ClosingMonth)
	row[colCurrency] = e.Currency
	row[colRows] = strconv.Itoa(e.Rows)
	row[colOutput] = e.Output
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	id, err := uuid.Parse(record[colRunID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing run id %q: %w", record[colRunID], err)
	}
	closing, err := strconv.Atoi(record[colClosingMonth])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing closing month %q: %w", record[colClosingMonth], err)
	}
	rows, err := strconv.Atoi(record[colRows])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows %q: %w", record[colRows], err)
	}

	var files []string
	if record[colFiles] != "" {
		files = strings.Split(record[colFiles], fileSep)
	}

	return Entry{
		Timestamp:    ts,
		RunID:        id,
		Files:        files,
		ClosingMonth: closing,
		Currency:     record[colCurrency],
		Rows:         rows,
		Output:       record[colOutput],
	}, nil
}

// Append writes entries to <logDir>/run-log.csv, creating the file and header if needed.
func Append(logDir string, entries []Entry) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(logDir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <logDir>/run-log.csv.
// Returns an empty slice if the file does not exist.
func Read(logDir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(logDir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
