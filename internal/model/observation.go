package model

import "github.com/shopspring/decimal"

// Row is one extracted data row, restricted to the fixed schema.
type Row struct {
	Key       Key
	Amount    decimal.Decimal // local-currency cumulative
	AmountEUR decimal.Decimal // EUR cumulative
}

// Table is the extracted content of one workbook's primary sheet.
type Table struct {
	Sheet string
	Rows  []Row
}

// Observation is a Row tagged with the period of the file it came from.
type Observation struct {
	Row
	Year  int
	Month int
}
