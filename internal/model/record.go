package model

import "github.com/shopspring/decimal"

// DeltaRecord is one month-to-date output row.
type DeltaRecord struct {
	Key   Key
	Year  int
	Month int
	LCC   decimal.Decimal // LCC AMOUNT
	EUR   decimal.Decimal // EUR AMOUNT
}
