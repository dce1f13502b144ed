package model

import (
	"fmt"
	"strings"
)

// CurrencyMode selects which amount columns end up in the output.
type CurrencyMode string

const (
	CurrencyLCCAndEUR CurrencyMode = "LCC and EUR"
	CurrencyLCCOnly   CurrencyMode = "LCC only"
	CurrencyEUROnly   CurrencyMode = "EUR only"
)

// Output column names for the amounts.
const (
	ColLCCAmount = "LCC AMOUNT"
	ColEURAmount = "EUR AMOUNT"
)

// ParseCurrencyMode accepts a mode label ("LCC only") or its code ("LCC"), case-insensitively.
func ParseCurrencyMode(s string) (CurrencyMode, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch norm {
	case "lcc and eur", "lcceur", "lcc_and_eur":
		return CurrencyLCCAndEUR, nil
	case "lcc only", "lcc", "lcc_only":
		return CurrencyLCCOnly, nil
	case "eur only", "eur", "eur_only":
		return CurrencyEUROnly, nil
	}
	return "", fmt.Errorf("unknown currency mode %q", s)
}

// Code returns the short code used in output file names.
func (m CurrencyMode) Code() string {
	switch m {
	case CurrencyLCCOnly:
		return "LCC"
	case CurrencyEUROnly:
		return "EUR"
	default:
		return "LCCEUR"
	}
}

// Columns returns the amount columns present in the output for this mode.
func (m CurrencyMode) Columns() []string {
	switch m {
	case CurrencyLCCOnly:
		return []string{ColLCCAmount}
	case CurrencyEUROnly:
		return []string{ColEURAmount}
	default:
		return []string{ColLCCAmount, ColEURAmount}
	}
}
