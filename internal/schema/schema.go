package schema

import (
	"slices"
	"strings"
)

// Amount column names in the raw extract.
const (
	ColAmount    = "Amount"
	ColAmountEUR = "Amount In EUR"
)

// NumDimensions is the number of dimension columns in a dimension key.
const NumDimensions = 28

// dimensions lists the dimension columns in their declared order.
var dimensions = [NumDimensions]string{
	"Entity", "Cons", "Scenario", "View", "Account Parent", "Account", "Flow", "Origin", "IC",
	"FinalClient Group", "FinalClient", "Client", "FinancialManager", "Governance Level",
	"Governance", "Commodity", "AuditID", "UD8", "Project", "Employee", "Supplier",
	"InvoiceType", "ContractType", "AmountCurrency", "IntercoType", "ICDetails", "EmployedBy",
	"AccountType",
}

// Dimensions returns the dimension column names in order.
func Dimensions() []string {
	return slices.Clone(dimensions[:])
}

// Expected returns the full raw-extract schema: dimensions, then Amount and Amount In EUR.
func Expected() []string {
	cols := make([]string, 0, NumDimensions+2)
	cols = append(cols, dimensions[:]...)
	return append(cols, ColAmount, ColAmountEUR)
}

// CleanHeader trims every header cell and drops the blank ones.
func CleanHeader(cells []string) []string {
	cleaned := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, c)
	}
	return cleaned
}

// Matches reports whether columns equal the expected schema exactly, order included.
func Matches(columns []string) bool {
	return slices.Equal(columns, Expected())
}

// Diff describes how columns differ from the expected schema. It returns
// missing and unexpected column names; both are empty when only the order differs.
func Diff(columns []string) (missing, unexpected []string) {
	want := Expected()
	for _, c := range want {
		if !slices.Contains(columns, c) {
			missing = append(missing, c)
		}
	}
	for _, c := range columns {
		if !slices.Contains(want, c) {
			unexpected = append(unexpected, c)
		}
	}
	return missing, unexpected
}
