package model

// MonthlyFile is one uploaded monthly workbook and the facts derived from it.
type MonthlyFile struct {
	Name         string // period is parsed from this
	Path         string
	Year         int // zero unless Valid
	Month        int // zero unless Valid
	Valid        bool
	Columns      []string
	ColumnsMatch bool
	Consecutive  bool
}
