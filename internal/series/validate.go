package series

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/period"
	"github.com/epm-tools/mtd/internal/schema"
)

// ErrNoFiles is returned by callers when there is nothing to validate or convert.
var ErrNoFiles = errors.New("no files supplied")

// Rule names one series-level check.
type Rule string

const (
	RuleNaming       Rule = "naming"
	RuleSingleYear   Rule = "single-year"
	RuleStartsAtM1   Rule = "starts-at-m1"
	RuleUniqueMonths Rule = "unique-months"
	RuleConsecutive  Rule = "consecutive"
	RuleColumns      Rule = "columns"
)

// Violation describes one failed rule and the files responsible for it.
type Violation struct {
	Rule    Rule
	Files   []string
	Message string
}

func (v *Violation) Error() string {
	if len(v.Files) == 0 {
		return fmt.Sprintf("%s: %s", v.Rule, v.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", v.Rule, v.Message, strings.Join(v.Files, ", "))
}

// Report is the outcome of validating a file set.
type Report struct {
	Files      []model.MonthlyFile
	Violations []*Violation
}

// Valid reports whether the set may be converted.
func (r *Report) Valid() bool {
	return len(r.Files) > 0 && len(r.Violations) == 0
}

// ClosingMonth is the number of files in the set; no delta is emitted past it.
func (r *Report) ClosingMonth() int {
	return len(r.Files)
}

// Failed reports whether rule is among the violations.
func (r *Report) Failed(rule Rule) bool {
	for _, v := range r.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Err combines every violation into one error, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, v := range r.Violations {
		err = multierr.Append(err, v)
	}
	return err
}

// Inspect derives the per-file facts available from a name and its cleaned header.
func Inspect(name, path string, columns []string) model.MonthlyFile {
	f := model.MonthlyFile{
		Name:         name,
		Path:         path,
		Columns:      columns,
		ColumnsMatch: schema.Matches(columns),
	}
	f.Year, f.Month, f.Valid = period.Parse(name)
	return f
}

// Validate marks each file's consecutiveness and checks the set as a whole.
// All failed rules are reported; it never stops at the first one.
func Validate(files []model.MonthlyFile) *Report {
	checked := make([]model.MonthlyFile, len(files))
	copy(checked, files)
	markConsecutive(checked)

	r := &Report{Files: checked}
	if len(checked) == 0 {
		return r
	}

	var badNames, badConsecutive, badColumns []string
	years := make(map[int]bool)
	monthFiles := make(map[int][]string)
	var monthOrder []int
	minMonth, haveMonth := 0, false
	for _, f := range checked {
		if !f.Valid {
			badNames = append(badNames, f.Name)
		} else {
			years[f.Year] = true
			if _, seen := monthFiles[f.Month]; !seen {
				monthOrder = append(monthOrder, f.Month)
			}
			monthFiles[f.Month] = append(monthFiles[f.Month], f.Name)
			if !haveMonth || f.Month < minMonth {
				minMonth, haveMonth = f.Month, true
			}
		}
		if !f.Consecutive {
			badConsecutive = append(badConsecutive, f.Name)
		}
		if !f.ColumnsMatch {
			badColumns = append(badColumns, f.Name)
		}
	}

	if len(badNames) > 0 {
		r.add(RuleNaming, badNames, "all files must have [yyyy]M[mm] in the name")
	}
	if len(years) != 1 {
		r.add(RuleSingleYear, nil, fmt.Sprintf("all files must have the same year (found %d)", len(years)))
	}
	if !haveMonth || minMonth != 1 {
		r.add(RuleStartsAtM1, nil, "files must start from M1")
	}
	var dupes []string
	for _, m := range monthOrder {
		if names := monthFiles[m]; len(names) > 1 {
			dupes = append(dupes, names...)
		}
	}
	if len(dupes) > 0 {
		r.add(RuleUniqueMonths, dupes, "files must have unique months")
	}
	if len(badConsecutive) > 0 {
		r.add(RuleConsecutive, badConsecutive, "months within a year must be consecutive")
	}
	if len(badColumns) > 0 {
		r.add(RuleColumns, badColumns, "column names must be consistent")
	}
	return r
}

func (r *Report) add(rule Rule, files []string, msg string) {
	r.Violations = append(r.Violations, &Violation{Rule: rule, Files: files, Message: msg})
}

// markConsecutive sets Consecutive when a file is M1 or has a neighbouring month
// in the same year. This is a local check: {1,2,4,5} passes for every file even
// though M3 is missing.
func markConsecutive(files []model.MonthlyFile) {
	byYear := make(map[int]map[int]bool)
	for _, f := range files {
		if !f.Valid {
			continue
		}
		if byYear[f.Year] == nil {
			byYear[f.Year] = make(map[int]bool)
		}
		byYear[f.Year][f.Month] = true
	}
	for i := range files {
		f := &files[i]
		f.Consecutive = false
		if !f.Valid {
			continue
		}
		months := byYear[f.Year]
		f.Consecutive = f.Month == 1 || months[f.Month-1] || months[f.Month+1]
	}
}
