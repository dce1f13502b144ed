package period

import (
	"regexp"
	"strconv"
)

// namePattern finds a "<year>M<month>" period anywhere in a file name.
var namePattern = regexp.MustCompile(`(\d{4})M(\d+)`)

// Parse extracts the year and month from a file name like "EPM_2024M3.xlsx".
// ok is false when the name carries no period; year and month are then zero.
func Parse(name string) (year, month int, ok bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(m[2])
	if err != nil {
		// More digits than an int holds.
		return 0, 0, false
	}
	return year, month, true
}

// Label returns the short month label used in run summaries, e.g. "M3".
func Label(month int) string {
	return "M" + strconv.Itoa(month)
}
