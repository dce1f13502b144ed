package model

import (
	"strings"

	"github.com/epm-tools/mtd/internal/schema"
)

// Key is a dimension key: the 28 dimension values identifying one reporting line.
// Blank cells are empty strings, which compare like any other value.
type Key [schema.NumDimensions]string

// KeyFromRow builds a Key from values in schema.Dimensions order.
// Missing trailing values are left blank.
func KeyFromRow(values []string) Key {
	var k Key
	copy(k[:], values)
	return k
}

// Get returns the value of the named dimension, or "" if the name is unknown.
func (k Key) Get(dimension string) string {
	for i, name := range schema.Dimensions() {
		if name == dimension {
			return k[i]
		}
	}
	return ""
}

// Compare orders keys field by field.
func (k Key) Compare(other Key) int {
	for i := range k {
		if c := strings.Compare(k[i], other[i]); c != 0 {
			return c
		}
	}
	return 0
}

// String joins the non-blank values, for logs.
func (k Key) String() string {
	parts := make([]string, 0, len(k))
	for _, v := range k {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "|")
}
