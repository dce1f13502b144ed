package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromRow(t *testing.T) {
	k := KeyFromRow([]string{"E1", "", "ACT"})
	assert.Equal(t, "E1", k[0])
	assert.Equal(t, "", k[1])
	assert.Equal(t, "ACT", k[2])
	assert.Equal(t, "", k[27])
}

func TestKey_BlankIsDistinct(t *testing.T) {
	blank := KeyFromRow([]string{"E1", ""})
	filled := KeyFromRow([]string{"E1", "C1"})
	assert.NotEqual(t, blank, filled)
	assert.Equal(t, blank, KeyFromRow([]string{"E1"}))

	m := map[Key]int{blank: 1, filled: 2}
	assert.Len(t, m, 2)
}

func TestKey_Get(t *testing.T) {
	k := KeyFromRow([]string{"E1", "CONS", "ACT"})
	assert.Equal(t, "E1", k.Get("Entity"))
	assert.Equal(t, "ACT", k.Get("Scenario"))
	assert.Equal(t, "", k.Get("Nope"))
}

func TestKey_Compare(t *testing.T) {
	a := KeyFromRow([]string{"E1", "A"})
	b := KeyFromRow([]string{"E1", "B"})
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(a))
	assert.Negative(t, KeyFromRow([]string{"E1", ""}).Compare(a))
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "E1|ACT", KeyFromRow([]string{"E1", "", "ACT"}).String())
}

func TestParseCurrencyMode(t *testing.T) {
	tests := []struct {
		in   string
		want CurrencyMode
	}{
		{"LCC and EUR", CurrencyLCCAndEUR},
		{"lcc  and eur", CurrencyLCCAndEUR},
		{"LCCEUR", CurrencyLCCAndEUR},
		{"LCC only", CurrencyLCCOnly},
		{"lcc", CurrencyLCCOnly},
		{"EUR only", CurrencyEUROnly},
		{"eur_only", CurrencyEUROnly},
	}
	for _, tt := range tests {
		got, err := ParseCurrencyMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCurrencyMode("USD")
	assert.Error(t, err)
}

func TestCurrencyMode_CodeAndColumns(t *testing.T) {
	assert.Equal(t, "LCCEUR", CurrencyLCCAndEUR.Code())
	assert.Equal(t, "LCC", CurrencyLCCOnly.Code())
	assert.Equal(t, "EUR", CurrencyEUROnly.Code())

	assert.Equal(t, []string{ColLCCAmount, ColEURAmount}, CurrencyLCCAndEUR.Columns())
	assert.Equal(t, []string{ColLCCAmount}, CurrencyLCCOnly.Columns())
	assert.Equal(t, []string{ColEURAmount}, CurrencyEUROnly.Columns())
}
