package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1500", 1500, true},
		{"1,500,000", 1500000, true},
		{"₩4,180,000", 4180000, true},
		{"$220.50", 220.5, true},
		{"1,000원", 1000, true},
		{"KRW 3000", 3000, true},
		{"(200)", -200, true},
		{"-15.5", -15.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"(inf)", 0, false},
		{"1e400", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"35%", 35},
		{"35", 35},
		{"0.35", 35},
		{"0.5%", 0.5},
		{"0", 0},
	}

	for _, tt := range tests {
		got, ok := ParsePercent(tt.in)
		assert.True(t, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	_, ok := ParsePercent("none")
	assert.False(t, ok)
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.1", 0.1},
		{"10%", 0.1},
		{"10", 0.1},
		{"1", 1},
	}

	for _, tt := range tests {
		got, ok := ParseRate(tt.in)
		assert.True(t, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-01-15", "2024/01/15", "2024.01.15", "2024-01-15T09:00:00+09:00", "45306"} {
		got, ok := ParseDate(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, 2024, got.Year(), in)
			assert.Equal(t, 15, got.Day(), in)
		}
	}

	_, ok := ParseDate("next tuesday")
	assert.False(t, ok)
	_, ok = ParseDate("12")
	assert.False(t, ok)
}

func TestDetectCurrency(t *testing.T) {
	assert.Equal(t, "KRW", DetectCurrency("₩1,000"))
	assert.Equal(t, "USD", DetectCurrency("$10"))
	assert.Equal(t, "EUR", DetectCurrency("10 EUR"))
	assert.Equal(t, "", DetectCurrency("1000"))
}
