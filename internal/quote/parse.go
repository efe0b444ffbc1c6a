package quote

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var currencyMarkers = []struct {
	marker   string
	currency string
}{
	{"KRW", "KRW"}, {"₩", "KRW"}, {"원", "KRW"},
	{"USD", "USD"}, {"US$", "USD"}, {"$", "USD"},
	{"EUR", "EUR"}, {"€", "EUR"},
	{"JPY", "JPY"}, {"¥", "JPY"}, {"엔", "JPY"},
	{"CNY", "CNY"}, {"RMB", "CNY"},
	{"GBP", "GBP"}, {"£", "GBP"},
}

// DetectCurrency returns the ISO code named or symbolised in s, or ""
func DetectCurrency(s string) string {
	for _, m := range currencyMarkers {
		if strings.Contains(s, m.marker) {
			return m.currency
		}
	}
	return ""
}

// ParseAmount reads a number that may carry thousands separators, a currency
// symbol or code, or accounting-style parentheses for negatives. NaN and
// infinities are not amounts.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	for _, m := range currencyMarkers {
		s = strings.ReplaceAll(s, m.marker, "")
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ParsePercent reads a percentage. "15%" and "15" are 15; a bare value
// below 1 such as 0.15 is taken as a fraction and also yields 15.
func ParsePercent(s string) (float64, bool) {
	hasSign := strings.Contains(s, "%")
	v, ok := ParseAmount(strings.ReplaceAll(s, "%", ""))
	if !ok {
		return 0, false
	}
	if !hasSign && v > 0 && v < 1 {
		v *= 100
	}
	return v, true
}

// ParseRate reads a rate as a fraction. "10%" and "10" are 0.10, "0.1" stays 0.1.
func ParseRate(s string) (float64, bool) {
	hasSign := strings.Contains(s, "%")
	v, ok := ParseAmount(strings.ReplaceAll(s, "%", ""))
	if !ok {
		return 0, false
	}
	if hasSign || v > 1 {
		v /= 100
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006. 1. 2",
	"2006.1.2",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Excel serials between these bounds are read as dates (1954-10-04 .. 2119-01-06)
const (
	minDateSerial = 20000
	maxDateSerial = 80000
)

// ParseDate reads the date formats quotes are written with, including Excel
// serial day numbers
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minDateSerial && serial <= maxDateSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDate rewrites Excel serial dates as ISO dates and leaves any
// other text untouched
func normalizeDate(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return s
	}
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
