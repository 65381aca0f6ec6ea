package core

// convert.go provides lenient conversion of logbook cell values.
//
// Logbook exports are messy in predictable ways:
//   - Dates in ISO, US and dotted layouts, some with 2-digit years
//   - Hours written as decimals (1.2) or as H:MM (1:12)
//   - Clock times as 1430, 14:30, 2:30 PM or full timestamps
//   - Excel formula prefixes (="value") and stray quotes
//
// Parse* functions never consult the wall clock, so the same cell always
// converts to the same value.

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errNotNumeric = errors.New("invalid number")
	errNegative   = errors.New("must not be negative")
	errNotInteger = errors.New("must be a whole number")
	errOutOfRange = errors.New("value too large")
)

// HeaderIndex maps lowercased header labels to column positions.
type HeaderIndex map[string]int

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// hoursMinutesRegex matches elapsed time written as H:MM.
var hoursMinutesRegex = regexp.MustCompile(`^(\d+):([0-5]\d)$`)

// decimalCommaRegex matches values like "1,5" that use a comma as decimal point.
var decimalCommaRegex = regexp.MustCompile(`^[+-]?\d+,\d{1,2}$`)

var sixty = decimal.NewFromInt(60)

// maxCount bounds count cells so the conversion to int never wraps.
var maxCount = decimal.NewFromInt(math.MaxInt32)

// Date layouts split by year format. Two-digit years follow time.Parse:
// 69-99 map to the 1900s, 00-68 to the 2000s.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-1-2", "2006/01/02", "2006/1/2", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
	}
	clockLayouts = []string{
		"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04:05 PM",
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04",
	}
)

// ParseDate parses a calendar date in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), true
		}
	}
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), true
		}
	}
	return time.Time{}, false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseHours converts an elapsed-time cell to decimal hours.
// Blank cells are zero. Negative and non-numeric values are errors.
func ParseHours(s string) (decimal.Decimal, error) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, nil
	}

	if m := hoursMinutesRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		mins, _ := strconv.ParseInt(m[2], 10, 64)
		frac := decimal.NewFromInt(mins).Div(sixty).Round(2)
		return decimal.NewFromInt(h).Add(frac), nil
	}
	if strings.HasPrefix(s, "-") && hoursMinutesRegex.MatchString(s[1:]) {
		return decimal.Zero, errNegative
	}

	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d, nil
}

// ParseCount converts a count cell to a non-negative integer.
func ParseCount(s string) (int, error) {
	s = CleanCell(s)
	if s == "" {
		return 0, nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errNegative
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, errNotInteger
	}
	if d.GreaterThan(maxCount) {
		return 0, errOutOfRange
	}
	return int(d.IntPart()), nil
}

// parseDecimal handles thousands separators, decimal commas and the
// accounting "(1.5)" negative form.
func parseDecimal(s string) (decimal.Decimal, error) {
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if decimalCommaRegex.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return decimal.Zero, errNotNumeric
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotNumeric
	}
	if isNegative {
		d = d.Neg()
	}
	return d, nil
}

// ParseClock normalises a clock time to HH:MM. Blank input yields "" and true.
func ParseClock(s string) (string, bool) {
	s = strings.ToUpper(CleanCell(s))
	if s == "" {
		return "", true
	}

	// Bare digits: 930, 1430
	if len(s) >= 3 && len(s) <= 4 && isDigits(s) {
		s = strings.Repeat("0", 4-len(s)) + s
		h, _ := strconv.Atoi(s[:2])
		m, _ := strconv.Atoi(s[2:])
		if h > 23 || m > 59 {
			return "", false
		}
		return s[:2] + ":" + s[2:], true
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching; the first occurrence
// of a duplicated label wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// cellAt returns the cleaned cell at position i, or "" when out of range.
func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return CleanCell(cells[i])
}

// isEmptyRow checks if all cells in a row are empty or whitespace.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func lowerClean(s string) string {
	return strings.ToLower(CleanCell(s))
}
