package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// ParseHours Tests
// ----------------------------------------------------------------------------

func TestParseHours(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "blank is zero", input: "", want: "0"},
		{name: "whitespace is zero", input: "   ", want: "0"},
		{name: "decimal", input: "1.2", want: "1.2"},
		{name: "stray whitespace", input: " 2.5 ", want: "2.5"},
		{name: "integer", input: "3", want: "3"},
		{name: "leading point", input: ".5", want: "0.5"},
		{name: "hours minutes", input: "1:12", want: "1.2"},
		{name: "hours minutes rounded", input: "0:20", want: "0.33"},
		{name: "decimal comma", input: "1,5", want: "1.5"},
		{name: "thousands separator", input: "1,234.5", want: "1234.5"},
		{name: "excel formula", input: `="1.3"`, want: "1.3"},
		{name: "negative", input: "-1.0", wantErr: errNegative},
		{name: "accounting negative", input: "(2.0)", wantErr: errNegative},
		{name: "negative hours minutes", input: "-1:30", wantErr: errNegative},
		{name: "text", input: "abc", wantErr: errNotNumeric},
		{name: "mixed", input: "1.2h", wantErr: errNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHours(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

// ----------------------------------------------------------------------------
// ParseCount Tests
// ----------------------------------------------------------------------------

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{name: "blank", input: "", want: 0},
		{name: "integer", input: "3", want: 3},
		{name: "integral decimal", input: "2.0", want: 2},
		{name: "padded", input: " 4 ", want: 4},
		{name: "fraction", input: "1.5", wantErr: errNotInteger},
		{name: "negative", input: "-1", wantErr: errNegative},
		{name: "text", input: "two", wantErr: errNotNumeric},
		{name: "int32 max", input: "2147483647", want: math.MaxInt32},
		{name: "above int32", input: "2147483648", wantErr: errOutOfRange},
		{name: "beyond int64", input: "99999999999999999999", wantErr: errOutOfRange},
		{name: "wraps to one", input: "18446744073709551617", wantErr: errOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "iso", input: "2024-01-15", want: jan15, wantOK: true},
		{name: "iso unpadded", input: "2024-1-15", want: jan15, wantOK: true},
		{name: "iso slashes", input: "2024/1/15", want: jan15, wantOK: true},
		{name: "us", input: "1/15/2024", want: jan15, wantOK: true},
		{name: "us dashes", input: "1-15-2024", want: jan15, wantOK: true},
		{name: "month name", input: "Jan 15, 2024", want: jan15, wantOK: true},
		{name: "timestamp", input: "2024-01-15T14:30:00Z", want: jan15, wantOK: true},
		{name: "two digit year", input: "1/15/24", want: jan15, wantOK: true},
		{name: "two digit year last century", input: "3/4/98", want: time.Date(1998, 3, 4, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "blank", input: "", wantOK: false},
		{name: "impossible date", input: "2024-02-30", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseClock Tests
// ----------------------------------------------------------------------------

func TestParseClock(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"", "", true},
		{"1430", "14:30", true},
		{"930", "09:30", true},
		{"14:30", "14:30", true},
		{"14:30:59", "14:30", true},
		{"2:30 PM", "14:30", true},
		{"2:30pm", "14:30", true},
		{"2024-01-15 14:30", "14:30", true},
		{"2024-01-15T14:30:00Z", "14:30", true},
		{"2560", "", false},
		{"noon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseClock(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell / MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  N12345 ", "N12345"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCell(tt.input), "CleanCell(%q)", tt.input)
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Date", " AircraftID ", "", "From", "date"})

	assert.Equal(t, 0, idx["date"], "first duplicate wins")
	assert.Equal(t, 1, idx["aircraftid"])
	assert.Equal(t, 3, idx["from"])
	_, hasBlank := idx[""]
	assert.False(t, hasBlank)
}
