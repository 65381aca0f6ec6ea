package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlausibleDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-01-15", true},
		{"2024-1-5", true},
		{"1/15/2024", true},
		{"1-15-2024", true},
		{"2024/1/15", true},
		{"15.01.2024", true}, // year match only
		{"Jan 15 1998", true},
		{"", false},
		{"N12345", false},
		{"Totals", false},
		{"N1975X", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlausibleDate(tt.input), "PlausibleDate(%q)", tt.input)
	}
}

func TestSplitSections_Basic(t *testing.T) {
	content := bundled(
		"2024-01-15,N12345,KJFK,KLGA,,,,1.2",
		"2024-01-16,N67890,KLGA,KBOS,,,,1.5",
	)
	sec := SplitSections(mustRows(t, content), testLogger())

	require.Len(t, sec.Flights, 2)
	assert.Empty(t, sec.Dropped)
	assert.Equal(t, 2, sec.Aircraft.Len())

	info, ok := sec.Aircraft.Lookup("n12345")
	require.True(t, ok)
	assert.Equal(t, AircraftInfo{ID: "N12345", TypeCode: "C172", Make: "Cessna", Model: "172S"}, info)

	assert.Equal(t, FormatBundledCurrent, sec.Flights[0].Layout.Tag)
	assert.Equal(t, "2024-01-15", sec.Flights[0].Cells[0])
}

func TestSplitSections_DropsRowsWithReasons(t *testing.T) {
	content := bundled(
		"2024-01-15,N12345,KJFK,KLGA,,,,1.2",
		"Totals,,,,,,,42.0",
		"2024-01-17,,KJFK,KLGA,,,,1.0",
		"2024-01-18,N67890,KBOS,KJFK,,,,2.0",
	)
	rows := mustRows(t, content)
	sec := SplitSections(rows, testLogger())

	require.Len(t, sec.Flights, 2)
	require.Len(t, sec.Dropped, 2)
	assert.Equal(t, DropMissingDate, sec.Dropped[0].Reason)
	assert.Equal(t, DropMissingAircraft, sec.Dropped[1].Reason)
	assert.Less(t, sec.Dropped[0].Line, sec.Dropped[1].Line)
}

func TestSplitSections_RepeatedHeaders(t *testing.T) {
	content := bundledBanner +
		"Aircraft Table\n" +
		"AircraftID,TypeCode,Year,Make,Model\n" +
		"AircraftID,TypeCode,Year,Make,Model\n" +
		"N12345,C172,,Cessna,172S\n" +
		"Flights Table\n" +
		currentFlightsHeader +
		"2024-01-15,N12345,KJFK,KLGA,,,,1.2\n" +
		currentFlightsHeader +
		"2024-01-16,N12345,KLGA,KJFK,,,,1.1\n"

	sec := SplitSections(mustRows(t, content), testLogger())

	assert.Equal(t, 1, sec.Aircraft.Len())
	_, ok := sec.Aircraft.Lookup("AircraftID")
	assert.False(t, ok, "header must never be indexed as an aircraft")
	assert.Len(t, sec.Flights, 2)
	assert.Empty(t, sec.Dropped)
}

func TestSplitSections_ShortAircraftRowsIgnored(t *testing.T) {
	content := bundledBanner +
		"Aircraft Table\n" +
		"AircraftID,TypeCode,Year,Make,Model\n" +
		"N1,C150\n" +
		"N2,C152,,Cessna,152\n"

	sec := SplitSections(mustRows(t, content), testLogger())

	assert.Equal(t, 1, sec.Aircraft.Len())
	_, ok := sec.Aircraft.Lookup("N1")
	assert.False(t, ok)
}

func TestSplitSections_HeaderlessFlightsUseLegacyLayout(t *testing.T) {
	content := bundledBanner +
		"Flights Table\n" +
		"2018-06-01,N12345,KSQL,KHAF,,,,1.4\n"

	sec := SplitSections(mustRows(t, content), testLogger())

	require.Len(t, sec.Flights, 1)
	assert.Equal(t, FormatBundledLegacy, sec.Flights[0].Layout.Tag)
}

func TestSplitSections_LegacyHeader(t *testing.T) {
	content := bundledBanner +
		"Flights Table\n" +
		"Date,AircraftID,From,To,Route,TimeOut,TimeIn,TotalTime\n" +
		"2018-06-01,N12345,KSQL,KHAF,,,,1.4\n"

	sec := SplitSections(mustRows(t, content), testLogger())

	require.Len(t, sec.Flights, 1)
	assert.Equal(t, FormatBundledLegacy, sec.Flights[0].Layout.Tag)
}

func TestAircraftIndexBuilder_FirstEntryWins(t *testing.T) {
	b := NewAircraftIndexBuilder()
	assert.True(t, b.Add([]string{"N1", "C172", "", "Cessna", "172S"}))
	assert.False(t, b.Add([]string{"n1", "PA28", "", "Piper", "Archer"}))
	assert.False(t, b.Add([]string{"", "PA28", "", "Piper", "Archer"}))

	ix := b.Build()
	info, ok := ix.Lookup("N1")
	require.True(t, ok)
	assert.Equal(t, "C172", info.TypeCode)
	assert.Len(t, ix.All(), 1)
}

func TestAircraftIndexBuilder_HeaderColumns(t *testing.T) {
	b := NewAircraftIndexBuilder()
	b.SetHeader([]string{"Make", "Model", "AircraftID", "Year", "TypeCode"})
	b.Add([]string{"Cessna", "172S", "N1", "2004", "C172"})

	info, ok := b.Build().Lookup("N1")
	require.True(t, ok)
	assert.Equal(t, AircraftInfo{ID: "N1", TypeCode: "C172", Make: "Cessna", Model: "172S"}, info)
}

func TestAircraftIndex_NilIsEmpty(t *testing.T) {
	var ix *AircraftIndex
	_, ok := ix.Lookup("N1")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
}
