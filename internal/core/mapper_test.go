package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genericContent = "Flight Date,Tail,Model,Origin,Destination,Hours,Notes\n" +
	"2024-01-15,N12345,C172,KJFK,KLGA,1.2,first\n" +
	"01/16/2024,N67890,,KLGA,,0:45,second\n"

func genericMapper(t *testing.T) *FieldMapper {
	t.Helper()
	insp, err := NewParser(ParserConfig{}, testLogger()).Inspect(mustRows(t, genericContent))
	require.NoError(t, err)
	require.Equal(t, KindGeneric, insp.Kind)
	return NewFieldMapper(insp.Headers)
}

func TestFieldMapper_MissingRequiredBlocksPreview(t *testing.T) {
	m := genericMapper(t)
	require.NoError(t, m.Map("Flight Date", FieldDate))
	require.NoError(t, m.Map("Tail", FieldAircraftID))
	require.NoError(t, m.Map("Origin", FieldDeparture))
	require.NoError(t, m.Map("Destination", FieldArrival))

	err := m.ProceedToPreview()
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []Field{FieldAircraftType, FieldTotalTime}, missing.Fields)

	res, err := NewParser(ParserConfig{}, testLogger()).Parse(t.Context(), mustRows(t, genericContent), m)
	assert.Nil(t, res, "no report is built while required fields are unmapped")
	assert.ErrorAs(t, err, &missing)
}

func TestFieldMapper_ParseMappedFile(t *testing.T) {
	m := genericMapper(t)
	require.NoError(t, m.Apply([]FieldMapping{
		{SourceColumn: "Flight Date", CanonicalField: FieldDate},
		{SourceColumn: "Tail", CanonicalField: FieldAircraftType},
		{SourceColumn: "Tail", CanonicalField: FieldAircraftID},
		{SourceColumn: "Model", CanonicalField: FieldAircraftType},
		{SourceColumn: "Origin", CanonicalField: FieldDeparture},
		{SourceColumn: "Destination", CanonicalField: FieldArrival},
		{SourceColumn: "Hours", CanonicalField: FieldTotalTime},
		{SourceColumn: "Notes", CanonicalField: ""},
	}))

	// Tail was mapped twice; the later assignment replaced the earlier one.
	f, ok := m.FieldFor("tail")
	require.True(t, ok)
	assert.Equal(t, FieldAircraftID, f)
	require.NoError(t, m.ProceedToPreview())

	res := mustParse(t, genericContent, m)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, KindGeneric, res.Kind)
	assert.Equal(t, 2, res.Report.FormatBreakdown.Get(FormatGenericMapped))

	second := res.Rows[1].Record
	assert.Equal(t, "KLGA", second.Arrival, "arrival falls back to departure")
	assert.Equal(t, "0.75", second.TotalTime.String())
	assert.Equal(t, "N67890", second.AircraftType, "type backfilled from registration")
	assert.Empty(t, second.Remarks, "unmapped column is not imported")
}

func TestFieldMapper_RemapAndUnmap(t *testing.T) {
	m := genericMapper(t)
	require.NoError(t, m.Map("Hours", FieldTotalTime))
	require.NoError(t, m.Map("Hours", FieldPIC))

	assert.Equal(t, []FieldMapping{{SourceColumn: "Hours", CanonicalField: FieldPIC}}, m.Mappings())
	assert.Contains(t, m.MissingRequired(), FieldTotalTime)

	m.Unmap("HOURS")
	assert.Empty(t, m.Mappings())

	require.NoError(t, m.Map("Notes", FieldRemarks))
	m.Reset()
	assert.Empty(t, m.Mappings())
}

func TestFieldMapper_MapErrors(t *testing.T) {
	m := genericMapper(t)

	err := m.Map("Nope", FieldDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column not found")

	err = m.Map("Hours", Field("flux_capacitor"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	err = m.Map("Hours", FieldInstrument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be mapped")
}

func TestFieldMapper_ApplyIsAtomic(t *testing.T) {
	m := genericMapper(t)
	require.NoError(t, m.Map("Hours", FieldTotalTime))

	err := m.Apply([]FieldMapping{
		{SourceColumn: "Flight Date", CanonicalField: FieldDate},
		{SourceColumn: "Missing", CanonicalField: FieldRemarks},
	})
	require.Error(t, err)
	assert.Equal(t, []FieldMapping{{SourceColumn: "Hours", CanonicalField: FieldTotalTime}}, m.Mappings())
}

func TestFieldMapper_SeveralColumnsFirstNonBlankWins(t *testing.T) {
	content := "Date,Tail,Type,From,To,Hobbs,Block\n" +
		"2024-01-15,N1,C172,KJFK,KLGA,,1.4\n" +
		"2024-01-16,N1,C172,KJFK,KLGA,1.1,1.3\n"

	m := NewFieldMapper(strings.Split("Date,Tail,Type,From,To,Hobbs,Block", ","))
	m.ApplySuggestions()
	require.NoError(t, m.Map("Hobbs", FieldTotalTime))
	require.NoError(t, m.Map("Block", FieldTotalTime))

	res := mustParse(t, content, m)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "1.4", res.Rows[0].Record.TotalTime.String())
	assert.Equal(t, "1.1", res.Rows[1].Record.TotalTime.String())
}

func TestFieldMapper_Suggest(t *testing.T) {
	m := NewFieldMapper([]string{"Flight Date", "Tail Number", "Total_Time", "total-time", "Origin", "Mystery", "Remarks"})

	assert.Equal(t, []FieldMapping{
		{SourceColumn: "Flight Date", CanonicalField: FieldDate},
		{SourceColumn: "Tail Number", CanonicalField: FieldAircraftID},
		{SourceColumn: "Total_Time", CanonicalField: FieldTotalTime},
		{SourceColumn: "Origin", CanonicalField: FieldDeparture},
		{SourceColumn: "Remarks", CanonicalField: FieldRemarks},
	}, m.Suggest())
	assert.Empty(t, m.Mappings(), "Suggest does not apply anything")

	m.ApplySuggestions()
	assert.Len(t, m.Mappings(), 5)
}

func TestFieldMapper_StandardTemplateFullySuggested(t *testing.T) {
	data, _, err := DownloadTemplate(TemplateStandard)
	require.NoError(t, err)

	rows := mustRows(t, string(data))
	require.Len(t, rows, 1)

	m := NewFieldMapper(rows[0].Cells)
	suggested := m.ApplySuggestions()
	assert.Len(t, suggested, len(rows[0].Cells), "every standard label is recognised")
	assert.Empty(t, m.MissingRequired())
}
