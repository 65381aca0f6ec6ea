package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

const bundledBanner = "ForeFlight Logbook Import,This row is required for importing into ForeFlight. Do not delete or modify.\n"

const aircraftSection = `Aircraft Table
AircraftID,TypeCode,Year,Make,Model,GearType,EngineType
N12345,C172,,Cessna,172S,fixed_tricycle,Piston
N67890,PA28,1978,Piper,PA-28-181,fixed_tricycle,Piston
`

const currentFlightsHeader = "Date,AircraftID,From,To,Route,TimeOut,TimeIn,TotalTime,PIC,Night,DayLandingsFullStop,NightLandingsFullStop,AllLandings,ActualInstrument,SimulatedInstrument,Approach1,Approach2,PilotComments\n"

// bundled assembles a bundled export around the given flight rows.
func bundled(flightRows ...string) string {
	var b strings.Builder
	b.WriteString(bundledBanner)
	b.WriteString("\n")
	b.WriteString(aircraftSection)
	b.WriteString("\n")
	b.WriteString("Flights Table\n")
	b.WriteString(currentFlightsHeader)
	for _, r := range flightRows {
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

func mustRows(t *testing.T, content string) []SourceRow {
	t.Helper()
	rows, err := ReadRows("logbook.csv", strings.NewReader(content), 0)
	require.NoError(t, err)
	return rows
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, content string, mapper *FieldMapper) *ParseResult {
	t.Helper()
	p := NewParser(ParserConfig{Workers: 2, ChunkSize: 3}, testLogger())
	res, err := p.Parse(context.Background(), mustRows(t, content), mapper)
	require.NoError(t, err)
	return res
}

func issuesOn(issues []ValidationIssue, f Field) []ValidationIssue {
	var out []ValidationIssue
	for _, iss := range issues {
		if iss.Field == f {
			out = append(out, iss)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// MockFlightStore
// ----------------------------------------------------------------------------

type MockFlightStore struct {
	mock.Mock
}

func (m *MockFlightStore) InsertFlights(ctx context.Context, records []FlightRecord, columns []Field) (BatchResult, error) {
	args := m.Called(ctx, records, columns)
	return args.Get(0).(BatchResult), args.Error(1)
}

func (m *MockFlightStore) UpsertAircraft(ctx context.Context, info AircraftInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

// MockTemplateStore keeps templates in memory.
type MockTemplateStore struct {
	templates []MappingTemplate
	err       error
}

func (m *MockTemplateStore) CreateMappingTemplate(_ context.Context, t MappingTemplate) error {
	if m.err != nil {
		return m.err
	}
	m.templates = append(m.templates, t)
	return nil
}

func (m *MockTemplateStore) ListMappingTemplates(_ context.Context) ([]MappingTemplate, error) {
	return m.templates, m.err
}
