package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyFlights(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("2024-01-%02d,N%d,KJFK,KLGA,,,,%d.%d", i%28+1, 100+i, i%5, i%10)
	}
	return bundled(rows...)
}

func TestParse_PreservesFileOrderAcrossChunks(t *testing.T) {
	const n = 103
	content := manyFlights(n)

	for _, cfg := range []ParserConfig{
		{Workers: 1, ChunkSize: 1000},
		{Workers: 4, ChunkSize: 7},
		{Workers: 16, ChunkSize: 1},
	} {
		t.Run(fmt.Sprintf("workers=%d/chunk=%d", cfg.Workers, cfg.ChunkSize), func(t *testing.T) {
			res, err := NewParser(cfg, testLogger()).Parse(t.Context(), mustRows(t, content), nil)
			require.NoError(t, err)
			require.Len(t, res.Rows, n)

			for i, r := range res.Rows {
				assert.Equal(t, i, r.Index)
				assert.Equal(t, fmt.Sprintf("N%d", 100+i), r.Record.AircraftID)
				if i > 0 {
					assert.Greater(t, r.Line, res.Rows[i-1].Line)
				}
			}
		})
	}
}

func TestParse_ChunkingDoesNotChangeReport(t *testing.T) {
	content := manyFlights(50)

	serial, err := NewParser(ParserConfig{Workers: 1, ChunkSize: 1000}, testLogger()).Parse(t.Context(), mustRows(t, content), nil)
	require.NoError(t, err)
	parallel, err := NewParser(ParserConfig{Workers: 8, ChunkSize: 3}, testLogger()).Parse(t.Context(), mustRows(t, content), nil)
	require.NoError(t, err)

	assert.Equal(t, serial.Report, parallel.Report)
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := NewParser(ParserConfig{Workers: 2, ChunkSize: 5}, testLogger()).Parse(ctx, mustRows(t, manyFlights(20)), nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_GenericWithoutMapper(t *testing.T) {
	_, err := NewParser(ParserConfig{}, testLogger()).Parse(t.Context(), mustRows(t, "Date,Tail,Hours\n2024-01-15,N1,1\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a field mapping")
}

func TestParse_DroppedRowsReported(t *testing.T) {
	res := mustParse(t, bundled(
		"2024-01-15,N12345,KJFK,KLGA,,,,1.2",
		"Totals,,,,,,,1.2",
	), nil)

	assert.Equal(t, 2, res.Report.TotalRows)
	assert.Equal(t, 1, res.Report.ValidFlights)
	require.Len(t, res.Report.DroppedRows, 1)
	assert.Equal(t, DropMissingDate, res.Report.DroppedRows[0].Reason)
	assert.Equal(t, 1, res.Report.AircraftCount)
}

func TestInspect(t *testing.T) {
	p := NewParser(ParserConfig{}, testLogger())

	insp, err := p.Inspect(mustRows(t, bundled("2024-01-15,N1,KJFK,KLGA,,,,1")))
	require.NoError(t, err)
	assert.Equal(t, KindBundled, insp.Kind)
	assert.Nil(t, insp.Headers)

	insp, err = p.Inspect(mustRows(t, "\n Date , Tail ,Hours\n2024-01-15,N1,1\n"))
	require.NoError(t, err)
	assert.Equal(t, KindGeneric, insp.Kind)
	assert.Equal(t, []string{"Date", "Tail", "Hours"}, insp.Headers)
}

func TestParseResult_Accepted(t *testing.T) {
	res := mustParse(t, bundled(
		"2024-01-15,N12345,KJFK,KLGA,,,,1.2",
		"2024-01-16,N12345,KJFK,KLGA,,,,0",
		"2024-01-17,N12345,KJFK,KLGA,,,,-2",
		"2024-01-18,N67890,KLGA,KJFK,,,,0.9",
	), nil)

	all := res.Accepted(false)
	require.Len(t, all, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{all[0].Row, all[1].Row, all[2].Row})

	nonZero := res.Accepted(true)
	require.Len(t, nonZero, 2)
	assert.Equal(t, "N67890", nonZero[1].Record.AircraftID)
}

func TestChunkPool_Empty(t *testing.T) {
	pool := newChunkPool(4, 10, testLogger())
	out, err := pool.run(t.Context(), 0, func(int) NormalizedRow {
		t.Fatal("fn must not be called")
		return NormalizedRow{}
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}
