package templates

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/logbook/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("<b>bad</b>", "Try again", "FMT001").Render(t.Context(), &buf))

	html := buf.String()
	assert.Contains(t, html, "&lt;b&gt;bad&lt;/b&gt;")
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Code: FMT001")
}

func TestPreviewReport(t *testing.T) {
	report := core.ParseReport{
		TotalRows:       3,
		ValidFlights:    2,
		ExcludedFlights: 1,
		TotalHours:      decimal.RequireFromString("2.7"),
		AircraftCount:   1,
		FormatBreakdown: core.FormatBreakdown{{Format: core.FormatBundledCurrent, Count: 3}},
		Warnings:        []string{"1 row: airports missing"},
		Issues: []core.ValidationIssue{
			{Line: 4, Field: core.FieldTotalTime, Severity: core.SeverityFatal, Message: "negative value"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PreviewReport("abc", report).Render(t.Context(), &buf))

	html := buf.String()
	assert.Contains(t, html, `id="preview-abc"`)
	assert.Contains(t, html, "<dd>2.7</dd>")
	assert.Contains(t, html, "bundled_current: 3")
	assert.Contains(t, html, "airports missing")
	assert.Contains(t, html, `class="severity-fatal"`)
	assert.Contains(t, html, "negative value")
}

func TestPreviewReport_CapsIssues(t *testing.T) {
	var report core.ParseReport
	for i := range maxListedIssues + 5 {
		report.Issues = append(report.Issues, core.ValidationIssue{Line: i + 2, Severity: core.SeverityWarning})
	}

	var buf bytes.Buffer
	require.NoError(t, PreviewReport("x", report).Render(t.Context(), &buf))
	assert.Contains(t, buf.String(), "5 more not shown")
}

func TestImportSummary(t *testing.T) {
	result := core.ImportResult{
		Success:        4,
		Failed:         1,
		State:          core.ExecPartiallyFailed,
		DroppedColumns: []core.Field{core.FieldGroundTraining},
		PerRowErrors:   []core.RowError{{Line: 7, Message: "insert: constraint"}},
	}

	var buf bytes.Buffer
	require.NoError(t, ImportSummary(result).Render(t.Context(), &buf))

	html := buf.String()
	assert.Contains(t, html, "import-partial")
	assert.Contains(t, html, "4 imported, 1 failed")
	assert.Contains(t, html, "ground_training_time")
	assert.Contains(t, html, "Line 7: insert: constraint")
}
