// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/logbook/internal/core"
)

// maxListedIssues caps the issues listed in a preview fragment.
const maxListedIssues = 50

// writer collects the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) printf(format string, args ...any) {
	w.text(fmt.Sprintf(format, args...))
}

// ErrorAlert is the error banner shown in place of a failed fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		w.text(message)
		w.raw(`</p>`)
		if action != "" {
			w.raw(`<p class="alert-action">`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`<p class="alert-code">Code: `)
		w.text(code)
		w.raw(`</p></div>`)
		return w.err
	})
}

// PreviewReport summarises a parsed file before commit.
func PreviewReport(importID string, report core.ParseReport) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section class="preview" id="preview-`)
		w.text(importID)
		w.raw(`"><dl class="preview-summary">`)
		stat(w, "Rows", fmt.Sprint(report.TotalRows))
		stat(w, "Valid flights", fmt.Sprint(report.ValidFlights))
		stat(w, "Zero-time flights", fmt.Sprint(report.ZeroTimeFlights))
		stat(w, "Excluded", fmt.Sprint(report.ExcludedFlights))
		stat(w, "Total hours", report.TotalHours.StringFixed(1))
		stat(w, "Aircraft", fmt.Sprint(report.AircraftCount))
		w.raw(`</dl>`)

		if len(report.FormatBreakdown) > 0 {
			w.raw(`<ul class="preview-formats">`)
			for _, fc := range report.FormatBreakdown {
				w.raw(`<li>`)
				w.printf("%s: %d", fc.Format, fc.Count)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}

		if len(report.Warnings) > 0 {
			w.raw(`<ul class="preview-warnings">`)
			for _, msg := range report.Warnings {
				w.raw(`<li>`)
				w.text(msg)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}

		issues(w, report.Issues)
		w.raw(`</section>`)
		return w.err
	})
}

func stat(w *writer, label, value string) {
	w.raw(`<dt>`)
	w.text(label)
	w.raw(`</dt><dd>`)
	w.text(value)
	w.raw(`</dd>`)
}

func issues(w *writer, list []core.ValidationIssue) {
	if len(list) == 0 {
		return
	}
	w.raw(`<table class="preview-issues"><thead><tr><th>Line</th><th>Field</th><th>Severity</th><th>Problem</th></tr></thead><tbody>`)
	for i, iss := range list {
		if i == maxListedIssues {
			w.raw(`<tr><td colspan="4">`)
			w.printf("%d more not shown", len(list)-maxListedIssues)
			w.raw(`</td></tr>`)
			break
		}
		w.raw(`<tr class="severity-`)
		w.text(string(iss.Severity))
		w.raw(`"><td>`)
		w.printf("%d", iss.Line)
		w.raw(`</td><td>`)
		w.text(string(iss.Field))
		w.raw(`</td><td>`)
		w.text(string(iss.Severity))
		w.raw(`</td><td>`)
		w.text(iss.Message)
		w.raw(`</td></tr>`)
	}
	w.raw(`</tbody></table>`)
}

// ImportSummary reports a finished import.
func ImportSummary(result core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		class := "import-success"
		if result.Failed > 0 {
			class = "import-partial"
		}
		w.raw(`<section class="`)
		w.text(class)
		w.raw(`"><p>`)
		w.printf("%d imported, %d failed", result.Success, result.Failed)
		w.raw(`</p>`)
		if len(result.DroppedColumns) > 0 {
			cols := make([]string, len(result.DroppedColumns))
			for i, c := range result.DroppedColumns {
				cols[i] = string(c)
			}
			w.raw(`<p class="import-dropped">Not saved: `)
			w.text(strings.Join(cols, ", "))
			w.raw(`</p>`)
		}
		if len(result.PerRowErrors) > 0 {
			w.raw(`<ul class="import-errors">`)
			for _, re := range result.PerRowErrors {
				w.raw(`<li>`)
				w.printf("Line %d: %s", re.Line, re.Message)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}
		w.raw(`</section>`)
		return w.err
	})
}
