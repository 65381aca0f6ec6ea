package core

import (
	"strings"
)

// MinHeaderColumns is the smallest column count accepted as a generic header.
const MinHeaderColumns = 3

// bundledSentinels are phrases found in the first cell of a bundled export.
// Matching is case-insensitive and by substring.
var bundledSentinels = []string{
	"foreflight logbook import",
	"logbook import",
	"logbook export",
}

// Section labels inside a bundled export.
const (
	aircraftSectionLabel = "aircraft table"
	flightsSectionLabel  = "flights table"
)

// DetectFormat classifies a file by inspecting its first non-empty row.
// Unrecognized files return a *FormatError.
func DetectFormat(rows []SourceRow) (FileKind, error) {
	first, ok := firstNonEmpty(rows)
	if !ok {
		return KindUnrecognized, &FormatError{Reason: "file has no rows"}
	}

	lead := strings.ToLower(CleanCell(first.Cells[0]))
	for _, s := range bundledSentinels {
		if strings.Contains(lead, s) {
			return KindBundled, nil
		}
	}
	// An export trimmed of its banner still starts with a section label.
	if lead == aircraftSectionLabel || lead == flightsSectionLabel {
		return KindBundled, nil
	}

	if reason := headerProblem(first.Cells); reason != "" {
		return KindUnrecognized, &FormatError{Reason: reason}
	}
	return KindGeneric, nil
}

// headerProblem explains why a row is not a plausible header, or returns ""
// when it is: at least MinHeaderColumns distinct labels, mostly non-numeric.
func headerProblem(cells []string) string {
	seen := make(map[string]bool, len(cells))
	labels, numeric := 0, 0

	for _, c := range cells {
		c = strings.ToLower(CleanCell(c))
		if c == "" {
			continue
		}
		if seen[c] {
			return "header row has duplicate column " + c
		}
		seen[c] = true
		labels++
		if _, err := parseDecimal(c); err == nil {
			numeric++
		} else if _, ok := ParseDate(c); ok {
			numeric++
		}
	}

	if labels < MinHeaderColumns {
		return "first row has fewer than 3 columns"
	}
	if numeric*2 >= labels {
		return "first row looks like data, not a header"
	}
	return ""
}

func firstNonEmpty(rows []SourceRow) (SourceRow, bool) {
	for _, r := range rows {
		if !isEmptyRow(r.Cells) {
			return r, true
		}
	}
	return SourceRow{}, false
}
