package core

import (
	"log/slog"
	"regexp"
	"strings"
)

// flightHeaderMinColumns is exceeded by every real flights header; shorter
// rows starting with "Date" are treated as data or noise.
const flightHeaderMinColumns = 4

// Reasons attached to rows dropped while splitting.
const (
	DropMissingDate     = "missing date"
	DropMissingAircraft = "missing aircraft"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}`),
		regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}`),
	}
	plausibleYearRegex = regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)\b`)
)

// PlausibleDate reports whether a cell looks like it denotes a date. Some
// exports mixed separators inconsistently, so any cell carrying a 4-digit
// year between 1950 and 2049 also qualifies.
func PlausibleDate(s string) bool {
	s = CleanCell(s)
	if s == "" {
		return false
	}
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return plausibleYearRegex.MatchString(s)
}

type section int

const (
	sectionNone section = iota
	sectionAircraft
	sectionFlights
)

// FlightRow is a flight candidate paired with the layout it was read under.
type FlightRow struct {
	SourceRow
	Layout *Layout
}

// Sections is the result of splitting a bundled export.
type Sections struct {
	Aircraft *AircraftIndex
	Flights  []FlightRow
	Dropped  []DroppedRow
}

// SplitSections walks a bundled export in order, building the aircraft
// index and collecting flight rows. Flight candidates without a plausible
// date or without an aircraft are dropped with a reason instead of failing
// the run.
func SplitSections(rows []SourceRow, logger *slog.Logger) *Sections {
	if logger == nil {
		logger = slog.Default()
	}

	out := &Sections{}
	builder := NewAircraftIndexBuilder()
	current := sectionNone
	headerFound := false
	var layout *Layout

	for _, row := range rows {
		if isEmptyRow(row.Cells) {
			continue
		}
		lead := lowerClean(row.Cells[0])

		switch lead {
		case aircraftSectionLabel:
			current, headerFound = sectionAircraft, false
			continue
		case flightsSectionLabel:
			current, headerFound, layout = sectionFlights, false, nil
			continue
		}

		switch current {
		case sectionAircraft:
			if lead == aircraftIDLabel {
				if !headerFound {
					headerFound = true
					builder.SetHeader(row.Cells)
				} else {
					logger.Debug("repeated aircraft header skipped", "line", row.Line)
				}
				continue
			}
			builder.Add(row.Cells)

		case sectionFlights:
			if lead == "date" && len(row.Cells) > flightHeaderMinColumns {
				if !headerFound {
					headerFound = true
					layout = BundledLayout(row.Cells)
				} else {
					logger.Debug("repeated flights header skipped", "line", row.Line)
				}
				continue
			}

			if !PlausibleDate(row.Cells[0]) {
				out.drop(logger, row.Line, DropMissingDate)
				continue
			}
			if layout == nil {
				layout = LegacyLayout()
				logger.Debug("flights section has no header, using legacy layout", "line", row.Line)
			}
			if layout.cell(row.Cells, FieldAircraftID) == "" {
				out.drop(logger, row.Line, DropMissingAircraft)
				continue
			}
			out.Flights = append(out.Flights, FlightRow{SourceRow: row, Layout: layout})
		}
	}

	out.Aircraft = builder.Build()
	logger.Debug("sections split",
		"aircraft", out.Aircraft.Len(),
		"flights", len(out.Flights),
		"dropped", len(out.Dropped),
	)
	return out
}

func (s *Sections) drop(logger *slog.Logger, line int, reason string) {
	s.Dropped = append(s.Dropped, DroppedRow{Line: line, Reason: reason})
	logger.Warn("flight row dropped", "line", line, "reason", reason)
}

// genericRows splits a generic file into its header and data rows.
func genericRows(rows []SourceRow) ([]string, []SourceRow) {
	var header []string
	var data []SourceRow
	for _, row := range rows {
		if isEmptyRow(row.Cells) {
			continue
		}
		if header == nil {
			header = trimHeader(row.Cells)
			continue
		}
		data = append(data, row)
	}
	return header, data
}

func trimHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(CleanCell(c))
	}
	return out
}
