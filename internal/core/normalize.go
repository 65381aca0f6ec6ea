package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownAirport is the departure code used when a row names no airport.
const UnknownAirport = "UNK"

// Default reasons recorded on FlightRecord.Defaults.
const (
	DefaultFromAircraftTable = "type from aircraft table"
	DefaultFromRegistration  = "type unresolved, registration used"
	DefaultArrivalFromDep    = "arrival missing, departure used"
	DefaultUnknownAirport    = "airport missing"
)

// Normalizer converts raw flight rows into canonical records. It holds only
// read-only state and may be used from several goroutines.
type Normalizer struct {
	aircraft *AircraftIndex
}

// NewNormalizer creates a normalizer. aircraft may be nil.
func NewNormalizer(aircraft *AircraftIndex) *Normalizer {
	return &Normalizer{aircraft: aircraft}
}

// rowBuilder accumulates the record and issues for one row.
type rowBuilder struct {
	cells  []string
	layout *Layout
	out    NormalizedRow
}

func (b *rowBuilder) issue(f Field, code, msg string, sev Severity) {
	b.out.Issues = append(b.out.Issues, ValidationIssue{
		Row:      b.out.Index,
		Line:     b.out.Line,
		Field:    f,
		Code:     code,
		Message:  msg,
		Severity: sev,
	})
}

func (b *rowBuilder) text(f Field) string {
	return b.layout.cell(b.cells, f)
}

func (b *rowBuilder) hours(f Field) decimal.Decimal {
	raw := b.text(f)
	d, err := ParseHours(raw)
	if err != nil {
		b.numericIssue(f, raw, err)
		return decimal.Zero
	}
	return d
}

func (b *rowBuilder) count(f Field) int {
	raw := b.text(f)
	n, err := ParseCount(raw)
	if err != nil {
		b.numericIssue(f, raw, err)
		return 0
	}
	return n
}

func (b *rowBuilder) numericIssue(f Field, raw string, err error) {
	code := CodeNotNumeric
	switch {
	case errors.Is(err, errNegative):
		code = CodeNegative
	case errors.Is(err, errNotInteger):
		code = CodeNotInteger
	case errors.Is(err, errOutOfRange):
		code = CodeOutOfRange
	}
	fe := &FieldValidationError{Row: b.out.Index, Field: f, Value: raw, Message: err.Error()}
	b.out.Issues = append(b.out.Issues, fe.Issue(b.out.Line, code))
}

func (b *rowBuilder) clock(f Field) string {
	raw := b.text(f)
	v, ok := ParseClock(raw)
	if !ok {
		b.issue(f, CodeInvalidClock, "unrecognized clock time "+strconv.Quote(raw)+", left blank", SeverityWarning)
	}
	return v
}

func (b *rowBuilder) setDefault(f Field, value, reason string) {
	b.out.Record.Defaults = append(b.out.Record.Defaults, AppliedDefault{Field: f, Value: value, Reason: reason})
}

// Normalize converts one row. index is the row's position among data rows
// in file order. Problems are attached to the returned row as issues; the
// Validator adds the required-field checks afterwards.
func (n *Normalizer) Normalize(index int, row SourceRow, layout *Layout) NormalizedRow {
	b := &rowBuilder{
		cells:  row.Cells,
		layout: layout,
		out: NormalizedRow{
			Index:  index,
			Line:   row.Line,
			Format: layout.Tag,
		},
	}
	rec := &b.out.Record

	for _, f := range RequiredFields() {
		// Type and airports are backfilled, so only their values are checked.
		if f == FieldAircraftType || f == FieldDeparture || f == FieldArrival {
			continue
		}
		if !layout.Has(f) {
			b.out.Missing = append(b.out.Missing, f)
		}
	}

	rawDate := b.text(FieldDate)
	if d, ok := ParseDate(rawDate); ok {
		rec.Date = d
	} else if rawDate != "" {
		b.issue(FieldDate, CodeInvalidDate, "invalid date "+strconv.Quote(rawDate), SeverityFatal)
	}

	rec.AircraftID = strings.ToUpper(b.text(FieldAircraftID))
	rec.AircraftType = b.text(FieldAircraftType)
	if rec.AircraftType == "" && rec.AircraftID != "" {
		if info, ok := n.aircraft.Lookup(rec.AircraftID); ok && info.TypeCode != "" {
			rec.AircraftType = info.TypeCode
			b.setDefault(FieldAircraftType, info.TypeCode, DefaultFromAircraftTable)
		} else {
			rec.AircraftType = rec.AircraftID
			b.setDefault(FieldAircraftType, rec.AircraftID, DefaultFromRegistration)
			b.issue(FieldAircraftType, CodeTypeFromRegistration, "aircraft type unknown, registration used as type", SeverityWarning)
		}
	}

	n.airports(b)

	rec.TotalTime = b.hours(FieldTotalTime)
	rec.PIC = b.hours(FieldPIC)
	rec.SIC = b.hours(FieldSIC)
	rec.Solo = b.hours(FieldSolo)
	rec.Night = b.hours(FieldNight)
	rec.CrossCountry = b.hours(FieldCrossCountry)
	rec.ActualInstrument = b.hours(FieldActualInstrument)
	rec.SimulatedInstrument = b.hours(FieldSimulatedInstrument)
	rec.Instrument = rec.ActualInstrument.Add(rec.SimulatedInstrument)
	rec.DualGiven = b.hours(FieldDualGiven)
	rec.DualReceived = b.hours(FieldDualReceived)
	rec.SimulatedFlight = b.hours(FieldSimulatedFlight)
	rec.GroundTraining = b.hours(FieldGroundTraining)

	rec.Holds = b.count(FieldHolds)
	rec.Approaches = n.approaches(b)
	rec.DayTakeoffs = b.count(FieldDayTakeoffs)
	rec.DayLandings = b.count(FieldDayLandings)
	rec.NightTakeoffs = b.count(FieldNightTakeoffs)
	rec.NightLandings = b.count(FieldNightLandings)
	rec.DayLandingsFullStop = b.count(FieldDayLandingsFullStop)
	rec.NightLandingsFullStop = b.count(FieldNightLandingsFullStop)
	rec.Landings, rec.LandingsSource = n.landings(b)

	rec.Route = b.text(FieldRoute)
	rec.Remarks = b.text(FieldRemarks)
	rec.StartTime = b.clock(FieldStartTime)
	rec.EndTime = b.clock(FieldEndTime)

	b.out.ZeroTime = rec.TotalTime.IsZero() && !hasIssueOn(b.out.Issues, FieldTotalTime)
	return b.out
}

// airports applies the fallback chain: arrival falls back to departure and
// departure falls back to UnknownAirport. One warning is raised per row.
func (n *Normalizer) airports(b *rowBuilder) {
	rec := &b.out.Record
	rec.Departure = strings.ToUpper(b.text(FieldDeparture))
	rec.Arrival = strings.ToUpper(b.text(FieldArrival))

	switch {
	case rec.Departure == "" && rec.Arrival == "":
		rec.Departure, rec.Arrival = UnknownAirport, UnknownAirport
		b.setDefault(FieldDeparture, UnknownAirport, DefaultUnknownAirport)
		b.setDefault(FieldArrival, UnknownAirport, DefaultUnknownAirport)
		b.issue(FieldDeparture, CodeAirportDefaulted, "departure and arrival airports missing, set to "+UnknownAirport, SeverityWarning)
	case rec.Arrival == "":
		rec.Arrival = rec.Departure
		b.setDefault(FieldArrival, rec.Departure, DefaultArrivalFromDep)
		b.issue(FieldArrival, CodeAirportDefaulted, "arrival airport missing, departure used", SeverityWarning)
	case rec.Departure == "":
		rec.Departure = UnknownAirport
		b.setDefault(FieldDeparture, UnknownAirport, DefaultUnknownAirport)
		b.issue(FieldDeparture, CodeAirportDefaulted, "departure airport missing, set to "+UnknownAirport, SeverityWarning)
	}
}

// approaches reads an explicit count column, or sums the leading counts of
// ApproachN cells ("2;ILS;22L;KJFK").
func (n *Normalizer) approaches(b *rowBuilder) int {
	if b.layout.Has(FieldApproaches) || len(b.layout.approaches) == 0 {
		return b.count(FieldApproaches)
	}

	total := 0
	for _, i := range b.layout.approaches {
		raw := cellAt(b.cells, i)
		if raw == "" {
			continue
		}
		lead, _, _ := strings.Cut(raw, ";")
		c, err := ParseCount(lead)
		if err != nil {
			b.numericIssue(FieldApproaches, raw, err)
			return 0
		}
		total += c
	}
	return total
}

// landings picks a single source for the landings total: an explicit
// day/night breakdown when present, else the aggregate column, else the
// full-stop breakdown. Values are never reconciled against each other.
func (n *Normalizer) landings(b *rowBuilder) (int, LandingsSource) {
	rec := &b.out.Record
	l := b.layout
	aggregate := 0
	if l.Has(FieldLandings) {
		aggregate = b.count(FieldLandings)
	}
	switch {
	case l.Has(FieldDayLandings) || l.Has(FieldNightLandings):
		return rec.DayLandings + rec.NightLandings, LandingsBreakdown
	case l.Has(FieldLandings):
		return aggregate, LandingsAggregate
	case l.Has(FieldDayLandingsFullStop) || l.Has(FieldNightLandingsFullStop):
		return rec.DayLandingsFullStop + rec.NightLandingsFullStop, LandingsFullStop
	}
	return 0, LandingsNone
}

func hasIssueOn(issues []ValidationIssue, f Field) bool {
	for _, iss := range issues {
		if iss.Field == f {
			return true
		}
	}
	return false
}
