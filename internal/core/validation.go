package core

// validation.go applies field-level rules to normalized rows.
//
// Rules are deliberately shallow: required fields must be present, the date
// must be a real calendar date, and every time and count field must be
// non-negative. Cross-field arithmetic (day plus night landings against a
// total, PIC against total time) is not checked because source tools derive
// those totals differently.

import (
	"github.com/shopspring/decimal"
)

// Validator checks canonical records. The zero value is ready to use.
type Validator struct{}

// Validate appends fatal issues for rule violations to row.Issues. A field
// that already carries an issue from normalization is not reported twice.
func (v Validator) Validate(row *NormalizedRow) {
	rec := &row.Record
	add := func(f Field, code, msg string) {
		if hasIssueOn(row.Issues, f) && code != CodeMissingColumn {
			return
		}
		row.Issues = append(row.Issues, ValidationIssue{
			Row:      row.Index,
			Line:     row.Line,
			Field:    f,
			Code:     code,
			Message:  msg,
			Severity: SeverityFatal,
		})
	}

	missing := make(map[Field]bool, len(row.Missing))
	for _, f := range row.Missing {
		missing[f] = true
		add(f, CodeMissingColumn, "missing required column")
	}

	present := map[Field]bool{
		FieldDate:         !rec.Date.IsZero(),
		FieldAircraftID:   rec.AircraftID != "",
		FieldAircraftType: rec.AircraftType != "",
		FieldDeparture:    rec.Departure != "",
		FieldArrival:      rec.Arrival != "",
		FieldTotalTime:    true, // blank total time reads as zero
	}
	for _, f := range RequiredFields() {
		if !missing[f] && !present[f] {
			add(f, CodeRequiredEmpty, "required field is empty")
		}
	}

	for _, h := range rec.hoursFields() {
		if h.value.IsNegative() {
			add(h.field, CodeNegative, "must not be negative")
		}
	}
	for _, c := range rec.countFields() {
		if c.value < 0 {
			add(c.field, CodeNegative, "must not be negative")
		}
	}
}

type hoursValue struct {
	field Field
	value decimal.Decimal
}

type countValue struct {
	field Field
	value int
}

func (r *FlightRecord) hoursFields() []hoursValue {
	return []hoursValue{
		{FieldTotalTime, r.TotalTime},
		{FieldPIC, r.PIC},
		{FieldSIC, r.SIC},
		{FieldSolo, r.Solo},
		{FieldNight, r.Night},
		{FieldCrossCountry, r.CrossCountry},
		{FieldActualInstrument, r.ActualInstrument},
		{FieldSimulatedInstrument, r.SimulatedInstrument},
		{FieldInstrument, r.Instrument},
		{FieldDualGiven, r.DualGiven},
		{FieldDualReceived, r.DualReceived},
		{FieldSimulatedFlight, r.SimulatedFlight},
		{FieldGroundTraining, r.GroundTraining},
	}
}

func (r *FlightRecord) countFields() []countValue {
	return []countValue{
		{FieldHolds, r.Holds},
		{FieldApproaches, r.Approaches},
		{FieldDayTakeoffs, r.DayTakeoffs},
		{FieldDayLandings, r.DayLandings},
		{FieldNightTakeoffs, r.NightTakeoffs},
		{FieldNightLandings, r.NightLandings},
		{FieldDayLandingsFullStop, r.DayLandingsFullStop},
		{FieldNightLandingsFullStop, r.NightLandingsFullStop},
		{FieldLandings, r.Landings},
	}
}
