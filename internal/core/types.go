package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names a canonical flight record attribute. The string value doubles
// as the persistence column name.
type Field string

const (
	FieldDate                  Field = "date"
	FieldAircraftID            Field = "aircraft_id"
	FieldAircraftType          Field = "aircraft_type"
	FieldDeparture             Field = "departure_airport"
	FieldArrival               Field = "arrival_airport"
	FieldTotalTime             Field = "total_time"
	FieldPIC                   Field = "pic_time"
	FieldSIC                   Field = "sic_time"
	FieldSolo                  Field = "solo_time"
	FieldNight                 Field = "night_time"
	FieldCrossCountry          Field = "cross_country_time"
	FieldActualInstrument      Field = "actual_instrument_time"
	FieldSimulatedInstrument   Field = "simulated_instrument_time"
	FieldInstrument            Field = "instrument_time"
	FieldDualGiven             Field = "dual_given_time"
	FieldDualReceived          Field = "dual_received_time"
	FieldSimulatedFlight       Field = "simulated_flight_time"
	FieldGroundTraining        Field = "ground_training_time"
	FieldHolds                 Field = "holds_count"
	FieldApproaches            Field = "approach_count"
	FieldDayTakeoffs           Field = "day_takeoffs"
	FieldDayLandings           Field = "day_landings"
	FieldNightTakeoffs         Field = "night_takeoffs"
	FieldNightLandings         Field = "night_landings"
	FieldDayLandingsFullStop   Field = "day_full_stop_landings"
	FieldNightLandingsFullStop Field = "night_full_stop_landings"
	FieldLandings              Field = "landings"
	FieldRoute                 Field = "route"
	FieldRemarks               Field = "remarks"
	FieldStartTime             Field = "start_time"
	FieldEndTime               Field = "end_time"
)

// ValueKind represents the expected data type for a canonical field.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueDate
	ValueHours
	ValueCount
	ValueClock
)

// FieldSpec describes one canonical field: how it is parsed and which source
// column labels are recognised for it.
type FieldSpec struct {
	Field    Field
	Label    string    // Display name
	Kind     ValueKind // Expected data type
	Required bool      // Must be present on every record
	Derived  bool      // Computed from other fields, never mapped directly
	Aliases  []string  // Lowercased header labels that denote this field
}

// FieldSpecs is the canonical field catalog in display order.
var FieldSpecs = []FieldSpec{
	{Field: FieldDate, Label: "Date", Kind: ValueDate, Required: true, Aliases: []string{"date", "flight date"}},
	{Field: FieldAircraftID, Label: "Aircraft Registration", Kind: ValueText, Required: true, Aliases: []string{"aircraftid", "aircraft id", "aircraft registration", "registration", "tail number", "tail", "ident"}},
	{Field: FieldAircraftType, Label: "Aircraft Type", Kind: ValueText, Required: true, Aliases: []string{"typecode", "type code", "aircraft type", "equiptype", "type"}},
	{Field: FieldDeparture, Label: "Departure", Kind: ValueText, Required: true, Aliases: []string{"from", "departure", "departure airport", "origin"}},
	{Field: FieldArrival, Label: "Arrival", Kind: ValueText, Required: true, Aliases: []string{"to", "arrival", "arrival airport", "destination"}},
	{Field: FieldTotalTime, Label: "Total Time", Kind: ValueHours, Required: true, Aliases: []string{"totaltime", "total time", "total", "total duration", "duration"}},
	{Field: FieldPIC, Label: "PIC", Kind: ValueHours, Aliases: []string{"pic", "pic time", "pilot in command"}},
	{Field: FieldSIC, Label: "SIC", Kind: ValueHours, Aliases: []string{"sic", "sic time", "second in command"}},
	{Field: FieldSolo, Label: "Solo", Kind: ValueHours, Aliases: []string{"solo", "solo time"}},
	{Field: FieldNight, Label: "Night", Kind: ValueHours, Aliases: []string{"night", "night time"}},
	{Field: FieldCrossCountry, Label: "Cross Country", Kind: ValueHours, Aliases: []string{"crosscountry", "cross country", "xc"}},
	{Field: FieldActualInstrument, Label: "Actual Instrument", Kind: ValueHours, Aliases: []string{"actualinstrument", "actual instrument", "imc"}},
	{Field: FieldSimulatedInstrument, Label: "Simulated Instrument", Kind: ValueHours, Aliases: []string{"simulatedinstrument", "simulated instrument", "hood"}},
	{Field: FieldInstrument, Label: "Instrument", Kind: ValueHours, Derived: true},
	{Field: FieldDualGiven, Label: "Dual Given", Kind: ValueHours, Aliases: []string{"dualgiven", "dual given", "cfi"}},
	{Field: FieldDualReceived, Label: "Dual Received", Kind: ValueHours, Aliases: []string{"dualreceived", "dual received", "dual"}},
	{Field: FieldSimulatedFlight, Label: "Simulated Flight", Kind: ValueHours, Aliases: []string{"simulatedflight", "simulated flight", "sim", "ftd"}},
	{Field: FieldGroundTraining, Label: "Ground Training", Kind: ValueHours, Aliases: []string{"groundtraining", "ground training", "ground"}},
	{Field: FieldHolds, Label: "Holds", Kind: ValueCount, Aliases: []string{"holds", "holding"}},
	{Field: FieldApproaches, Label: "Approaches", Kind: ValueCount, Aliases: []string{"approaches", "approach count", "instrument approaches"}},
	{Field: FieldDayTakeoffs, Label: "Day Takeoffs", Kind: ValueCount, Aliases: []string{"daytakeoffs", "day takeoffs", "day t/o"}},
	{Field: FieldDayLandings, Label: "Day Landings", Kind: ValueCount, Aliases: []string{"daylandings", "day landings", "day ldg"}},
	{Field: FieldNightTakeoffs, Label: "Night Takeoffs", Kind: ValueCount, Aliases: []string{"nighttakeoffs", "night takeoffs", "night t/o"}},
	{Field: FieldNightLandings, Label: "Night Landings", Kind: ValueCount, Aliases: []string{"nightlandings", "night landings", "night ldg"}},
	{Field: FieldDayLandingsFullStop, Label: "Day Full-Stop Landings", Kind: ValueCount, Aliases: []string{"daylandingsfullstop", "day landings full stop", "day full-stop landings", "day full stop"}},
	{Field: FieldNightLandingsFullStop, Label: "Night Full-Stop Landings", Kind: ValueCount, Aliases: []string{"nightlandingsfullstop", "night landings full stop", "night full-stop landings", "night full stop"}},
	{Field: FieldLandings, Label: "Landings", Kind: ValueCount, Aliases: []string{"alllandings", "all landings", "landings", "total landings"}},
	{Field: FieldRoute, Label: "Route", Kind: ValueText, Aliases: []string{"route", "via"}},
	{Field: FieldRemarks, Label: "Remarks", Kind: ValueText, Aliases: []string{"pilotcomments", "pilot comments", "remarks", "comments", "notes"}},
	{Field: FieldStartTime, Label: "Start Time", Kind: ValueClock, Aliases: []string{"timeout", "time out", "out", "start time", "block out"}},
	{Field: FieldEndTime, Label: "End Time", Kind: ValueClock, Aliases: []string{"timein", "time in", "in", "end time", "block in"}},
}

var specIndex = func() map[Field]FieldSpec {
	idx := make(map[Field]FieldSpec, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		idx[spec.Field] = spec
	}
	return idx
}()

// SpecFor returns the spec of a canonical field.
func SpecFor(f Field) (FieldSpec, bool) {
	spec, ok := specIndex[f]
	return spec, ok
}

// RequiredFields returns the fields every record must carry, in catalog order.
func RequiredFields() []Field {
	var out []Field
	for _, spec := range FieldSpecs {
		if spec.Required {
			out = append(out, spec.Field)
		}
	}
	return out
}

// IsRequired reports whether f is a required canonical field.
func IsRequired(f Field) bool {
	return specIndex[f].Required
}

// FileKind is the classification produced by format detection.
type FileKind string

const (
	KindUnrecognized FileKind = "unrecognized"
	KindGeneric      FileKind = "generic"
	KindBundled      FileKind = "bundled"
)

// FormatTag identifies which historical column layout a row matched.
type FormatTag string

const (
	FormatBundledCurrent FormatTag = "bundled_current"
	FormatBundledLegacy  FormatTag = "bundled_legacy_2018"
	FormatGenericMapped  FormatTag = "generic_mapped"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

// Issue codes group validation issues into classes for reporting.
const (
	CodeMissingColumn        = "missing_column"
	CodeRequiredEmpty        = "required_empty"
	CodeInvalidDate          = "invalid_date"
	CodeNotNumeric           = "not_numeric"
	CodeNegative             = "negative_value"
	CodeNotInteger           = "not_integer"
	CodeOutOfRange           = "out_of_range"
	CodeInvalidClock         = "invalid_clock"
	CodeAirportDefaulted     = "airport_defaulted"
	CodeTypeFromRegistration = "type_from_registration"
)

// ValidationIssue is a single problem found on one row.
type ValidationIssue struct {
	Row      int      `json:"rowIndex"` // 0-based data row index in file order
	Line     int      `json:"line"`     // 1-based line in the source file
	Field    Field    `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// LandingsSource records which convention produced FlightRecord.Landings.
type LandingsSource string

const (
	LandingsNone      LandingsSource = ""
	LandingsBreakdown LandingsSource = "day_night_breakdown"
	LandingsAggregate LandingsSource = "aggregate_column"
	LandingsFullStop  LandingsSource = "full_stop_breakdown"
)

// AppliedDefault describes a value that did not come from the source row.
type AppliedDefault struct {
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// FlightRecord is the canonical, layout-independent flight entry.
type FlightRecord struct {
	Date         time.Time `json:"date"`
	AircraftID   string    `json:"aircraftId"`
	AircraftType string    `json:"aircraftType"`
	Departure    string    `json:"departureAirport"`
	Arrival      string    `json:"arrivalAirport"`

	TotalTime           decimal.Decimal `json:"totalTime"`
	PIC                 decimal.Decimal `json:"picTime"`
	SIC                 decimal.Decimal `json:"sicTime"`
	Solo                decimal.Decimal `json:"soloTime"`
	Night               decimal.Decimal `json:"nightTime"`
	CrossCountry        decimal.Decimal `json:"crossCountryTime"`
	ActualInstrument    decimal.Decimal `json:"actualInstrumentTime"`
	SimulatedInstrument decimal.Decimal `json:"simulatedInstrumentTime"`
	Instrument          decimal.Decimal `json:"instrumentTime"`
	DualGiven           decimal.Decimal `json:"dualGivenTime"`
	DualReceived        decimal.Decimal `json:"dualReceivedTime"`
	SimulatedFlight     decimal.Decimal `json:"simulatedFlightTime"`
	GroundTraining      decimal.Decimal `json:"groundTrainingTime"`

	Holds                 int `json:"holds"`
	Approaches            int `json:"approaches"`
	DayTakeoffs           int `json:"dayTakeoffs"`
	DayLandings           int `json:"dayLandings"`
	NightTakeoffs         int `json:"nightTakeoffs"`
	NightLandings         int `json:"nightLandings"`
	DayLandingsFullStop   int `json:"dayFullStopLandings"`
	NightLandingsFullStop int `json:"nightFullStopLandings"`
	Landings              int `json:"landings"`

	Route     string `json:"route,omitempty"`
	Remarks   string `json:"remarks,omitempty"`
	StartTime string `json:"startTime,omitempty"` // HH:MM
	EndTime   string `json:"endTime,omitempty"`   // HH:MM

	LandingsSource LandingsSource   `json:"landingsSource,omitempty"`
	Defaults       []AppliedDefault `json:"defaults,omitempty"`
}

// Defaulted reports whether field f was filled with a default value.
func (r FlightRecord) Defaulted(f Field) bool {
	for _, d := range r.Defaults {
		if d.Field == f {
			return true
		}
	}
	return false
}

// SourceRow is one raw row with its position in the file.
type SourceRow struct {
	Line  int
	Cells []string
}

// DroppedRow is a row that never became a record.
type DroppedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// NormalizedRow is the result of normalizing and validating one source row.
type NormalizedRow struct {
	Index    int               `json:"rowIndex"`
	Line     int               `json:"line"`
	Format   FormatTag         `json:"formatTag"`
	Record   FlightRecord      `json:"record"`
	Issues   []ValidationIssue `json:"issues,omitempty"`
	ZeroTime bool              `json:"zeroTime"`

	// Missing lists required fields with no source column in the layout.
	Missing []Field `json:"-"`
}

// Fatal reports whether the row carries at least one fatal issue.
func (r NormalizedRow) Fatal() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// FieldMapping assigns a source column to a canonical field.
type FieldMapping struct {
	SourceColumn   string `json:"sourceColumn" yaml:"source" validate:"required"`
	CanonicalField Field  `json:"canonicalField" yaml:"field" validate:"required"`
}

// FormatCount is one entry of a format breakdown.
type FormatCount struct {
	Format FormatTag `json:"formatTag"`
	Count  int       `json:"count"`
}

// FormatBreakdown counts rows per format tag, keyed in order of first appearance.
type FormatBreakdown []FormatCount

// Get returns the count recorded for tag.
func (b FormatBreakdown) Get(tag FormatTag) int {
	for _, fc := range b {
		if fc.Format == tag {
			return fc.Count
		}
	}
	return 0
}

// Map returns the breakdown as a map.
func (b FormatBreakdown) Map() map[FormatTag]int {
	m := make(map[FormatTag]int, len(b))
	for _, fc := range b {
		m[fc.Format] = fc.Count
	}
	return m
}

// ParseReport is the read-only summary of one parse run.
type ParseReport struct {
	TotalRows       int               `json:"totalRows"`
	ValidFlights    int               `json:"validFlights"`
	ZeroTimeFlights int               `json:"zeroTimeFlights"`
	ExcludedFlights int               `json:"excludedFlights"`
	TotalHours      decimal.Decimal   `json:"totalHours"`
	AircraftCount   int               `json:"aircraftCount"`
	FormatBreakdown FormatBreakdown   `json:"formatBreakdown"`
	Warnings        []string          `json:"warnings"`
	Issues          []ValidationIssue `json:"issues"`
	DroppedRows     []DroppedRow      `json:"droppedRows"`
}

// RowError is the reason one submitted record failed to persist.
type RowError struct {
	Row     int    `json:"rowIndex"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ImportResult is the terminal outcome of an import run.
type ImportResult struct {
	Success        int        `json:"success"`
	Failed         int        `json:"failed"`
	PerRowErrors   []RowError `json:"perRowErrors"`
	State          ExecState  `json:"state"`
	Attempts       int        `json:"attempts"`
	DroppedColumns []Field    `json:"droppedColumns,omitempty"`
}
