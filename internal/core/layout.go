package core

import (
	"regexp"
)

// allLandingsLabel only appears in the current bundled flights header.
const allLandingsLabel = "alllandings"

var approachColumnRegex = regexp.MustCompile(`^approach\d+$`)

// CurrentFlightsHeader is the flights table header of the current bundled
// export layout.
var CurrentFlightsHeader = []string{
	"Date", "AircraftID", "From", "To", "Route",
	"TimeOut", "TimeOff", "TimeOn", "TimeIn",
	"TotalTime", "PIC", "SIC", "Night", "Solo", "CrossCountry", "Distance",
	"DayTakeoffs", "DayLandingsFullStop", "NightTakeoffs", "NightLandingsFullStop", "AllLandings",
	"ActualInstrument", "SimulatedInstrument", "HobbsStart", "HobbsEnd", "TachStart", "TachEnd",
	"Holds", "Approach1", "Approach2", "Approach3", "Approach4", "Approach5", "Approach6",
	"DualGiven", "DualReceived", "SimulatedFlight", "GroundTraining",
	"InstructorName", "InstructorComments", "PilotComments",
}

// Legacy2018FlightsHeader is the fixed column order of 2018-era exports.
// Headerless flight rows are read with it.
var Legacy2018FlightsHeader = []string{
	"Date", "AircraftID", "From", "To", "Route",
	"TimeOut", "TimeIn",
	"TotalTime", "PIC", "SIC", "Night", "Solo", "CrossCountry",
	"DayTakeoffs", "DayLandingsFullStop", "NightTakeoffs", "NightLandingsFullStop",
	"ActualInstrument", "SimulatedInstrument", "HobbsStart", "HobbsEnd",
	"Holds", "Approach1", "Approach2", "Approach3",
	"DualGiven", "DualReceived", "SimulatedFlight", "GroundTraining",
	"PilotComments",
}

// AircraftTableHeader is the aircraft table header written in templates.
var AircraftTableHeader = []string{
	"AircraftID", "TypeCode", "Year", "Make", "Model", "GearType", "EngineType", "Complex", "HighPerformance",
}

// Layout resolves canonical fields to column positions for one family of
// rows. Layouts are immutable once built.
type Layout struct {
	Tag        FormatTag
	Header     []string
	columns    map[Field][]int
	approaches []int
}

// Has reports whether at least one column feeds field f.
func (l *Layout) Has(f Field) bool {
	return len(l.columns[f]) > 0
}

// Columns returns the positions feeding field f.
func (l *Layout) Columns(f Field) []int {
	return l.columns[f]
}

// cell returns the first non-blank value among the columns for f.
func (l *Layout) cell(cells []string, f Field) string {
	for _, i := range l.columns[f] {
		if v := cellAt(cells, i); v != "" {
			return v
		}
	}
	return ""
}

// BundledLayout resolves a bundled flights header. The presence of the
// AllLandings column distinguishes the current layout from the legacy one.
func BundledLayout(header []string) *Layout {
	idx := MakeHeaderIndex(header)
	l := &Layout{
		Tag:     FormatBundledLegacy,
		Header:  header,
		columns: make(map[Field][]int),
	}
	if _, ok := idx[allLandingsLabel]; ok {
		l.Tag = FormatBundledCurrent
	}

	for _, spec := range FieldSpecs {
		if spec.Derived {
			continue
		}
		for _, alias := range spec.Aliases {
			if i, ok := idx[alias]; ok {
				l.columns[spec.Field] = []int{i}
				break
			}
		}
	}

	// TimeOff/TimeOn stand in when block times are missing.
	if !l.Has(FieldStartTime) {
		if i, ok := idx["timeoff"]; ok {
			l.columns[FieldStartTime] = []int{i}
		}
	}
	if !l.Has(FieldEndTime) {
		if i, ok := idx["timeon"]; ok {
			l.columns[FieldEndTime] = []int{i}
		}
	}

	for i, h := range header {
		if approachColumnRegex.MatchString(lowerClean(h)) {
			l.approaches = append(l.approaches, i)
		}
	}
	return l
}

// LegacyLayout returns the fixed 2018 layout used for headerless rows.
func LegacyLayout() *Layout {
	l := BundledLayout(Legacy2018FlightsHeader)
	l.Tag = FormatBundledLegacy
	return l
}

// MappedLayout builds a layout from explicit column mappings. Mappings
// naming columns absent from header are ignored. Several columns mapped to
// the same field are read in header order and the first non-blank wins.
func MappedLayout(header []string, mappings []FieldMapping) *Layout {
	l := &Layout{
		Tag:     FormatGenericMapped,
		Header:  header,
		columns: make(map[Field][]int),
	}

	bySource := make(map[string]Field, len(mappings))
	for _, m := range mappings {
		bySource[lowerClean(m.SourceColumn)] = m.CanonicalField
	}
	for i, h := range header {
		if f, ok := bySource[lowerClean(h)]; ok {
			l.columns[f] = append(l.columns[f], i)
		}
	}
	return l
}
