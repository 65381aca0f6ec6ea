package core

import (
	"strings"
)

// MinAircraftColumns is the smallest row accepted as an aircraft entry.
const MinAircraftColumns = 5

// aircraftIDLabel is the first header cell of an aircraft table.
const aircraftIDLabel = "aircraftid"

// AircraftInfo describes one aircraft from a bundled export.
type AircraftInfo struct {
	ID       string `json:"aircraftId"`
	TypeCode string `json:"typeCode"`
	Make     string `json:"make"`
	Model    string `json:"model"`
}

// AircraftIndex maps registrations to aircraft details. It is immutable and
// safe to share between goroutines; a nil index is empty.
type AircraftIndex struct {
	byID map[string]AircraftInfo
	ids  []string
}

// Lookup finds an aircraft by registration, case-insensitively.
func (ix *AircraftIndex) Lookup(id string) (AircraftInfo, bool) {
	if ix == nil {
		return AircraftInfo{}, false
	}
	info, ok := ix.byID[aircraftKey(id)]
	return info, ok
}

// Len returns the number of indexed aircraft.
func (ix *AircraftIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.ids)
}

// All returns every aircraft in file order.
func (ix *AircraftIndex) All() []AircraftInfo {
	if ix == nil {
		return nil
	}
	out := make([]AircraftInfo, len(ix.ids))
	for i, id := range ix.ids {
		out[i] = ix.byID[id]
	}
	return out
}

func aircraftKey(id string) string {
	return strings.ToUpper(CleanCell(id))
}

// aircraftColumns holds the positions read from an aircraft row. The zero
// layout below matches the export's fixed column order.
type aircraftColumns struct {
	id, typeCode, make, model int
}

var defaultAircraftColumns = aircraftColumns{id: 0, typeCode: 1, make: 3, model: 4}

// AircraftIndexBuilder accumulates aircraft rows. Build freezes the result;
// the builder must not be used afterwards.
type AircraftIndexBuilder struct {
	cols aircraftColumns
	byID map[string]AircraftInfo
	ids  []string
}

// NewAircraftIndexBuilder creates an empty builder using the default columns.
func NewAircraftIndexBuilder() *AircraftIndexBuilder {
	return &AircraftIndexBuilder{
		cols: defaultAircraftColumns,
		byID: make(map[string]AircraftInfo),
	}
}

// SetHeader resolves column positions from an aircraft table header.
// Labels it does not find keep their default position.
func (b *AircraftIndexBuilder) SetHeader(header []string) {
	idx := MakeHeaderIndex(header)
	if i, ok := idx[aircraftIDLabel]; ok {
		b.cols.id = i
	}
	for _, label := range []string{"typecode", "type code", "type"} {
		if i, ok := idx[label]; ok {
			b.cols.typeCode = i
			break
		}
	}
	if i, ok := idx["make"]; ok {
		b.cols.make = i
	}
	if i, ok := idx["model"]; ok {
		b.cols.model = i
	}
}

// Add indexes one aircraft row. Rows that are too short or lack an ID are
// ignored and Add returns false. The first entry for a registration wins.
func (b *AircraftIndexBuilder) Add(cells []string) bool {
	if len(cells) < MinAircraftColumns {
		return false
	}
	id := CleanCell(cellAt(cells, b.cols.id))
	if id == "" {
		return false
	}
	key := aircraftKey(id)
	if _, dup := b.byID[key]; dup {
		return false
	}

	b.byID[key] = AircraftInfo{
		ID:       id,
		TypeCode: cellAt(cells, b.cols.typeCode),
		Make:     cellAt(cells, b.cols.make),
		Model:    cellAt(cells, b.cols.model),
	}
	b.ids = append(b.ids, key)
	return true
}

// Build returns the frozen index.
func (b *AircraftIndexBuilder) Build() *AircraftIndex {
	ix := &AircraftIndex{byID: b.byID, ids: b.ids}
	b.byID, b.ids = nil, nil
	return ix
}
