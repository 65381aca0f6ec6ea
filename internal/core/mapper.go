package core

import (
	"fmt"
	"strings"
)

// FieldMapper holds the source-column to canonical-field assignments for a
// generic file. One source column maps to at most one field; a field may be
// fed by several columns. It is not safe for concurrent use.
type FieldMapper struct {
	headers  []string
	columns  map[string]string // lowercased label -> label as written
	bySource map[string]Field  // lowercased label -> field
}

// NewFieldMapper creates an empty mapper over a header row.
func NewFieldMapper(headers []string) *FieldMapper {
	m := &FieldMapper{
		headers:  headers,
		columns:  make(map[string]string, len(headers)),
		bySource: make(map[string]Field),
	}
	for _, h := range headers {
		if key := lowerClean(h); key != "" {
			if _, dup := m.columns[key]; !dup {
				m.columns[key] = h
			}
		}
	}
	return m
}

// Headers returns the source header row.
func (m *FieldMapper) Headers() []string {
	return m.headers
}

// Map assigns sourceColumn to field, replacing any earlier assignment of
// that column.
func (m *FieldMapper) Map(sourceColumn string, field Field) error {
	key := lowerClean(sourceColumn)
	if _, ok := m.columns[key]; !ok {
		return fmt.Errorf("column not found: %q", sourceColumn)
	}
	spec, ok := SpecFor(field)
	if !ok {
		return fmt.Errorf("unknown field: %q", field)
	}
	if spec.Derived {
		return fmt.Errorf("field %s is derived and cannot be mapped", field)
	}
	m.bySource[key] = field
	return nil
}

// Unmap marks sourceColumn as "don't import".
func (m *FieldMapper) Unmap(sourceColumn string) {
	delete(m.bySource, lowerClean(sourceColumn))
}

// Reset clears every assignment.
func (m *FieldMapper) Reset() {
	m.bySource = make(map[string]Field)
}

// Apply replaces the current assignments with mappings. An empty
// CanonicalField leaves the column unmapped. Nothing changes on error.
func (m *FieldMapper) Apply(mappings []FieldMapping) error {
	next := &FieldMapper{headers: m.headers, columns: m.columns, bySource: make(map[string]Field)}
	for _, fm := range mappings {
		if fm.CanonicalField == "" {
			continue
		}
		if err := next.Map(fm.SourceColumn, fm.CanonicalField); err != nil {
			return err
		}
	}
	m.bySource = next.bySource
	return nil
}

// FieldFor returns the field a column is mapped to.
func (m *FieldMapper) FieldFor(sourceColumn string) (Field, bool) {
	f, ok := m.bySource[lowerClean(sourceColumn)]
	return f, ok
}

// Mappings returns the assignments in header order.
func (m *FieldMapper) Mappings() []FieldMapping {
	out := make([]FieldMapping, 0, len(m.bySource))
	seen := make(map[string]bool)
	for _, h := range m.headers {
		key := lowerClean(h)
		if seen[key] {
			continue
		}
		seen[key] = true
		if f, ok := m.bySource[key]; ok {
			out = append(out, FieldMapping{SourceColumn: m.columns[key], CanonicalField: f})
		}
	}
	return out
}

// MissingRequired lists required fields with no mapped column, in catalog
// order.
func (m *FieldMapper) MissingRequired() []Field {
	mapped := make(map[Field]bool, len(m.bySource))
	for _, f := range m.bySource {
		mapped[f] = true
	}
	var missing []Field
	for _, f := range RequiredFields() {
		if !mapped[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// ProceedToPreview succeeds only when every required field is mapped,
// otherwise it returns a *MissingFieldsError naming them.
func (m *FieldMapper) ProceedToPreview() error {
	if missing := m.MissingRequired(); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Layout returns the row layout described by the current assignments.
func (m *FieldMapper) Layout() *Layout {
	return MappedLayout(m.headers, m.Mappings())
}

// Suggest proposes a mapping for every header that matches a known alias.
// Each field is suggested for at most one column, the first in header order.
func (m *FieldMapper) Suggest() []FieldMapping {
	aliases := make(map[string]Field)
	for _, spec := range FieldSpecs {
		if spec.Derived {
			continue
		}
		for _, a := range spec.Aliases {
			if _, dup := aliases[a]; !dup {
				aliases[a] = spec.Field
			}
		}
	}

	var out []FieldMapping
	used := make(map[Field]bool)
	for _, h := range m.headers {
		key := lowerClean(h)
		f, ok := aliases[key]
		if !ok {
			f, ok = aliases[compactLabel(key)]
		}
		if !ok || used[f] {
			continue
		}
		used[f] = true
		out = append(out, FieldMapping{SourceColumn: h, CanonicalField: f})
	}
	return out
}

// ApplySuggestions maps every suggested column and returns the suggestions.
func (m *FieldMapper) ApplySuggestions() []FieldMapping {
	s := m.Suggest()
	for _, fm := range s {
		m.bySource[lowerClean(fm.SourceColumn)] = fm.CanonicalField
	}
	return s
}

// compactLabel drops separators so "Total_Time" and "total-time" match the
// "totaltime" alias.
func compactLabel(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
}
