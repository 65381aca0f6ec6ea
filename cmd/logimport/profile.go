package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/logbook/internal/core"
)

// mappingProfile is a YAML file describing how a generic export's columns
// map to logbook fields:
//
//	name: club export
//	mappings:
//	  - source: Flight Date
//	    field: date
//	  - source: Block Hours
//	    field: total_time
type mappingProfile struct {
	Name     string              `yaml:"name"`
	Mappings []core.FieldMapping `yaml:"mappings"`
}

func loadProfile(path string) (*mappingProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping profile: %w", err)
	}

	var p mappingProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse mapping profile %s: %w", path, err)
	}
	if len(p.Mappings) == 0 {
		return nil, fmt.Errorf("mapping profile %s has no mappings", path)
	}
	for i, m := range p.Mappings {
		if m.SourceColumn == "" || m.CanonicalField == "" {
			return nil, fmt.Errorf("mapping profile %s: entry %d needs both source and field", path, i+1)
		}
	}
	return &p, nil
}

// mergeMappings overlays profile on the suggested mappings. A suggestion is
// dropped when the profile maps its column or its field.
func mergeMappings(suggested, profile []core.FieldMapping) []core.FieldMapping {
	columns := make(map[string]bool, len(profile))
	fields := make(map[core.Field]bool, len(profile))
	for _, m := range profile {
		columns[strings.ToLower(strings.TrimSpace(m.SourceColumn))] = true
		fields[m.CanonicalField] = true
	}

	out := make([]core.FieldMapping, 0, len(suggested)+len(profile))
	for _, m := range suggested {
		if columns[strings.ToLower(strings.TrimSpace(m.SourceColumn))] || fields[m.CanonicalField] {
			continue
		}
		out = append(out, m)
	}
	return append(out, profile...)
}
