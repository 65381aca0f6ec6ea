package core

// templates.go covers two kinds of templates: saved column mappings that
// can be re-applied to files with similar headers, and the blank CSV files
// users download to start a logbook in a supported layout.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TemplateMatchThreshold is the minimum share of a saved template's headers
// that must appear in a file for the template to be offered.
const TemplateMatchThreshold = 0.7

// MappingTemplate is a saved set of column mappings.
type MappingTemplate struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Mappings  []FieldMapping `json:"mappings"`
	Headers   []string       `json:"headers"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TemplateMatch is a saved template scored against a file's headers.
type TemplateMatch struct {
	Template MappingTemplate `json:"template"`
	Score    float64         `json:"score"`
}

// TemplateStore persists mapping templates.
type TemplateStore interface {
	CreateMappingTemplate(ctx context.Context, t MappingTemplate) error
	ListMappingTemplates(ctx context.Context) ([]MappingTemplate, error)
}

// MatchTemplates scores templates against headers and returns those at or
// above TemplateMatchThreshold, best first.
func MatchTemplates(templates []MappingTemplate, headers []string) []TemplateMatch {
	var matches []TemplateMatch
	for _, t := range templates {
		if score := matchTemplateHeaders(headers, t.Headers); score >= TemplateMatchThreshold {
			matches = append(matches, TemplateMatch{Template: t, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// matchTemplateHeaders returns the share of templateHeaders present in
// csvHeaders, case-insensitively.
func matchTemplateHeaders(csvHeaders, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	csvSet := make(map[string]bool, len(csvHeaders))
	for _, h := range csvHeaders {
		csvSet[lowerClean(h)] = true
	}

	matched := 0
	for _, h := range templateHeaders {
		if csvSet[lowerClean(h)] {
			matched++
		}
	}
	return float64(matched) / float64(len(templateHeaders))
}

// Template kinds served by DownloadTemplate.
const (
	TemplateStandard = "standard"
	TemplateBundled  = "bundled"
)

// DownloadTemplate returns a blank logbook file of the given kind and its
// suggested file name.
func DownloadTemplate(kind string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch strings.ToLower(kind) {
	case TemplateStandard:
		header := make([]string, 0, len(FieldSpecs))
		for _, spec := range FieldSpecs {
			if !spec.Derived {
				header = append(header, spec.Label)
			}
		}
		_ = w.Write(header)
		w.Flush()
		return buf.Bytes(), "logbook_template.csv", w.Error()

	case TemplateBundled:
		_ = w.WriteAll([][]string{
			{"ForeFlight Logbook Import", "This row is required for importing into ForeFlight. Do not delete or modify."},
			{},
			{"Aircraft Table"},
			AircraftTableHeader,
			{},
			{"Flights Table"},
			CurrentFlightsHeader,
		})
		return buf.Bytes(), "logbook_bundled_template.csv", w.Error()
	}
	return nil, "", fmt.Errorf("unknown template kind %q", kind)
}
