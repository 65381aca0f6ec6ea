package core

import (
	"context"
	"errors"
	"log/slog"
)

// ParserConfig tunes chunked normalization.
type ParserConfig struct {
	Workers   int
	ChunkSize int
}

// Parser runs detection, splitting, normalization, validation and
// reporting over a file's rows. A Parser holds no per-run state.
type Parser struct {
	cfg       ParserConfig
	logger    *slog.Logger
	validator Validator
}

// NewParser creates a parser.
func NewParser(cfg ParserConfig, logger *slog.Logger) *Parser {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{cfg: cfg, logger: logger}
}

// Inspection is what the upload step learns about a file.
type Inspection struct {
	Kind    FileKind `json:"kind"`
	Headers []string `json:"headers,omitempty"` // generic files only
}

// Inspect classifies rows without normalizing them.
func (p *Parser) Inspect(rows []SourceRow) (*Inspection, error) {
	kind, err := DetectFormat(rows)
	if err != nil {
		return nil, err
	}
	insp := &Inspection{Kind: kind}
	if kind == KindGeneric {
		insp.Headers, _ = genericRows(rows)
	}
	return insp, nil
}

// ParseResult holds everything produced by one parse run.
type ParseResult struct {
	Kind     FileKind        `json:"kind"`
	Rows     []NormalizedRow `json:"rows"`
	Aircraft *AircraftIndex  `json:"-"`
	Report   ParseReport     `json:"report"`
}

// Parse runs the pipeline. Generic files need a mapper whose required
// fields are all mapped; otherwise a *MissingFieldsError is returned and no
// report is built. ctx is checked between chunks.
func (p *Parser) Parse(ctx context.Context, rows []SourceRow, mapper *FieldMapper) (*ParseResult, error) {
	kind, err := DetectFormat(rows)
	if err != nil {
		return nil, err
	}

	var (
		dropped  []DroppedRow
		aircraft *AircraftIndex
		data     []SourceRow
		layoutOf func(i int) *Layout
	)

	switch kind {
	case KindBundled:
		sections := SplitSections(rows, p.logger)
		dropped, aircraft = sections.Dropped, sections.Aircraft
		data = make([]SourceRow, len(sections.Flights))
		for i, f := range sections.Flights {
			data[i] = f.SourceRow
		}
		layoutOf = func(i int) *Layout { return sections.Flights[i].Layout }

	case KindGeneric:
		if mapper == nil {
			return nil, errors.New("generic file requires a field mapping")
		}
		if err := mapper.ProceedToPreview(); err != nil {
			return nil, err
		}
		_, data = genericRows(rows)
		layout := mapper.Layout()
		layoutOf = func(int) *Layout { return layout }
	}

	norm := NewNormalizer(aircraft)
	pool := newChunkPool(p.cfg.Workers, p.cfg.ChunkSize, p.logger)
	normalized, err := pool.run(ctx, len(data), func(i int) NormalizedRow {
		row := norm.Normalize(i, data[i], layoutOf(i))
		p.validator.Validate(&row)
		return row
	})
	if err != nil {
		return nil, err
	}

	report := BuildReport(normalized, dropped)
	p.logger.Info("logbook parsed",
		"kind", kind,
		"rows", report.TotalRows,
		"valid", report.ValidFlights,
		"excluded", report.ExcludedFlights,
		"dropped", len(report.DroppedRows),
		"zero_time", report.ZeroTimeFlights,
	)

	return &ParseResult{
		Kind:     kind,
		Rows:     normalized,
		Aircraft: aircraft,
		Report:   report,
	}, nil
}

// Accepted returns the rows eligible for import in file order. Rows with a
// fatal issue are never accepted; zero-time rows are skipped when skipZero
// is set.
func (r *ParseResult) Accepted(skipZero bool) []PendingFlight {
	out := make([]PendingFlight, 0, r.Report.ValidFlights)
	for _, row := range r.Rows {
		if row.Fatal() || (skipZero && row.ZeroTime) {
			continue
		}
		out = append(out, PendingFlight{Row: row.Index, Line: row.Line, Record: row.Record})
	}
	return out
}
