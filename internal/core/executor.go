package core

// executor.go persists an accepted batch of flights.
//
// The batch goes to the store in one call. When the store rejects optional
// columns it does not know, those columns are stripped and the batch is
// resubmitted exactly once. Anything else ends the run with every row
// marked failed. Store calls are never cancelled mid-flight.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ExecState is a state of the import executor.
type ExecState string

const (
	ExecIdle                  ExecState = "idle"
	ExecSubmitting            ExecState = "submitting"
	ExecRetryingReducedSchema ExecState = "retrying_reduced_schema"
	ExecSucceeded             ExecState = "succeeded"
	ExecPartiallyFailed       ExecState = "partially_failed"
)

// BatchResult is a store's answer to one InsertFlights call. RowError.Row
// indexes into the submitted slice.
type BatchResult struct {
	Success int
	Failed  int
	Errors  []RowError
}

// FlightStore is the persistence boundary used by the executor.
type FlightStore interface {
	// InsertFlights writes records restricted to columns. Each record is
	// written atomically. A *SchemaMismatchError means nothing was written.
	InsertFlights(ctx context.Context, records []FlightRecord, columns []Field) (BatchResult, error)

	// UpsertAircraft registers an aircraft if the store does not know it.
	UpsertAircraft(ctx context.Context, info AircraftInfo) error
}

// PendingFlight is an accepted record with its position in the source file.
type PendingFlight struct {
	Row    int
	Line   int
	Record FlightRecord
}

// ImportExecutor runs one import. It is single-use.
type ImportExecutor struct {
	store  FlightStore
	logger *slog.Logger

	mu      sync.Mutex
	state   ExecState
	history []ExecState
}

// NewImportExecutor creates an executor in the Idle state.
func NewImportExecutor(store FlightStore, logger *slog.Logger) *ImportExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportExecutor{
		store:   store,
		logger:  logger,
		state:   ExecIdle,
		history: []ExecState{ExecIdle},
	}
}

// State returns the current state.
func (e *ImportExecutor) State() ExecState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// History returns every state entered, in order.
func (e *ImportExecutor) History() []ExecState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

func (e *ImportExecutor) enter(s ExecState) {
	e.mu.Lock()
	e.state = s
	e.history = append(e.history, s)
	e.mu.Unlock()
}

// Started reports whether submission has begun.
func (e *ImportExecutor) Started() bool {
	return e.State() != ExecIdle
}

// Execute submits flights and returns the terminal result. aircraft supplies
// details for the best-effort aircraft registration that follows a
// successful insert; it may be nil.
//
// ctx is honoured only before submission starts. An error is returned only
// when nothing was submitted; store failures are reported in the result.
func (e *ImportExecutor) Execute(ctx context.Context, flights []PendingFlight, aircraft *AircraftIndex) (*ImportResult, error) {
	if e.State() != ExecIdle {
		return nil, fmt.Errorf("import already executed (state %s)", e.State())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import cancelled before submission: %w", err)
	}

	e.enter(ExecSubmitting)
	runCtx := context.WithoutCancel(ctx)

	records := make([]FlightRecord, len(flights))
	for i, f := range flights {
		records[i] = f.Record
	}
	columns := PersistColumns()
	result := &ImportResult{PerRowErrors: []RowError{}}

	res, err := e.submit(runCtx, records, columns, result)

	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) {
		if reduced, ok := reduceColumns(columns, mismatch.Columns); ok {
			e.enter(ExecRetryingReducedSchema)
			e.logger.Warn("store rejected columns, retrying with reduced schema",
				"columns", mismatch.Columns,
				"records", len(records),
			)
			result.DroppedColumns = append(result.DroppedColumns, mismatch.Columns...)
			res, err = e.submit(runCtx, records, reduced, result)
		}
	}

	if err != nil {
		e.logger.Error("flight import failed", "error", err, "records", len(records))
		result.Success = 0
		result.Failed = len(flights)
		for _, f := range flights {
			result.PerRowErrors = append(result.PerRowErrors, RowError{Row: f.Row, Line: f.Line, Message: err.Error()})
		}
	} else {
		result.Success = res.Success
		result.Failed = res.Failed
		failed := make(map[int]bool, len(res.Errors))
		for _, re := range res.Errors {
			if re.Row < 0 || re.Row >= len(flights) {
				continue
			}
			failed[re.Row] = true
			f := flights[re.Row]
			result.PerRowErrors = append(result.PerRowErrors, RowError{Row: f.Row, Line: f.Line, Message: re.Message})
		}
		if result.Failed < len(failed) {
			result.Failed = len(failed)
		}
		if result.Success > 0 {
			e.registerAircraft(runCtx, flights, failed, aircraft)
		}
	}

	if result.Failed == 0 {
		result.State = ExecSucceeded
	} else {
		result.State = ExecPartiallyFailed
	}
	e.enter(result.State)

	e.logger.Info("flight import finished",
		"state", result.State,
		"success", result.Success,
		"failed", result.Failed,
		"attempts", result.Attempts,
	)
	return result, nil
}

func (e *ImportExecutor) submit(ctx context.Context, records []FlightRecord, columns []Field, result *ImportResult) (BatchResult, error) {
	result.Attempts++
	return e.store.InsertFlights(ctx, records, columns)
}

// reduceColumns strips rejected columns. It refuses when a rejected column
// is required or not part of the submission.
func reduceColumns(columns, rejected []Field) ([]Field, bool) {
	if len(rejected) == 0 {
		return nil, false
	}
	drop := make(map[Field]bool, len(rejected))
	for _, f := range rejected {
		if IsRequired(f) || !slices.Contains(columns, f) {
			return nil, false
		}
		drop[f] = true
	}
	out := make([]Field, 0, len(columns))
	for _, c := range columns {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out, true
}

// registerAircraft upserts every aircraft flown in a persisted row. Failures
// are logged and ignored.
func (e *ImportExecutor) registerAircraft(ctx context.Context, flights []PendingFlight, failed map[int]bool, aircraft *AircraftIndex) {
	seen := make(map[string]bool)
	for i, f := range flights {
		id := f.Record.AircraftID
		if failed[i] || id == "" || seen[aircraftKey(id)] {
			continue
		}
		seen[aircraftKey(id)] = true

		info, ok := aircraft.Lookup(id)
		if !ok {
			info = AircraftInfo{ID: id, TypeCode: f.Record.AircraftType}
		}
		if err := e.store.UpsertAircraft(ctx, info); err != nil {
			e.logger.Warn("aircraft registration failed", "aircraft", id, "error", err)
		}
	}
}

// Err returns a *PartialImportFailure when any row failed.
func (r *ImportResult) Err() error {
	if r == nil || r.Failed == 0 {
		return nil
	}
	return &PartialImportFailure{Success: r.Success, Failed: r.Failed, Errors: r.PerRowErrors}
}
