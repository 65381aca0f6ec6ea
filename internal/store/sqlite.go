package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/logbook/internal/core"
)

// SQLiteStore is a FlightStore backed by a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ core.FlightStore   = (*SQLiteStore)(nil)
	_ core.TemplateStore = (*SQLiteStore)(nil)
	_ core.RunRecorder   = (*SQLiteStore)(nil)
)

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialised anyway and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("sqlite store ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) flightColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", flightsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read flight columns: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		known[name] = true
	}
	return known, rows.Err()
}

// InsertFlights writes records in one transaction, each behind its own
// savepoint so a bad row is rolled back alone.
func (s *SQLiteStore) InsertFlights(ctx context.Context, records []core.FlightRecord, columns []core.Field) (core.BatchResult, error) {
	var res core.BatchResult

	known, err := s.flightColumns(ctx)
	if err != nil {
		return res, err
	}
	if missing := unknownColumns(known, columns); len(missing) > 0 {
		return res, &core.SchemaMismatchError{Columns: missing}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFlightSQL(columns, questionMark))
	if err != nil {
		if m := mismatchFromMessage(sqliteNoColumn, err); m != nil {
			return core.BatchResult{}, m
		}
		return res, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
			return core.BatchResult{}, fmt.Errorf("failed to create savepoint: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, sqliteArgs(rec, columns)...); err != nil {
			_, _ = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp)
			res.Failed++
			res.Errors = append(res.Errors, core.RowError{Row: i, Message: fmt.Sprintf("insert: %v", err)})
			continue
		}
		_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)
		res.Success++
	}

	if err := tx.Commit(); err != nil {
		return core.BatchResult{}, fmt.Errorf("failed to commit flights: %w", err)
	}
	s.logger.Debug("flights inserted", "success", res.Success, "failed", res.Failed)
	return res, nil
}

func sqliteArgs(rec core.FlightRecord, columns []core.Field) []any {
	args := make([]any, len(columns))
	for i, c := range columns {
		switch v := rec.Value(c).(type) {
		case time.Time:
			args[i] = dateString(v)
		case decimal.Decimal:
			// Stored as exact decimal text, matching NUMERIC in Postgres.
			args[i] = v.String()
		default:
			args[i] = v
		}
	}
	return args
}

// UpsertAircraft inserts info unless the registration is already known.
func (s *SQLiteStore) UpsertAircraft(ctx context.Context, info core.AircraftInfo) error {
	const query = `
		INSERT INTO aircraft (aircraft_id, type_code, make, model)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (aircraft_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, info.ID, info.TypeCode, info.Make, info.Model); err != nil {
		return fmt.Errorf("failed to upsert aircraft: %w", err)
	}
	return nil
}

// ListAircraft returns every registered aircraft ordered by registration.
func (s *SQLiteStore) ListAircraft(ctx context.Context) ([]core.AircraftInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT aircraft_id, type_code, make, model FROM aircraft ORDER BY aircraft_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list aircraft: %w", err)
	}
	defer rows.Close()

	var out []core.AircraftInfo
	for rows.Next() {
		var a core.AircraftInfo
		if err := rows.Scan(&a.ID, &a.TypeCode, &a.Make, &a.Model); err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountFlights returns the number of stored flights.
func (s *SQLiteStore) CountFlights(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM flights").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count flights: %w", err)
	}
	return n, nil
}

// ============================================================================
// Mapping templates
// ============================================================================

// CreateMappingTemplate stores t.
func (s *SQLiteStore) CreateMappingTemplate(ctx context.Context, t core.MappingTemplate) error {
	headers, err := encodeJSON(t.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	mappings, err := encodeJSON(t.Mappings)
	if err != nil {
		return fmt.Errorf("failed to encode mappings: %w", err)
	}

	const query = `
		INSERT INTO mapping_templates (id, name, headers, mappings, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Name, headers, mappings, t.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert mapping template: %w", err)
	}
	return nil
}

// ListMappingTemplates returns templates newest first.
func (s *SQLiteStore) ListMappingTemplates(ctx context.Context) ([]core.MappingTemplate, error) {
	const query = `
		SELECT id, name, headers, mappings, created_at
		FROM mapping_templates
		ORDER BY created_at DESC, name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping templates: %w", err)
	}
	defer rows.Close()

	out := []core.MappingTemplate{}
	for rows.Next() {
		var (
			t                 core.MappingTemplate
			headers, mappings string
		)
		if err := rows.Scan(&t.ID, &t.Name, &headers, &mappings, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mapping template: %w", err)
		}
		if err := decodeJSON(headers, &t.Headers); err != nil {
			return nil, fmt.Errorf("template %s: bad headers: %w", t.ID, err)
		}
		if err := decodeJSON(mappings, &t.Mappings); err != nil {
			return nil, fmt.Errorf("template %s: bad mappings: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ============================================================================
// Import history
// ============================================================================

// RecordImportRun stores a history entry.
func (s *SQLiteStore) RecordImportRun(ctx context.Context, run core.ImportRun) error {
	breakdown, err := encodeJSON(run.FormatBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode format breakdown: %w", err)
	}
	dropped, err := encodeJSON(droppedOrEmpty(run.DroppedColumns))
	if err != nil {
		return fmt.Errorf("failed to encode dropped columns: %w", err)
	}

	const query = `
		INSERT INTO import_runs (
			id, file_name, kind, format_breakdown, state, success, failed,
			attempts, dropped_columns, client_ip, user_agent, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID, run.FileName, string(run.Kind), breakdown, string(run.State),
		run.Success, run.Failed, run.Attempts, dropped, run.ClientIP, run.UserAgent,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}
	return nil
}

// ListImportRuns returns up to limit runs, newest first.
func (s *SQLiteStore) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	const query = `
		SELECT id, file_name, kind, format_breakdown, state, success, failed,
			attempts, dropped_columns, client_ip, user_agent, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	out := []core.ImportRun{}
	for rows.Next() {
		var (
			run                core.ImportRun
			kind, state        string
			breakdown, dropped string
		)
		err := rows.Scan(&run.ID, &run.FileName, &kind, &breakdown, &state,
			&run.Success, &run.Failed, &run.Attempts, &dropped,
			&run.ClientIP, &run.UserAgent, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		run.Kind = core.FileKind(kind)
		run.State = core.ExecState(state)
		if err := decodeJSON(breakdown, &run.FormatBreakdown); err != nil {
			return nil, fmt.Errorf("import run %s: bad format breakdown: %w", run.ID, err)
		}
		if err := decodeJSON(dropped, &run.DroppedColumns); err != nil {
			return nil, fmt.Errorf("import run %s: bad dropped columns: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func droppedOrEmpty(cols []core.Field) []core.Field {
	if cols == nil {
		return []core.Field{}
	}
	return cols
}
