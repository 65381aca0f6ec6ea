package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/logbook/internal/core"
)

// pgUndefinedColumn is SQLSTATE undefined_column.
const pgUndefinedColumn = "42703"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PgStore is a FlightStore backed by PostgreSQL.
type PgStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var (
	_ core.FlightStore   = (*PgStore)(nil)
	_ core.TemplateStore = (*PgStore)(nil)
	_ core.RunRecorder   = (*PgStore)(nil)
)

// NewPgStore wraps pool. Call EnsureSchema before first use on a fresh
// database.
func NewPgStore(pool *pgxpool.Pool, logger *slog.Logger) *PgStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgStore{pool: pool, logger: logger}
}

// EnsureSchema creates missing tables and indexes.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func flightColumnsPg(ctx context.Context, db DBTX) (map[string]bool, error) {
	const query = `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`
	rows, err := db.Query(ctx, query, flightsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read flight columns: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan column names: %w", err)
	}

	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	return known, nil
}

// InsertFlights writes records in one transaction, each behind its own
// savepoint so a bad row is rolled back alone.
func (s *PgStore) InsertFlights(ctx context.Context, records []core.FlightRecord, columns []core.Field) (core.BatchResult, error) {
	var res core.BatchResult

	known, err := flightColumnsPg(ctx, s.pool)
	if err != nil {
		return res, err
	}
	if missing := unknownColumns(known, columns); len(missing) > 0 {
		return res, &core.SchemaMismatchError{Columns: missing}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertFlightSQL(columns, dollarSign)
	for i, rec := range records {
		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return core.BatchResult{}, fmt.Errorf("failed to create savepoint: %w", err)
		}

		if _, err := tx.Exec(ctx, query, pgArgs(rec, columns)...); err != nil {
			if m := pgMismatch(err); m != nil {
				return core.BatchResult{}, m
			}
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp)
			res.Failed++
			res.Errors = append(res.Errors, core.RowError{Row: i, Message: fmt.Sprintf("insert: %v", err)})
			continue
		}
		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+sp)
		res.Success++
	}

	if err := tx.Commit(ctx); err != nil {
		return core.BatchResult{}, fmt.Errorf("failed to commit flights: %w", err)
	}
	s.logger.Debug("flights inserted", "success", res.Success, "failed", res.Failed)
	return res, nil
}

// pgMismatch converts an undefined_column error into a
// *core.SchemaMismatchError.
func pgMismatch(err error) *core.SchemaMismatchError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUndefinedColumn {
		return nil
	}
	if pgErr.ColumnName != "" {
		return &core.SchemaMismatchError{Columns: []core.Field{core.Field(pgErr.ColumnName)}, Err: err}
	}
	if m := mismatchFromMessage(pgNoColumn, err); m != nil {
		return m
	}
	return &core.SchemaMismatchError{Err: err}
}

func pgArgs(rec core.FlightRecord, columns []core.Field) []any {
	args := make([]any, len(columns))
	for i, c := range columns {
		switch v := rec.Value(c).(type) {
		case time.Time:
			args[i] = pgtype.Date{Time: v, Valid: true}
		case decimal.Decimal:
			args[i] = pgtype.Numeric{Int: v.Coefficient(), Exp: v.Exponent(), Valid: true}
		default:
			args[i] = v
		}
	}
	return args
}

// UpsertAircraft inserts info unless the registration is already known.
func (s *PgStore) UpsertAircraft(ctx context.Context, info core.AircraftInfo) error {
	const query = `
		INSERT INTO aircraft (aircraft_id, type_code, make, model)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (aircraft_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, info.ID, info.TypeCode, info.Make, info.Model); err != nil {
		return fmt.Errorf("failed to upsert aircraft: %w", err)
	}
	return nil
}

// CreateMappingTemplate stores t.
func (s *PgStore) CreateMappingTemplate(ctx context.Context, t core.MappingTemplate) error {
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
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5)
	`
	if _, err := s.pool.Exec(ctx, query, t.ID, t.Name, headers, mappings, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert mapping template: %w", err)
	}
	return nil
}

// ListMappingTemplates returns templates newest first.
func (s *PgStore) ListMappingTemplates(ctx context.Context) ([]core.MappingTemplate, error) {
	const query = `
		SELECT id, name, headers::text, mappings::text, created_at
		FROM mapping_templates
		ORDER BY created_at DESC, name
	`
	rows, err := s.pool.Query(ctx, query)
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

// RecordImportRun stores a history entry.
func (s *PgStore) RecordImportRun(ctx context.Context, run core.ImportRun) error {
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
		) VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9::jsonb, $10, $11, $12, $13)
	`
	_, err = s.pool.Exec(ctx, query,
		run.ID, run.FileName, string(run.Kind), breakdown, string(run.State),
		run.Success, run.Failed, run.Attempts, dropped, run.ClientIP, run.UserAgent,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}
	return nil
}

// ListImportRuns returns up to limit runs, newest first.
func (s *PgStore) ListImportRuns(ctx context.Context, limit int) ([]core.ImportRun, error) {
	const query = `
		SELECT id, file_name, kind, format_breakdown::text, state, success, failed,
			attempts, dropped_columns::text, client_ip, user_agent, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
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
