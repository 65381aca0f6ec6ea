package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type migration struct {
	version int
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE flights (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				date TEXT NOT NULL,
				aircraft_id TEXT NOT NULL,
				aircraft_type TEXT NOT NULL,
				departure_airport TEXT NOT NULL,
				arrival_airport TEXT NOT NULL,
				total_time TEXT NOT NULL DEFAULT '0',
				pic_time TEXT NOT NULL DEFAULT '0',
				sic_time TEXT NOT NULL DEFAULT '0',
				solo_time TEXT NOT NULL DEFAULT '0',
				night_time TEXT NOT NULL DEFAULT '0',
				cross_country_time TEXT NOT NULL DEFAULT '0',
				actual_instrument_time TEXT NOT NULL DEFAULT '0',
				simulated_instrument_time TEXT NOT NULL DEFAULT '0',
				instrument_time TEXT NOT NULL DEFAULT '0',
				dual_given_time TEXT NOT NULL DEFAULT '0',
				dual_received_time TEXT NOT NULL DEFAULT '0',
				simulated_flight_time TEXT NOT NULL DEFAULT '0',
				ground_training_time TEXT NOT NULL DEFAULT '0',
				holds_count INTEGER NOT NULL DEFAULT 0 CHECK (holds_count >= 0),
				approach_count INTEGER NOT NULL DEFAULT 0 CHECK (approach_count >= 0),
				day_takeoffs INTEGER NOT NULL DEFAULT 0 CHECK (day_takeoffs >= 0),
				day_landings INTEGER NOT NULL DEFAULT 0 CHECK (day_landings >= 0),
				night_takeoffs INTEGER NOT NULL DEFAULT 0 CHECK (night_takeoffs >= 0),
				night_landings INTEGER NOT NULL DEFAULT 0 CHECK (night_landings >= 0),
				day_full_stop_landings INTEGER NOT NULL DEFAULT 0 CHECK (day_full_stop_landings >= 0),
				night_full_stop_landings INTEGER NOT NULL DEFAULT 0 CHECK (night_full_stop_landings >= 0),
				landings INTEGER NOT NULL DEFAULT 0 CHECK (landings >= 0),
				route TEXT,
				remarks TEXT,
				start_time TEXT,
				end_time TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX idx_flights_date ON flights(date);
			CREATE INDEX idx_flights_aircraft ON flights(aircraft_id);

			CREATE TABLE aircraft (
				aircraft_id TEXT PRIMARY KEY,
				type_code TEXT NOT NULL DEFAULT '',
				make TEXT NOT NULL DEFAULT '',
				model TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		version: 2,
		sql: `
			CREATE TABLE mapping_templates (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				headers TEXT NOT NULL,
				mappings TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);

			CREATE TABLE import_runs (
				id TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				kind TEXT NOT NULL,
				format_breakdown TEXT NOT NULL,
				state TEXT NOT NULL,
				success INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				attempts INTEGER NOT NULL DEFAULT 0,
				dropped_columns TEXT NOT NULL DEFAULT '[]',
				client_ip TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				started_at DATETIME NOT NULL,
				finished_at DATETIME NOT NULL
			);

			CREATE INDEX idx_import_runs_started ON import_runs(started_at);
		`,
	},
}

// pgSchema is applied idempotently when a PgStore starts.
const pgSchema = `
	CREATE TABLE IF NOT EXISTS flights (
		id BIGSERIAL PRIMARY KEY,
		date DATE NOT NULL,
		aircraft_id TEXT NOT NULL,
		aircraft_type TEXT NOT NULL,
		departure_airport TEXT NOT NULL,
		arrival_airport TEXT NOT NULL,
		total_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		pic_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		sic_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		solo_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		night_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		cross_country_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		actual_instrument_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		simulated_instrument_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		instrument_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		dual_given_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		dual_received_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		simulated_flight_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		ground_training_time NUMERIC(8,2) NOT NULL DEFAULT 0,
		holds_count INTEGER NOT NULL DEFAULT 0 CHECK (holds_count >= 0),
		approach_count INTEGER NOT NULL DEFAULT 0 CHECK (approach_count >= 0),
		day_takeoffs INTEGER NOT NULL DEFAULT 0 CHECK (day_takeoffs >= 0),
		day_landings INTEGER NOT NULL DEFAULT 0 CHECK (day_landings >= 0),
		night_takeoffs INTEGER NOT NULL DEFAULT 0 CHECK (night_takeoffs >= 0),
		night_landings INTEGER NOT NULL DEFAULT 0 CHECK (night_landings >= 0),
		day_full_stop_landings INTEGER NOT NULL DEFAULT 0 CHECK (day_full_stop_landings >= 0),
		night_full_stop_landings INTEGER NOT NULL DEFAULT 0 CHECK (night_full_stop_landings >= 0),
		landings INTEGER NOT NULL DEFAULT 0 CHECK (landings >= 0),
		route TEXT,
		remarks TEXT,
		start_time TEXT,
		end_time TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_flights_date ON flights(date);
	CREATE INDEX IF NOT EXISTS idx_flights_aircraft ON flights(aircraft_id);

	CREATE TABLE IF NOT EXISTS aircraft (
		aircraft_id TEXT PRIMARY KEY,
		type_code TEXT NOT NULL DEFAULT '',
		make TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS mapping_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		headers JSONB NOT NULL,
		mappings JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		format_breakdown JSONB NOT NULL,
		state TEXT NOT NULL,
		success INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		attempts INTEGER NOT NULL DEFAULT 0,
		dropped_columns JSONB NOT NULL DEFAULT '[]',
		client_ip TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at DESC);
`

// migrate runs all pending SQLite migrations.
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	const createMigrationsTable = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, m := range sqliteMigrations {
		if m.version <= current {
			continue
		}
		logger.Info("applying migration", "version", m.version)
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
	}
	return nil
}

func runMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
