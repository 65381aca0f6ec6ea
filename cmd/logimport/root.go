package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbook/internal/config"
	"github.com/JonMunkholm/logbook/internal/core"
	"github.com/JonMunkholm/logbook/internal/logging"
	"github.com/JonMunkholm/logbook/internal/store"
)

// backend is what import and history need from a store.
type backend interface {
	core.FlightStore
	core.TemplateStore
	core.RunRecorder
}

// app holds state shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	sqlitePath  string
	databaseURL string
	logLevel    string
	logFormat   string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "logimport",
		Short: "Import pilot logbook exports",
		Long: `logimport reads ForeFlight bundled exports and generic logbook CSV or
XLSX files, reports what would be imported, and stores the flights in a
local SQLite database or PostgreSQL.

Settings come from the same environment variables as the server (a .env
file is read if present); flags override them.`,
		Example: `  logimport parse logbook.csv
  logimport parse export.xlsx --mapping club.yaml --json
  logimport import logbook.csv --sqlite flights.db --skip-zero-time
  logimport template bundled > template.csv
  logimport history --limit 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; existing env vars win.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg

			level, format := a.logLevel, a.logFormat
			if level == "" {
				level = cfg.Logging.Level
			}
			if format == "" {
				format = cfg.Logging.Format
			}
			a.logger = logging.New(cmd.ErrOrStderr(), level, format)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.sqlitePath, "sqlite", "", "SQLite database file (default from SQLITE_PATH)")
	cmd.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "PostgreSQL URL (default from DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text or json)")
	cmd.MarkFlagsMutuallyExclusive("sqlite", "database-url")

	cmd.AddCommand(
		newParseCmd(a),
		newImportCmd(a),
		newTemplateCmd(),
		newHistoryCmd(a),
	)

	return cmd
}

// service builds an import service over b; b may be nil when nothing is
// persisted.
func (a *app) service(b backend) *core.Service {
	if b == nil {
		return core.NewService(nil, nil, a.cfg.Import.ServiceConfig(), a.logger)
	}
	return core.NewService(b, b, a.cfg.Import.ServiceConfig(), a.logger)
}

// openBackend connects to PostgreSQL when a URL is configured and --sqlite
// was not given, otherwise to the SQLite file.
func (a *app) openBackend(ctx context.Context) (backend, func(), error) {
	url := a.databaseURL
	if url == "" && a.sqlitePath == "" {
		url = a.cfg.Database.URL
	}

	if url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		pg := store.NewPgStore(pool, a.logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		a.logger.Debug("using postgres store")
		return pg, pool.Close, nil
	}

	path := a.sqlitePath
	if path == "" {
		path = a.cfg.Database.SQLitePath
	}
	st, err := store.OpenSQLite(ctx, path, a.logger)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("using sqlite store", "path", path)
	return st, func() {
		if err := st.Close(); err != nil {
			a.logger.Error("failed to close store", "error", err)
		}
	}, nil
}
