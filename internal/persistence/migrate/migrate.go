// Package migrate applies versioned SQL migrations to the SQLite store and the
// optional Postgres booking ledger.
//
// Migrations are embedded by the store packages and follow goose's naming
// convention: {version}_{description}.sql with -- +goose Up / Down sections.
// Applied versions are tracked in goose's version table.
//
// Example usage:
//
//	runner, err := migrate.New(goose.DialectSQLite3, db, sqlite.Migrations, logger)
//	if err != nil {
//		return err
//	}
//	if _, err := runner.Up(ctx); err != nil {
//		return err
//	}
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

// Dialects supported by the stores.
const (
	DialectSQLite   = goose.DialectSQLite3
	DialectPostgres = goose.DialectPostgres
)

// Status describes one known migration.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Runner applies migrations from an embedded filesystem.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// New creates a Runner for db. fsys must hold the migration files at its root.
func New(dialect goose.Dialect, db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &Runner{provider: provider, logger: logger.With("component", "migrate", "dialect", string(dialect))}, nil
}

// Up applies every pending migration in version order and returns how many ran.
func (r *Runner) Up(ctx context.Context) (int, error) {
	start := time.Now()
	before, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "could not read current schema version", "error", err)
	} else {
		r.logger.InfoContext(ctx, "applying migrations", "current_version", before)
	}

	results, err := r.provider.Up(ctx)
	for _, result := range results {
		if result == nil || result.Source == nil {
			continue
		}
		r.logger.InfoContext(ctx, "migration applied",
			"version", result.Source.Version,
			"path", result.Source.Path,
			"duration", result.Duration,
		)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "migration failed", "error", err)
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}

	r.logger.InfoContext(ctx, "migrations complete", "applied", len(results), "duration", time.Since(start))
	return len(results), nil
}

// Version returns the highest applied migration version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	version, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Status lists every known migration with whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		out = append(out, Status{
			Version:   st.Source.Version,
			Path:      st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}
