// Package sqlite implements the persistence repositories on SQLite using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations rooted at the migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("sqlite: embedded migrations: %v", err))
	}
	return sub
}

// Storage implements every persistence repository on one SQLite database.
type Storage struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

var (
	_ persistence.CatalogRepository    = (*Storage)(nil)
	_ persistence.BookingLedger        = (*Storage)(nil)
	_ persistence.CustomerRepository   = (*Storage)(nil)
	_ persistence.GovernanceRepository = (*Storage)(nil)
	_ persistence.SalesRepository      = (*Storage)(nil)
	_ persistence.InventoryRepository  = (*Storage)(nil)
	_ persistence.ReviewRepository     = (*Storage)(nil)
	_ persistence.SeedRepository       = (*Storage)(nil)
)

// Open connects to the database behind dsn. Call Migrate before first use.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{pool: pool, mapper: NewErrorMapper()}, nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks that the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	runner, err := s.Migrator(nil)
	if err != nil {
		return err
	}
	_, err = runner.Up(ctx)
	return err
}

// Migrator returns a migration runner bound to this database.
func (s *Storage) Migrator(logger *slog.Logger) (*migrate.Runner, error) {
	return migrate.New(migrate.DialectSQLite, s.pool.DB(), Migrations(), logger)
}
