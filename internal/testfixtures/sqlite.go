package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style persistence tests.
type SQLiteHarness struct {
	Storage    *sqlite.Storage
	Catalog    persistence.CatalogRepository
	Ledger     persistence.BookingLedger
	Customers  persistence.CustomerRepository
	Governance persistence.GovernanceRepository
	Sales      persistence.SalesRepository
	Inventory  persistence.InventoryRepository
	Reviews    persistence.ReviewRepository
	Seeds      persistence.SeedRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "restaurantia.db")

	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:    storage,
		Catalog:    storage,
		Ledger:     storage,
		Customers:  storage,
		Governance: storage,
		Sales:      storage,
		Inventory:  storage,
		Reviews:    storage,
		Seeds:      storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedDemoCatalog creates the named location with the demo tables and returns
// its id.
func (h *SQLiteHarness) SeedDemoCatalog(tb testing.TB, location string) int64 {
	tb.Helper()

	ctx := context.Background()
	loc, err := h.Seeds.EnsureLocation(ctx, location)
	if err != nil {
		tb.Fatalf("failed to ensure location: %v", err)
	}
	tables := DemoDiningTables(loc.ID)
	for i := range tables {
		tables[i].ID = 0
	}
	if _, err := h.Seeds.EnsureDiningTables(ctx, tables); err != nil {
		tb.Fatalf("failed to seed dining tables: %v", err)
	}
	return loc.ID
}
