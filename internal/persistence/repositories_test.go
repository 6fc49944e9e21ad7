package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
	"github.com/AntonioRamos11/RestaurantIA/internal/testfixtures"
)

func newPersistenceBooking(opts ...testfixtures.BookingOption) persistence.Booking {
	return testfixtures.NewBookingFixture(opts...).Persistence()
}

func insertBookings(t *testing.T, ledger persistence.BookingLedger, bookings ...persistence.Booking) {
	t.Helper()
	err := ledger.WithTableLocks(context.Background(), nil, func(ctx context.Context, tx persistence.LedgerTx) error {
		for _, booking := range bookings {
			if err := tx.InsertBooking(ctx, booking); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert bookings failed: %v", err)
	}
}

func TestBookingLedger(t *testing.T) {
	t.Parallel()

	t.Run("round trips bookings and rejects duplicate ids", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		booking := newPersistenceBooking(
			testfixtures.WithBookingID("bk-1"),
			testfixtures.WithBookingTable(3),
			testfixtures.WithBookingLocation(1),
			testfixtures.WithBookingParty(4),
		)
		insertBookings(t, harness.Ledger, booking)

		fetched, err := harness.Ledger.GetBooking(ctx, "bk-1")
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.PartySize != 4 || fetched.TableID == nil || *fetched.TableID != 3 || fetched.Status != "confirmed" {
			t.Fatalf("unexpected booking data: %#v", fetched)
		}
		if !fetched.StartAt.Equal(booking.StartAt) || !fetched.EndAt().Equal(booking.StartAt.Add(90*time.Minute)) {
			t.Fatalf("unexpected booking interval: %v to %v", fetched.StartAt, fetched.EndAt())
		}

		err = harness.Ledger.WithTableLocks(ctx, []int64{3}, func(ctx context.Context, tx persistence.LedgerTx) error {
			return tx.InsertBooking(ctx, booking)
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("returns ErrNotFound for unknown bookings", func(t *testing.T) {
		t.Parallel()

		harness := testfixtures.NewSQLiteHarness(t)
		if _, err := harness.Ledger.GetBooking(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("only confirmed bookings intersecting the window are listed", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		start := testfixtures.ReferenceTime()

		insertBookings(t, harness.Ledger,
			newPersistenceBooking(testfixtures.WithBookingID("overlap"), testfixtures.WithBookingTable(4), testfixtures.WithBookingSlot(start.Add(60*time.Minute), 90)),
			newPersistenceBooking(testfixtures.WithBookingID("adjacent"), testfixtures.WithBookingTable(4), testfixtures.WithBookingSlot(start.Add(90*time.Minute), 90)),
			newPersistenceBooking(testfixtures.WithBookingID("other-table"), testfixtures.WithBookingTable(5)),
			newPersistenceBooking(testfixtures.WithBookingID("waiting"), testfixtures.WithBookingWaitlisted()),
			newPersistenceBooking(testfixtures.WithBookingID("rejected"), testfixtures.WithBookingTable(4), testfixtures.WithBookingStatus(allocator.StatusRejected)),
		)

		var ids []string
		err := harness.Ledger.WithTableLocks(ctx, []int64{4}, func(ctx context.Context, tx persistence.LedgerTx) error {
			rows, err := tx.ListConfirmedBookings(ctx, []int64{4}, start, start.Add(90*time.Minute))
			for _, row := range rows {
				ids = append(ids, row.ID)
			}
			return err
		})
		if err != nil {
			t.Fatalf("ListConfirmedBookings failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != "overlap" {
			t.Fatalf("expected [overlap], got %v", ids)
		}
	})
}

func TestSeedRepositoryIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	first := harness.SeedDemoCatalog(t, "Downtown")
	second := harness.SeedDemoCatalog(t, "Downtown")
	if first != second {
		t.Fatalf("expected same location id, got %d and %d", first, second)
	}

	tables, err := harness.Catalog.ListDiningTables(ctx, nil)
	if err != nil {
		t.Fatalf("ListDiningTables failed: %v", err)
	}
	if len(tables) != len(testfixtures.DemoTables()) {
		t.Fatalf("expected %d demo tables, got %d", len(testfixtures.DemoTables()), len(tables))
	}

	soup, err := harness.Seeds.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Soup"})
	if err != nil {
		t.Fatalf("EnsureMenuItem failed: %v", err)
	}
	base, err := harness.Seeds.EnsureIngredient(ctx, persistence.Ingredient{Name: "Soup Base", Unit: "ml"})
	if err != nil {
		t.Fatalf("EnsureIngredient failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := harness.Seeds.EnsureRecipeItem(ctx, persistence.RecipeItem{ItemID: soup.ID, IngredientID: base.ID, QtyPerServing: 250}); err != nil {
			t.Fatalf("EnsureRecipeItem failed: %v", err)
		}
	}

	recipes, err := harness.Inventory.ListRecipeItems(ctx)
	if err != nil {
		t.Fatalf("ListRecipeItems failed: %v", err)
	}
	if len(recipes) != 1 || recipes[0].QtyPerServing != 250 {
		t.Fatalf("unexpected recipes: %#v", recipes)
	}

	order := testfixtures.NewOrderFixture(
		testfixtures.WithOrderLocation(first, "Downtown"),
		testfixtures.WithOrderLine(soup.ID, "Soup", 3, 0),
	).Persistence()
	if err := harness.Seeds.InsertOrders(ctx, []persistence.Order{order}); err != nil {
		t.Fatalf("InsertOrders failed: %v", err)
	}
	orders, err := harness.Sales.ListOrders(ctx, persistence.OrderFilter{Location: "Downtown"})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].Lines[0].ItemName != "Soup" || orders[0].Lines[0].Qty != 3 {
		t.Fatalf("unexpected orders: %#v", orders)
	}
}
