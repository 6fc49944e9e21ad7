package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "restaurantia.db")
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func strPtr(s string) *string { return &s }

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare path", in: "data.db", want: "file:data.db?" + defaultPragmas},
		{name: "file uri", in: "file:data.db", want: "file:data.db?" + defaultPragmas},
		{name: "existing query", in: "file:data.db?cache=shared", want: "file:data.db?cache=shared&" + defaultPragmas},
		{name: "explicit pragmas kept", in: "file:data.db?_pragma=foreign_keys(1)", want: "file:data.db?_pragma=foreign_keys(1)"},
		{name: "empty uses default", in: "", want: "file:restaurantia.db?" + defaultPragmas},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeDSN(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	runner, err := storage.Migrator(nil)
	if err != nil {
		t.Fatalf("Migrator failed: %v", err)
	}
	statuses, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatalf("expected at least one migration")
	}
	for _, st := range statuses {
		if !st.Applied {
			t.Fatalf("expected migration %d applied", st.Version)
		}
	}
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tenant, err := storage.CreateTenant(ctx, persistence.Tenant{Name: "Acme", Currency: strPtr("EUR"), CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if tenant.ID == 0 {
		t.Fatalf("expected tenant id to be assigned")
	}

	if _, err := storage.CreateTenant(ctx, persistence.Tenant{Name: "Acme", CreatedAt: now}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	byName, err := storage.GetTenantByName(ctx, "Acme")
	if err != nil {
		t.Fatalf("GetTenantByName failed: %v", err)
	}
	if byName.ID != tenant.ID || byName.Currency == nil || *byName.Currency != "EUR" || !byName.CreatedAt.Equal(now) {
		t.Fatalf("unexpected tenant: %#v", byName)
	}

	if _, err := storage.GetTenant(ctx, 999); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	loc, created, err := storage.AddLocation(ctx, tenant.ID, persistence.Location{Name: "Downtown"}, []persistence.DiningTable{
		{Name: strPtr("T1"), Capacity: 2},
		{Capacity: 4},
	})
	if err != nil {
		t.Fatalf("AddLocation failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 tables created, got %d", created)
	}
	if loc.TenantID == nil || *loc.TenantID != tenant.ID {
		t.Fatalf("expected location owned by tenant, got %#v", loc)
	}

	again, created, err := storage.AddLocation(ctx, tenant.ID, persistence.Location{Name: "Downtown"}, nil)
	if err != nil {
		t.Fatalf("AddLocation (existing) failed: %v", err)
	}
	if again.ID != loc.ID || created != 0 {
		t.Fatalf("expected existing location %d without tables, got %d/%d", loc.ID, again.ID, created)
	}

	if _, _, err := storage.AddLocation(ctx, 999, persistence.Location{Name: "Nowhere"}, nil); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown tenant, got %v", err)
	}

	if _, _, err := storage.AddLocation(ctx, tenant.ID, persistence.Location{Name: "Uptown"}, []persistence.DiningTable{{Capacity: 0}}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for zero capacity, got %v", err)
	}
	if _, err := storage.GetLocation(ctx, loc.ID+1); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected rolled back location, got %v", err)
	}

	tables, err := storage.ListDiningTables(ctx, &loc.ID)
	if err != nil {
		t.Fatalf("ListDiningTables failed: %v", err)
	}
	if len(tables) != 2 || tables[0].Capacity != 2 || tables[1].Capacity != 4 {
		t.Fatalf("unexpected tables: %#v", tables)
	}
	if tables[0].Name == nil || *tables[0].Name != "T1" || tables[1].Name != nil {
		t.Fatalf("unexpected table names: %#v", tables)
	}
}

func TestCustomerRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	customer, err := storage.CreateCustomer(ctx, persistence.Customer{
		Name:             strPtr("Ana"),
		Email:            strPtr("ana@example.com"),
		AnalyticsConsent: true,
		CreatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}

	if _, err := storage.CreateCustomer(ctx, persistence.Customer{Email: strPtr("ana@example.com"), CreatedAt: now}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Customers without email do not collide.
	for i := 0; i < 2; i++ {
		if _, err := storage.CreateCustomer(ctx, persistence.Customer{CreatedAt: now}); err != nil {
			t.Fatalf("CreateCustomer without email failed: %v", err)
		}
	}

	marketing := true
	updated, err := storage.UpdateConsent(ctx, customer.ID, &marketing, nil)
	if err != nil {
		t.Fatalf("UpdateConsent failed: %v", err)
	}
	if !updated.MarketingConsent || !updated.AnalyticsConsent {
		t.Fatalf("unexpected consent after update: %#v", updated)
	}

	fetched, err := storage.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if !fetched.MarketingConsent || fetched.Email == nil || *fetched.Email != "ana@example.com" {
		t.Fatalf("unexpected customer: %#v", fetched)
	}

	if _, err := storage.UpdateConsent(ctx, 999, &marketing, nil); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGovernanceRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.UpsertRetentionPolicy(ctx, persistence.RetentionPolicy{Entity: "reviews", Days: 30}); err != nil {
		t.Fatalf("UpsertRetentionPolicy failed: %v", err)
	}
	if err := storage.UpsertRetentionPolicy(ctx, persistence.RetentionPolicy{Entity: "orders", Days: 90}); err != nil {
		t.Fatalf("UpsertRetentionPolicy failed: %v", err)
	}
	if err := storage.UpsertRetentionPolicy(ctx, persistence.RetentionPolicy{Entity: "reviews", Days: 7}); err != nil {
		t.Fatalf("UpsertRetentionPolicy (update) failed: %v", err)
	}

	policies, err := storage.ListRetentionPolicies(ctx)
	if err != nil {
		t.Fatalf("ListRetentionPolicies failed: %v", err)
	}
	if len(policies) != 2 || policies[0].Entity != "orders" || policies[1].Days != 7 {
		t.Fatalf("unexpected policies: %#v", policies)
	}

	if err := storage.UpsertRetentionPolicy(ctx, persistence.RetentionPolicy{Entity: "orders", Days: 0}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loc, err := storage.EnsureLocation(ctx, "Downtown")
	if err != nil {
		t.Fatalf("EnsureLocation failed: %v", err)
	}
	item, err := storage.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Soup"})
	if err != nil {
		t.Fatalf("EnsureMenuItem failed: %v", err)
	}
	orders := []persistence.Order{
		{LocationID: loc.ID, Covers: 2, OrderedAt: cutoff.Add(-time.Hour), Lines: []persistence.OrderLine{{ItemID: item.ID, Qty: 1}}},
		{LocationID: loc.ID, Covers: 3, OrderedAt: cutoff.Add(time.Hour), Lines: []persistence.OrderLine{{ItemID: item.ID, Qty: 2}}},
	}
	if err := storage.InsertOrders(ctx, orders); err != nil {
		t.Fatalf("InsertOrders failed: %v", err)
	}
	if _, err := storage.CreateReview(ctx, persistence.Review{LocationName: "Downtown", At: cutoff.Add(-time.Minute), Text: "old"}); err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	deleted, err := storage.DeleteOrdersBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteOrdersBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 order deleted, got %d", deleted)
	}
	remaining, err := storage.ListOrders(ctx, persistence.OrderFilter{})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(remaining) != 1 || len(remaining[0].Lines) != 1 || remaining[0].Lines[0].Qty != 2 {
		t.Fatalf("unexpected remaining orders: %#v", remaining)
	}

	deleted, err = storage.DeleteReviewsBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteReviewsBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 review deleted, got %d", deleted)
	}
}

func TestSalesRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	downtown, _ := storage.EnsureLocation(ctx, "Downtown")
	uptown, _ := storage.EnsureLocation(ctx, "Uptown")
	burger, err := storage.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Burger", Price: floatPtr(10)})
	if err != nil {
		t.Fatalf("EnsureMenuItem failed: %v", err)
	}
	water, err := storage.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Water"})
	if err != nil {
		t.Fatalf("EnsureMenuItem failed: %v", err)
	}

	if again, err := storage.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Burger", Price: floatPtr(99)}); err != nil || again.ID != burger.ID {
		t.Fatalf("expected existing burger %d, got %#v (%v)", burger.ID, again, err)
	}

	err = storage.InsertOrders(ctx, []persistence.Order{
		{LocationID: downtown.ID, Covers: 2, OrderedAt: day.Add(12 * time.Hour), Lines: []persistence.OrderLine{{ItemID: burger.ID, Qty: 2}, {ItemID: water.ID, Qty: 1}}},
		{LocationID: uptown.ID, Covers: 4, OrderedAt: day.Add(19 * time.Hour)},
		{LocationID: downtown.ID, Covers: 1, OrderedAt: day.Add(30 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("InsertOrders failed: %v", err)
	}

	from := day
	to := day.AddDate(0, 0, 1)
	orders, err := storage.ListOrders(ctx, persistence.OrderFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders in window, got %d", len(orders))
	}
	first := orders[0]
	if first.LocationName != "Downtown" || len(first.Lines) != 2 {
		t.Fatalf("unexpected first order: %#v", first)
	}
	if first.Lines[0].Price != 10 || first.Lines[1].Price != 0 {
		t.Fatalf("expected prices 10 and 0, got %#v", first.Lines)
	}

	orders, err = storage.ListOrders(ctx, persistence.OrderFilter{Location: "Uptown"})
	if err != nil {
		t.Fatalf("ListOrders by location failed: %v", err)
	}
	if len(orders) != 1 || orders[0].Covers != 4 || len(orders[0].Lines) != 0 {
		t.Fatalf("unexpected uptown orders: %#v", orders)
	}

	latest, err := storage.LatestOrderTime(ctx)
	if err != nil {
		t.Fatalf("LatestOrderTime failed: %v", err)
	}
	if latest == nil || !latest.Equal(day.Add(30*time.Hour)) {
		t.Fatalf("unexpected latest order time: %v", latest)
	}

	noReview, err := storage.LatestReviewTime(ctx)
	if err != nil {
		t.Fatalf("LatestReviewTime failed: %v", err)
	}
	if noReview != nil {
		t.Fatalf("expected no review time, got %v", noReview)
	}

	items, err := storage.ListMenuItems(ctx)
	if err != nil {
		t.Fatalf("ListMenuItems failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Burger" || items[0].Price == nil || *items[0].Price != 10 {
		t.Fatalf("unexpected menu: %#v", items)
	}
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	loc, _ := storage.EnsureLocation(ctx, "Downtown")
	egg, err := storage.EnsureIngredient(ctx, persistence.Ingredient{Name: "Egg"})
	if err != nil {
		t.Fatalf("EnsureIngredient failed: %v", err)
	}
	if egg.Unit != "unit" {
		t.Fatalf("expected default unit, got %q", egg.Unit)
	}
	if _, err := storage.EnsureIngredient(ctx, persistence.Ingredient{Name: "Sugar", Unit: "g"}); err != nil {
		t.Fatalf("EnsureIngredient failed: %v", err)
	}
	if err := storage.EnsureInventoryLevel(ctx, egg.ID, loc.ID, 10); err != nil {
		t.Fatalf("EnsureInventoryLevel failed: %v", err)
	}
	if err := storage.EnsureInventoryLevel(ctx, egg.ID, loc.ID, 500); err != nil {
		t.Fatalf("EnsureInventoryLevel (again) failed: %v", err)
	}

	level, err := storage.AdjustInventory(ctx, "Egg", "Downtown", -4)
	if err != nil {
		t.Fatalf("AdjustInventory failed: %v", err)
	}
	if level.OnHand != 6 {
		t.Fatalf("expected 6 on hand, got %v", level.OnHand)
	}

	level, err = storage.AdjustInventory(ctx, "Egg", "Downtown", -100)
	if err != nil {
		t.Fatalf("AdjustInventory failed: %v", err)
	}
	if level.OnHand != 0 {
		t.Fatalf("expected clamp at 0, got %v", level.OnHand)
	}

	level, err = storage.AdjustInventory(ctx, "Sugar", "Downtown", 250)
	if err != nil {
		t.Fatalf("AdjustInventory (new level) failed: %v", err)
	}
	if level.OnHand != 250 || level.Unit != "g" {
		t.Fatalf("unexpected new level: %#v", level)
	}

	if _, err := storage.AdjustInventory(ctx, "Saffron", "Downtown", 1); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ingredient, got %v", err)
	}
	if _, err := storage.AdjustInventory(ctx, "Egg", "Nowhere", 1); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown location, got %v", err)
	}

	levels, err := storage.ListInventoryLevels(ctx, "Downtown")
	if err != nil {
		t.Fatalf("ListInventoryLevels failed: %v", err)
	}
	if len(levels) != 2 || levels[0].IngredientName != "Egg" || levels[1].IngredientName != "Sugar" {
		t.Fatalf("unexpected levels: %#v", levels)
	}

	ingredients, err := storage.ListIngredients(ctx)
	if err != nil {
		t.Fatalf("ListIngredients failed: %v", err)
	}
	if len(ingredients) != 2 || ingredients[0].Name != "Egg" {
		t.Fatalf("unexpected ingredients: %#v", ingredients)
	}
}

func TestReviewRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	at := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	rating := 5

	review, err := storage.CreateReview(ctx, persistence.Review{LocationName: "Harbor", At: at, Rating: &rating, Text: "Great pasta", Source: strPtr("google")})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if review.ID == 0 || review.LocationID == 0 {
		t.Fatalf("expected ids assigned, got %#v", review)
	}

	badRating := 9
	if _, err := storage.CreateReview(ctx, persistence.Review{LocationName: "Harbor", At: at, Rating: &badRating, Text: "x"}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	reviews, err := storage.ListReviews(ctx, persistence.ReviewFilter{From: at.Add(-time.Hour), To: at.Add(time.Hour), Location: "Harbor"})
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Rating == nil || *reviews[0].Rating != 5 || reviews[0].Sentiment != nil {
		t.Fatalf("unexpected reviews: %#v", reviews)
	}
	if reviews[0].LocationName != "Harbor" {
		t.Fatalf("unexpected location: %q", reviews[0].LocationName)
	}

	reviews, err = storage.ListReviews(ctx, persistence.ReviewFilter{From: at.Add(time.Hour), To: at.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 0 {
		t.Fatalf("expected no reviews outside window, got %d", len(reviews))
	}
}

func TestEnsureDiningTablesOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	loc, _ := storage.EnsureLocation(ctx, "Downtown")
	tables := []persistence.DiningTable{{LocationID: loc.ID, Capacity: 2}, {LocationID: loc.ID, Capacity: 4}}

	inserted, err := storage.EnsureDiningTables(ctx, tables)
	if err != nil {
		t.Fatalf("EnsureDiningTables failed: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	inserted, err = storage.EnsureDiningTables(ctx, tables)
	if err != nil {
		t.Fatalf("EnsureDiningTables (again) failed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected 0 inserted, got %d", inserted)
	}
}

func TestEnsureCatalogRowsConcurrently(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	const workers = 8
	itemIDs := make([]int64, workers)
	ingredientIDs := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := storage.EnsureMenuItem(ctx, persistence.MenuItem{Name: "Tiramisu", Price: floatPtr(7)})
			if err != nil {
				errs[i] = err
				return
			}
			ingredient, err := storage.EnsureIngredient(ctx, persistence.Ingredient{Name: "Mascarpone", Unit: "g"})
			if err != nil {
				errs[i] = err
				return
			}
			itemIDs[i], ingredientIDs[i] = item.ID, ingredient.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if itemIDs[i] != itemIDs[0] || ingredientIDs[i] != ingredientIDs[0] {
			t.Fatalf("expected one row per name, got items %v ingredients %v", itemIDs, ingredientIDs)
		}
	}

	items, err := storage.ListMenuItems(ctx)
	if err != nil {
		t.Fatalf("ListMenuItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 menu item, got %d", len(items))
	}
}

func floatPtr(v float64) *float64 { return &v }
