package application

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type seedStub struct {
	locations   map[string]persistence.Location
	items       map[string]persistence.MenuItem
	ingredients map[string]persistence.Ingredient
	recipes     int
	levels      int
	tables      []persistence.DiningTable
	orders      []persistence.Order
	insertErr   error
}

func newSeedStub() *seedStub {
	return &seedStub{
		locations:   make(map[string]persistence.Location),
		items:       make(map[string]persistence.MenuItem),
		ingredients: make(map[string]persistence.Ingredient),
	}
}

func (s *seedStub) EnsureLocation(_ context.Context, name string) (persistence.Location, error) {
	if loc, ok := s.locations[name]; ok {
		return loc, nil
	}
	loc := persistence.Location{ID: int64(len(s.locations) + 1), Name: name}
	s.locations[name] = loc
	return loc, nil
}

func (s *seedStub) EnsureMenuItem(_ context.Context, item persistence.MenuItem) (persistence.MenuItem, error) {
	if existing, ok := s.items[item.Name]; ok {
		return existing, nil
	}
	item.ID = int64(len(s.items) + 1)
	s.items[item.Name] = item
	return item, nil
}

func (s *seedStub) EnsureIngredient(_ context.Context, ingredient persistence.Ingredient) (persistence.Ingredient, error) {
	if existing, ok := s.ingredients[ingredient.Name]; ok {
		return existing, nil
	}
	ingredient.ID = int64(len(s.ingredients) + 1)
	s.ingredients[ingredient.Name] = ingredient
	return ingredient, nil
}

func (s *seedStub) EnsureRecipeItem(context.Context, persistence.RecipeItem) error {
	s.recipes++
	return nil
}

func (s *seedStub) EnsureInventoryLevel(context.Context, int64, int64, float64) error {
	s.levels++
	return nil
}

func (s *seedStub) EnsureDiningTables(_ context.Context, tables []persistence.DiningTable) (int, error) {
	if len(s.tables) > 0 {
		return 0, nil
	}
	s.tables = append(s.tables, tables...)
	return len(tables), nil
}

func (s *seedStub) InsertOrders(_ context.Context, orders []persistence.Order) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.orders = append(s.orders, orders...)
	return nil
}

func newSeedService(stub *seedStub, cache ResultCache, seed uint64) *SeedService {
	now := time.Date(2024, time.May, 10, 12, 30, 0, 0, time.UTC)
	return NewSeedService(stub, cache, insights.NewEngine(time.UTC), rand.New(rand.NewPCG(seed, seed)), fixedNow(now), discardLogger())
}

func TestSeedServiceSeed(t *testing.T) {
	stub := newSeedStub()
	cache := newRecordingCache()
	svc := newSeedService(stub, cache, 1)

	result, err := svc.Seed(context.Background(), SeedInput{Days: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Locations) != 2 || result.Locations[0] != "Downtown" || result.Locations[1] != "Uptown" {
		t.Fatalf("expected default locations, got %v", result.Locations)
	}
	if result.MenuItems != 10 || result.Ingredients != 16 {
		t.Fatalf("expected 10 items and 16 ingredients, got %d and %d", result.MenuItems, result.Ingredients)
	}
	if stub.levels != 2*16 {
		t.Fatalf("expected stock for every ingredient at every location, got %d", stub.levels)
	}
	if result.TablesCreated != 5 || len(stub.tables) != 5 || stub.tables[4].Capacity != 6 {
		t.Fatalf("expected five demo tables, got %d %+v", result.TablesCreated, stub.tables)
	}
	if result.Days != 2 || result.OrdersCreated != len(stub.orders) || len(stub.orders) == 0 {
		t.Fatalf("unexpected result %+v with %d orders", result, len(stub.orders))
	}
	if len(stub.orders) > 2*48 {
		t.Fatalf("expected at most one order per location and hour, got %d", len(stub.orders))
	}
	if cache.invalidations != 1 {
		t.Fatalf("expected cache invalidated, got %d", cache.invalidations)
	}

	start := time.Date(2024, time.May, 8, 12, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	for _, order := range stub.orders {
		if order.Covers < 1 {
			t.Fatalf("expected positive covers, got %+v", order)
		}
		if order.OrderedAt.Before(start) || !order.OrderedAt.Before(end) {
			t.Fatalf("order outside the seeded window: %v", order.OrderedAt)
		}
		if order.OrderedAt.Minute() != 0 {
			t.Fatalf("expected orders on the hour, got %v", order.OrderedAt)
		}
		if len(order.Lines) == 0 {
			t.Fatalf("expected order lines, got none at %v", order.OrderedAt)
		}
		for _, line := range order.Lines {
			if line.Qty < 1 || line.ItemID == 0 {
				t.Fatalf("invalid line %+v", line)
			}
		}
	}

	t.Run("second run keeps the catalog", func(t *testing.T) {
		again, err := svc.Seed(context.Background(), SeedInput{Days: 1, Locations: []string{"Downtown"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.TablesCreated != 0 || len(stub.items) != 10 {
			t.Fatalf("expected no new tables or items, got %+v", again)
		}
	})
}

func TestSeedServiceIsDeterministicForASeed(t *testing.T) {
	first, second := newSeedStub(), newSeedStub()
	if _, err := newSeedService(first, nil, 99).Seed(context.Background(), SeedInput{Days: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newSeedService(second, nil, 99).Seed(context.Background(), SeedInput{Days: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.orders) != len(second.orders) {
		t.Fatalf("expected identical order counts, got %d and %d", len(first.orders), len(second.orders))
	}
	for i := range first.orders {
		if first.orders[i].Covers != second.orders[i].Covers || len(first.orders[i].Lines) != len(second.orders[i].Lines) {
			t.Fatalf("orders diverged at %d", i)
		}
	}
}

func TestSeedServiceValidation(t *testing.T) {
	tests := []struct {
		name  string
		input SeedInput
		field string
	}{
		{name: "too many days", input: SeedInput{Days: MaxSeedDays + 1}, field: "days"},
		{name: "negative days", input: SeedInput{Days: -1}, field: "days"},
		{name: "blank locations", input: SeedInput{Locations: []string{" ", ""}}, field: "locations"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := newSeedStub()
			_, err := newSeedService(stub, nil, 1).Seed(context.Background(), tc.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s error, got %v", tc.field, vErr.FieldErrors)
			}
			if len(stub.locations) != 0 {
				t.Fatal("expected nothing written on invalid input")
			}
		})
	}

	t.Run("insert failure leaves cache intact", func(t *testing.T) {
		stub := newSeedStub()
		stub.insertErr = errors.New("disk full")
		cache := newRecordingCache()
		if _, err := newSeedService(stub, cache, 1).Seed(context.Background(), SeedInput{Days: 1}); err == nil {
			t.Fatal("expected error")
		}
		if cache.invalidations != 0 {
			t.Fatalf("expected no invalidation, got %d", cache.invalidations)
		}
	})
}
