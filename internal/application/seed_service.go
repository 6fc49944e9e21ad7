package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// Seed limits and defaults.
const (
	DefaultSeedDays      = 7
	MaxSeedDays          = 60
	seedInventoryOnHand  = 10000
	seedDemoTableNameFmt = "T%d"
)

// DefaultSeedLocations are used when a seed request names none.
var DefaultSeedLocations = []string{"Downtown", "Uptown"}

type seedMenuItem struct {
	name     string
	category string
	price    float64
}

type seedIngredient struct {
	name string
	unit string
}

type seedComponent struct {
	ingredient string
	qty        float64
}

var seedMenu = []seedMenuItem{
	{"Burger", "Main", 10},
	{"Fries", "Side", 4},
	{"Coke", "Drink", 2},
	{"Salad", "Starter", 6},
	{"Pasta", "Main", 11},
	{"Wine", "Drink", 8},
	{"Tiramisu", "Dessert", 6},
	{"Water", "Drink", 1.5},
	{"Chicken Grill", "Main", 12},
	{"Soup", "Starter", 5},
}

var seedIngredients = []seedIngredient{
	{"Beef Patty", "unit"}, {"Bun", "unit"}, {"Lettuce", "g"}, {"Tomato", "g"},
	{"Fries Potatoes", "g"}, {"Coke Syrup", "ml"}, {"Sparkling Water", "ml"},
	{"Pasta Noodles", "g"}, {"Tomato Sauce", "ml"}, {"Chicken Breast", "g"},
	{"Wine Bottle", "ml"}, {"Mascarpone", "g"}, {"Egg", "unit"}, {"Sugar", "g"},
	{"Soup Base", "ml"}, {"Water", "ml"},
}

var seedRecipes = map[string][]seedComponent{
	"Burger":        {{"Beef Patty", 1}, {"Bun", 1}, {"Lettuce", 20}, {"Tomato", 20}},
	"Fries":         {{"Fries Potatoes", 150}},
	"Coke":          {{"Coke Syrup", 50}, {"Sparkling Water", 200}},
	"Salad":         {{"Lettuce", 80}, {"Tomato", 50}},
	"Pasta":         {{"Pasta Noodles", 120}, {"Tomato Sauce", 150}},
	"Wine":          {{"Wine Bottle", 150}},
	"Tiramisu":      {{"Mascarpone", 100}, {"Egg", 1}, {"Sugar", 20}},
	"Water":         {{"Water", 250}},
	"Chicken Grill": {{"Chicken Breast", 180}},
	"Soup":          {{"Soup Base", 250}},
}

// seedDemoCapacities is the demo table catalog: two 2-tops, two 4-tops and a 6-top.
var seedDemoCapacities = []int{2, 2, 4, 4, 6}

// SeedService builds demo data: the catalog, recipes, stock and synthetic orders.
type SeedService struct {
	seeds  persistence.SeedRepository
	cache  ResultCache
	engine *insights.Engine
	now    func() time.Time
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeedService constructs a seed service. A nil rng draws from a randomly
// seeded source.
func NewSeedService(seeds persistence.SeedRepository, cache ResultCache, engine *insights.Engine, rng *rand.Rand, now func() time.Time, logger *slog.Logger) *SeedService {
	if now == nil {
		now = time.Now
	}
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SeedService{
		seeds:  seeds,
		cache:  cache,
		engine: engine,
		now:    now,
		logger: defaultLogger(logger),
		rng:    rng,
	}
}

func (s *SeedService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SeedService", operation, attrs...)
}

// Seed ensures the demo catalog exists and appends hourly orders for the last
// input.Days days.
func (s *SeedService) Seed(ctx context.Context, input SeedInput) (result SeedResult, err error) {
	if s == nil || s.seeds == nil {
		err = fmt.Errorf("seed repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Seed", "days", input.Days)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed demo data", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"locations", result.Locations,
			"orders_created", result.OrdersCreated,
			"tables_created", result.TablesCreated,
		).InfoContext(ctx, "demo data seeded")
	}()

	days := input.Days
	if days == 0 {
		days = DefaultSeedDays
	}
	names := make([]string, 0, len(input.Locations))
	for _, name := range input.Locations {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(input.Locations) == 0 {
		names = append(names, DefaultSeedLocations...)
	}

	vErr := &ValidationError{}
	if days < 1 || days > MaxSeedDays {
		vErr.add("days", fmt.Sprintf("days must be between 1 and %d", MaxSeedDays))
	}
	if len(names) == 0 {
		vErr.add("locations", "at least one location is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	locations := make([]persistence.Location, 0, len(names))
	for _, name := range names {
		var loc persistence.Location
		loc, err = s.seeds.EnsureLocation(ctx, name)
		if err != nil {
			err = fmt.Errorf("ensure location %q: %w", name, err)
			return
		}
		locations = append(locations, loc)
		result.Locations = append(result.Locations, loc.Name)
	}

	items := make(map[string]int64, len(seedMenu))
	for _, entry := range seedMenu {
		category, price := entry.category, entry.price
		var item persistence.MenuItem
		item, err = s.seeds.EnsureMenuItem(ctx, persistence.MenuItem{Name: entry.name, Category: &category, Price: &price})
		if err != nil {
			err = fmt.Errorf("ensure menu item %q: %w", entry.name, err)
			return
		}
		items[entry.name] = item.ID
	}
	result.MenuItems = len(items)

	ingredients := make(map[string]int64, len(seedIngredients))
	for _, entry := range seedIngredients {
		var ingredient persistence.Ingredient
		ingredient, err = s.seeds.EnsureIngredient(ctx, persistence.Ingredient{Name: entry.name, Unit: entry.unit})
		if err != nil {
			err = fmt.Errorf("ensure ingredient %q: %w", entry.name, err)
			return
		}
		ingredients[entry.name] = ingredient.ID
	}
	result.Ingredients = len(ingredients)

	for _, entry := range seedMenu {
		for _, component := range seedRecipes[entry.name] {
			if err = s.seeds.EnsureRecipeItem(ctx, persistence.RecipeItem{
				ItemID:        items[entry.name],
				IngredientID:  ingredients[component.ingredient],
				QtyPerServing: component.qty,
			}); err != nil {
				err = fmt.Errorf("ensure recipe %q: %w", entry.name, err)
				return
			}
		}
	}

	for _, loc := range locations {
		for _, spec := range seedIngredients {
			if err = s.seeds.EnsureInventoryLevel(ctx, ingredients[spec.name], loc.ID, seedInventoryOnHand); err != nil {
				err = fmt.Errorf("ensure inventory: %w", err)
				return
			}
		}
	}

	result.TablesCreated, err = s.seeds.EnsureDiningTables(ctx, demoTables(locations[0].ID))
	if err != nil {
		err = fmt.Errorf("ensure dining tables: %w", err)
		return
	}

	orders := s.generateOrders(locations, items, days)
	if err = s.seeds.InsertOrders(ctx, orders); err != nil {
		err = fmt.Errorf("insert orders: %w", err)
		return
	}
	result.OrdersCreated = len(orders)
	result.Days = days

	invalidateCache(ctx, s.cache, logger)
	return
}

func demoTables(locationID int64) []persistence.DiningTable {
	tables := make([]persistence.DiningTable, 0, len(seedDemoCapacities))
	for i, capacity := range seedDemoCapacities {
		name := fmt.Sprintf(seedDemoTableNameFmt, i+1)
		tables = append(tables, persistence.DiningTable{
			LocationID: locationID,
			Name:       &name,
			Capacity:   capacity,
		})
	}
	return tables
}

type bundleLine struct {
	item string
	qty  int
}

// generateOrders produces one order per location and hour with lunch, dinner
// and weekend demand patterns.
//
//   - base demand is 2 covers, plus 3 over lunch (11-14h), plus 6 over
//     dinner (18-21h), plus 4 on Fridays and Saturdays
//   - covers get noise in [-2, 3]; hours with no covers produce no order
//   - line quantities scale with covers per main course
func (s *SeedService) generateOrders(locations []persistence.Location, items map[string]int64, days int) []persistence.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := s.engine.Location()
	now := s.now().In(loc).Truncate(time.Hour)
	start := now.AddDate(0, 0, -days)
	hours := int(now.Sub(start) / time.Hour)

	orders := make([]persistence.Order, 0, len(locations)*hours)
	for _, location := range locations {
		for h := 0; h < hours; h++ {
			ts := start.Add(time.Duration(h) * time.Hour)
			hour := ts.Hour()
			lunch := hour >= 11 && hour <= 14
			dinner := hour >= 18 && hour <= 21

			base := 2
			if lunch {
				base += 3
			}
			if dinner {
				base += 6
			}
			if ts.Weekday() == time.Friday || ts.Weekday() == time.Saturday {
				base += 4
			}
			covers := max(0, base+s.rng.IntN(6)-2)
			if covers == 0 {
				continue
			}

			bundle := s.bundle(lunch, dinner)
			mains := 0
			for _, line := range bundle {
				switch line.item {
				case "Burger", "Pasta", "Chicken Grill":
					mains++
				}
			}
			scale := max(1, covers/max(1, mains))

			lines := make([]persistence.OrderLine, 0, len(bundle))
			for _, line := range bundle {
				lines = append(lines, persistence.OrderLine{
					ItemID:   items[line.item],
					ItemName: line.item,
					Qty:      max(1, line.qty*scale/2),
				})
			}
			orders = append(orders, persistence.Order{
				LocationID:   location.ID,
				LocationName: location.Name,
				Covers:       covers,
				OrderedAt:    ts.UTC(),
				Lines:        lines,
			})
		}
	}
	return orders
}

func (s *SeedService) bundle(lunch, dinner bool) []bundleLine {
	var lines []bundleLine
	add := func(item string) {
		for i := range lines {
			if lines[i].item == item {
				lines[i].qty++
				return
			}
		}
		lines = append(lines, bundleLine{item: item, qty: 1})
	}

	switch {
	case lunch:
		if s.rng.Float64() < 0.6 {
			add("Burger")
			add("Fries")
			add("Coke")
		} else {
			add("Pasta")
			add("Water")
		}
		if s.rng.Float64() < 0.2 {
			add("Salad")
		}
	case dinner:
		if s.rng.Float64() < 0.6 {
			add("Pasta")
			add("Wine")
		} else {
			add("Chicken Grill")
			add("Wine")
		}
		if s.rng.Float64() < 0.35 {
			add("Tiramisu")
		}
	default:
		add("Soup")
		if s.rng.Float64() < 0.5 {
			add("Water")
		}
	}
	return lines
}
