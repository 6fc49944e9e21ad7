package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// OrderSource lists historical orders.
type OrderSource interface {
	ListOrders(ctx context.Context, filter persistence.OrderFilter) ([]persistence.Order, error)
}

// InventoryService exposes stock levels and theoretical ingredient usage.
type InventoryService struct {
	inventory persistence.InventoryRepository
	orders    OrderSource
	engine    *insights.Engine
	logger    *slog.Logger
}

// NewInventoryService constructs an inventory service with the provided dependencies.
func NewInventoryService(inventory persistence.InventoryRepository, orders OrderSource, engine *insights.Engine) *InventoryService {
	return NewInventoryServiceWithLogger(inventory, orders, engine, nil)
}

// NewInventoryServiceWithLogger constructs an inventory service with a specified logger.
func NewInventoryServiceWithLogger(inventory persistence.InventoryRepository, orders OrderSource, engine *insights.Engine, logger *slog.Logger) *InventoryService {
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	return &InventoryService{inventory: inventory, orders: orders, engine: engine, logger: defaultLogger(logger)}
}

func (s *InventoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "InventoryService", operation, attrs...)
}

// ListIngredients returns every ingredient ordered by name.
func (s *InventoryService) ListIngredients(ctx context.Context) ([]persistence.Ingredient, error) {
	if s == nil || s.inventory == nil {
		return []persistence.Ingredient{}, nil
	}
	return s.inventory.ListIngredients(ctx)
}

// OnHand returns stock levels, optionally for a single location.
func (s *InventoryService) OnHand(ctx context.Context, location string) ([]persistence.InventoryLevel, error) {
	if s == nil || s.inventory == nil {
		return []persistence.InventoryLevel{}, nil
	}
	return s.inventory.ListInventoryLevels(ctx, strings.TrimSpace(location))
}

// Adjust adds delta to the on-hand level. Levels never drop below zero.
func (s *InventoryService) Adjust(ctx context.Context, input AdjustInventoryInput) (level persistence.InventoryLevel, err error) {
	if s == nil || s.inventory == nil {
		err = fmt.Errorf("inventory repository not configured")
		return
	}

	ingredient := strings.TrimSpace(input.Ingredient)
	location := strings.TrimSpace(input.Location)
	logger := s.loggerWith(ctx, "Adjust",
		"ingredient", ingredient,
		"location", location,
		"delta", input.Delta,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to adjust inventory", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("on_hand", level.OnHand).InfoContext(ctx, "inventory adjusted")
	}()

	vErr := &ValidationError{}
	if ingredient == "" {
		vErr.add("ingredient", "ingredient is required")
	}
	if location == "" {
		vErr.add("location", "location is required")
	}
	if math.IsNaN(input.Delta) || math.IsInf(input.Delta, 0) {
		vErr.add("delta", "delta must be a finite number")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	level, err = s.inventory.AdjustInventory(ctx, ingredient, location, input.Delta)
	if err != nil {
		err = mapRepoError(err, "delta", "adjustment is invalid")
	}
	return
}

// Usage estimates ingredient consumption from the orders in an inclusive day range.
func (s *InventoryService) Usage(ctx context.Context, input DateRangeInput) (usage []insights.IngredientUsage, err error) {
	if s == nil || s.inventory == nil || s.orders == nil {
		err = fmt.Errorf("inventory repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Usage", "start", input.Start, "end", input.End, "location", input.Location)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute usage", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(usage)).DebugContext(ctx, "usage computed")
	}()

	rng, vErr := resolveRange(s.engine, input, true)
	if vErr != nil {
		err = vErr
		return
	}

	orders, err := s.orders.ListOrders(ctx, rng.orderFilter())
	if err != nil {
		err = fmt.Errorf("list orders: %w", err)
		return
	}
	recipes, err := s.inventory.ListRecipeItems(ctx)
	if err != nil {
		err = fmt.Errorf("list recipes: %w", err)
		return
	}
	ingredients, err := s.inventory.ListIngredients(ctx)
	if err != nil {
		err = fmt.Errorf("list ingredients: %w", err)
		return
	}

	usage = insights.Usage(orders, recipes, ingredients)
	return
}
