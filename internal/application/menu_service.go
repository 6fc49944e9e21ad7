package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// Recommendation limits.
const (
	DefaultTopK = 10
	MaxTopK     = 100
)

// MenuService lists the menu and recommends items from order history.
type MenuService struct {
	sales  persistence.SalesRepository
	engine *insights.Engine
	logger *slog.Logger
}

// NewMenuService constructs a menu service with the provided dependencies.
func NewMenuService(sales persistence.SalesRepository, engine *insights.Engine) *MenuService {
	return NewMenuServiceWithLogger(sales, engine, nil)
}

// NewMenuServiceWithLogger constructs a menu service with a specified logger.
func NewMenuServiceWithLogger(sales persistence.SalesRepository, engine *insights.Engine, logger *slog.Logger) *MenuService {
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	return &MenuService{sales: sales, engine: engine, logger: defaultLogger(logger)}
}

func (s *MenuService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MenuService", operation, attrs...)
}

// ListItems returns the menu ordered by name.
func (s *MenuService) ListItems(ctx context.Context) ([]persistence.MenuItem, error) {
	if s == nil || s.sales == nil {
		return []persistence.MenuItem{}, nil
	}
	return s.sales.ListMenuItems(ctx)
}

// Popular ranks items by quantity sold.
func (s *MenuService) Popular(ctx context.Context, query RecsQuery) (items []insights.PopularItem, err error) {
	if s == nil {
		err = fmt.Errorf("MenuService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Popular", "top_k", query.TopK)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to rank popular items", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	orders, topK, err := s.recsOrders(ctx, query, false)
	if err != nil {
		return
	}
	items = insights.Popular(orders, topK)
	return
}

// Cooccurrence ranks items bought together with query.AnchorItemID.
func (s *MenuService) Cooccurrence(ctx context.Context, query RecsQuery) (pairings []insights.Pairing, err error) {
	if s == nil {
		err = fmt.Errorf("MenuService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Cooccurrence", "anchor_item_id", query.AnchorItemID, "top_k", query.TopK)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute cooccurrence", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	orders, topK, err := s.recsOrders(ctx, query, true)
	if err != nil {
		return
	}
	pairings = insights.Cooccurrence(orders, query.AnchorItemID, topK)
	return
}

func (s *MenuService) recsOrders(ctx context.Context, query RecsQuery, needsAnchor bool) ([]persistence.Order, int, error) {
	if s.sales == nil {
		return nil, 0, fmt.Errorf("sales repository not configured")
	}

	topK := query.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	rng, vErr := resolveRange(s.engine, query.Range, false)
	if vErr == nil {
		vErr = &ValidationError{}
	}
	if topK < 1 || topK > MaxTopK {
		vErr.add("top_k", fmt.Sprintf("top_k must be between 1 and %d", MaxTopK))
	}
	if needsAnchor && query.AnchorItemID < 1 {
		vErr.add("anchor_item_id", "anchor_item_id must be at least 1")
	}
	if vErr.HasErrors() {
		return nil, 0, vErr
	}

	orders, err := s.sales.ListOrders(ctx, rng.orderFilter())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, topK, nil
}
