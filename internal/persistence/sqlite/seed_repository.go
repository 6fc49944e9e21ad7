package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// EnsureLocation returns the location with the given name, creating it when missing.
func (s *Storage) EnsureLocation(ctx context.Context, name string) (persistence.Location, error) {
	return ensureLocation(ctx, s.pool.DB(), name, s.mapper)
}

// EnsureMenuItem returns the menu item with item.Name, creating it when missing.
// Existing items keep their category and price.
func (s *Storage) EnsureMenuItem(ctx context.Context, item persistence.MenuItem) (persistence.MenuItem, error) {
	var price sql.NullFloat64
	if item.Price != nil {
		price = sql.NullFloat64{Float64: *item.Price, Valid: true}
	}
	id, err := s.upsertByName(ctx, `
		INSERT INTO menu_items (name, category, price) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, `SELECT id FROM menu_items WHERE name = ?`, item.Name, nullString(item.Category), price)
	if err != nil {
		return persistence.MenuItem{}, fmt.Errorf("menu item %q: %w", item.Name, err)
	}
	item.ID = id
	return item, nil
}

// EnsureIngredient returns the ingredient with ingredient.Name, creating it when missing.
func (s *Storage) EnsureIngredient(ctx context.Context, ingredient persistence.Ingredient) (persistence.Ingredient, error) {
	if ingredient.Unit == "" {
		ingredient.Unit = "unit"
	}
	id, err := s.upsertByName(ctx, `
		INSERT INTO ingredients (name, unit) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, `SELECT id FROM ingredients WHERE name = ?`, ingredient.Name, ingredient.Unit)
	if err != nil {
		return persistence.Ingredient{}, fmt.Errorf("ingredient %q: %w", ingredient.Name, err)
	}
	ingredient.ID = id
	return ingredient, nil
}

// upsertByName runs insert, which must ignore a name conflict, and then reads
// the id of the row named name. args[0] is the name.
func (s *Storage) upsertByName(ctx context.Context, insert, lookup string, args ...any) (int64, error) {
	if _, err := s.pool.DB().ExecContext(ctx, insert, args...); err != nil {
		return 0, s.mapper.MapError(err)
	}
	var id int64
	if err := s.pool.DB().QueryRowContext(ctx, lookup, args[0]).Scan(&id); err != nil {
		return 0, s.mapper.MapError(err)
	}
	return id, nil
}

// EnsureRecipeItem inserts the recipe line unless one exists for the pair.
func (s *Storage) EnsureRecipeItem(ctx context.Context, item persistence.RecipeItem) error {
	_, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO recipe_items (item_id, ingredient_id, qty_per_serving) VALUES (?, ?, ?)
		ON CONFLICT(item_id, ingredient_id) DO NOTHING
	`, item.ItemID, item.IngredientID, item.QtyPerServing)
	return s.mapper.MapError(err)
}

// EnsureInventoryLevel creates the level with onHand unless one exists.
func (s *Storage) EnsureInventoryLevel(ctx context.Context, ingredientID, locationID int64, onHand float64) error {
	_, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO inventory_levels (ingredient_id, location_id, on_hand) VALUES (?, ?, ?)
		ON CONFLICT(ingredient_id, location_id) DO NOTHING
	`, ingredientID, locationID, onHand)
	return s.mapper.MapError(err)
}

// EnsureDiningTables inserts tables only when the catalog is empty.
func (s *Storage) EnsureDiningTables(ctx context.Context, tables []persistence.DiningTable) (int, error) {
	inserted := 0
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM dining_tables`).Scan(&count); err != nil {
			return s.mapper.MapError(err)
		}
		if count > 0 {
			return nil
		}
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dining_tables (tenant_id, location_id, name, capacity) VALUES (?, ?, ?, ?)
			`, nullInt64(table.TenantID), table.LocationID, nullString(table.Name), table.Capacity); err != nil {
				return s.mapper.MapError(err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// InsertOrders stores the orders and their lines in one transaction.
func (s *Storage) InsertOrders(ctx context.Context, orders []persistence.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		orderStmt, err := tx.PrepareContext(ctx, `INSERT INTO orders (location_id, covers, ordered_at) VALUES (?, ?, ?)`)
		if err != nil {
			return s.mapper.MapError(err)
		}
		defer orderStmt.Close()

		lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO order_items (order_id, item_id, qty) VALUES (?, ?, ?)`)
		if err != nil {
			return s.mapper.MapError(err)
		}
		defer lineStmt.Close()

		for _, order := range orders {
			result, err := orderStmt.ExecContext(ctx, order.LocationID, order.Covers, formatTime(order.OrderedAt))
			if err != nil {
				return s.mapper.MapError(err)
			}
			orderID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("order id: %w", err)
			}
			for _, line := range order.Lines {
				if _, err := lineStmt.ExecContext(ctx, orderID, line.ItemID, line.Qty); err != nil {
					return s.mapper.MapError(err)
				}
			}
		}
		return nil
	})
}
