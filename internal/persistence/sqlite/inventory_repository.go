package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// ListIngredients returns every ingredient ordered by name.
func (s *Storage) ListIngredients(ctx context.Context) ([]persistence.Ingredient, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT id, name, unit FROM ingredients ORDER BY name, id`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	ingredients := make([]persistence.Ingredient, 0)
	for rows.Next() {
		var ingredient persistence.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.Name, &ingredient.Unit); err != nil {
			return nil, s.mapper.MapError(err)
		}
		ingredients = append(ingredients, ingredient)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return ingredients, nil
}

// ListRecipeItems returns every recipe line.
func (s *Storage) ListRecipeItems(ctx context.Context) ([]persistence.RecipeItem, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT item_id, ingredient_id, qty_per_serving FROM recipe_items ORDER BY item_id, ingredient_id
	`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	items := make([]persistence.RecipeItem, 0)
	for rows.Next() {
		var item persistence.RecipeItem
		if err := rows.Scan(&item.ItemID, &item.IngredientID, &item.QtyPerServing); err != nil {
			return nil, s.mapper.MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return items, nil
}

// ListInventoryLevels returns on-hand stock ordered by location then
// ingredient, optionally limited to one location name.
func (s *Storage) ListInventoryLevels(ctx context.Context, location string) ([]persistence.InventoryLevel, error) {
	query := `
		SELECT i.id, i.name, i.unit, l.id, l.name, v.on_hand
		FROM inventory_levels v
		JOIN ingredients i ON i.id = v.ingredient_id
		JOIN locations l ON l.id = v.location_id`
	var args []any
	if location != "" {
		query += ` WHERE l.name = ?`
		args = append(args, location)
	}
	query += ` ORDER BY l.name, i.name`

	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	levels := make([]persistence.InventoryLevel, 0)
	for rows.Next() {
		var level persistence.InventoryLevel
		if err := rows.Scan(&level.IngredientID, &level.IngredientName, &level.Unit, &level.LocationID, &level.LocationName, &level.OnHand); err != nil {
			return nil, s.mapper.MapError(err)
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return levels, nil
}

// AdjustInventory applies delta to the level of ingredient at location,
// creating the level at zero when missing. The result never drops below zero.
func (s *Storage) AdjustInventory(ctx context.Context, ingredient, location string, delta float64) (persistence.InventoryLevel, error) {
	var level persistence.InventoryLevel
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		locationID, err := locationIDByName(ctx, tx, location, s.mapper)
		if err != nil {
			return err
		}

		level = persistence.InventoryLevel{LocationID: locationID, LocationName: location}
		if err := tx.QueryRowContext(ctx, `SELECT id, name, unit FROM ingredients WHERE name = ?`, ingredient).
			Scan(&level.IngredientID, &level.IngredientName, &level.Unit); err != nil {
			return s.mapper.MapError(err)
		}

		var current float64
		err = tx.QueryRowContext(ctx, `
			SELECT on_hand FROM inventory_levels WHERE ingredient_id = ? AND location_id = ?
		`, level.IngredientID, locationID).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return s.mapper.MapError(err)
		}

		level.OnHand = math.Max(0, current+delta)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_levels (ingredient_id, location_id, on_hand) VALUES (?, ?, ?)
			ON CONFLICT(ingredient_id, location_id) DO UPDATE SET on_hand = excluded.on_hand
		`, level.IngredientID, locationID, level.OnHand)
		return s.mapper.MapError(err)
	})
	if err != nil {
		return persistence.InventoryLevel{}, err
	}
	return level, nil
}
