package insights

import (
	"sort"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// IngredientUsage is the theoretical consumption of one ingredient.
type IngredientUsage struct {
	Ingredient string
	Unit       string
	Used       float64
}

// Usage multiplies every order line by its recipe to estimate ingredient
// consumption. Items without a recipe consume nothing. The result is ordered by
// usage descending, then ingredient name.
func Usage(orders []persistence.Order, recipes []persistence.RecipeItem, ingredients []persistence.Ingredient) []IngredientUsage {
	byItem := make(map[int64][]persistence.RecipeItem)
	for _, recipe := range recipes {
		byItem[recipe.ItemID] = append(byItem[recipe.ItemID], recipe)
	}
	byID := make(map[int64]persistence.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		byID[ingredient.ID] = ingredient
	}

	used := make(map[int64]float64)
	for _, order := range orders {
		for _, line := range order.Lines {
			for _, recipe := range byItem[line.ItemID] {
				used[recipe.IngredientID] += float64(line.Qty) * recipe.QtyPerServing
			}
		}
	}

	out := make([]IngredientUsage, 0, len(used))
	for id, amount := range used {
		ingredient, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, IngredientUsage{Ingredient: ingredient.Name, Unit: ingredient.Unit, Used: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Used == out[j].Used {
			return out[i].Ingredient < out[j].Ingredient
		}
		return out[i].Used > out[j].Used
	})
	return out
}
