package insights

import (
	"sort"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// PopularItem is a menu item with the quantity sold.
type PopularItem struct {
	ItemID   int64
	Name     string
	TotalQty int
}

// Popular ranks menu items by quantity sold, ties broken by item id, and keeps
// the first topK.
func Popular(orders []persistence.Order, topK int) []PopularItem {
	totals := make(map[int64]*PopularItem)
	for _, order := range orders {
		for _, line := range order.Lines {
			item, ok := totals[line.ItemID]
			if !ok {
				item = &PopularItem{ItemID: line.ItemID, Name: line.ItemName}
				totals[line.ItemID] = item
			}
			item.TotalQty += line.Qty
		}
	}

	out := make([]PopularItem, 0, len(totals))
	for _, item := range totals {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQty == out[j].TotalQty {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].TotalQty > out[j].TotalQty
	})
	return limit(out, topK)
}

// Pairing is an item bought alongside an anchor item.
type Pairing struct {
	ItemID     int64
	Name       string
	CoOrders   int
	AttachRate float64
	BaseOrders int
}

// Cooccurrence counts, for every other item, how many of the orders containing
// anchorID also contain it. AttachRate is CoOrders over BaseOrders, the number
// of distinct orders with the anchor. Results are ordered by CoOrders then item
// id. No anchor orders yields an empty slice.
func Cooccurrence(orders []persistence.Order, anchorID int64, topK int) []Pairing {
	base := 0
	counts := make(map[int64]*Pairing)

	for _, order := range orders {
		if !containsItem(order, anchorID) {
			continue
		}
		base++

		seen := make(map[int64]struct{}, len(order.Lines))
		for _, line := range order.Lines {
			if line.ItemID == anchorID {
				continue
			}
			if _, dup := seen[line.ItemID]; dup {
				continue
			}
			seen[line.ItemID] = struct{}{}

			pairing, ok := counts[line.ItemID]
			if !ok {
				pairing = &Pairing{ItemID: line.ItemID, Name: line.ItemName}
				counts[line.ItemID] = pairing
			}
			pairing.CoOrders++
		}
	}

	out := make([]Pairing, 0, len(counts))
	if base == 0 {
		return out
	}
	for _, pairing := range counts {
		pairing.BaseOrders = base
		pairing.AttachRate = Round(float64(pairing.CoOrders)/float64(base), 4)
		out = append(out, *pairing)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CoOrders == out[j].CoOrders {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].CoOrders > out[j].CoOrders
	})
	return limit(out, topK)
}

func containsItem(order persistence.Order, itemID int64) bool {
	for _, line := range order.Lines {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}

func limit[T any](items []T, topK int) []T {
	if topK > 0 && len(items) > topK {
		return items[:topK]
	}
	return items
}
