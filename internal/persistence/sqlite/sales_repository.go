package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// ListMenuItems returns the menu ordered by name.
func (s *Storage) ListMenuItems(ctx context.Context) ([]persistence.MenuItem, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT id, name, category, price FROM menu_items ORDER BY name, id`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	items := make([]persistence.MenuItem, 0)
	for rows.Next() {
		var (
			item     persistence.MenuItem
			category sql.NullString
			price    sql.NullFloat64
		)
		if err := rows.Scan(&item.ID, &item.Name, &category, &price); err != nil {
			return nil, s.mapper.MapError(err)
		}
		item.Category = stringPtr(category)
		if price.Valid {
			p := price.Float64
			item.Price = &p
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return items, nil
}

// ListOrders returns the orders matching filter, with their lines, ordered by
// time then id.
func (s *Storage) ListOrders(ctx context.Context, filter persistence.OrderFilter) ([]persistence.Order, error) {
	where, args := orderWhere(filter)

	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT o.id, o.location_id, l.name, o.covers, o.ordered_at
		FROM orders o
		JOIN locations l ON l.id = o.location_id`+where+`
		ORDER BY o.ordered_at, o.id
	`, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}

	orders := make([]persistence.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			order     persistence.Order
			orderedAt string
		)
		if err := rows.Scan(&order.ID, &order.LocationID, &order.LocationName, &order.Covers, &orderedAt); err != nil {
			rows.Close()
			return nil, s.mapper.MapError(err)
		}
		if order.OrderedAt, err = parseTime(orderedAt); err != nil {
			rows.Close()
			return nil, err
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// The single connection is free again, so the lines can be read now.
	lineRows, err := s.pool.DB().QueryContext(ctx, `
		SELECT oi.order_id, oi.item_id, m.name, oi.qty, COALESCE(m.price, 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN locations l ON l.id = o.location_id
		JOIN menu_items m ON m.id = oi.item_id`+where+`
		ORDER BY oi.order_id, oi.id
	`, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			orderID int64
			line    persistence.OrderLine
		)
		if err := lineRows.Scan(&orderID, &line.ItemID, &line.ItemName, &line.Qty, &line.Price); err != nil {
			return nil, s.mapper.MapError(err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return orders, nil
}

func orderWhere(filter persistence.OrderFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.From != nil {
		clauses = append(clauses, "o.ordered_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "o.ordered_at < ?")
		args = append(args, formatTime(*filter.To))
	}
	if filter.Location != "" {
		clauses = append(clauses, "l.name = ?")
		args = append(args, filter.Location)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(clauses, " AND "), args
}

// LatestOrderTime returns the time of the most recent order, or nil when there are none.
func (s *Storage) LatestOrderTime(ctx context.Context) (*time.Time, error) {
	return s.latest(ctx, `SELECT MAX(ordered_at) FROM orders`)
}

// LatestReviewTime returns the time of the most recent review, or nil when there are none.
func (s *Storage) LatestReviewTime(ctx context.Context) (*time.Time, error) {
	return s.latest(ctx, `SELECT MAX(reviewed_at) FROM reviews`)
}

func (s *Storage) latest(ctx context.Context, query string) (*time.Time, error) {
	var value sql.NullString
	if err := s.pool.DB().QueryRowContext(ctx, query).Scan(&value); err != nil {
		return nil, s.mapper.MapError(err)
	}
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
