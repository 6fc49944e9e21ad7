package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// ListRetentionPolicies returns every policy ordered by entity.
func (s *Storage) ListRetentionPolicies(ctx context.Context) ([]persistence.RetentionPolicy, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT entity, days FROM retention_policies ORDER BY entity`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	policies := make([]persistence.RetentionPolicy, 0)
	for rows.Next() {
		var policy persistence.RetentionPolicy
		if err := rows.Scan(&policy.Entity, &policy.Days); err != nil {
			return nil, s.mapper.MapError(err)
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return policies, nil
}

// UpsertRetentionPolicy creates the policy or replaces its days.
func (s *Storage) UpsertRetentionPolicy(ctx context.Context, policy persistence.RetentionPolicy) error {
	_, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO retention_policies (entity, days) VALUES (?, ?)
		ON CONFLICT(entity) DO UPDATE SET days = excluded.days
	`, policy.Entity, policy.Days)
	return s.mapper.MapError(err)
}

// DeleteOrdersBefore removes orders placed before cutoff together with their lines.
func (s *Storage) DeleteOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		ts := formatTime(cutoff)
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE ordered_at < ?)
		`, ts); err != nil {
			return s.mapper.MapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE ordered_at < ?`, ts)
		if err != nil {
			return s.mapper.MapError(err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteReviewsBefore removes reviews left before cutoff.
func (s *Storage) DeleteReviewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM reviews WHERE reviewed_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return result.RowsAffected()
}
