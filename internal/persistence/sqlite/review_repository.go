package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// CreateReview stores a review for review.LocationName, creating the location
// when it does not exist yet.
func (s *Storage) CreateReview(ctx context.Context, review persistence.Review) (persistence.Review, error) {
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		loc, err := ensureLocation(ctx, tx, review.LocationName, s.mapper)
		if err != nil {
			return err
		}
		review.LocationID = loc.ID

		var rating sql.NullInt64
		if review.Rating != nil {
			rating = sql.NullInt64{Int64: int64(*review.Rating), Valid: true}
		}
		var sentiment sql.NullFloat64
		if review.Sentiment != nil {
			sentiment = sql.NullFloat64{Float64: *review.Sentiment, Valid: true}
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (location_id, reviewed_at, rating, text, source, sentiment)
			VALUES (?, ?, ?, ?, ?, ?)
		`, loc.ID, formatTime(review.At), rating, review.Text, nullString(review.Source), sentiment)
		if err != nil {
			return s.mapper.MapError(err)
		}
		if review.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("review id: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence.Review{}, err
	}
	review.At = review.At.UTC()
	return review, nil
}

// ListReviews returns reviews in [filter.From, filter.To) ordered by time then id.
func (s *Storage) ListReviews(ctx context.Context, filter persistence.ReviewFilter) ([]persistence.Review, error) {
	query := `
		SELECT r.id, r.location_id, l.name, r.reviewed_at, r.rating, r.text, r.source, r.sentiment
		FROM reviews r
		JOIN locations l ON l.id = r.location_id
		WHERE r.reviewed_at >= ? AND r.reviewed_at < ?`
	args := []any{formatTime(filter.From), formatTime(filter.To)}
	if filter.Location != "" {
		query += ` AND l.name = ?`
		args = append(args, filter.Location)
	}
	query += ` ORDER BY r.reviewed_at, r.id`

	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	reviews := make([]persistence.Review, 0)
	for rows.Next() {
		var (
			review     persistence.Review
			reviewedAt string
			rating     sql.NullInt64
			source     sql.NullString
			sentiment  sql.NullFloat64
		)
		if err := rows.Scan(&review.ID, &review.LocationID, &review.LocationName, &reviewedAt, &rating, &review.Text, &source, &sentiment); err != nil {
			return nil, s.mapper.MapError(err)
		}
		if review.At, err = parseTime(reviewedAt); err != nil {
			return nil, err
		}
		if rating.Valid {
			r := int(rating.Int64)
			review.Rating = &r
		}
		if sentiment.Valid {
			v := sentiment.Float64
			review.Sentiment = &v
		}
		review.Source = stringPtr(source)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return reviews, nil
}
