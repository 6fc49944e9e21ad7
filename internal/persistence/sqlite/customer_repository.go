package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// CreateCustomer inserts a guest profile. Email, when present, must be unique.
func (s *Storage) CreateCustomer(ctx context.Context, customer persistence.Customer) (persistence.Customer, error) {
	result, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO customers (name, email, phone, marketing_consent, analytics_consent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		nullString(customer.Name),
		nullString(customer.Email),
		nullString(customer.Phone),
		boolToInt(customer.MarketingConsent),
		boolToInt(customer.AnalyticsConsent),
		formatTime(customer.CreatedAt),
	)
	if err != nil {
		return persistence.Customer{}, s.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Customer{}, fmt.Errorf("customer id: %w", err)
	}
	customer.ID = id
	customer.CreatedAt = customer.CreatedAt.UTC()
	return customer, nil
}

// GetCustomer retrieves a guest profile by id.
func (s *Storage) GetCustomer(ctx context.Context, id int64) (persistence.Customer, error) {
	return s.getCustomer(ctx, s.pool.DB(), id)
}

// UpdateConsent changes the consent flags that are not nil.
func (s *Storage) UpdateConsent(ctx context.Context, id int64, marketing, analytics *bool) (persistence.Customer, error) {
	var updated persistence.Customer
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		customer, err := s.getCustomer(ctx, tx, id)
		if err != nil {
			return err
		}
		if marketing != nil {
			customer.MarketingConsent = *marketing
		}
		if analytics != nil {
			customer.AnalyticsConsent = *analytics
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE customers SET marketing_consent = ?, analytics_consent = ? WHERE id = ?
		`, boolToInt(customer.MarketingConsent), boolToInt(customer.AnalyticsConsent), id); err != nil {
			return s.mapper.MapError(err)
		}
		updated = customer
		return nil
	})
	if err != nil {
		return persistence.Customer{}, err
	}
	return updated, nil
}

func (s *Storage) getCustomer(ctx context.Context, q queryer, id int64) (persistence.Customer, error) {
	var (
		customer             persistence.Customer
		name, email, phone   sql.NullString
		marketing, analytics int
		createdAt            string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, email, phone, marketing_consent, analytics_consent, created_at
		FROM customers WHERE id = ?
	`, id).Scan(&customer.ID, &name, &email, &phone, &marketing, &analytics, &createdAt)
	if err != nil {
		return persistence.Customer{}, s.mapper.MapError(err)
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return persistence.Customer{}, err
	}
	customer.Name = stringPtr(name)
	customer.Email = stringPtr(email)
	customer.Phone = stringPtr(phone)
	customer.MarketingConsent = marketing != 0
	customer.AnalyticsConsent = analytics != 0
	customer.CreatedAt = created
	return customer, nil
}

// DeleteCustomersBefore removes guest profiles created before cutoff.
func (s *Storage) DeleteCustomersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM customers WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return result.RowsAffected()
}
