package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// CustomerService manages guest profiles and their consent flags.
type CustomerService struct {
	customers persistence.CustomerRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewCustomerService constructs a customer service with the provided dependencies.
func NewCustomerService(customers persistence.CustomerRepository, now func() time.Time) *CustomerService {
	return NewCustomerServiceWithLogger(customers, now, nil)
}

// NewCustomerServiceWithLogger constructs a customer service with a specified logger.
func NewCustomerServiceWithLogger(customers persistence.CustomerRepository, now func() time.Time, logger *slog.Logger) *CustomerService {
	if now == nil {
		now = time.Now
	}
	return &CustomerService{customers: customers, now: now, logger: defaultLogger(logger)}
}

func (s *CustomerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CustomerService", operation, attrs...)
}

// CreateCustomer stores a guest profile. Marketing consent defaults to false
// and analytics consent to true.
func (s *CustomerService) CreateCustomer(ctx context.Context, input CustomerInput) (customer persistence.Customer, err error) {
	if s == nil || s.customers == nil {
		err = fmt.Errorf("customer repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateCustomer")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create customer", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("customer_id", customer.ID).InfoContext(ctx, "customer created")
	}()

	email := normalizeOptionalString(input.Email)
	if email != nil {
		lowered := strings.ToLower(*email)
		email = &lowered
	}

	vErr := &ValidationError{}
	if email != nil && !strings.Contains(*email, "@") {
		vErr.add("email", "email must contain @")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	customer = persistence.Customer{
		Name:             normalizeOptionalString(input.Name),
		Email:            email,
		Phone:            normalizeOptionalString(input.Phone),
		MarketingConsent: boolOr(input.MarketingConsent, false),
		AnalyticsConsent: boolOr(input.AnalyticsConsent, true),
		CreatedAt:        s.now().UTC(),
	}

	customer, err = s.customers.CreateCustomer(ctx, customer)
	if err != nil {
		err = mapRepoError(err, "email", "email is invalid")
	}
	return
}

// GetCustomer returns a guest profile by id.
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (persistence.Customer, error) {
	if s == nil || s.customers == nil {
		return persistence.Customer{}, ErrNotFound
	}
	customer, err := s.customers.GetCustomer(ctx, id)
	if err != nil {
		return persistence.Customer{}, mapRepoError(err, "id", "invalid customer id")
	}
	return customer, nil
}

// UpdateConsent changes the supplied consent flags and leaves the others untouched.
func (s *CustomerService) UpdateConsent(ctx context.Context, id int64, input ConsentInput) (customer persistence.Customer, err error) {
	if s == nil || s.customers == nil {
		err = fmt.Errorf("customer repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateConsent", "customer_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update consent", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"marketing_consent", customer.MarketingConsent,
			"analytics_consent", customer.AnalyticsConsent,
		).InfoContext(ctx, "consent updated")
	}()

	customer, err = s.customers.UpdateConsent(ctx, id, input.MarketingConsent, input.AnalyticsConsent)
	if err != nil {
		err = mapRepoError(err, "id", "invalid customer id")
	}
	return
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
