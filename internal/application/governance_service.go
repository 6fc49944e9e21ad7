package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// Retention entities.
const (
	RetentionOrders       = "orders"
	RetentionReviews      = "reviews"
	RetentionCustomers    = "customers"
	RetentionReservations = "reservations"
)

var retentionEntities = map[string]struct{}{
	RetentionOrders:       {},
	RetentionReviews:      {},
	RetentionCustomers:    {},
	RetentionReservations: {},
}

// PIIEntry describes where personal data lives for one entity.
type PIIEntry struct {
	Table         string   `json:"table,omitempty"`
	API           string   `json:"api,omitempty"`
	PIIFields     []string `json:"pii_fields"`
	ConsentFields []string `json:"consent_fields,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// BookingPurger deletes reservations that started before a cutoff.
type BookingPurger interface {
	DeleteBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GovernanceService owns data retention policies and the PII inventory.
type GovernanceService struct {
	governance persistence.GovernanceRepository
	bookings   BookingPurger
	cache      ResultCache
	now        func() time.Time
	logger     *slog.Logger
}

// NewGovernanceService constructs a governance service with the provided dependencies.
func NewGovernanceService(governance persistence.GovernanceRepository, bookings BookingPurger, now func() time.Time) *GovernanceService {
	return NewGovernanceServiceWithLogger(governance, bookings, nil, now, nil)
}

// NewGovernanceServiceWithLogger constructs a governance service with a
// specified logger. The cache is invalidated after every retention run.
func NewGovernanceServiceWithLogger(governance persistence.GovernanceRepository, bookings BookingPurger, cache ResultCache, now func() time.Time, logger *slog.Logger) *GovernanceService {
	if now == nil {
		now = time.Now
	}
	return &GovernanceService{
		governance: governance,
		bookings:   bookings,
		cache:      cache,
		now:        now,
		logger:     defaultLogger(logger),
	}
}

func (s *GovernanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GovernanceService", operation, attrs...)
}

// PIIInventory lists the fields that hold personal data.
func (s *GovernanceService) PIIInventory() map[string]PIIEntry {
	return map[string]PIIEntry{
		"customers": {
			Table:         "customers",
			PIIFields:     []string{"name", "email", "phone"},
			ConsentFields: []string{"marketing_consent", "analytics_consent"},
		},
		"reservations": {
			Table:     "bookings",
			API:       "/reservations",
			PIIFields: []string{"customer_name", "phone", "notes"},
		},
		"reviews": {
			Table:     "reviews",
			PIIFields: []string{"text"},
			Notes:     "free text may contain personal data",
		},
	}
}

// ListPolicies returns the retention policies ordered by entity.
func (s *GovernanceService) ListPolicies(ctx context.Context) ([]persistence.RetentionPolicy, error) {
	if s == nil || s.governance == nil {
		return []persistence.RetentionPolicy{}, nil
	}
	return s.governance.ListRetentionPolicies(ctx)
}

// UpsertPolicy creates or replaces the retention policy of an entity.
func (s *GovernanceService) UpsertPolicy(ctx context.Context, input RetentionPolicyInput) (policy persistence.RetentionPolicy, err error) {
	if s == nil || s.governance == nil {
		err = fmt.Errorf("governance repository not configured")
		return
	}

	entity := strings.ToLower(strings.TrimSpace(input.Entity))
	logger := s.loggerWith(ctx, "UpsertPolicy", "entity", entity, "days", input.Days)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert retention policy", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "retention policy saved")
	}()

	vErr := &ValidationError{}
	if _, ok := retentionEntities[entity]; !ok {
		vErr.add("entity", "entity must be one of orders, reviews, customers, reservations")
	}
	if input.Days < 1 {
		vErr.add("days", "days must be at least 1")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	policy = persistence.RetentionPolicy{Entity: entity, Days: input.Days}
	if err = s.governance.UpsertRetentionPolicy(ctx, policy); err != nil {
		err = mapRepoError(err, "days", "days must be at least 1")
	}
	return
}

// ApplyRetention deletes every row older than its entity's policy and reports
// the number of rows removed per entity.
func (s *GovernanceService) ApplyRetention(ctx context.Context) (deleted map[string]int64, err error) {
	if s == nil || s.governance == nil {
		err = fmt.Errorf("governance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ApplyRetention")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to apply retention", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("deleted", deleted).InfoContext(ctx, "retention applied")
	}()

	var policies []persistence.RetentionPolicy
	policies, err = s.governance.ListRetentionPolicies(ctx)
	if err != nil {
		return
	}

	now := s.now().UTC()
	deleted = make(map[string]int64, len(policies))
	for _, policy := range policies {
		cutoff := now.Add(-time.Duration(policy.Days) * 24 * time.Hour)

		var count int64
		switch policy.Entity {
		case RetentionOrders:
			count, err = s.governance.DeleteOrdersBefore(ctx, cutoff)
		case RetentionReviews:
			count, err = s.governance.DeleteReviewsBefore(ctx, cutoff)
		case RetentionCustomers:
			count, err = s.governance.DeleteCustomersBefore(ctx, cutoff)
		case RetentionReservations:
			if s.bookings != nil {
				count, err = s.bookings.DeleteBookingsBefore(ctx, cutoff)
			}
		}
		if err != nil {
			err = fmt.Errorf("purge %s: %w", policy.Entity, err)
			return
		}
		deleted[policy.Entity] = count
	}

	invalidateCache(ctx, s.cache, logger)
	return
}
