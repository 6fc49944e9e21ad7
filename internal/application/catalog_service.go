package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// defaultTableCapacity is used for onboarded tables that omit a capacity.
const defaultTableCapacity = 2

// CatalogService onboards tenants and the locations and tables they operate.
type CatalogService struct {
	catalog persistence.CatalogRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewCatalogService constructs a catalog service with the provided dependencies.
func NewCatalogService(catalog persistence.CatalogRepository, now func() time.Time) *CatalogService {
	return NewCatalogServiceWithLogger(catalog, now, nil)
}

// NewCatalogServiceWithLogger constructs a catalog service with a specified logger.
func NewCatalogServiceWithLogger(catalog persistence.CatalogRepository, now func() time.Time, logger *slog.Logger) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{catalog: catalog, now: now, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// CreateTenant onboards a tenant. Tenants are unique by name: when one already
// exists it is returned with created set to false.
func (s *CatalogService) CreateTenant(ctx context.Context, input TenantInput) (tenant persistence.Tenant, created bool, err error) {
	if s == nil || s.catalog == nil {
		err = fmt.Errorf("catalog repository not configured")
		return
	}

	name := strings.TrimSpace(input.Name)
	logger := s.loggerWith(ctx, "CreateTenant", "tenant_name", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create tenant", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("tenant_id", tenant.ID, "created", created).InfoContext(ctx, "tenant onboarded")
	}()

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	validateTimezone(vErr, "timezone", input.Timezone)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	tenant, err = s.catalog.GetTenantByName(ctx, name)
	if err == nil {
		return
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return
	}

	tenant, err = s.catalog.CreateTenant(ctx, persistence.Tenant{
		Name:      name,
		Timezone:  normalizeOptionalString(input.Timezone),
		Currency:  normalizeOptionalString(input.Currency),
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, persistence.ErrDuplicate) {
		// Lost a race with a concurrent onboarding of the same name.
		tenant, err = s.catalog.GetTenantByName(ctx, name)
		return
	}
	if err != nil {
		err = mapRepoError(err, "name", "name is required")
		return
	}
	created = true
	return
}

// GetTenant returns a tenant by id.
func (s *CatalogService) GetTenant(ctx context.Context, id int64) (persistence.Tenant, error) {
	if s == nil || s.catalog == nil {
		return persistence.Tenant{}, ErrNotFound
	}
	tenant, err := s.catalog.GetTenant(ctx, id)
	if err != nil {
		return persistence.Tenant{}, mapRepoError(err, "id", "invalid tenant id")
	}
	return tenant, nil
}

// AddLocation attaches a location and its dining tables to a tenant.
func (s *CatalogService) AddLocation(ctx context.Context, tenantID int64, input LocationInput) (result LocationResult, err error) {
	if s == nil || s.catalog == nil {
		err = fmt.Errorf("catalog repository not configured")
		return
	}

	name := strings.TrimSpace(input.Name)
	logger := s.loggerWith(ctx, "AddLocation",
		"tenant_id", tenantID,
		"location_name", name,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add location", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"location_id", result.LocationID,
			"tables_created", result.TablesCreated,
		).InfoContext(ctx, "location added")
	}()

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	validateTimezone(vErr, "timezone", input.Timezone)

	tables := make([]persistence.DiningTable, 0, len(input.Tables))
	for i, table := range input.Tables {
		capacity := defaultTableCapacity
		if table.Capacity != nil {
			capacity = *table.Capacity
		}
		if capacity <= 0 {
			vErr.add(fmt.Sprintf("tables[%d].capacity", i), "capacity must be positive")
			continue
		}
		tables = append(tables, persistence.DiningTable{
			Name:     normalizeOptionalString(table.Name),
			Capacity: capacity,
		})
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var location persistence.Location
	var created int
	location, created, err = s.catalog.AddLocation(ctx, tenantID, persistence.Location{
		Name:     name,
		Timezone: normalizeOptionalString(input.Timezone),
	}, tables)
	if err != nil {
		err = mapRepoError(err, "tables", "capacity must be positive")
		return
	}

	result = LocationResult{LocationID: location.ID, TablesCreated: created}
	return
}

// ListTables returns the dining tables of a location ordered by id.
func (s *CatalogService) ListTables(ctx context.Context, locationID int64) (tables []persistence.DiningTable, err error) {
	if s == nil || s.catalog == nil {
		err = ErrNotFound
		return
	}

	logger := s.loggerWith(ctx, "ListTables", "location_id", locationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list tables", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(tables)).DebugContext(ctx, "tables listed")
	}()

	if _, err = s.catalog.GetLocation(ctx, locationID); err != nil {
		err = mapRepoError(err, "id", "invalid location id")
		return
	}
	tables, err = s.catalog.ListDiningTables(ctx, &locationID)
	return
}

func validateTimezone(vErr *ValidationError, field string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	if _, err := time.LoadLocation(strings.TrimSpace(*value)); err != nil {
		vErr.add(field, "timezone must be an IANA zone name")
	}
}
