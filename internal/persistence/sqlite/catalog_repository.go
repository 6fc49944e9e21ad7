package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// CreateTenant inserts a tenant. The name must be unique.
func (s *Storage) CreateTenant(ctx context.Context, tenant persistence.Tenant) (persistence.Tenant, error) {
	if strings.TrimSpace(tenant.Name) == "" {
		return persistence.Tenant{}, persistence.ErrConstraintViolation
	}

	result, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO tenants (name, timezone, currency, created_at)
		VALUES (?, ?, ?, ?)
	`,
		tenant.Name,
		nullString(tenant.Timezone),
		nullString(tenant.Currency),
		formatTime(tenant.CreatedAt),
	)
	if err != nil {
		return persistence.Tenant{}, s.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Tenant{}, fmt.Errorf("tenant id: %w", err)
	}
	tenant.ID = id
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	return tenant, nil
}

// GetTenant retrieves a tenant by id.
func (s *Storage) GetTenant(ctx context.Context, id int64) (persistence.Tenant, error) {
	return s.scanTenant(s.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, timezone, currency, created_at FROM tenants WHERE id = ?
	`, id))
}

// GetTenantByName retrieves a tenant by its unique name.
func (s *Storage) GetTenantByName(ctx context.Context, name string) (persistence.Tenant, error) {
	return s.scanTenant(s.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, timezone, currency, created_at FROM tenants WHERE name = ?
	`, name))
}

func (s *Storage) scanTenant(row *sql.Row) (persistence.Tenant, error) {
	var (
		tenant             persistence.Tenant
		timezone, currency sql.NullString
		createdAt          string
	)
	if err := row.Scan(&tenant.ID, &tenant.Name, &timezone, &currency, &createdAt); err != nil {
		return persistence.Tenant{}, s.mapper.MapError(err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return persistence.Tenant{}, err
	}
	tenant.Timezone = stringPtr(timezone)
	tenant.Currency = stringPtr(currency)
	tenant.CreatedAt = created
	return tenant, nil
}

// AddLocation gets or creates the location named location.Name, assigns it to
// the tenant when unowned, and inserts the tables.
func (s *Storage) AddLocation(ctx context.Context, tenantID int64, location persistence.Location, tables []persistence.DiningTable) (persistence.Location, int, error) {
	var (
		stored  persistence.Location
		created int
	)

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM tenants WHERE id = ?`, tenantID).Scan(&exists); err != nil {
			return s.mapper.MapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		loc, err := ensureLocation(ctx, tx, location.Name, s.mapper)
		if err != nil {
			return err
		}
		if loc.TenantID == nil {
			if _, err := tx.ExecContext(ctx, `UPDATE locations SET tenant_id = ? WHERE id = ?`, tenantID, loc.ID); err != nil {
				return s.mapper.MapError(err)
			}
			loc.TenantID = &tenantID
		}
		if loc.Timezone == nil && location.Timezone != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE locations SET timezone = ? WHERE id = ?`, *location.Timezone, loc.ID); err != nil {
				return s.mapper.MapError(err)
			}
			loc.Timezone = location.Timezone
		}

		for _, table := range tables {
			if table.Capacity <= 0 {
				return persistence.ErrConstraintViolation
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dining_tables (tenant_id, location_id, name, capacity)
				VALUES (?, ?, ?, ?)
			`, tenantID, loc.ID, nullString(table.Name), table.Capacity); err != nil {
				return s.mapper.MapError(err)
			}
			created++
		}

		stored = loc
		return nil
	})
	if err != nil {
		return persistence.Location{}, 0, err
	}
	return stored, created, nil
}

// GetLocation retrieves a location by id.
func (s *Storage) GetLocation(ctx context.Context, id int64) (persistence.Location, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT id, name, tenant_id, timezone FROM locations WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if err != nil {
		return persistence.Location{}, s.mapper.MapError(err)
	}
	return loc, nil
}

// ListDiningTables returns dining tables ordered by id, optionally limited to one location.
func (s *Storage) ListDiningTables(ctx context.Context, locationID *int64) ([]persistence.DiningTable, error) {
	query := `SELECT id, tenant_id, location_id, name, capacity FROM dining_tables`
	var args []any
	if locationID != nil {
		query += ` WHERE location_id = ?`
		args = append(args, *locationID)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	tables := make([]persistence.DiningTable, 0)
	for rows.Next() {
		var (
			table    persistence.DiningTable
			tenantID sql.NullInt64
			name     sql.NullString
		)
		if err := rows.Scan(&table.ID, &tenantID, &table.LocationID, &name, &table.Capacity); err != nil {
			return nil, s.mapper.MapError(err)
		}
		table.TenantID = int64Ptr(tenantID)
		table.Name = stringPtr(name)
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return tables, nil
}

func scanLocation(row *sql.Row) (persistence.Location, error) {
	var (
		loc      persistence.Location
		tenantID sql.NullInt64
		timezone sql.NullString
	)
	if err := row.Scan(&loc.ID, &loc.Name, &tenantID, &timezone); err != nil {
		return persistence.Location{}, err
	}
	loc.TenantID = int64Ptr(tenantID)
	loc.Timezone = stringPtr(timezone)
	return loc, nil
}

// ensureLocation returns the location with the given name, creating it when missing.
func ensureLocation(ctx context.Context, q queryer, name string, mapper *ErrorMapper) (persistence.Location, error) {
	if strings.TrimSpace(name) == "" {
		return persistence.Location{}, persistence.ErrConstraintViolation
	}

	loc, err := scanLocation(q.QueryRowContext(ctx, `SELECT id, name, tenant_id, timezone FROM locations WHERE name = ?`, name))
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return persistence.Location{}, mapper.MapError(err)
	}

	result, err := q.ExecContext(ctx, `INSERT INTO locations (name) VALUES (?)`, name)
	if err != nil {
		return persistence.Location{}, mapper.MapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Location{}, fmt.Errorf("location id: %w", err)
	}
	return persistence.Location{ID: id, Name: name}, nil
}

// locationIDByName resolves a location name. It returns ErrNotFound when absent.
func locationIDByName(ctx context.Context, q queryer, name string, mapper *ErrorMapper) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM locations WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, mapper.MapError(err)
	}
	return id, nil
}
