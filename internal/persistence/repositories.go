package persistence

import (
	"context"
	"time"
)

// CatalogRepository stores tenants, locations and their dining tables.
type CatalogRepository interface {
	CreateTenant(ctx context.Context, tenant Tenant) (Tenant, error)
	GetTenant(ctx context.Context, id int64) (Tenant, error)
	GetTenantByName(ctx context.Context, name string) (Tenant, error)
	// AddLocation gets or creates the location by name, claims it for the tenant
	// when it has none, and appends the given tables in one transaction.
	AddLocation(ctx context.Context, tenantID int64, location Location, tables []DiningTable) (Location, int, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	ListDiningTables(ctx context.Context, locationID *int64) ([]DiningTable, error)
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	LocationID *int64
	Status     *string
	StartsFrom *time.Time
	StartsTo   *time.Time
}

// LedgerTx is the unit of work a booking ledger hands to its callers. Reads and
// the insert observe the same snapshot and hold the same locks.
type LedgerTx interface {
	ListConfirmedBookings(ctx context.Context, tableIDs []int64, from, to time.Time) ([]Booking, error)
	InsertBooking(ctx context.Context, booking Booking) error
}

// BookingLedger records bookings and serializes check-then-create per table.
type BookingLedger interface {
	WithTableLocks(ctx context.Context, tableIDs []int64, fn func(ctx context.Context, tx LedgerTx) error) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CustomerRepository stores guest profiles.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer Customer) (Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	UpdateConsent(ctx context.Context, id int64, marketing, analytics *bool) (Customer, error)
}

// GovernanceRepository stores retention policies and purges expired rows.
type GovernanceRepository interface {
	ListRetentionPolicies(ctx context.Context) ([]RetentionPolicy, error)
	UpsertRetentionPolicy(ctx context.Context, policy RetentionPolicy) error
	DeleteOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteReviewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteCustomersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderFilter narrows order listings. Bounds are half-open: From <= t < To.
type OrderFilter struct {
	From     *time.Time
	To       *time.Time
	Location string
}

// SalesRepository exposes the menu and order history.
type SalesRepository interface {
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	LatestOrderTime(ctx context.Context) (*time.Time, error)
}

// InventoryRepository stores ingredients, recipes and stock levels.
type InventoryRepository interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	ListRecipeItems(ctx context.Context) ([]RecipeItem, error)
	ListInventoryLevels(ctx context.Context, location string) ([]InventoryLevel, error)
	// AdjustInventory adds delta to the on-hand level, clamping at zero, and
	// returns the new level.
	AdjustInventory(ctx context.Context, ingredient, location string, delta float64) (InventoryLevel, error)
}

// ReviewFilter narrows review listings. Bounds are half-open: From <= t < To.
type ReviewFilter struct {
	From     time.Time
	To       time.Time
	Location string
}

// ReviewRepository stores guest reviews.
type ReviewRepository interface {
	// CreateReview resolves review.LocationName, creating the location when missing.
	CreateReview(ctx context.Context, review Review) (Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]Review, error)
	LatestReviewTime(ctx context.Context) (*time.Time, error)
}

// SeedRepository provides idempotent writes used to build demo data.
type SeedRepository interface {
	EnsureLocation(ctx context.Context, name string) (Location, error)
	EnsureMenuItem(ctx context.Context, item MenuItem) (MenuItem, error)
	EnsureIngredient(ctx context.Context, ingredient Ingredient) (Ingredient, error)
	EnsureRecipeItem(ctx context.Context, item RecipeItem) error
	EnsureInventoryLevel(ctx context.Context, ingredientID, locationID int64, onHand float64) error
	// EnsureDiningTables inserts the tables only when no dining table exists yet
	// and reports how many were inserted.
	EnsureDiningTables(ctx context.Context, tables []DiningTable) (int, error)
	InsertOrders(ctx context.Context, orders []Order) error
}
