package application

import (
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
)

// Reservation is a booking as exposed to callers.
type Reservation struct {
	ID           string
	LocationID   *int64
	TableID      *int64
	PartySize    int
	When         time.Time
	DurationMin  int
	Status       allocator.Status
	CustomerName string
	Phone        *string
	Notes        *string
	CreatedAt    time.Time
}

// AvailabilityQuery asks whether a party can be seated.
type AvailabilityQuery struct {
	When        time.Time
	PartySize   int
	DurationMin int
	LocationID  *int64
}

// Availability is the answer to an AvailabilityQuery.
type Availability struct {
	Available bool
	TableID   *int64
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	When         time.Time
	PartySize    int
	DurationMin  int
	LocationID   *int64
	CustomerName string
	Phone        *string
	Notes        *string
}

// ListReservationsParams selects the reservations starting on Date, a
// YYYY-MM-DD day in the service's timezone.
type ListReservationsParams struct {
	Date       string
	LocationID *int64
	Status     string
}

// TenantInput captures the fields accepted when onboarding a tenant.
type TenantInput struct {
	Name     string
	Timezone *string
	Currency *string
}

// TableInput describes one dining table to create. Capacity defaults to 2.
type TableInput struct {
	Name     *string
	Capacity *int
}

// LocationInput captures the fields accepted when adding a location to a tenant.
type LocationInput struct {
	Name     string
	Timezone *string
	Tables   []TableInput
}

// LocationResult reports the outcome of AddLocation.
type LocationResult struct {
	LocationID    int64
	TablesCreated int
}

// CustomerInput captures the fields accepted when creating a customer.
type CustomerInput struct {
	Name             *string
	Email            *string
	Phone            *string
	MarketingConsent *bool
	AnalyticsConsent *bool
}

// ConsentInput carries the consent flags to change. Nil fields are left untouched.
type ConsentInput struct {
	MarketingConsent *bool
	AnalyticsConsent *bool
}

// RetentionPolicyInput captures a retention policy upsert.
type RetentionPolicyInput struct {
	Entity string
	Days   int
}

// DateRangeInput is an inclusive range of YYYY-MM-DD days with an optional
// location name filter.
type DateRangeInput struct {
	Start    string
	End      string
	Location string
}

// AdjustInventoryInput changes the on-hand level of an ingredient at a location.
type AdjustInventoryInput struct {
	Ingredient string
	Location   string
	Delta      float64
}

// ReviewInput captures a guest review.
type ReviewInput struct {
	Location string
	At       time.Time
	Rating   *int
	Text     string
	Source   *string
}

// RecsQuery selects the orders recommendations are computed from. Range bounds
// are optional.
type RecsQuery struct {
	Range        DateRangeInput
	TopK         int
	AnchorItemID int64
}

// FreshnessReport describes the age of the newest orders and reviews.
type FreshnessReport struct {
	Orders  insights.Freshness
	Reviews insights.Freshness
}

// SeedInput configures demo data generation.
type SeedInput struct {
	Days      int
	Locations []string
}

// SeedResult summarizes what a seed run ensured or generated.
type SeedResult struct {
	Locations     []string
	MenuItems     int
	Ingredients   int
	TablesCreated int
	OrdersCreated int
	Days          int
}
