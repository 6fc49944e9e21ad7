package persistence

import "time"

// Tenant is a restaurant group onboarded onto the platform.
type Tenant struct {
	ID        int64
	Name      string
	Timezone  *string
	Currency  *string
	CreatedAt time.Time
}

// Location is a single restaurant site.
type Location struct {
	ID       int64
	Name     string
	TenantID *int64
	Timezone *string
}

// DiningTable is a seating unit at a location.
type DiningTable struct {
	ID         int64
	TenantID   *int64
	LocationID int64
	Name       *string
	Capacity   int
}

// Booking is a reservation row in the booking ledger.
type Booking struct {
	ID           string
	LocationID   *int64
	TableID      *int64
	PartySize    int
	StartAt      time.Time
	DurationMin  int
	Status       string
	CustomerName string
	Phone        *string
	Notes        *string
	CreatedAt    time.Time
}

// EndAt returns the instant the booking releases its table.
func (b Booking) EndAt() time.Time {
	return b.StartAt.Add(time.Duration(b.DurationMin) * time.Minute)
}

// Customer is a guest profile with consent flags.
type Customer struct {
	ID               int64
	Name             *string
	Email            *string
	Phone            *string
	MarketingConsent bool
	AnalyticsConsent bool
	CreatedAt        time.Time
}

// RetentionPolicy keeps rows of an entity for Days days.
type RetentionPolicy struct {
	Entity string
	Days   int
}

// MenuItem is a sellable dish or drink.
type MenuItem struct {
	ID       int64
	Name     string
	Category *string
	Price    *float64
}

// Order is a ticket with its lines and the name of the location it belongs to.
type Order struct {
	ID           int64
	LocationID   int64
	LocationName string
	Covers       int
	OrderedAt    time.Time
	Lines        []OrderLine
}

// OrderLine is one menu item on an order. Price is zero when the item has none.
type OrderLine struct {
	ItemID   int64
	ItemName string
	Qty      int
	Price    float64
}

// Ingredient is a stock keeping unit consumed by recipes.
type Ingredient struct {
	ID   int64
	Name string
	Unit string
}

// RecipeItem is the quantity of an ingredient used per serving of a menu item.
type RecipeItem struct {
	ItemID        int64
	IngredientID  int64
	QtyPerServing float64
}

// InventoryLevel is the on-hand stock of an ingredient at a location.
type InventoryLevel struct {
	IngredientID   int64
	IngredientName string
	Unit           string
	LocationID     int64
	LocationName   string
	OnHand         float64
}

// Review is guest feedback left for a location.
type Review struct {
	ID           int64
	LocationID   int64
	LocationName string
	At           time.Time
	Rating       *int
	Text         string
	Source       *string
	Sentiment    *float64
}
