package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

var bookingCounter uint64

// referenceTime is a Friday evening, the busiest slot in the demo data.
var referenceTime = time.Date(2024, time.May, 10, 19, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Table fixtures -----------------------------

// DemoTables returns the demo catalog: two 2-tops, two 4-tops and a 6-top.
func DemoTables() []allocator.Table {
	return []allocator.Table{
		{ID: 1, Capacity: 2},
		{ID: 2, Capacity: 2},
		{ID: 3, Capacity: 4},
		{ID: 4, Capacity: 4},
		{ID: 5, Capacity: 6},
	}
}

// DemoDiningTables returns DemoTables as dining table rows for locationID.
func DemoDiningTables(locationID int64) []persistence.DiningTable {
	tables := DemoTables()
	out := make([]persistence.DiningTable, 0, len(tables))
	for _, table := range tables {
		name := fmt.Sprintf("T%d", table.ID)
		out = append(out, persistence.DiningTable{
			ID:         table.ID,
			LocationID: locationID,
			Name:       &name,
			Capacity:   table.Capacity,
		})
	}
	return out
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture is a deterministic booking usable by allocator, ledger and
// service tests.
type BookingFixture struct {
	ID           string
	LocationID   *int64
	TableID      *int64
	PartySize    int
	Start        time.Time
	DurationMin  int
	Status       allocator.Status
	CustomerName string
	CreatedAt    time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a confirmed booking for two at ReferenceTime on
// table 1 unless overridden.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	table := int64(1)
	fixture := BookingFixture{
		ID:           fmt.Sprintf("booking-%03d", idx),
		TableID:      &table,
		PartySize:    2,
		Start:        referenceTime,
		DurationMin:  allocator.DefaultLimits.DefaultDurationMin,
		Status:       allocator.StatusConfirmed,
		CustomerName: fmt.Sprintf("Guest %03d", idx),
		CreatedAt:    referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking id.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingTable assigns the booking to a table.
func WithBookingTable(id int64) BookingOption {
	return func(f *BookingFixture) {
		f.TableID = &id
	}
}

// WithBookingLocation sets the booking location.
func WithBookingLocation(id int64) BookingOption {
	return func(f *BookingFixture) {
		f.LocationID = &id
	}
}

// WithBookingWaitlisted clears the table and marks the booking waitlisted.
func WithBookingWaitlisted() BookingOption {
	return func(f *BookingFixture) {
		f.TableID = nil
		f.Status = allocator.StatusWaitlist
	}
}

// WithBookingStatus overrides the status.
func WithBookingStatus(status allocator.Status) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// WithBookingSlot overrides the start and duration.
func WithBookingSlot(start time.Time, durationMin int) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.DurationMin = durationMin
	}
}

// WithBookingParty overrides the party size.
func WithBookingParty(size int) BookingOption {
	return func(f *BookingFixture) {
		f.PartySize = size
	}
}

// Allocator converts the fixture into an allocator booking.
func (f BookingFixture) Allocator() allocator.Booking {
	return allocator.Booking{
		ID:          f.ID,
		TableID:     cloneInt64(f.TableID),
		Start:       f.Start,
		DurationMin: f.DurationMin,
		PartySize:   f.PartySize,
		Status:      f.Status,
	}
}

// Persistence converts the fixture into a ledger row.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:           f.ID,
		LocationID:   cloneInt64(f.LocationID),
		TableID:      cloneInt64(f.TableID),
		PartySize:    f.PartySize,
		StartAt:      f.Start,
		DurationMin:  f.DurationMin,
		Status:       f.Status.String(),
		CustomerName: f.CustomerName,
		CreatedAt:    f.CreatedAt,
	}
}

// ----------------------------- Order fixtures -----------------------------

// OrderFixture builds orders for analytics and recommendation tests.
type OrderFixture struct {
	LocationID   int64
	LocationName string
	Covers       int
	OrderedAt    time.Time
	Lines        []persistence.OrderLine
}

// OrderOption configures the generated order fixture.
type OrderOption func(*OrderFixture)

// NewOrderFixture returns a two-cover order at ReferenceTime in "Downtown".
func NewOrderFixture(opts ...OrderOption) OrderFixture {
	fixture := OrderFixture{
		LocationID:   1,
		LocationName: "Downtown",
		Covers:       2,
		OrderedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOrderLocation overrides the location.
func WithOrderLocation(id int64, name string) OrderOption {
	return func(f *OrderFixture) {
		f.LocationID = id
		f.LocationName = name
	}
}

// WithOrderCovers overrides the cover count.
func WithOrderCovers(covers int) OrderOption {
	return func(f *OrderFixture) {
		f.Covers = covers
	}
}

// WithOrderTime overrides the order time.
func WithOrderTime(at time.Time) OrderOption {
	return func(f *OrderFixture) {
		f.OrderedAt = at
	}
}

// WithOrderLine appends a line for the menu item.
func WithOrderLine(itemID int64, name string, qty int, price float64) OrderOption {
	return func(f *OrderFixture) {
		f.Lines = append(f.Lines, persistence.OrderLine{ItemID: itemID, ItemName: name, Qty: qty, Price: price})
	}
}

// Persistence converts the fixture into an order row.
func (f OrderFixture) Persistence() persistence.Order {
	lines := make([]persistence.OrderLine, len(f.Lines))
	copy(lines, f.Lines)
	return persistence.Order{
		LocationID:   f.LocationID,
		LocationName: f.LocationName,
		Covers:       f.Covers,
		OrderedAt:    f.OrderedAt,
		Lines:        lines,
	}
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
