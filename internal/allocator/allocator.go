// Package allocator decides table assignments for restaurant bookings.
//
// The package is pure: it consumes a table catalog and the bookings already
// recorded for those tables and returns a decision. Persisting the decision and
// making the read-decide-write sequence atomic is the job of the booking ledger.
package allocator

import (
	"sort"
	"time"
)

// Table is a fixed-capacity seating unit.
type Table struct {
	ID       int64
	Capacity int
}

// Booking is a request to occupy one table for a half-open time interval.
type Booking struct {
	ID          string
	TableID     *int64
	Start       time.Time
	DurationMin int
	PartySize   int
	Status      Status
}

// End returns the instant the booking releases its table.
func (b Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.DurationMin) * time.Minute)
}

// Interval returns the occupied interval [Start, End).
func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End()}
}

// HoldsTable reports whether the booking claims the given table.
func (b Booking) HoldsTable(tableID int64) bool {
	if b.TableID == nil || *b.TableID != tableID {
		return false
	}
	return b.Status.HoldsTable()
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether both intervals share at least one instant. Touching
// endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Request carries the party, start and duration of an allocation attempt.
type Request struct {
	PartySize   int
	Start       time.Time
	DurationMin int
}

// Interval returns the interval the request would occupy.
func (r Request) Interval() Interval {
	return Interval{Start: r.Start, End: r.Start.Add(time.Duration(r.DurationMin) * time.Minute)}
}

// Candidates returns the tables able to seat partySize ordered by capacity and
// then id, smallest sufficient table first.
func Candidates(tables []Table, partySize int) []Table {
	out := make([]Table, 0, len(tables))
	for _, table := range tables {
		if table.Capacity >= partySize {
			out = append(out, table)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity == out[j].Capacity {
			return out[i].ID < out[j].ID
		}
		return out[i].Capacity < out[j].Capacity
	})
	return out
}

// CandidateIDs returns the ids of Candidates in ascending id order, which is the
// order ledgers acquire per-table locks in.
func CandidateIDs(tables []Table, partySize int) []int64 {
	candidates := Candidates(tables, partySize)
	ids := make([]int64, 0, len(candidates))
	for _, table := range candidates {
		ids = append(ids, table.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CheckAvailability validates req against the default limits and returns the
// first free table for it.
func CheckAvailability(tables []Table, bookings []Booking, req Request) (int64, bool, error) {
	return DefaultLimits.CheckAvailability(tables, bookings, req)
}

// CreateBooking validates req against the default limits and builds the
// resulting booking.
func CreateBooking(tables []Table, bookings []Booking, req Request, id string) (Booking, error) {
	return DefaultLimits.CreateBooking(tables, bookings, req, id)
}

// CheckAvailability returns the first candidate table whose interval does not
// overlap a confirmed booking on that table. An empty catalog yields no table.
func (l Limits) CheckAvailability(tables []Table, bookings []Booking, req Request) (int64, bool, error) {
	normalized, err := l.Normalize(req)
	if err != nil {
		return 0, false, err
	}
	id, ok := firstFree(tables, bookings, normalized)
	return id, ok, nil
}

// CreateBooking runs CheckAvailability and returns a confirmed booking on the
// chosen table, or a waitlisted booking without a table.
func (l Limits) CreateBooking(tables []Table, bookings []Booking, req Request, id string) (Booking, error) {
	normalized, err := l.Normalize(req)
	if err != nil {
		return Booking{}, err
	}

	booking := Booking{
		ID:          id,
		Start:       normalized.Start,
		DurationMin: normalized.DurationMin,
		PartySize:   normalized.PartySize,
		Status:      StatusWaitlist,
	}
	if tableID, ok := firstFree(tables, bookings, normalized); ok {
		booking.TableID = &tableID
		booking.Status = StatusConfirmed
	}
	return booking, nil
}

func firstFree(tables []Table, bookings []Booking, req Request) (int64, bool) {
	want := req.Interval()
	for _, table := range Candidates(tables, req.PartySize) {
		if tableFree(table.ID, want, bookings) {
			return table.ID, true
		}
	}
	return 0, false
}

func tableFree(tableID int64, want Interval, bookings []Booking) bool {
	for _, booking := range bookings {
		if !booking.HoldsTable(tableID) {
			continue
		}
		if booking.Interval().Overlaps(want) {
			return false
		}
	}
	return true
}
