package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

type tableCatalogStub struct {
	mu     sync.Mutex
	tables []persistence.DiningTable
	err    error
	asked  []*int64
}

func (s *tableCatalogStub) ListDiningTables(_ context.Context, locationID *int64) ([]persistence.DiningTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, locationID)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]persistence.DiningTable, 0, len(s.tables))
	for _, table := range s.tables {
		if locationID != nil && table.LocationID != *locationID {
			continue
		}
		out = append(out, table)
	}
	return out, nil
}

func demoCatalog() *tableCatalogStub {
	capacities := []int{2, 2, 4, 4, 6}
	tables := make([]persistence.DiningTable, 0, len(capacities))
	for i, capacity := range capacities {
		tables = append(tables, persistence.DiningTable{ID: int64(i + 1), LocationID: 1, Capacity: capacity})
	}
	return &tableCatalogStub{tables: tables}
}

// ledgerStub is an in-memory booking ledger. WithTableLocks serializes every
// unit of work and discards inserts when fn fails.
type ledgerStub struct {
	mu        sync.Mutex
	bookings  []persistence.Booking
	insertErr error
	lockedIDs [][]int64
	deleted   time.Time
}

type ledgerStubTx struct {
	committed []persistence.Booking
	pending   []persistence.Booking
	insertErr error
}

func (tx *ledgerStubTx) ListConfirmedBookings(_ context.Context, tableIDs []int64, from, to time.Time) ([]persistence.Booking, error) {
	wanted := make(map[int64]struct{}, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = struct{}{}
	}
	var out []persistence.Booking
	for _, booking := range append(append([]persistence.Booking{}, tx.committed...), tx.pending...) {
		if booking.Status != "confirmed" || booking.TableID == nil {
			continue
		}
		if _, ok := wanted[*booking.TableID]; !ok {
			continue
		}
		if booking.StartAt.Before(to) && booking.EndAt().After(from) {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (tx *ledgerStubTx) InsertBooking(_ context.Context, booking persistence.Booking) error {
	if tx.insertErr != nil {
		return tx.insertErr
	}
	for _, existing := range append(append([]persistence.Booking{}, tx.committed...), tx.pending...) {
		if existing.ID == booking.ID {
			return persistence.ErrDuplicate
		}
	}
	tx.pending = append(tx.pending, booking)
	return nil
}

func (l *ledgerStub) WithTableLocks(ctx context.Context, tableIDs []int64, fn func(ctx context.Context, tx persistence.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lockedIDs = append(l.lockedIDs, append([]int64(nil), tableIDs...))
	tx := &ledgerStubTx{committed: l.bookings, insertErr: l.insertErr}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	l.bookings = append(l.bookings, tx.pending...)
	return nil
}

func (l *ledgerStub) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, booking := range l.bookings {
		if booking.ID == id {
			return booking, nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

func (l *ledgerStub) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []persistence.Booking
	for _, booking := range l.bookings {
		if filter.LocationID != nil && (booking.LocationID == nil || *booking.LocationID != *filter.LocationID) {
			continue
		}
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		if filter.StartsFrom != nil && booking.StartAt.Before(*filter.StartsFrom) {
			continue
		}
		if filter.StartsTo != nil && !booking.StartAt.Before(*filter.StartsTo) {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out, nil
}

func (l *ledgerStub) DeleteBookingsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = cutoff
	kept := l.bookings[:0]
	var removed int64
	for _, booking := range l.bookings {
		if booking.StartAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, booking)
	}
	l.bookings = kept
	return removed, nil
}

type salesStub struct {
	items     []persistence.MenuItem
	orders    []persistence.Order
	latest    *time.Time
	err       error
	filters   []persistence.OrderFilter
	listCalls int
}

func (s *salesStub) ListMenuItems(context.Context) ([]persistence.MenuItem, error) {
	return s.items, s.err
}

func (s *salesStub) ListOrders(_ context.Context, filter persistence.OrderFilter) ([]persistence.Order, error) {
	s.listCalls++
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return nil, s.err
	}
	var out []persistence.Order
	for _, order := range s.orders {
		if filter.From != nil && order.OrderedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !order.OrderedAt.Before(*filter.To) {
			continue
		}
		if filter.Location != "" && order.LocationName != filter.Location {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *salesStub) LatestOrderTime(context.Context) (*time.Time, error) {
	return s.latest, s.err
}

type recordingCache struct {
	*MemoryResultCache
	invalidations int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{MemoryResultCache: NewMemoryResultCache(time.Minute, 16, nil)}
}

func (c *recordingCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return c.MemoryResultCache.Invalidate(ctx)
}
