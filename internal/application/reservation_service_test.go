package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

var friday = time.Date(2024, time.May, 10, 19, 0, 0, 0, time.UTC)

func newReservationService(catalog TableCatalog, ledger persistence.BookingLedger) *ReservationService {
	return NewReservationServiceWithLogger(catalog, ledger, nil, sequentialIDs("booking"), fixedNow(friday.Add(-time.Hour)), discardLogger())
}

func tableRef(id int64) *int64 { return &id }

func TestReservationService_CreateReservation(t *testing.T) {
	t.Run("seats the smallest fitting table", func(t *testing.T) {
		ledger := &ledgerStub{}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{
			When:         friday,
			PartySize:    3,
			CustomerName: "  Ada ",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != allocator.StatusConfirmed {
			t.Fatalf("expected confirmed, got %s", got.Status)
		}
		if got.TableID == nil || *got.TableID != 3 {
			t.Fatalf("expected table 3, got %v", got.TableID)
		}
		if got.DurationMin != 90 {
			t.Fatalf("expected default duration 90, got %d", got.DurationMin)
		}
		if got.CustomerName != "Ada" {
			t.Fatalf("expected trimmed customer name, got %q", got.CustomerName)
		}
		if got.ID != "booking-001" {
			t.Fatalf("expected generated id, got %q", got.ID)
		}
		if len(ledger.bookings) != 1 {
			t.Fatalf("expected booking persisted, got %d", len(ledger.bookings))
		}
		if locked := ledger.lockedIDs[0]; len(locked) != 3 || locked[0] != 3 || locked[2] != 5 {
			t.Fatalf("expected candidate tables [3 4 5] locked, got %v", locked)
		}
	})

	t.Run("falls through to the next table when busy", func(t *testing.T) {
		ledger := &ledgerStub{bookings: []persistence.Booking{{
			ID: "existing", TableID: tableRef(3), PartySize: 4, StartAt: friday, DurationMin: 90, Status: "confirmed",
		}}}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 4, DurationMin: 90, CustomerName: "Bo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TableID == nil || *got.TableID != 4 {
			t.Fatalf("expected table 4, got %v", got.TableID)
		}
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		ledger := &ledgerStub{bookings: []persistence.Booking{{
			ID: "early", TableID: tableRef(1), PartySize: 2, StartAt: friday.Add(-90 * time.Minute), DurationMin: 90, Status: "confirmed",
		}}}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, CustomerName: "Cy"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TableID == nil || *got.TableID != 1 {
			t.Fatalf("expected table 1, got %v", got.TableID)
		}
	})

	t.Run("waitlists when every fitting table is busy", func(t *testing.T) {
		ledger := &ledgerStub{}
		for _, id := range []int64{3, 4, 5} {
			ledger.bookings = append(ledger.bookings, persistence.Booking{
				ID: fmt.Sprintf("busy-%d", id), TableID: tableRef(id), PartySize: 4, StartAt: friday, DurationMin: 120, Status: "confirmed",
			})
		}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday.Add(30 * time.Minute), PartySize: 4, CustomerName: "Di"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != allocator.StatusWaitlist || got.TableID != nil {
			t.Fatalf("expected waitlist without table, got %s %v", got.Status, got.TableID)
		}
	})

	t.Run("waitlisted bookings do not hold tables", func(t *testing.T) {
		ledger := &ledgerStub{bookings: []persistence.Booking{{
			ID: "wait", TableID: tableRef(5), PartySize: 6, StartAt: friday, DurationMin: 90, Status: "waitlist",
		}}}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 6, CustomerName: "Ed"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TableID == nil || *got.TableID != 5 {
			t.Fatalf("expected table 5, got %v", got.TableID)
		}
	})

	t.Run("empty catalog waitlists", func(t *testing.T) {
		ledger := &ledgerStub{}
		svc := newReservationService(&tableCatalogStub{}, ledger)

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, CustomerName: "Flo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != allocator.StatusWaitlist {
			t.Fatalf("expected waitlist, got %s", got.Status)
		}
		if len(ledger.bookings) != 1 {
			t.Fatalf("expected waitlist booking persisted")
		}
	})

	t.Run("validates before searching", func(t *testing.T) {
		catalog := demoCatalog()
		ledger := &ledgerStub{}
		svc := newReservationService(catalog, ledger)

		_, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 0, DurationMin: 15, CustomerName: " "})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"party_size", "duration_min", "customer_name"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
		if len(catalog.asked) != 0 || len(ledger.lockedIDs) != 0 {
			t.Fatal("expected no catalog or ledger access on invalid input")
		}
	})

	t.Run("rejects oversized parties and durations without clamping", func(t *testing.T) {
		svc := newReservationService(demoCatalog(), &ledgerStub{})

		_, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 13, DurationMin: 241, CustomerName: "Gus"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected two field errors, got %v", err)
		}
	})

	t.Run("filters tables by location", func(t *testing.T) {
		catalog := demoCatalog()
		catalog.tables = append(catalog.tables, persistence.DiningTable{ID: 9, LocationID: 2, Capacity: 2})
		svc := newReservationService(catalog, &ledgerStub{})

		got, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, LocationID: tableRef(2), CustomerName: "Hal"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TableID == nil || *got.TableID != 9 {
			t.Fatalf("expected table 9, got %v", got.TableID)
		}
		if got.LocationID == nil || *got.LocationID != 2 {
			t.Fatalf("expected location 2 recorded, got %v", got.LocationID)
		}
	})

	t.Run("maps ledger duplicates", func(t *testing.T) {
		ledger := &ledgerStub{insertErr: persistence.ErrDuplicate}
		svc := newReservationService(demoCatalog(), ledger)

		_, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, CustomerName: "Ivy"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if len(ledger.bookings) != 0 {
			t.Fatal("expected nothing committed")
		}
	})

	t.Run("propagates catalog failures", func(t *testing.T) {
		boom := errors.New("boom")
		svc := newReservationService(&tableCatalogStub{err: boom}, &ledgerStub{})

		_, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, CustomerName: "Jo"})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}

func TestReservationService_ConcurrentCreatesNeverDoubleBook(t *testing.T) {
	ledger := &ledgerStub{}
	svc := newReservationService(demoCatalog(), ledger)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateReservation(context.Background(), ReservationInput{When: friday, PartySize: 2, CustomerName: "Guest"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	perTable := make(map[int64]int)
	waitlisted := 0
	for _, booking := range ledger.bookings {
		if booking.Status == "waitlist" {
			waitlisted++
			continue
		}
		perTable[*booking.TableID]++
	}
	for tableID, count := range perTable {
		if count > 1 {
			t.Fatalf("table %d double booked (%d confirmed)", tableID, count)
		}
	}
	if len(perTable) != 5 || waitlisted != workers-5 {
		t.Fatalf("expected 5 confirmed and %d waitlisted, got %v and %d", workers-5, perTable, waitlisted)
	}
}

func TestReservationService_CheckAvailability(t *testing.T) {
	t.Run("reports the table without booking it", func(t *testing.T) {
		ledger := &ledgerStub{}
		svc := newReservationService(demoCatalog(), ledger)

		got, err := svc.CheckAvailability(context.Background(), AvailabilityQuery{When: friday, PartySize: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Available || got.TableID == nil || *got.TableID != 3 {
			t.Fatalf("expected table 3 available, got %+v", got)
		}
		if len(ledger.bookings) != 0 {
			t.Fatal("expected no booking recorded")
		}

		again, _ := svc.CheckAvailability(context.Background(), AvailabilityQuery{When: friday, PartySize: 3})
		if *again.TableID != *got.TableID {
			t.Fatalf("expected repeatable answer, got %v then %v", *got.TableID, *again.TableID)
		}
	})

	t.Run("no table is not an error", func(t *testing.T) {
		svc := newReservationService(&tableCatalogStub{}, &ledgerStub{})

		got, err := svc.CheckAvailability(context.Background(), AvailabilityQuery{When: friday, PartySize: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Available || got.TableID != nil {
			t.Fatalf("expected unavailable, got %+v", got)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		svc := newReservationService(demoCatalog(), &ledgerStub{})

		_, err := svc.CheckAvailability(context.Background(), AvailabilityQuery{PartySize: 2})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["when"]; !ok {
			t.Fatalf("expected when error, got %v", vErr.FieldErrors)
		}
	})
}

func TestReservationService_GetAndList(t *testing.T) {
	ledger := &ledgerStub{bookings: []persistence.Booking{
		{ID: "b", LocationID: tableRef(1), TableID: tableRef(1), PartySize: 2, StartAt: friday, DurationMin: 90, Status: "confirmed", CustomerName: "B"},
		{ID: "a", LocationID: tableRef(1), TableID: tableRef(2), PartySize: 2, StartAt: friday, DurationMin: 90, Status: "confirmed", CustomerName: "A"},
		{ID: "w", LocationID: tableRef(1), PartySize: 6, StartAt: friday.Add(-2 * time.Hour), DurationMin: 90, Status: "waitlist", CustomerName: "W"},
		{ID: "next", PartySize: 2, StartAt: friday.Add(24 * time.Hour), DurationMin: 90, Status: "confirmed", CustomerName: "N"},
	}}
	svc := newReservationService(demoCatalog(), ledger)
	ctx := context.Background()

	t.Run("get returns stored booking", func(t *testing.T) {
		got, err := svc.GetReservation(ctx, "a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.CustomerName != "A" || got.Status != allocator.StatusConfirmed {
			t.Fatalf("unexpected reservation %+v", got)
		}
	})

	t.Run("get maps missing bookings", func(t *testing.T) {
		if _, err := svc.GetReservation(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list returns the day ordered by start then id", func(t *testing.T) {
		got, err := svc.ListReservations(ctx, ListReservationsParams{Date: "2024-05-10"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 || got[0].ID != "w" || got[1].ID != "a" || got[2].ID != "b" {
			t.Fatalf("unexpected order %+v", got)
		}
	})

	t.Run("list filters by status", func(t *testing.T) {
		got, err := svc.ListReservations(ctx, ListReservationsParams{Date: "2024-05-10", Status: "waitlist"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "w" {
			t.Fatalf("expected only waitlisted booking, got %+v", got)
		}
	})

	t.Run("list validates parameters", func(t *testing.T) {
		_, err := svc.ListReservations(ctx, ListReservationsParams{Date: "10/05/2024", Status: "seated"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected date and status errors, got %v", vErr.FieldErrors)
		}
	})
}
