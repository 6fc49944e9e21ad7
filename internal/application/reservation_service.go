package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonioRamos11/RestaurantIA/internal/allocator"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

const tracerName = "github.com/AntonioRamos11/RestaurantIA/internal/application"

// TableCatalog lists the dining tables a reservation can be seated at.
type TableCatalog interface {
	ListDiningTables(ctx context.Context, locationID *int64) ([]persistence.DiningTable, error)
}

// ReservationService answers availability questions and records bookings.
// Check-then-create runs inside the ledger's unit of work so that two
// concurrent requests can never confirm overlapping bookings on one table.
type ReservationService struct {
	tables      TableCatalog
	ledger      persistence.BookingLedger
	engine      *insights.Engine
	limits      allocator.Limits
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(tables TableCatalog, ledger persistence.BookingLedger, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(tables, ledger, nil, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
// The engine decides which calendar day a listing date refers to.
func NewReservationServiceWithLogger(tables TableCatalog, ledger persistence.BookingLedger, engine *insights.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	return &ReservationService{
		tables:      tables,
		ledger:      ledger,
		engine:      engine,
		limits:      allocator.DefaultLimits,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		tracer:      otel.Tracer(tracerName),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CheckAvailability reports the table a party would be seated at right now.
func (s *ReservationService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (result Availability, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	ctx, span := s.tracer.Start(ctx, "ReservationService.CheckAvailability")
	defer span.End()

	logger := s.loggerWith(ctx, "CheckAvailability",
		"party_size", query.PartySize,
		"duration_min", query.DurationMin,
	)
	defer func() {
		finishSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to check availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("available", result.Available).DebugContext(ctx, "availability checked")
	}()

	var req allocator.Request
	req, err = s.normalize(query.When, query.PartySize, query.DurationMin, nil)
	if err != nil {
		return
	}

	var tables []allocator.Table
	tables, err = s.loadTables(ctx, query.LocationID)
	if err != nil {
		return
	}
	candidateIDs := allocator.CandidateIDs(tables, req.PartySize)
	span.SetAttributes(attribute.Int("restaurant.candidate_tables", len(candidateIDs)))

	err = s.ledger.WithTableLocks(ctx, candidateIDs, func(ctx context.Context, tx persistence.LedgerTx) error {
		existing, err := s.confirmedBookings(ctx, tx, candidateIDs, req)
		if err != nil {
			return err
		}
		tableID, ok, err := s.limits.CheckAvailability(tables, existing, req)
		if err != nil {
			return err
		}
		if ok {
			result = Availability{Available: true, TableID: &tableID}
		}
		return nil
	})
	if err != nil {
		err = mapRepoError(err, "booking", "booking could not be checked")
	}
	return
}

// CreateReservation validates the request, allocates a table and records the
// booking. A party that cannot be seated is recorded on the waitlist.
func (s *ReservationService) CreateReservation(ctx context.Context, input ReservationInput) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.ledger == nil {
		err = fmt.Errorf("booking ledger not configured")
		return
	}

	ctx, span := s.tracer.Start(ctx, "ReservationService.CreateReservation")
	defer span.End()

	logger := s.loggerWith(ctx, "CreateReservation",
		"party_size", input.PartySize,
		"duration_min", input.DurationMin,
	)
	defer func() {
		finishSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"reservation_id", reservation.ID,
			"status", reservation.Status.String(),
		).InfoContext(ctx, "reservation created")
	}()

	vErr := &ValidationError{}
	customerName := strings.TrimSpace(input.CustomerName)
	if customerName == "" {
		vErr.add("customer_name", "customer name is required")
	}

	var req allocator.Request
	req, err = s.normalize(input.When, input.PartySize, input.DurationMin, vErr)
	if err != nil {
		return
	}

	var tables []allocator.Table
	tables, err = s.loadTables(ctx, input.LocationID)
	if err != nil {
		return
	}
	candidateIDs := allocator.CandidateIDs(tables, req.PartySize)
	span.SetAttributes(attribute.Int("restaurant.candidate_tables", len(candidateIDs)))

	id := s.idGenerator()
	createdAt := s.now().UTC()

	err = s.ledger.WithTableLocks(ctx, candidateIDs, func(ctx context.Context, tx persistence.LedgerTx) error {
		existing, err := s.confirmedBookings(ctx, tx, candidateIDs, req)
		if err != nil {
			return err
		}
		booking, err := s.limits.CreateBooking(tables, existing, req, id)
		if err != nil {
			return err
		}

		row := persistence.Booking{
			ID:           booking.ID,
			LocationID:   input.LocationID,
			TableID:      booking.TableID,
			PartySize:    booking.PartySize,
			StartAt:      booking.Start.UTC(),
			DurationMin:  booking.DurationMin,
			Status:       booking.Status.String(),
			CustomerName: customerName,
			Phone:        normalizeOptionalString(input.Phone),
			Notes:        normalizeOptionalString(input.Notes),
			CreatedAt:    createdAt,
		}
		if err := tx.InsertBooking(ctx, row); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		reservation, err = toReservation(row)
		return err
	})
	if err != nil {
		err = mapRepoError(err, "booking", "booking violates a ledger constraint")
		return
	}

	span.SetAttributes(attribute.String("restaurant.booking_status", reservation.Status.String()))
	if reservation.TableID != nil {
		span.SetAttributes(attribute.Int64("restaurant.table_id", *reservation.TableID))
	}
	return
}

// GetReservation returns a single reservation.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.ledger == nil {
		err = ErrNotFound
		return
	}

	var row persistence.Booking
	row, err = s.ledger.GetBooking(ctx, strings.TrimSpace(id))
	if err != nil {
		err = mapRepoError(err, "id", "invalid reservation id")
		return
	}
	return toReservation(row)
}

// ListReservations returns the reservations starting on the requested day,
// ordered by start then id.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListReservations", "date", params.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	vErr := &ValidationError{}
	day, parseErr := s.engine.ParseDay(strings.TrimSpace(params.Date))
	if parseErr != nil {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}
	filter := persistence.BookingFilter{LocationID: params.LocationID}
	if status := strings.TrimSpace(params.Status); status != "" {
		parsed, statusErr := allocator.ParseStatus(status)
		if statusErr != nil {
			vErr.add("status", "status must be confirmed, waitlist or rejected")
		} else {
			value := parsed.String()
			filter.Status = &value
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	window, _ := s.engine.DayRange(day, day)
	from, to := window.From.UTC(), window.To.UTC()
	filter.StartsFrom = &from
	filter.StartsTo = &to

	reservations = []Reservation{}
	if s.ledger == nil {
		return
	}

	var rows []persistence.Booking
	rows, err = s.ledger.ListBookings(ctx, filter)
	if err != nil {
		return
	}
	for _, row := range rows {
		var reservation Reservation
		reservation, err = toReservation(row)
		if err != nil {
			return
		}
		reservations = append(reservations, reservation)
	}
	return
}

func (s *ReservationService) normalize(when time.Time, partySize, durationMin int, vErr *ValidationError) (allocator.Request, error) {
	if vErr == nil {
		vErr = &ValidationError{}
	}
	req, err := s.limits.Normalize(allocator.Request{
		PartySize:   partySize,
		Start:       when,
		DurationMin: durationMin,
	})
	if err != nil {
		converted, ok := fromInvalidRequest(err)
		if !ok {
			return allocator.Request{}, err
		}
		vErr.merge(converted)
	}
	if vErr.HasErrors() {
		return allocator.Request{}, vErr
	}
	return req, nil
}

func (s *ReservationService) loadTables(ctx context.Context, locationID *int64) ([]allocator.Table, error) {
	if s.tables == nil {
		return nil, nil
	}
	rows, err := s.tables.ListDiningTables(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("list dining tables: %w", err)
	}
	tables := make([]allocator.Table, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, allocator.Table{ID: row.ID, Capacity: row.Capacity})
	}
	return tables, nil
}

func (s *ReservationService) confirmedBookings(ctx context.Context, tx persistence.LedgerTx, tableIDs []int64, req allocator.Request) ([]allocator.Booking, error) {
	window := req.Interval()
	rows, err := tx.ListConfirmedBookings(ctx, tableIDs, window.Start.UTC(), window.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	out := make([]allocator.Booking, 0, len(rows))
	for _, row := range rows {
		status, err := allocator.ParseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, allocator.Booking{
			ID:          row.ID,
			TableID:     row.TableID,
			Start:       row.StartAt,
			DurationMin: row.DurationMin,
			PartySize:   row.PartySize,
			Status:      status,
		})
	}
	return out, nil
}

func toReservation(row persistence.Booking) (Reservation, error) {
	status, err := allocator.ParseStatus(row.Status)
	if err != nil {
		return Reservation{}, err
	}
	return Reservation{
		ID:           row.ID,
		LocationID:   row.LocationID,
		TableID:      row.TableID,
		PartySize:    row.PartySize,
		When:         row.StartAt,
		DurationMin:  row.DurationMin,
		Status:       status,
		CustomerName: row.CustomerName,
		Phone:        row.Phone,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func finishSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, ErrorKind(err))
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
