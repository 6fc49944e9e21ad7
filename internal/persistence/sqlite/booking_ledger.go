package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

const bookingColumns = `id, location_id, table_id, party_size, start_at, duration_min, status, customer_name, phone, notes, created_at`

// WithTableLocks runs fn inside a write transaction. The connection is opened
// with _txlock=immediate, so the transaction holds SQLite's write lock from
// BEGIN and the table ids need no further locking.
func (s *Storage) WithTableLocks(ctx context.Context, _ []int64, fn func(ctx context.Context, tx persistence.LedgerTx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &ledgerTx{tx: tx, mapper: s.mapper})
	})
}

type ledgerTx struct {
	tx     *sql.Tx
	mapper *ErrorMapper
}

// ListConfirmedBookings returns confirmed bookings on the tables whose interval
// intersects [from, to).
func (l *ledgerTx) ListConfirmedBookings(ctx context.Context, tableIDs []int64, from, to time.Time) ([]persistence.Booking, error) {
	if len(tableIDs) == 0 {
		return []persistence.Booking{}, nil
	}

	args := make([]any, 0, len(tableIDs)+2)
	for _, id := range tableIDs {
		args = append(args, id)
	}
	args = append(args, formatTime(to), formatTime(from))

	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = 'confirmed'
		  AND table_id IN (` + placeholders(len(tableIDs)) + `)
		  AND start_at < ? AND end_at > ?
		ORDER BY start_at, id`

	return queryBookings(ctx, l.tx, l.mapper, query, args...)
}

// InsertBooking stores a booking inside the ledger transaction.
func (l *ledgerTx) InsertBooking(ctx context.Context, booking persistence.Booking) error {
	return insertBooking(ctx, l.tx, l.mapper, booking)
}

// GetBooking retrieves a booking by id.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	bookings, err := queryBookings(ctx, s.pool.DB(), s.mapper, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return persistence.Booking{}, err
	}
	if len(bookings) == 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return bookings[0], nil
}

// ListBookings returns bookings matching filter ordered by start then id.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.LocationID != nil {
		clauses = append(clauses, "location_id = ?")
		args = append(args, *filter.LocationID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.StartsFrom != nil {
		clauses = append(clauses, "start_at >= ?")
		args = append(args, formatTime(*filter.StartsFrom))
	}
	if filter.StartsTo != nil {
		clauses = append(clauses, "start_at < ?")
		args = append(args, formatTime(*filter.StartsTo))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at, id`

	return queryBookings(ctx, s.pool.DB(), s.mapper, query, args...)
}

// DeleteBookingsBefore removes bookings that start before cutoff.
func (s *Storage) DeleteBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE start_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func insertBooking(ctx context.Context, q queryer, mapper *ErrorMapper, booking persistence.Booking) error {
	if booking.ID == "" || booking.PartySize <= 0 || booking.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO bookings (id, location_id, table_id, party_size, start_at, end_at, duration_min, status, customer_name, phone, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		booking.ID,
		nullInt64(booking.LocationID),
		nullInt64(booking.TableID),
		booking.PartySize,
		formatTime(booking.StartAt),
		formatTime(booking.EndAt()),
		booking.DurationMin,
		booking.Status,
		booking.CustomerName,
		nullString(booking.Phone),
		nullString(booking.Notes),
		formatTime(booking.CreatedAt),
	)
	if err != nil {
		return mapper.MapError(err)
	}
	return nil
}

func queryBookings(ctx context.Context, q queryer, mapper *ErrorMapper, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapper.MapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		var (
			booking             persistence.Booking
			locationID, tableID sql.NullInt64
			phone, notes        sql.NullString
			startAt, createdAt  string
		)
		if err := rows.Scan(
			&booking.ID,
			&locationID,
			&tableID,
			&booking.PartySize,
			&startAt,
			&booking.DurationMin,
			&booking.Status,
			&booking.CustomerName,
			&phone,
			&notes,
			&createdAt,
		); err != nil {
			return nil, mapper.MapError(err)
		}

		if booking.StartAt, err = parseTime(startAt); err != nil {
			return nil, err
		}
		if booking.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		booking.LocationID = int64Ptr(locationID)
		booking.TableID = int64Ptr(tableID)
		booking.Phone = stringPtr(phone)
		booking.Notes = stringPtr(notes)
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}
