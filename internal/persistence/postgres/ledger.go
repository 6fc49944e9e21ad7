// Package postgres implements the booking ledger on PostgreSQL for deployments
// that run several API instances against one database.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/migrate"
)

// lockNamespace marks the first key of every per-table advisory lock.
const lockNamespace int32 = 0x52455356

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded ledger migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres: embedded migrations: %v", err))
	}
	return sub
}

// Ledger stores bookings in PostgreSQL and serializes allocations per table
// with transaction-scoped advisory locks.
type Ledger struct {
	pool *pgxpool.Pool
}

var _ persistence.BookingLedger = (*Ledger)(nil)

// Open connects to databaseURL.
func Open(ctx context.Context, databaseURL string) (*Ledger, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ledger url: %w", err)
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect ledger: %w", err)
	}
	return &Ledger{pool: pool}, nil
}

// Close releases the pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

// Ping checks that the database answers within three seconds.
func (l *Ledger) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return l.pool.Ping(ctx)
}

// Migrator returns a migration runner for the ledger schema. The returned close
// function releases the database/sql handle goose works with.
func (l *Ledger) Migrator(logger *slog.Logger) (*migrate.Runner, func() error, error) {
	db := stdlib.OpenDBFromPool(l.pool)
	runner, err := migrate.New(migrate.DialectPostgres, db, Migrations(), logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return runner, db.Close, nil
}

// Migrate applies the ledger schema.
func (l *Ledger) Migrate(ctx context.Context, logger *slog.Logger) error {
	runner, closeDB, err := l.Migrator(logger)
	if err != nil {
		return err
	}
	defer closeDB()
	_, err = runner.Up(ctx)
	return err
}

// LockKey is the two-part advisory lock key of one table. The high half of
// the id is folded into the namespace key, so distinct ids never share a lock.
type LockKey struct {
	TableID int64
	Class   int32
	Object  int32
}

// LockKeys returns the advisory lock keys for tableIDs, deduplicated and in
// ascending id order so that concurrent transactions never wait on each other
// in a cycle.
func LockKeys(tableIDs []int64) []LockKey {
	ids := make([]int64, 0, len(tableIDs))
	seen := make(map[int64]struct{}, len(tableIDs))
	for _, id := range tableIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	keys := make([]LockKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, LockKey{
			TableID: id,
			Class:   lockNamespace ^ int32(uint64(id)>>32),
			Object:  int32(uint32(id)),
		})
	}
	return keys
}

// WithTableLocks opens a transaction, takes an advisory lock per table and runs
// fn. The locks are released when the transaction ends.
func (l *Ledger) WithTableLocks(ctx context.Context, tableIDs []int64, fn func(ctx context.Context, tx persistence.LedgerTx) error) error {
	return pgx.BeginTxFunc(ctx, l.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, key := range LockKeys(tableIDs) {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, key.Class, key.Object); err != nil {
				return fmt.Errorf("lock table %d: %w", key.TableID, err)
			}
		}
		return fn(ctx, &ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) ListConfirmedBookings(ctx context.Context, tableIDs []int64, from, to time.Time) ([]persistence.Booking, error) {
	if len(tableIDs) == 0 {
		return []persistence.Booking{}, nil
	}
	return queryBookings(ctx, t.tx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'confirmed'
		  AND table_id = ANY($1)
		  AND start_at < $2 AND end_at > $3
		ORDER BY start_at, id`, tableIDs, to, from)
}

func (t *ledgerTx) InsertBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || booking.PartySize <= 0 || booking.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO bookings (id, location_id, table_id, party_size, start_at, end_at, duration_min, status, customer_name, phone, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		booking.ID,
		booking.LocationID,
		booking.TableID,
		booking.PartySize,
		booking.StartAt.UTC(),
		booking.EndAt().UTC(),
		booking.DurationMin,
		booking.Status,
		booking.CustomerName,
		booking.Phone,
		booking.Notes,
		booking.CreatedAt.UTC(),
	)
	return mapError(err)
}

// GetBooking retrieves a booking by id.
func (l *Ledger) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	bookings, err := queryBookings(ctx, l.pool, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return persistence.Booking{}, err
	}
	if len(bookings) == 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return bookings[0], nil
}

// ListBookings returns bookings matching filter ordered by start then id.
func (l *Ledger) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.LocationID != nil {
		add("location_id = $%d", *filter.LocationID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.StartsFrom != nil {
		add("start_at >= $%d", filter.StartsFrom.UTC())
	}
	if filter.StartsTo != nil {
		add("start_at < $%d", filter.StartsTo.UTC())
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_at, id`
	return queryBookings(ctx, l.pool, query, args...)
}

// DeleteBookingsBefore removes bookings that start before cutoff.
func (l *Ledger) DeleteBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM bookings WHERE start_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

const bookingColumns = `id, location_id, table_id, party_size, start_at, duration_min, status, customer_name, phone, notes, created_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryBookings(ctx context.Context, q querier, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		var booking persistence.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.LocationID,
			&booking.TableID,
			&booking.PartySize,
			&booking.StartAt,
			&booking.DurationMin,
			&booking.Status,
			&booking.CustomerName,
			&booking.Phone,
			&booking.Notes,
			&booking.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		booking.StartAt = booking.StartAt.UTC()
		booking.CreatedAt = booking.CreatedAt.UTC()
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

// mapError translates pgx errors into persistence errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.Message)
		case "23502", "23503", "23514":
			return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
		}
	}
	return err
}
