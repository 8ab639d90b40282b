package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/chairlift/bookings-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Excludes confusing characters like O, 0, I, 1.
const confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const confirmationCodeLen = 6

const bookingColumns = `id, confirmation_code, customer_id, flight_id, passengers, base_fare, taxes, total, payment_transaction_id, payment_status, status, created_at, updated_at`

type CreateBookingParams struct {
	CustomerID string
	FlightID   string
	Passengers []domain.Passenger
	Pricing    domain.Pricing
	Payment    domain.Payment
}

type BookingRepository interface {
	Create(ctx context.Context, params CreateBookingParams) (*domain.Booking, error)
	GetByID(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]domain.Booking, error)
	GetByFlightID(ctx context.Context, flightID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, from, to domain.BookingStatus) (*domain.Booking, error)
	Delete(ctx context.Context, bookingID string) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create writes a new CONFIRMED booking. The confirmation code is drawn at
// random; a unique index on confirmation_code guards against collisions and the
// insert is retried with a fresh code on a duplicate.
func (r *PGBookingRepository) Create(ctx context.Context, params CreateBookingParams) (*domain.Booking, error) {
	bookingID := uuid.NewString()

	for attempt := 0; attempt < 3; attempt++ {
		code := newConfirmationCode()
		row := r.db.QueryRow(ctx, `INSERT INTO bookings (id, confirmation_code, customer_id, flight_id, passengers, base_fare, taxes, total, payment_transaction_id, payment_status, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+bookingColumns,
			bookingID, code, params.CustomerID, params.FlightID, params.Passengers,
			params.Pricing.BaseFare, params.Pricing.Taxes, params.Pricing.Total,
			params.Payment.TransactionID, params.Payment.Status, domain.BookingStatusConfirmed)

		b, err := scanBooking(row)
		if err == nil {
			return b, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return nil, errors.New("create booking: confirmation code collision retries exhausted")
}

func (r *PGBookingRepository) GetByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, bookingID)
	return scanNullableBooking(row)
}

func (r *PGBookingRepository) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE confirmation_code=$1`, code)
	return scanNullableBooking(row)
}

func (r *PGBookingRepository) GetByCustomerID(ctx context.Context, customerID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) GetByFlightID(ctx context.Context, flightID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1`, flightID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// UpdateStatus transitions a booking from an expected status to a new one in a
// single conditional write. It returns domain.ErrNotFound when no row matched,
// which covers both a vanished booking and a booking whose status has already
// moved on; callers disambiguate by re-reading.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, bookingID string, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, to, bookingID, from)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return b, nil
}

// Delete removes a booking outright. Only used to roll back a create whose seat
// reservation failed.
func (r *PGBookingRepository) Delete(ctx context.Context, bookingID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, bookingID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func newConfirmationCode() string {
	code := make([]byte, confirmationCodeLen)
	for i := range code {
		code[i] = confirmationAlphabet[rand.Intn(len(confirmationAlphabet))]
	}
	return string(code)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ConfirmationCode, &b.CustomerID, &b.FlightID, &b.Passengers,
		&b.Pricing.BaseFare, &b.Pricing.Taxes, &b.Pricing.Total,
		&b.Payment.TransactionID, &b.Payment.Status, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanNullableBooking(row pgx.Row) (*domain.Booking, error) {
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
