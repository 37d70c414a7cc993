package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `id, client_id, trainer_id, service_id, availability_id, start_time, end_time,
	status, cancellation_reason, notes, payment_id, meeting_ref, created_at, updated_at`

// Create inserts the booking only if no active booking overlaps the range for
// the same trainer. The guard holds across processes; the in-process trainer
// lock in the orchestrator covers the check-then-insert window.
func (r *BookingRepository) Create(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(id, client_id, trainer_id, service_id, availability_id, start_time, end_time,
		 status, cancellation_reason, notes, payment_id, meeting_ref, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE trainer_id = $3
			  AND status IN ('pending', 'confirmed')
			  AND start_time < $7
			  AND end_time > $6
		)`
	res, err := r.DB.ExecContext(ctx, query,
		b.ID, b.ClientID, b.TrainerID, b.ServiceID, b.AvailabilityID,
		b.StartTime, b.EndTime, b.Status, b.CancellationReason, b.Notes,
		b.PaymentID, b.MeetingRef, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert booking rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.SlotUnavailable("trainer %s is already booked in the requested range", b.TrainerID)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("booking %s not found", id)
		}
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) ListActiveByTrainer(ctx context.Context, trainerID, excludeBookingID string) ([]db.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trainer_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND ($2 = '' OR id <> $2)
		ORDER BY start_time ASC`
	return r.listBookings(ctx, query, trainerID, excludeBookingID)
}

func (r *BookingRepository) Update(ctx context.Context, b *db.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2,
			cancellation_reason = $3,
			payment_id = $4,
			meeting_ref = $5,
			updated_at = $6
		WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		b.ID, b.Status, b.CancellationReason, b.PaymentID, b.MeetingRef, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.NotFound("booking %s not found", b.ID)
	}
	return nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE client_id = $1 ORDER BY start_time DESC`
	return r.listBookings(ctx, query, clientID)
}

func (r *BookingRepository) ListByTrainer(ctx context.Context, trainerID string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE trainer_id = $1 ORDER BY start_time DESC`
	return r.listBookings(ctx, query, trainerID)
}

func (r *BookingRepository) listBookings(ctx context.Context, query string, args ...any) ([]db.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.ClientID, &b.TrainerID, &b.ServiceID, &b.AvailabilityID,
		&b.StartTime, &b.EndTime, &b.Status, &b.CancellationReason, &b.Notes,
		&b.PaymentID, &b.MeetingRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
