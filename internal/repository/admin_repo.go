package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"fitbook/internal/db"

	"github.com/lib/pq"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(database *sql.DB) *AdminRepository {
	return &AdminRepository{DB: database}
}

// ListBookings returns bookings filtered by day, trainer and statuses; empty
// filters are skipped.
func (r *AdminRepository) ListBookings(ctx context.Context, date, trainerID string, statuses []string) ([]db.Booking, error) {
	query := `
	SELECT id, client_id, trainer_id, service_id, availability_id, start_time, end_time,
		status, cancellation_reason, notes, payment_id, meeting_ref, created_at, updated_at
	FROM bookings
	WHERE 1=1`
	args := []any{}
	idx := 1

	if date != "" {
		query += " AND DATE(start_time) = $" + strconv.Itoa(idx)
		args = append(args, date)
		idx++
	}
	if trainerID != "" {
		query += " AND trainer_id = $" + strconv.Itoa(idx)
		args = append(args, trainerID)
		idx++
	}
	if len(statuses) > 0 {
		query += " AND status = ANY($" + strconv.Itoa(idx) + ")"
		args = append(args, pq.Array(statuses))
		idx++
	}
	query += " ORDER BY start_time DESC"

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
	return bookings, rows.Err()
}

// ListUnverifiedTrainers returns trainers awaiting verification.
func (r *AdminRepository) ListUnverifiedTrainers(ctx context.Context) ([]db.Trainer, error) {
	query := `
		SELECT id, name, email, phone, password_hash, is_verified, created_at
		FROM trainers WHERE is_verified = FALSE ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trainers: %w", err)
	}
	defer rows.Close()

	var trainers []db.Trainer
	for rows.Next() {
		var t db.Trainer
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.PasswordHash, &t.IsVerified, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trainer: %w", err)
		}
		trainers = append(trainers, t)
	}
	return trainers, rows.Err()
}
