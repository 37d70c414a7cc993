package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type AvailabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(database *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{DB: database}
}

func (r *AvailabilityRepository) ListSlots(ctx context.Context, trainerID string, from, to time.Time) ([]db.AvailabilitySlot, error) {
	query := `
		SELECT id, trainer_id, start_time, end_time, is_booked, booking_id
		FROM availability_slots
		WHERE trainer_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC`
	rows, err := r.DB.QueryContext(ctx, query, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []db.AvailabilitySlot
	for rows.Next() {
		var s db.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.TrainerID, &s.StartTime, &s.EndTime, &s.IsBooked, &s.BookingID); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*db.AvailabilitySlot, error) {
	var s db.AvailabilitySlot
	query := `
		SELECT id, trainer_id, start_time, end_time, is_booked, booking_id
		FROM availability_slots WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.TrainerID, &s.StartTime, &s.EndTime, &s.IsBooked, &s.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("slot %s not found", id)
		}
		return nil, fmt.Errorf("query slot: %w", err)
	}
	return &s, nil
}

func (r *AvailabilityRepository) Create(ctx context.Context, s *db.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (id, trainer_id, start_time, end_time, is_booked, booking_id)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, s.ID, s.TrainerID, s.StartTime, s.EndTime, s.IsBooked, s.BookingID)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *AvailabilityRepository) HasOverlap(ctx context.Context, trainerID string, start, end time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability_slots
			WHERE trainer_id = $1 AND start_time < $3 AND end_time > $2
		)`
	if err := r.DB.QueryRowContext(ctx, query, trainerID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}
	return exists, nil
}

// MarkBooked claims the slot with a conditional update so that only one of
// two racing bookings can win.
func (r *AvailabilityRepository) MarkBooked(ctx context.Context, slotID, bookingID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE availability_slots SET is_booked = TRUE, booking_id = $2 WHERE id = $1 AND is_booked = FALSE`,
		slotID, bookingID)
	if err != nil {
		return fmt.Errorf("mark slot booked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark slot booked rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM availability_slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return fmt.Errorf("check slot exists: %w", err)
		}
		if !exists {
			return apperrors.NotFound("slot %s not found", slotID)
		}
		return apperrors.SlotUnavailable("slot %s is already booked", slotID)
	}
	return nil
}

// MarkAvailable is idempotent: clearing an already-free slot is a no-op.
func (r *AvailabilityRepository) MarkAvailable(ctx context.Context, slotID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE availability_slots SET is_booked = FALSE, booking_id = '' WHERE id = $1`,
		slotID)
	if err != nil {
		return fmt.Errorf("mark slot available: %w", err)
	}
	return nil
}
