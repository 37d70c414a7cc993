package bookingsvc

import (
	"context"
	"fmt"
	"time"
)

// ConflictDetector decides whether a candidate time range for a trainer
// overlaps an existing active booking.
type ConflictDetector struct {
	bookings BookingRepo
}

func NewConflictDetector(bookings BookingRepo) *ConflictDetector {
	return &ConflictDetector{bookings: bookings}
}

// HasConflict tests half-open interval overlap against the trainer's pending
// and confirmed bookings: [s1,e1) and [s2,e2) conflict iff s1 < e2 && s2 < e1.
// Back-to-back ranges (one's end equals the other's start) do not conflict.
func (d *ConflictDetector) HasConflict(ctx context.Context, trainerID string, start, end time.Time, excludeBookingID string) (bool, error) {
	active, err := d.bookings.ListActiveByTrainer(ctx, trainerID, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("list active bookings for trainer %s: %w", trainerID, err)
	}
	for _, b := range active {
		if b.StartTime.Before(end) && start.Before(b.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
