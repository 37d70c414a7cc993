package bookingsvc

import (
	"context"
	"time"

	"fitbook/internal/db"
)

// Notification kinds dispatched on booking lifecycle events.
const (
	NotifyBookingCreated   = "booking_created"
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingDeclined  = "booking_declined"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyReviewRequest    = "review_request"
)

type BookingRepo interface {
	Create(ctx context.Context, b *db.Booking) error
	GetByID(ctx context.Context, id string) (*db.Booking, error)
	// ListActiveByTrainer returns bookings with status pending or confirmed,
	// excluding excludeBookingID when non-empty.
	ListActiveByTrainer(ctx context.Context, trainerID, excludeBookingID string) ([]db.Booking, error)
	// Update persists the mutable columns: status, cancellation reason,
	// payment id, meeting ref, updated_at.
	Update(ctx context.Context, b *db.Booking) error
	ListByClient(ctx context.Context, clientID string) ([]db.Booking, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]db.Booking, error)
}

type SlotRepo interface {
	ListSlots(ctx context.Context, trainerID string, from, to time.Time) ([]db.AvailabilitySlot, error)
	GetByID(ctx context.Context, id string) (*db.AvailabilitySlot, error)
	Create(ctx context.Context, s *db.AvailabilitySlot) error
	HasOverlap(ctx context.Context, trainerID string, start, end time.Time) (bool, error)
	// MarkBooked is a conditional update: it fails with a slot-unavailable
	// error when the slot is already booked, not-found when it is absent.
	MarkBooked(ctx context.Context, slotID, bookingID string) error
	// MarkAvailable is idempotent; clearing a free slot is a no-op.
	MarkAvailable(ctx context.Context, slotID string) error
}

type TrainerRepo interface {
	GetByID(ctx context.Context, id string) (*db.Trainer, error)
	GetService(ctx context.Context, serviceID string) (*db.TrainerService, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *db.Payment) error
	GetByBookingID(ctx context.Context, bookingID string) (*db.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PaymentGateway is the external payment collaborator (Stripe in production).
type PaymentGateway interface {
	CreateIntent(ctx context.Context, bookingID string, amountCents int64, currency string) (string, error)
	Refund(ctx context.Context, providerRef string) error
}

// MeetingScheduler books an online meeting for a session. Cancel is
// best-effort; its failures are logged, never propagated.
type MeetingScheduler interface {
	Schedule(ctx context.Context, bookingID string, start, end time.Time, topic string) (string, error)
	Cancel(ctx context.Context, meetingRef string) error
}

// NotificationDispatcher delivers a lifecycle notification to a user.
// Failures must never block or reverse a booking transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID, kind string, payload map[string]string) error
}
