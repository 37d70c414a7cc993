package db

import "time"

// Booking statuses. Cancelled and completed are terminal.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Payment statuses mirror the gateway-side lifecycle.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

type Trainer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
}

type Client struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// TrainerService is a bookable offering owned by a trainer.
type TrainerService struct {
	ID              string
	TrainerID       string
	Name            string
	DurationMinutes int
	PriceCents      int64
	Currency        string
	IsOnline        bool
	IsActive        bool
}

// AvailabilitySlot is a trainer-declared bookable time range.
// IsBooked is true iff BookingID references a booking that is still active.
type AvailabilitySlot struct {
	ID        string
	TrainerID string
	StartTime time.Time
	EndTime   time.Time
	IsBooked  bool
	BookingID string
}

type Booking struct {
	ID                 string
	ClientID           string
	TrainerID          string
	ServiceID          string
	AvailabilityID     string // empty for ad-hoc ranges
	StartTime          time.Time
	EndTime            time.Time
	Status             string
	CancellationReason string
	Notes              string
	PaymentID          string
	MeetingRef         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Payment struct {
	ID          string
	BookingID   string
	AmountCents int64
	Currency    string
	Status      string
	ProviderRef string // Stripe payment-intent id
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
}
