package entities

import "time"

// CreateBookingInput is the service-level input for a new booking. ClientID comes
// from the authenticated caller, never from the request body.
type CreateBookingInput struct {
	ClientID       string    `json:"-"`
	TrainerID      string    `json:"trainer_id"`
	ServiceID      string    `json:"service_id"`
	AvailabilityID string    `json:"availability_id,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Notes          string    `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID                 string    `json:"id"`
	ClientID           string    `json:"client_id"`
	TrainerID          string    `json:"trainer_id"`
	ServiceID          string    `json:"service_id"`
	AvailabilityID     string    `json:"availability_id,omitempty"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	Status             string    `json:"status"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	PaymentID          string    `json:"payment_id,omitempty"`
	MeetingRef         string    `json:"meeting_ref,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type BookingsList struct {
	Total    int               `json:"total"`
	Bookings []BookingResponse `json:"bookings"`
}
