package entities

import "time"

type SlotResponse struct {
	ID        string    `json:"id"`
	TrainerID string    `json:"trainer_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
	BookingID string    `json:"booking_id,omitempty"`
}

type CreateSlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// DayWindow is one recurring working window used by bulk slot generation,
// e.g. weekday=1 (Monday), 09:00-17:00 expressed in minutes from midnight.
type DayWindow struct {
	Weekday      time.Weekday `json:"weekday"`
	StartMinutes int          `json:"start_minutes"`
	EndMinutes   int          `json:"end_minutes"`
}

// GenerateSlotsRequest creates consecutive fixed-length slots inside each
// matching day window between FromDate and ToDate (inclusive).
type GenerateSlotsRequest struct {
	FromDate    time.Time   `json:"from_date"`
	ToDate      time.Time   `json:"to_date"`
	SlotMinutes int         `json:"slot_minutes"`
	Windows     []DayWindow `json:"windows"`
}
