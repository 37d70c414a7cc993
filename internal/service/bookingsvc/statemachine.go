package bookingsvc

import (
	"time"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionDecline  Action = "decline"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// DeclineDefaultReason is used when a trainer declines without giving one.
const DeclineDefaultReason = "Declined by trainer"

// transitions holds the legal edges of the booking lifecycle. Completed and
// cancelled are terminal: they have no outgoing edges.
var transitions = map[string]map[Action]string{
	db.BookingStatusPending: {
		ActionConfirm: db.BookingStatusConfirmed,
		ActionDecline: db.BookingStatusCancelled,
		ActionCancel:  db.BookingStatusCancelled,
	},
	db.BookingStatusConfirmed: {
		ActionCancel:   db.BookingStatusCancelled,
		ActionComplete: db.BookingStatusCompleted,
	},
}

// Transition applies act to b, mutating status, cancellation reason and
// updated_at. Illegal (status, action) pairs fail without mutating b.
func Transition(b *db.Booking, act Action, reason string, now time.Time) error {
	next, ok := transitions[b.Status][act]
	if !ok {
		return apperrors.InvalidTransition(b.Status, string(act))
	}
	if next == db.BookingStatusCancelled {
		if reason == "" && act == ActionDecline {
			reason = DeclineDefaultReason
		}
		if reason == "" {
			return apperrors.Validation("cancellation reason is required")
		}
		b.CancellationReason = reason
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}
