package bookingsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitbook/internal/db"
	"fitbook/internal/entities"
	apperrors "fitbook/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	collaboratorTimeout = 10 * time.Second
	retryBackoff        = 500 * time.Millisecond
)

// System-generated cancellation reasons.
const (
	ReasonPaymentFailed  = "payment setup failed"
	ReasonMeetingFailed  = "meeting setup failed"
	ReasonSlotRace       = "slot no longer available"
	ReasonPendingExpired = "pending booking expired"
	ReasonFinalizeFailed = "booking finalization failed"
)

// BookingService is the orchestrator: the only entry point for booking
// lifecycle operations and the sole writer of Booking.status together with
// AvailabilitySlot.is_booked.
type BookingService struct {
	bookings BookingRepo
	slots    SlotRepo
	trainers TrainerRepo
	payments PaymentRepo
	gateway  PaymentGateway
	meetings MeetingScheduler
	notifier NotificationDispatcher
	detector *ConflictDetector
	locks    *trainerLocks
	logger   *zap.Logger
}

func NewBookingService(
	bookings BookingRepo,
	slots SlotRepo,
	trainers TrainerRepo,
	payments PaymentRepo,
	gateway PaymentGateway,
	meetings MeetingScheduler,
	notifier NotificationDispatcher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		slots:    slots,
		trainers: trainers,
		payments: payments,
		gateway:  gateway,
		meetings: meetings,
		notifier: notifier,
		detector: NewConflictDetector(bookings),
		locks:    newTrainerLocks(),
		logger:   logger,
	}
}

// CreateBooking validates the request, runs the conflict check and creates a
// pending booking, then sets up payment, the meeting (for online services)
// and notifies the trainer. Collaborator failures after the booking exists
// roll it back to cancelled and release the slot.
func (s *BookingService) CreateBooking(ctx context.Context, in entities.CreateBookingInput) (*db.Booking, error) {
	if !in.StartTime.Before(in.EndTime) {
		return nil, apperrors.Validation("start_time must be before end_time")
	}
	if !in.StartTime.After(time.Now().UTC()) {
		return nil, apperrors.Validation("start_time must be in the future")
	}

	trainer, err := s.trainers.GetByID(ctx, in.TrainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.IsVerified {
		return nil, apperrors.Validation("trainer %s is not verified", trainer.ID)
	}

	svc, err := s.trainers.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.TrainerID != in.TrainerID {
		return nil, apperrors.Validation("service %s does not belong to trainer %s", svc.ID, in.TrainerID)
	}
	if !svc.IsActive {
		return nil, apperrors.Validation("service %s is not active", svc.ID)
	}

	var slot *db.AvailabilitySlot
	if in.AvailabilityID != "" {
		slot, err = s.slots.GetByID(ctx, in.AvailabilityID)
		if err != nil {
			return nil, err
		}
		if slot.TrainerID != in.TrainerID {
			return nil, apperrors.Validation("slot %s does not belong to trainer %s", slot.ID, in.TrainerID)
		}
		if in.StartTime.Before(slot.StartTime) || in.EndTime.After(slot.EndTime) {
			return nil, apperrors.Validation("booking range is outside the selected slot")
		}
	}

	// The conflict check and the pending insert (plus the slot claim) run
	// under the trainer's lock so concurrent requests for the same trainer
	// serialize instead of double-booking.
	unlock := s.locks.acquire(in.TrainerID)

	conflict, err := s.detector.HasConflict(ctx, in.TrainerID, in.StartTime, in.EndTime, "")
	if err != nil {
		unlock()
		return nil, err
	}
	if conflict {
		unlock()
		return nil, apperrors.SlotUnavailable("trainer %s is already booked in the requested range", in.TrainerID)
	}

	now := time.Now().UTC()
	booking := &db.Booking{
		ID:             uuid.New().String(),
		ClientID:       in.ClientID,
		TrainerID:      in.TrainerID,
		ServiceID:      in.ServiceID,
		AvailabilityID: in.AvailabilityID,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Status:         db.BookingStatusPending,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		unlock()
		if apperrors.KindOf(err) == apperrors.KindSlotUnavailable {
			return nil, err
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if slot != nil {
		if err := s.slots.MarkBooked(ctx, slot.ID, booking.ID); err != nil {
			unlock()
			// Lost the race on the slot itself. We never owned it, so only
			// the half-created booking needs compensating.
			s.rollback(ctx, booking, "", ReasonSlotRace)
			if apperrors.KindOf(err) == apperrors.KindSlotUnavailable {
				return nil, apperrors.SlotUnavailable("slot %s was just taken", slot.ID)
			}
			return nil, fmt.Errorf("mark slot booked: %w", err)
		}
	}
	unlock()

	slotID := ""
	if slot != nil {
		slotID = slot.ID
	}

	providerRef, err := s.createIntentWithRetry(ctx, booking.ID, svc.PriceCents, svc.Currency)
	if err != nil {
		s.rollback(ctx, booking, slotID, ReasonPaymentFailed)
		return nil, apperrors.Dependency(err, "payment setup failed")
	}
	payment := &db.Payment{
		ID:          uuid.New().String(),
		BookingID:   booking.ID,
		AmountCents: svc.PriceCents,
		Currency:    svc.Currency,
		Status:      db.PaymentStatusPending,
		ProviderRef: providerRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.rollback(ctx, booking, slotID, ReasonPaymentFailed)
		return nil, fmt.Errorf("record payment: %w", err)
	}
	booking.PaymentID = payment.ID

	if svc.IsOnline {
		ref, err := s.scheduleWithRetry(ctx, booking.ID, in.StartTime, in.EndTime, svc.Name)
		if err != nil {
			s.rollback(ctx, booking, slotID, ReasonMeetingFailed)
			return nil, apperrors.Dependency(err, "meeting setup failed")
		}
		booking.MeetingRef = ref
	}

	booking.UpdatedAt = time.Now().UTC()
	if err := s.bookings.Update(ctx, booking); err != nil {
		// The booking must not stay pending with unlinked refs.
		s.cancelMeeting(ctx, booking)
		s.rollback(ctx, booking, slotID, ReasonFinalizeFailed)
		return nil, fmt.Errorf("persist booking refs: %w", err)
	}

	s.notify(ctx, booking.TrainerID, NotifyBookingCreated, booking)
	return booking, nil
}

// ConfirmBooking moves a pending booking to confirmed. Only the booking's
// trainer may confirm.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, trainerID string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TrainerID != trainerID {
		return nil, apperrors.NotAuthorized("booking %s does not belong to trainer %s", bookingID, trainerID)
	}
	if err := Transition(b, ActionConfirm, "", time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.notify(ctx, b.ClientID, NotifyBookingConfirmed, b)
	return b, nil
}

// DeclineBooking cancels a pending booking on the trainer's behalf and
// releases the linked slot. An empty reason defaults to "Declined by trainer".
func (s *BookingService) DeclineBooking(ctx context.Context, bookingID, trainerID, reason string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TrainerID != trainerID {
		return nil, apperrors.NotAuthorized("booking %s does not belong to trainer %s", bookingID, trainerID)
	}
	if err := Transition(b, ActionDecline, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.releaseSlot(ctx, b)
	s.cancelMeeting(ctx, b)
	s.notify(ctx, b.ClientID, NotifyBookingDeclined, b)
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking. Either party may
// cancel; a non-empty reason is required. A completed payment is refunded.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, callerID, reason string) (*db.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("cancellation reason is required")
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if callerID != b.ClientID && callerID != b.TrainerID {
		return nil, apperrors.NotAuthorized("caller %s is not a party to booking %s", callerID, bookingID)
	}
	if err := Transition(b, ActionCancel, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.releaseSlot(ctx, b)
	s.cancelMeeting(ctx, b)

	other := b.TrainerID
	if callerID == b.TrainerID {
		other = b.ClientID
	}
	s.notify(ctx, other, NotifyBookingCancelled, b)

	if b.PaymentID != "" {
		p, err := s.payments.GetByBookingID(ctx, b.ID)
		switch {
		case err != nil:
			s.logger.Warn("cancel: payment lookup failed",
				zap.String("booking_id", b.ID), zap.Error(err))
		case p.Status == db.PaymentStatusCompleted:
			if err := s.refundWithRetry(ctx, p.ProviderRef); err != nil {
				// The cancellation itself is committed; surface the refund
				// failure so the caller can retry it.
				return nil, apperrors.Dependency(err, "refund failed for booking %s", b.ID)
			}
			if err := s.payments.UpdateStatus(ctx, p.ID, db.PaymentStatusRefunded); err != nil {
				s.logger.Error("cancel: mark payment refunded",
					zap.String("payment_id", p.ID), zap.Error(err))
			}
		}
	}
	return b, nil
}

// CompleteBooking moves a confirmed booking to completed and asks the client
// for a review.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, trainerID string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.TrainerID != trainerID {
		return nil, apperrors.NotAuthorized("booking %s does not belong to trainer %s", bookingID, trainerID)
	}
	if err := Transition(b, ActionComplete, "", time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.notify(ctx, b.ClientID, NotifyReviewRequest, b)
	return b, nil
}

// SystemComplete is invoked by the scheduled job for confirmed bookings past
// their end time; it runs the same transition without a caller check.
func (s *BookingService) SystemComplete(ctx context.Context, bookingID string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := Transition(b, ActionComplete, "", time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.notify(ctx, b.ClientID, NotifyReviewRequest, b)
	return b, nil
}

// SystemCancel is invoked by the scheduled job to expire stale pending
// bookings with a system-generated reason.
func (s *BookingService) SystemCancel(ctx context.Context, bookingID, reason string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := Transition(b, ActionCancel, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.releaseSlot(ctx, b)
	s.cancelMeeting(ctx, b)
	s.notify(ctx, b.ClientID, NotifyBookingCancelled, b)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID string) (*db.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if callerID != b.ClientID && callerID != b.TrainerID {
		return nil, apperrors.NotAuthorized("caller %s is not a party to booking %s", callerID, bookingID)
	}
	return b, nil
}

func (s *BookingService) ListForClient(ctx context.Context, clientID string) ([]db.Booking, error) {
	return s.bookings.ListByClient(ctx, clientID)
}

func (s *BookingService) ListForTrainer(ctx context.Context, trainerID string) ([]db.Booking, error) {
	return s.bookings.ListByTrainer(ctx, trainerID)
}

// rollback voids a half-created booking and, when slotID is set, releases the
// slot. Failures here are logged: the booking stays visible as cancelled.
func (s *BookingService) rollback(ctx context.Context, b *db.Booking, slotID, reason string) {
	b.Status = db.BookingStatusCancelled
	b.CancellationReason = reason
	b.UpdatedAt = time.Now().UTC()
	if err := s.bookings.Update(ctx, b); err != nil {
		s.logger.Error("rollback: cancel booking",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
	if slotID != "" {
		if err := s.slots.MarkAvailable(ctx, slotID); err != nil {
			s.logger.Error("rollback: release slot",
				zap.String("slot_id", slotID), zap.Error(err))
		}
	}
}

func (s *BookingService) releaseSlot(ctx context.Context, b *db.Booking) {
	if b.AvailabilityID == "" {
		return
	}
	if err := s.slots.MarkAvailable(ctx, b.AvailabilityID); err != nil {
		s.logger.Error("release slot",
			zap.String("slot_id", b.AvailabilityID),
			zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) cancelMeeting(ctx context.Context, b *db.Booking) {
	if b.MeetingRef == "" {
		return
	}
	if err := s.meetings.Cancel(ctx, b.MeetingRef); err != nil {
		s.logger.Warn("cancel meeting",
			zap.String("meeting_ref", b.MeetingRef), zap.Error(err))
	}
}

func (s *BookingService) notify(ctx context.Context, userID, kind string, b *db.Booking) {
	payload := map[string]string{
		"booking_id": b.ID,
		"status":     b.Status,
		"start_time": b.StartTime.Format(time.RFC3339),
		"end_time":   b.EndTime.Format(time.RFC3339),
	}
	if b.CancellationReason != "" {
		payload["reason"] = b.CancellationReason
	}
	if err := s.notifier.Notify(ctx, userID, kind, payload); err != nil {
		s.logger.Warn("notification failed",
			zap.String("kind", kind), zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *BookingService) createIntentWithRetry(ctx context.Context, bookingID string, amountCents int64, currency string) (string, error) {
	var ref string
	err := s.callWithRetry(ctx, "payment.create_intent", func(cctx context.Context) error {
		var err error
		ref, err = s.gateway.CreateIntent(cctx, bookingID, amountCents, currency)
		return err
	})
	return ref, err
}

func (s *BookingService) scheduleWithRetry(ctx context.Context, bookingID string, start, end time.Time, topic string) (string, error) {
	var ref string
	err := s.callWithRetry(ctx, "meeting.schedule", func(cctx context.Context) error {
		var err error
		ref, err = s.meetings.Schedule(cctx, bookingID, start, end, topic)
		return err
	})
	return ref, err
}

func (s *BookingService) refundWithRetry(ctx context.Context, providerRef string) error {
	return s.callWithRetry(ctx, "payment.refund", func(cctx context.Context) error {
		return s.gateway.Refund(cctx, providerRef)
	})
}

// callWithRetry runs fn under a bounded timeout. A timeout counts as failure,
// never as ambiguous success; it is retried once after a short backoff.
func (s *BookingService) callWithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.attempt(ctx, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("collaborator call timed out, retrying", zap.String("op", op))
		time.Sleep(retryBackoff)
		return s.attempt(ctx, fn)
	}
	return err
}

func (s *BookingService) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return fn(cctx)
}
