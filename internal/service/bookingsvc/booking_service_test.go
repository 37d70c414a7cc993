package bookingsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitbook/internal/db"
	"fitbook/internal/entities"
	apperrors "fitbook/internal/errors"
)

const (
	testTrainerID = "trainer-1"
	testClientID  = "client-1"
	testServiceID = "service-1"
	testSlotID    = "slot-1"
)

type fixture struct {
	svc      *BookingService
	bookings *memBookingRepo
	slots    *memSlotRepo
	trainers *memTrainerRepo
	payments *memPaymentRepo
	gateway  *fakeGateway
	meetings *fakeMeetings
	notifier *fakeNotifier
	base     time.Time
}

// newFixture seeds a verified trainer with an active offline service and one
// free two-hour slot starting two days out.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings: newMemBookingRepo(),
		slots:    newMemSlotRepo(),
		trainers: newMemTrainerRepo(),
		payments: newMemPaymentRepo(),
		gateway:  &fakeGateway{},
		meetings: &fakeMeetings{},
		notifier: &fakeNotifier{},
		base:     time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour),
	}
	f.trainers.trainers[testTrainerID] = db.Trainer{
		ID: testTrainerID, Name: "Alex", Email: "alex@example.com", IsVerified: true,
	}
	f.trainers.services[testServiceID] = db.TrainerService{
		ID: testServiceID, TrainerID: testTrainerID, Name: "Personal training",
		DurationMinutes: 60, PriceCents: 5000, Currency: "eur", IsActive: true,
	}
	f.slots.slots[testSlotID] = db.AvailabilitySlot{
		ID: testSlotID, TrainerID: testTrainerID,
		StartTime: f.base, EndTime: f.base.Add(2 * time.Hour),
	}
	f.svc = NewBookingService(
		f.bookings, f.slots, f.trainers, f.payments,
		f.gateway, f.meetings, f.notifier, zap.NewNop())
	return f
}

func (f *fixture) input() entities.CreateBookingInput {
	return entities.CreateBookingInput{
		ClientID:       testClientID,
		TrainerID:      testTrainerID,
		ServiceID:      testServiceID,
		AvailabilityID: testSlotID,
		StartTime:      f.base,
		EndTime:        f.base.Add(time.Hour),
	}
}

func (f *fixture) mustCreate(t *testing.T) *db.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), f.input())
	require.NoError(t, err)
	return b
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.input())
	require.NoError(t, err)

	assert.Equal(t, db.BookingStatusPending, b.Status)
	assert.NotEmpty(t, b.ID)
	assert.NotEmpty(t, b.PaymentID)
	assert.Empty(t, b.MeetingRef, "offline service must not schedule a meeting")

	slot := f.slots.get(testSlotID)
	assert.True(t, slot.IsBooked)
	assert.Equal(t, b.ID, slot.BookingID)

	p, err := f.payments.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, db.PaymentStatusPending, p.Status)
	assert.Equal(t, int64(5000), p.AmountCents)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, testTrainerID, f.notifier.sent[0].UserID)
	assert.Equal(t, NotifyBookingCreated, f.notifier.sent[0].Kind)
}

func TestBookingService_CreateBooking_OnlineServiceGetsMeeting(t *testing.T) {
	f := newFixture(t)
	svc := f.trainers.services[testServiceID]
	svc.IsOnline = true
	f.trainers.services[testServiceID] = svc

	b := f.mustCreate(t)
	assert.Equal(t, "meet_"+b.ID, b.MeetingRef)
	assert.Equal(t, 1, f.meetings.scheduleCalls)
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*entities.CreateBookingInput)
	}{
		{"start equals end", func(in *entities.CreateBookingInput) {
			in.EndTime = in.StartTime
		}},
		{"start after end", func(in *entities.CreateBookingInput) {
			in.StartTime, in.EndTime = in.EndTime, in.StartTime
		}},
		{"start in the past", func(in *entities.CreateBookingInput) {
			in.StartTime = time.Now().UTC().Add(-time.Hour)
			in.EndTime = time.Now().UTC()
		}},
		{"range outside slot", func(in *entities.CreateBookingInput) {
			in.EndTime = f.base.Add(3 * time.Hour)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input()
			tc.mutate(&in)
			_, err := f.svc.CreateBooking(ctx, in)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestBookingService_CreateBooking_UnverifiedTrainer(t *testing.T) {
	f := newFixture(t)
	tr := f.trainers.trainers[testTrainerID]
	tr.IsVerified = false
	f.trainers.trainers[testTrainerID] = tr

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestBookingService_CreateBooking_ServiceOwnership(t *testing.T) {
	f := newFixture(t)
	f.trainers.services["other-svc"] = db.TrainerService{
		ID: "other-svc", TrainerID: "trainer-2", IsActive: true,
	}
	in := f.input()
	in.ServiceID = "other-svc"

	_, err := f.svc.CreateBooking(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestBookingService_CreateBooking_InactiveService(t *testing.T) {
	f := newFixture(t)
	svc := f.trainers.services[testServiceID]
	svc.IsActive = false
	f.trainers.services[testServiceID] = svc

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestBookingService_CreateBooking_ConflictRejected(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t)

	// Overlapping ad-hoc request for the same trainer.
	in := f.input()
	in.AvailabilityID = ""
	in.StartTime = f.base.Add(30 * time.Minute)
	in.EndTime = f.base.Add(90 * time.Minute)

	_, err := f.svc.CreateBooking(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindSlotUnavailable, apperrors.KindOf(err))
}

func TestBookingService_CreateBooking_BackToBackAllowed(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t)

	// [base+1h, base+2h) touches [base, base+1h) at the boundary only.
	in := f.input()
	in.AvailabilityID = ""
	in.StartTime = f.base.Add(time.Hour)
	in.EndTime = f.base.Add(2 * time.Hour)

	_, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
}

func TestBookingService_CreateBooking_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	const attempts = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := f.input()
			in.AvailabilityID = ""
			_, err := f.svc.CreateBooking(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.KindOf(err) == apperrors.KindSlotUnavailable:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one request may win the range")
	assert.Equal(t, attempts-1, conflicts)
}

func TestBookingService_CreateBooking_SlotRace(t *testing.T) {
	f := newFixture(t)
	slot := f.slots.slots[testSlotID]
	slot.IsBooked = true
	slot.BookingID = "someone-else"
	f.slots.slots[testSlotID] = slot

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindSlotUnavailable, apperrors.KindOf(err))

	// The half-created booking is compensated, the foreign claim untouched.
	for _, b := range f.bookings.bookings {
		assert.Equal(t, db.BookingStatusCancelled, b.Status)
		assert.Equal(t, ReasonSlotRace, b.CancellationReason)
	}
	assert.Equal(t, "someone-else", f.slots.get(testSlotID).BookingID)
}

func TestBookingService_CreateBooking_PaymentFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.intentErr = func(int) error { return assert.AnError }

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))

	assert.False(t, f.slots.get(testSlotID).IsBooked, "slot must be released")
	for _, b := range f.bookings.bookings {
		assert.Equal(t, db.BookingStatusCancelled, b.Status)
		assert.Equal(t, ReasonPaymentFailed, b.CancellationReason)
	}
}

func TestBookingService_CreateBooking_MeetingFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	svc := f.trainers.services[testServiceID]
	svc.IsOnline = true
	f.trainers.services[testServiceID] = svc
	f.meetings.scheduleErr = func(int) error { return assert.AnError }

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))

	assert.False(t, f.slots.get(testSlotID).IsBooked)
	for _, b := range f.bookings.bookings {
		assert.Equal(t, db.BookingStatusCancelled, b.Status)
		assert.Equal(t, ReasonMeetingFailed, b.CancellationReason)
	}
}

func TestBookingService_CreateBooking_TimeoutRetriedOnce(t *testing.T) {
	f := newFixture(t)
	f.gateway.intentErr = func(call int) error {
		if call == 1 {
			return context.DeadlineExceeded
		}
		return nil
	}

	b, err := f.svc.CreateBooking(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusPending, b.Status)
	assert.Equal(t, 2, f.gateway.intentCalls)
}

func TestBookingService_CreateBooking_NonTimeoutNotRetried(t *testing.T) {
	f := newFixture(t)
	f.gateway.intentErr = func(int) error { return assert.AnError }

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)
	assert.Equal(t, 1, f.gateway.intentCalls, "only timeouts are retried")
}

func TestBookingService_CreateBooking_FinalizeFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	// Fail only the update that links the payment to a still-pending booking;
	// the compensating cancel update must go through.
	f.bookings.updateHook = func(b *db.Booking) error {
		if b.Status == db.BookingStatusPending && b.PaymentID != "" {
			return assert.AnError
		}
		return nil
	}

	_, err := f.svc.CreateBooking(context.Background(), f.input())
	require.Error(t, err)

	assert.False(t, f.slots.get(testSlotID).IsBooked, "slot must be released")
	for _, b := range f.bookings.bookings {
		assert.Equal(t, db.BookingStatusCancelled, b.Status)
		assert.Equal(t, ReasonFinalizeFailed, b.CancellationReason)
	}
}

func TestBookingService_CreateBooking_NotificationFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = assert.AnError

	b, err := f.svc.CreateBooking(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusPending, b.Status)
}

func TestBookingService_ConfirmBooking(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	got, err := f.svc.ConfirmBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusConfirmed, got.Status)
	assert.Contains(t, f.notifier.kinds(), NotifyBookingConfirmed)
}

func TestBookingService_ConfirmBooking_WrongTrainer(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.ConfirmBooking(context.Background(), b.ID, "trainer-2")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotAuthorized, apperrors.KindOf(err))

	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, db.BookingStatusPending, stored.Status)
}

func TestBookingService_ConfirmBooking_AlreadyConfirmed(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	_, err := f.svc.ConfirmBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmBooking(context.Background(), b.ID, testTrainerID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidStateTransition, apperrors.KindOf(err))
}

func TestBookingService_DeclineBooking_DefaultReason(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	got, err := f.svc.DeclineBooking(context.Background(), b.ID, testTrainerID, "")
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCancelled, got.Status)
	assert.Equal(t, DeclineDefaultReason, got.CancellationReason)
	assert.False(t, f.slots.get(testSlotID).IsBooked, "declining releases the slot")
	assert.Contains(t, f.notifier.kinds(), NotifyBookingDeclined)
}

func TestBookingService_DeclineBooking_CustomReason(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	got, err := f.svc.DeclineBooking(context.Background(), b.ID, testTrainerID, "fully booked that week")
	require.NoError(t, err)
	assert.Equal(t, "fully booked that week", got.CancellationReason)
}

func TestBookingService_CancelBooking_RequiresReason(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, testClientID, "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, db.BookingStatusPending, stored.Status)
}

func TestBookingService_CancelBooking_NotAParty(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, "stranger", "cannot make it")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotAuthorized, apperrors.KindOf(err))
}

func TestBookingService_CancelBooking_ReleasesSlot(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	got, err := f.svc.CancelBooking(context.Background(), b.ID, testClientID, "schedule changed")
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCancelled, got.Status)
	assert.Equal(t, "schedule changed", got.CancellationReason)
	assert.False(t, f.slots.get(testSlotID).IsBooked)
}

func TestBookingService_CancelBooking_RefundsCompletedPayment(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	p, err := f.payments.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NoError(t, f.payments.UpdateStatus(context.Background(), p.ID, db.PaymentStatusCompleted))

	_, err = f.svc.CancelBooking(context.Background(), b.ID, testTrainerID, "injury")
	require.NoError(t, err)

	assert.Equal(t, []string{p.ProviderRef}, f.gateway.refunded)
	p2, _ := f.payments.GetByBookingID(context.Background(), b.ID)
	assert.Equal(t, db.PaymentStatusRefunded, p2.Status)
}

func TestBookingService_CancelBooking_PendingPaymentNotRefunded(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, testClientID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, 0, f.gateway.refundCalls)
}

func TestBookingService_CancelBooking_RefundFailureKeepsCancellation(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	p, err := f.payments.GetByBookingID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NoError(t, f.payments.UpdateStatus(context.Background(), p.ID, db.PaymentStatusCompleted))
	f.gateway.refundErr = func(int) error { return assert.AnError }

	_, err = f.svc.CancelBooking(context.Background(), b.ID, testClientID, "emergency")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))

	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, db.BookingStatusCancelled, stored.Status, "cancellation is already committed")
}

func TestBookingService_CompleteBooking(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	_, err := f.svc.ConfirmBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)

	got, err := f.svc.CompleteBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCompleted, got.Status)
	assert.Contains(t, f.notifier.kinds(), NotifyReviewRequest)
}

func TestBookingService_CompleteBooking_PendingRejected(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.CompleteBooking(context.Background(), b.ID, testTrainerID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidStateTransition, apperrors.KindOf(err))

	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, db.BookingStatusPending, stored.Status)
}

func TestBookingService_SystemCancel_ExpiresPending(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	got, err := f.svc.SystemCancel(context.Background(), b.ID, ReasonPendingExpired)
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCancelled, got.Status)
	assert.Equal(t, ReasonPendingExpired, got.CancellationReason)
	assert.False(t, f.slots.get(testSlotID).IsBooked)
}

func TestBookingService_SystemComplete(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	_, err := f.svc.ConfirmBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)

	got, err := f.svc.SystemComplete(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCompleted, got.Status)
}

func TestBookingService_GetBooking_PartyOnly(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)

	_, err := f.svc.GetBooking(context.Background(), b.ID, testClientID)
	require.NoError(t, err)
	_, err = f.svc.GetBooking(context.Background(), b.ID, testTrainerID)
	require.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), b.ID, "stranger")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotAuthorized, apperrors.KindOf(err))
}

// A slot's claim must always point at a live booking: after any cancellation
// path the slot is free again and reusable.
func TestBookingService_SlotReconciliation(t *testing.T) {
	f := newFixture(t)
	b := f.mustCreate(t)
	_, err := f.svc.CancelBooking(context.Background(), b.ID, testClientID, "first attempt off")
	require.NoError(t, err)

	slot := f.slots.get(testSlotID)
	require.False(t, slot.IsBooked)
	require.Empty(t, slot.BookingID)

	b2, err := f.svc.CreateBooking(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, b2.ID, f.slots.get(testSlotID).BookingID)
}
