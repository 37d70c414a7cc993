package bookingsvc

import (
	"context"
	"sync"
	"time"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

// In-memory fakes for the orchestrator's ports. They hold their own locks so
// the concurrency tests exercise the service's serialization, not the fakes'.

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]db.Booking
	// updateHook, when set, runs before each Update and can inject a failure.
	updateHook func(b *db.Booking) error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]db.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, b *db.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking %s not found", id)
	}
	return &b, nil
}

func (r *memBookingRepo) ListActiveByTrainer(ctx context.Context, trainerID, excludeBookingID string) ([]db.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db.Booking
	for _, b := range r.bookings {
		if b.TrainerID != trainerID || b.ID == excludeBookingID {
			continue
		}
		if b.Status == db.BookingStatusPending || b.Status == db.BookingStatusConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Update(ctx context.Context, b *db.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateHook != nil {
		if err := r.updateHook(b); err != nil {
			return err
		}
	}
	if _, ok := r.bookings[b.ID]; !ok {
		return apperrors.NotFound("booking %s not found", b.ID)
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) ListByClient(ctx context.Context, clientID string) ([]db.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db.Booking
	for _, b := range r.bookings {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByTrainer(ctx context.Context, trainerID string) ([]db.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db.Booking
	for _, b := range r.bookings {
		if b.TrainerID == trainerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type memSlotRepo struct {
	mu    sync.Mutex
	slots map[string]db.AvailabilitySlot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[string]db.AvailabilitySlot)}
}

func (r *memSlotRepo) ListSlots(ctx context.Context, trainerID string, from, to time.Time) ([]db.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db.AvailabilitySlot
	for _, s := range r.slots {
		if s.TrainerID == trainerID && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSlotRepo) GetByID(ctx context.Context, id string) (*db.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, apperrors.NotFound("slot %s not found", id)
	}
	return &s, nil
}

func (r *memSlotRepo) Create(ctx context.Context, s *db.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[s.ID] = *s
	return nil
}

func (r *memSlotRepo) HasOverlap(ctx context.Context, trainerID string, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.TrainerID == trainerID && s.StartTime.Before(end) && start.Before(s.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSlotRepo) MarkBooked(ctx context.Context, slotID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return apperrors.NotFound("slot %s not found", slotID)
	}
	if s.IsBooked {
		return apperrors.SlotUnavailable("slot %s is already booked", slotID)
	}
	s.IsBooked = true
	s.BookingID = bookingID
	r.slots[slotID] = s
	return nil
}

func (r *memSlotRepo) MarkAvailable(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return apperrors.NotFound("slot %s not found", slotID)
	}
	s.IsBooked = false
	s.BookingID = ""
	r.slots[slotID] = s
	return nil
}

func (r *memSlotRepo) get(id string) db.AvailabilitySlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[id]
}

type memTrainerRepo struct {
	trainers map[string]db.Trainer
	services map[string]db.TrainerService
}

func newMemTrainerRepo() *memTrainerRepo {
	return &memTrainerRepo{
		trainers: make(map[string]db.Trainer),
		services: make(map[string]db.TrainerService),
	}
}

func (r *memTrainerRepo) GetByID(ctx context.Context, id string) (*db.Trainer, error) {
	t, ok := r.trainers[id]
	if !ok {
		return nil, apperrors.NotFound("trainer %s not found", id)
	}
	return &t, nil
}

func (r *memTrainerRepo) GetService(ctx context.Context, serviceID string) (*db.TrainerService, error) {
	s, ok := r.services[serviceID]
	if !ok {
		return nil, apperrors.NotFound("service %s not found", serviceID)
	}
	return &s, nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]db.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]db.Payment)}
}

func (r *memPaymentRepo) Create(ctx context.Context, p *db.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = *p
	return nil
}

func (r *memPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*db.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			p := p
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("payment for booking %s not found", bookingID)
}

func (r *memPaymentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return apperrors.NotFound("payment %s not found", id)
	}
	p.Status = status
	r.payments[id] = p
	return nil
}

// fakeGateway counts calls and fails according to the injected hooks.
type fakeGateway struct {
	mu          sync.Mutex
	intentCalls int
	refundCalls int
	refunded    []string
	intentErr   func(call int) error
	refundErr   func(call int) error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, bookingID string, amountCents int64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentCalls++
	if g.intentErr != nil {
		if err := g.intentErr(g.intentCalls); err != nil {
			return "", err
		}
	}
	return "pi_" + bookingID, nil
}

func (g *fakeGateway) Refund(ctx context.Context, providerRef string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		if err := g.refundErr(g.refundCalls); err != nil {
			return err
		}
	}
	g.refunded = append(g.refunded, providerRef)
	return nil
}

type fakeMeetings struct {
	mu            sync.Mutex
	scheduleCalls int
	cancelled     []string
	scheduleErr   func(call int) error
}

func (m *fakeMeetings) Schedule(ctx context.Context, bookingID string, start, end time.Time, topic string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleCalls++
	if m.scheduleErr != nil {
		if err := m.scheduleErr(m.scheduleCalls); err != nil {
			return "", err
		}
	}
	return "meet_" + bookingID, nil
}

func (m *fakeMeetings) Cancel(ctx context.Context, meetingRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, meetingRef)
	return nil
}

type sentNotification struct {
	UserID  string
	Kind    string
	Payload map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, userID, kind string, payload map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Payload: payload})
	return n.err
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}
