package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"fitbook/internal/db"
	"fitbook/internal/repository"
	"fitbook/internal/service/bookingsvc"
)

// StripeWebhookHandler records gateway-side payment outcomes. It only
// touches payment rows; booking statuses stay under the orchestrator's
// control.
type StripeWebhookHandler struct {
	WebhookSecret string
	payments      *repository.PaymentRepository
	bookings      *repository.BookingRepository
	notifier      bookingsvc.NotificationDispatcher
	logger        *zap.Logger
}

func NewStripeWebhookHandler(webhookSecret string, payments *repository.PaymentRepository,
	bookings *repository.BookingRepository, notifier bookingsvc.NotificationDispatcher,
	logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		WebhookSecret: webhookSecret,
		payments:      payments,
		bookings:      bookings,
		notifier:      notifier,
		logger:        logger,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("reading webhook body failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.logger.Warn("parsing payment_intent failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payment, err := h.payments.GetByProviderRef(ctx, intent.ID)
		if err != nil {
			h.logger.Warn("no payment for intent",
				zap.String("intent_id", intent.ID), zap.Error(err))
			break
		}
		if err := h.payments.UpdateStatus(ctx, payment.ID, db.PaymentStatusCompleted); err != nil {
			h.logger.Error("updating payment status failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h.notifyClient(ctx, payment.BookingID)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			h.logger.Warn("parsing charge failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			break
		}
		payment, err := h.payments.GetByProviderRef(ctx, charge.PaymentIntent.ID)
		if err != nil {
			h.logger.Warn("no payment for refunded charge",
				zap.String("intent_id", charge.PaymentIntent.ID), zap.Error(err))
			break
		}
		if err := h.payments.UpdateStatus(ctx, payment.ID, db.PaymentStatusRefunded); err != nil {
			h.logger.Error("updating payment status failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	default:
		h.logger.Debug("unhandled stripe event", zap.String("type", string(event.Type)))
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeWebhookHandler) notifyClient(ctx context.Context, bookingID string) {
	booking, err := h.bookings.GetByID(ctx, bookingID)
	if err != nil {
		h.logger.Warn("loading booking for payment notification failed",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	payload := map[string]string{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"start_time": booking.StartTime.Format(time.RFC3339),
	}
	if err := h.notifier.Notify(ctx, booking.ClientID, bookingsvc.NotifyBookingConfirmed, payload); err != nil {
		h.logger.Warn("payment notification failed",
			zap.String("booking_id", bookingID), zap.Error(err))
	}
}
