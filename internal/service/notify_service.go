package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fitbook/internal/db"
	"fitbook/internal/service/bookingsvc"
)

// ClientResolver is the subset of the client repository used to address
// notifications.
type ClientResolver interface {
	GetByID(ctx context.Context, id string) (*db.Client, error)
}

// TrainerResolver is the subset of the trainer repository used to address
// notifications.
type TrainerResolver interface {
	GetByID(ctx context.Context, id string) (*db.Trainer, error)
}

// NotifyService fans booking lifecycle events out to email and SMS. It
// implements bookingsvc.NotificationDispatcher; delivery failures are
// reported to the caller, which treats them as non-fatal.
type NotifyService struct {
	clients  ClientResolver
	trainers TrainerResolver
	logger   *zap.Logger
}

func NewNotifyService(clients ClientResolver, trainers TrainerResolver, logger *zap.Logger) *NotifyService {
	return &NotifyService{clients: clients, trainers: trainers, logger: logger}
}

type recipient struct {
	name  string
	email string
	phone string
}

func (s *NotifyService) Notify(ctx context.Context, userID, kind string, payload map[string]string) error {
	rcpt, err := s.resolve(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve notification recipient %s: %w", userID, err)
	}

	subject, body := composeMessage(kind, payload)

	var emailErr, smsErr error
	if rcpt.email != "" {
		html := "<p>" + body + "</p>"
		emailErr = SendEmailWithSendGrid(rcpt.email, rcpt.name, subject, body, html)
		if emailErr != nil {
			s.logger.Warn("notification email failed",
				zap.String("user_id", userID),
				zap.String("kind", kind),
				zap.Error(emailErr))
		}
	}
	if rcpt.phone != "" {
		smsErr = SendSMS(rcpt.phone, body)
		if smsErr != nil {
			s.logger.Warn("notification SMS failed",
				zap.String("user_id", userID),
				zap.String("kind", kind),
				zap.Error(smsErr))
		}
	}

	if emailErr != nil && smsErr != nil {
		return fmt.Errorf("all notification channels failed: email: %v, sms: %v", emailErr, smsErr)
	}
	return nil
}

func (s *NotifyService) resolve(ctx context.Context, userID string) (recipient, error) {
	if c, err := s.clients.GetByID(ctx, userID); err == nil {
		return recipient{name: c.Name, email: c.Email, phone: c.Phone}, nil
	}
	t, err := s.trainers.GetByID(ctx, userID)
	if err != nil {
		return recipient{}, err
	}
	return recipient{name: t.Name, email: t.Email, phone: t.Phone}, nil
}

func composeMessage(kind string, payload map[string]string) (subject, body string) {
	start := payload["start_time"]
	reason := payload["reason"]

	switch kind {
	case bookingsvc.NotifyBookingCreated:
		subject = "New booking request"
		body = fmt.Sprintf("You have a new booking request for %s. Please confirm or decline it.", start)
	case bookingsvc.NotifyBookingConfirmed:
		subject = "Booking confirmed"
		body = fmt.Sprintf("Your booking for %s has been confirmed.", start)
	case bookingsvc.NotifyBookingDeclined:
		subject = "Booking declined"
		body = fmt.Sprintf("Your booking for %s was declined. Reason: %s", start, reason)
	case bookingsvc.NotifyBookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf("The booking for %s was cancelled. Reason: %s", start, reason)
	case bookingsvc.NotifyReviewRequest:
		subject = "How was your session?"
		body = "Your session is complete. We would love to hear how it went."
	default:
		subject = "Booking update"
		body = fmt.Sprintf("Your booking for %s was updated.", start)
	}
	return subject, body
}
