package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulatedMeetingService stands in for a video-conferencing provider. It
// fabricates meeting references; the real provider integration lives behind
// the same interface.
type SimulatedMeetingService struct {
	baseURL string
	logger  *zap.Logger
}

func NewSimulatedMeetingService(baseURL string, logger *zap.Logger) *SimulatedMeetingService {
	if baseURL == "" {
		baseURL = "https://meet.fitbook.app"
	}
	return &SimulatedMeetingService{baseURL: baseURL, logger: logger}
}

func (s *SimulatedMeetingService) Schedule(ctx context.Context, bookingID string, start, end time.Time, topic string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%s/%s", s.baseURL, uuid.New().String())
	s.logger.Info("meeting scheduled",
		zap.String("booking_id", bookingID),
		zap.String("topic", topic),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.String("meeting_ref", ref))
	return ref, nil
}

func (s *SimulatedMeetingService) Cancel(ctx context.Context, meetingRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("meeting cancelled", zap.String("meeting_ref", meetingRef))
	return nil
}
