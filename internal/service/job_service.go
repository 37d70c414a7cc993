package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fitbook/internal/repository"
	"fitbook/internal/service/bookingsvc"
)

// JobService runs the scheduled booking sweeps. All status changes go
// through the orchestrator so the lifecycle rules stay in one place.
type JobService struct {
	jobRepo  *repository.JobRepository
	bookings *bookingsvc.BookingService
	logger   *zap.Logger
}

func NewJobService(jobRepo *repository.JobRepository, bookings *bookingsvc.BookingService, logger *zap.Logger) *JobService {
	return &JobService{jobRepo: jobRepo, bookings: bookings, logger: logger}
}

// CompleteFinishedBookings marks confirmed bookings whose end time has
// passed as completed.
func (s *JobService) CompleteFinishedBookings(ctx context.Context) {
	ids, err := s.jobRepo.ListOverdueConfirmedIDs(ctx)
	if err != nil {
		s.logger.Error("listing overdue confirmed bookings failed", zap.Error(err))
		return
	}
	var completed int
	for _, id := range ids {
		if _, err := s.bookings.SystemComplete(ctx, id); err != nil {
			s.logger.Error("auto-complete failed",
				zap.String("booking_id", id), zap.Error(err))
			continue
		}
		completed++
	}
	if len(ids) > 0 {
		s.logger.Info("auto-complete sweep finished",
			zap.Int("candidates", len(ids)), zap.Int("completed", completed))
	}
}

// ExpireStalePendingBookings cancels pending bookings the trainer never
// answered within ttl, releasing their slots.
func (s *JobService) ExpireStalePendingBookings(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().UTC().Add(-ttl)
	ids, err := s.jobRepo.ListStalePendingIDs(ctx, cutoff)
	if err != nil {
		s.logger.Error("listing stale pending bookings failed", zap.Error(err))
		return
	}
	var cancelled int
	for _, id := range ids {
		if _, err := s.bookings.SystemCancel(ctx, id, bookingsvc.ReasonPendingExpired); err != nil {
			s.logger.Error("expiry cancel failed",
				zap.String("booking_id", id), zap.Error(err))
			continue
		}
		cancelled++
	}
	if len(ids) > 0 {
		s.logger.Info("pending expiry sweep finished",
			zap.Int("candidates", len(ids)), zap.Int("cancelled", cancelled))
	}
}
