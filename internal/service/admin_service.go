package service

import (
	"context"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
	"fitbook/internal/repository"
)

// AdminService backs the back-office endpoints: booking oversight and
// trainer verification.
type AdminService struct {
	adminRepo   *repository.AdminRepository
	trainerRepo *repository.TrainerRepository
}

func NewAdminService(adminRepo *repository.AdminRepository, trainerRepo *repository.TrainerRepository) *AdminService {
	return &AdminService{adminRepo: adminRepo, trainerRepo: trainerRepo}
}

// ListBookings filters by date (YYYY-MM-DD), trainer and statuses; empty
// filters match everything.
func (s *AdminService) ListBookings(ctx context.Context, date, trainerID string, statuses []string) ([]db.Booking, error) {
	for _, st := range statuses {
		switch st {
		case db.BookingStatusPending, db.BookingStatusConfirmed,
			db.BookingStatusCompleted, db.BookingStatusCancelled:
		default:
			return nil, apperrors.Validation("unknown booking status %q", st)
		}
	}
	return s.adminRepo.ListBookings(ctx, date, trainerID, statuses)
}

func (s *AdminService) ListUnverifiedTrainers(ctx context.Context) ([]db.Trainer, error) {
	return s.adminRepo.ListUnverifiedTrainers(ctx)
}

// VerifyTrainer flips the verification flag that gates booking creation.
func (s *AdminService) VerifyTrainer(ctx context.Context, trainerID string, verified bool) error {
	if _, err := s.trainerRepo.GetByID(ctx, trainerID); err != nil {
		return err
	}
	return s.trainerRepo.SetVerified(ctx, trainerID, verified)
}
