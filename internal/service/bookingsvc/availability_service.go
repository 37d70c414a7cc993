package bookingsvc

import (
	"context"
	"fmt"
	"time"

	"fitbook/internal/db"
	"fitbook/internal/entities"
	apperrors "fitbook/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minutesPerDay = 24 * 60

// AvailabilityService manages a trainer's bookable slots.
type AvailabilityService struct {
	slots  SlotRepo
	logger *zap.Logger
}

func NewAvailabilityService(slots SlotRepo, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{slots: slots, logger: logger}
}

// ListSlots returns the trainer's slots in [from, to), ordered by start time.
func (s *AvailabilityService) ListSlots(ctx context.Context, trainerID string, from, to time.Time) ([]db.AvailabilitySlot, error) {
	if !from.Before(to) {
		return nil, apperrors.Validation("from must be before to")
	}
	return s.slots.ListSlots(ctx, trainerID, from, to)
}

// CreateSlot declares a new bookable range. It fails when the range is empty
// or overlaps one of the trainer's existing slots.
func (s *AvailabilityService) CreateSlot(ctx context.Context, trainerID string, start, end time.Time) (*db.AvailabilitySlot, error) {
	if !start.Before(end) {
		return nil, apperrors.Validation("start_time must be before end_time")
	}
	overlap, err := s.slots.HasOverlap(ctx, trainerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check slot overlap: %w", err)
	}
	if overlap {
		return nil, apperrors.Validation("slot overlaps an existing slot for trainer %s", trainerID)
	}
	slot := &db.AvailabilitySlot{
		ID:        uuid.New().String(),
		TrainerID: trainerID,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

// GenerateSlots instantiates consecutive fixed-length slots inside each day
// window between FromDate and ToDate. Ranges that would overlap an existing
// slot are skipped rather than failing the whole batch.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, trainerID string, req entities.GenerateSlotsRequest) ([]db.AvailabilitySlot, error) {
	if req.SlotMinutes <= 0 {
		return nil, apperrors.Validation("slot_minutes must be positive")
	}
	if req.ToDate.Before(req.FromDate) {
		return nil, apperrors.Validation("to_date must not be before from_date")
	}
	if len(req.Windows) == 0 {
		return nil, apperrors.Validation("at least one day window is required")
	}
	for _, w := range req.Windows {
		if w.StartMinutes < 0 || w.EndMinutes > minutesPerDay || w.StartMinutes >= w.EndMinutes {
			return nil, apperrors.Validation("invalid day window %d-%d", w.StartMinutes, w.EndMinutes)
		}
	}

	var created []db.AvailabilitySlot
	for day := req.FromDate; !day.After(req.ToDate); day = day.AddDate(0, 0, 1) {
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		for _, w := range req.Windows {
			if day.Weekday() != w.Weekday {
				continue
			}
			for m := w.StartMinutes; m+req.SlotMinutes <= w.EndMinutes; m += req.SlotMinutes {
				start := midnight.Add(time.Duration(m) * time.Minute)
				end := start.Add(time.Duration(req.SlotMinutes) * time.Minute)

				overlap, err := s.slots.HasOverlap(ctx, trainerID, start, end)
				if err != nil {
					return created, fmt.Errorf("check slot overlap: %w", err)
				}
				if overlap {
					continue
				}
				slot := db.AvailabilitySlot{
					ID:        uuid.New().String(),
					TrainerID: trainerID,
					StartTime: start,
					EndTime:   end,
				}
				if err := s.slots.Create(ctx, &slot); err != nil {
					return created, fmt.Errorf("create generated slot: %w", err)
				}
				created = append(created, slot)
			}
		}
	}
	s.logger.Info("generated availability slots",
		zap.String("trainer_id", trainerID), zap.Int("count", len(created)))
	return created, nil
}
