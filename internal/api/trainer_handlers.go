package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fitbook/internal/auth"
	"fitbook/internal/db"
	"fitbook/internal/entities"
	apperrors "fitbook/internal/errors"
	"fitbook/internal/repository"
	"fitbook/internal/service/bookingsvc"
)

type TrainerHandler struct {
	Availability *bookingsvc.AvailabilityService
	Trainers     *repository.TrainerRepository
}

func NewTrainerHandler(availability *bookingsvc.AvailabilityService, trainers *repository.TrainerRepository) *TrainerHandler {
	return &TrainerHandler{Availability: availability, Trainers: trainers}
}

// ListServices handles GET /api/trainers/{id}/services, returning the
// trainer's active offerings.
func (h *TrainerHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	trainerID := mux.Vars(r)["id"]
	services, err := h.Trainers.ListServices(r.Context(), trainerID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, ServiceResponse{
			ID:              s.ID,
			TrainerID:       s.TrainerID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
			Currency:        s.Currency,
			IsOnline:        s.IsOnline,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListSlots handles GET /api/trainers/{id}/slots?from=...&to=... and is open
// to any authenticated user browsing a trainer's calendar.
func (h *TrainerHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	trainerID := mux.Vars(r)["id"]

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	slots, err := h.Availability.ListSlots(r.Context(), trainerID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

// CreateSlot handles POST /api/trainer/slots for the authenticated trainer.
func (h *TrainerHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	slot, err := h.Availability.CreateSlot(r.Context(), auth.CallerID(r.Context()), req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlotResponse(slot))
}

// GenerateSlots handles POST /api/trainer/slots/generate, bulk-creating
// fixed-length slots from recurring day windows.
func (h *TrainerHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	var req entities.GenerateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	slots, err := h.Availability.GenerateSlots(r.Context(), auth.CallerID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"created": len(slots),
		"slots":   toSlotResponses(slots),
	})
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, apperrors.Validation("query parameter %q is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.Validation("query parameter %q must be RFC3339", name)
	}
	return t, nil
}

func toSlotResponse(s *db.AvailabilitySlot) entities.SlotResponse {
	return entities.SlotResponse{
		ID:        s.ID,
		TrainerID: s.TrainerID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsBooked:  s.IsBooked,
		BookingID: s.BookingID,
	}
}

func toSlotResponses(slots []db.AvailabilitySlot) []entities.SlotResponse {
	out := make([]entities.SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResponse(&slots[i]))
	}
	return out
}
