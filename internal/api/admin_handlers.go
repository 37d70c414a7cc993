package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	apperrors "fitbook/internal/errors"
	"fitbook/internal/service"
)

type AdminHandler struct {
	Auth    service.AdminAuthService
	Service *service.AdminService
}

func NewAdminHandler(authSvc service.AdminAuthService, svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Auth: authSvc, Service: svc}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// ListBookings handles GET /admin/bookings with optional date, trainer_id
// and status (comma separated) filters.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var statuses []string
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	bookings, err := h.Service.ListBookings(r.Context(), q.Get("date"), q.Get("trainer_id"), statuses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingsList(bookings))
}

func (h *AdminHandler) ListUnverifiedTrainers(w http.ResponseWriter, r *http.Request) {
	trainers, err := h.Service.ListUnverifiedTrainers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]TrainerSummary, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, TrainerSummary{
			ID:         t.ID,
			Name:       t.Name,
			Email:      t.Email,
			Phone:      t.Phone,
			IsVerified: t.IsVerified,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) VerifyTrainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	req := VerifyTrainerRequest{Verified: true}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Validation("invalid request body"))
			return
		}
	}
	if err := h.Service.VerifyTrainer(r.Context(), id, req.Verified); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "trainer verification updated"})
}
