package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fitbook/internal/auth"
	"fitbook/internal/db"
	"fitbook/internal/entities"
	apperrors "fitbook/internal/errors"
	"fitbook/internal/service/bookingsvc"
)

type BookingHandler struct {
	Service *bookingsvc.BookingService
}

func NewBookingHandler(svc *bookingsvc.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// CreateBooking handles POST /api/bookings. The client id comes from the
// token, never from the body.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var in entities.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	in.ClientID = auth.CallerID(r.Context())

	booking, err := h.Service.CreateBooking(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	booking, err := h.Service.GetBooking(r.Context(), id, auth.CallerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// ListBookings returns the caller's bookings, client or trainer side
// depending on the token role.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		bookings []db.Booking
		err      error
	)
	switch auth.Role(ctx) {
	case auth.RoleTrainer:
		bookings, err = h.Service.ListForTrainer(ctx, auth.CallerID(ctx))
	default:
		bookings, err = h.Service.ListForClient(ctx, auth.CallerID(ctx))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingsList(bookings))
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	booking, err := h.Service.ConfirmBooking(r.Context(), id, auth.CallerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) DeclineBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req DeclineRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	booking, err := h.Service.DeclineBooking(r.Context(), id, auth.CallerID(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	booking, err := h.Service.CancelBooking(r.Context(), id, auth.CallerID(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	booking, err := h.Service.CompleteBooking(r.Context(), id, auth.CallerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(b *db.Booking) entities.BookingResponse {
	return entities.BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		TrainerID:          b.TrainerID,
		ServiceID:          b.ServiceID,
		AvailabilityID:     b.AvailabilityID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		Notes:              b.Notes,
		PaymentID:          b.PaymentID,
		MeetingRef:         b.MeetingRef,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func toBookingsList(bookings []db.Booking) entities.BookingsList {
	out := entities.BookingsList{
		Total:    len(bookings),
		Bookings: make([]entities.BookingResponse, 0, len(bookings)),
	}
	for i := range bookings {
		out.Bookings = append(out.Bookings, toBookingResponse(&bookings[i]))
	}
	return out
}
