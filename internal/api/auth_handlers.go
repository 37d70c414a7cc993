package api

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "fitbook/internal/errors"
	"fitbook/internal/service"
)

type AuthHandler struct {
	Service *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Service: svc}
}

func (h *AuthHandler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.Service.RegisterClient)
}

func (h *AuthHandler) RegisterTrainer(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.Service.RegisterTrainer)
}

func (h *AuthHandler) LoginClient(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.Service.LoginClient)
}

func (h *AuthHandler) LoginTrainer(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.Service.LoginTrainer)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, in service.RegisterInput) (string, error)) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	id, err := fn(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{ID: id})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, email, password string) (string, error)) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	token, err := fn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
