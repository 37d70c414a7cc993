package api

// Auth
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type RegisterResponse struct {
	ID string `json:"id"`
}
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type LoginResponse struct {
	Token string `json:"token"`
}

// Trainer catalogue
type ServiceResponse struct {
	ID              string `json:"id"`
	TrainerID       string `json:"trainer_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	Currency        string `json:"currency"`
	IsOnline        bool   `json:"is_online"`
}

// Booking lifecycle
type DeclineRequest struct {
	Reason string `json:"reason"`
}
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Admin
type VerifyTrainerRequest struct {
	Verified bool `json:"verified"`
}
type TrainerSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	IsVerified bool   `json:"is_verified"`
}
