package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fitbook/internal/auth"
	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
	"fitbook/internal/repository"
)

// AuthService handles registration and login for clients and trainers.
// Admin credentials live in AdminAuthService.
type AuthService struct {
	clients  *repository.ClientRepository
	trainers *repository.TrainerRepository
}

func NewAuthService(clients *repository.ClientRepository, trainers *repository.TrainerRepository) *AuthService {
	return &AuthService{clients: clients, trainers: trainers}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Validation("name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return apperrors.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return apperrors.Validation("password must be at least 8 characters")
	}
	return nil
}

// RegisterClient creates a client account and returns its id.
func (s *AuthService) RegisterClient(ctx context.Context, in RegisterInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if existing, err := s.clients.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return "", apperrors.Validation("email %s is already registered", in.Email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	c := &db.Client{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// RegisterTrainer creates a trainer account. Trainers start unverified and
// cannot take bookings until an admin verifies them.
func (s *AuthService) RegisterTrainer(ctx context.Context, in RegisterInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if existing, err := s.trainers.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return "", apperrors.Validation("email %s is already registered", in.Email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	t := &db.Trainer{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		IsVerified:   false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.trainers.Create(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// LoginClient returns a signed JWT with the client role.
func (s *AuthService) LoginClient(ctx context.Context, email, password string) (string, error) {
	c, err := s.clients.GetByEmail(ctx, email)
	if err != nil || c == nil {
		return "", apperrors.NotAuthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return "", apperrors.NotAuthorized("invalid credentials")
	}
	return signToken(c.ID, c.Email, auth.RoleClient, 24*time.Hour)
}

// LoginTrainer returns a signed JWT with the trainer role.
func (s *AuthService) LoginTrainer(ctx context.Context, email, password string) (string, error) {
	t, err := s.trainers.GetByEmail(ctx, email)
	if err != nil || t == nil {
		return "", apperrors.NotAuthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)) != nil {
		return "", apperrors.NotAuthorized("invalid credentials")
	}
	return signToken(t.ID, t.Email, auth.RoleTrainer, 24*time.Hour)
}
