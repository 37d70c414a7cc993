package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type TrainerRepository struct {
	DB *sql.DB
}

func NewTrainerRepository(database *sql.DB) *TrainerRepository {
	return &TrainerRepository{DB: database}
}

func (r *TrainerRepository) GetByID(ctx context.Context, id string) (*db.Trainer, error) {
	var t db.Trainer
	query := `
		SELECT id, name, email, phone, password_hash, is_verified, created_at
		FROM trainers WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.PasswordHash, &t.IsVerified, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("trainer %s not found", id)
		}
		return nil, fmt.Errorf("query trainer: %w", err)
	}
	return &t, nil
}

func (r *TrainerRepository) GetByEmail(ctx context.Context, email string) (*db.Trainer, error) {
	var t db.Trainer
	query := `
		SELECT id, name, email, phone, password_hash, is_verified, created_at
		FROM trainers WHERE email = $1`
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.PasswordHash, &t.IsVerified, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("trainer with email %s not found", email)
		}
		return nil, fmt.Errorf("query trainer: %w", err)
	}
	return &t, nil
}

func (r *TrainerRepository) Create(ctx context.Context, t *db.Trainer) error {
	query := `
		INSERT INTO trainers (id, name, email, phone, password_hash, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.Name, t.Email, t.Phone, t.PasswordHash, t.IsVerified, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trainer: %w", err)
	}
	return nil
}

func (r *TrainerRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE trainers SET is_verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return fmt.Errorf("update trainer verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.NotFound("trainer %s not found", id)
	}
	return nil
}

func (r *TrainerRepository) GetService(ctx context.Context, serviceID string) (*db.TrainerService, error) {
	var s db.TrainerService
	query := `
		SELECT id, trainer_id, name, duration_minutes, price_cents, currency, is_online, is_active
		FROM trainer_services WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, serviceID).Scan(
		&s.ID, &s.TrainerID, &s.Name, &s.DurationMinutes, &s.PriceCents,
		&s.Currency, &s.IsOnline, &s.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("service %s not found", serviceID)
		}
		return nil, fmt.Errorf("query service: %w", err)
	}
	return &s, nil
}

func (r *TrainerRepository) ListServices(ctx context.Context, trainerID string) ([]db.TrainerService, error) {
	query := `
		SELECT id, trainer_id, name, duration_minutes, price_cents, currency, is_online, is_active
		FROM trainer_services
		WHERE trainer_id = $1 AND is_active = TRUE
		ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var services []db.TrainerService
	for rows.Next() {
		var s db.TrainerService
		if err := rows.Scan(&s.ID, &s.TrainerID, &s.Name, &s.DurationMinutes,
			&s.PriceCents, &s.Currency, &s.IsOnline, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
