package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(database *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: database}
}

func (r *PaymentRepository) Create(ctx context.Context, p *db.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount_cents, currency, status, provider_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.BookingID, p.AmountCents, p.Currency, p.Status, p.ProviderRef, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*db.Payment, error) {
	query := `
		SELECT id, booking_id, amount_cents, currency, status, provider_ref, created_at, updated_at
		FROM payments WHERE booking_id = $1`
	return r.getOne(ctx, query, bookingID)
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, providerRef string) (*db.Payment, error) {
	query := `
		SELECT id, booking_id, amount_cents, currency, status, provider_ref, created_at, updated_at
		FROM payments WHERE provider_ref = $1`
	return r.getOne(ctx, query, providerRef)
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return apperrors.NotFound("payment %s not found", id)
	}
	return nil
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg any) (*db.Payment, error) {
	var p db.Payment
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.BookingID, &p.AmountCents, &p.Currency, &p.Status,
		&p.ProviderRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("payment not found")
		}
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &p, nil
}
