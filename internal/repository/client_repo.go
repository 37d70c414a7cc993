package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fitbook/internal/db"
	apperrors "fitbook/internal/errors"
)

type ClientRepository struct {
	DB *sql.DB
}

func NewClientRepository(database *sql.DB) *ClientRepository {
	return &ClientRepository{DB: database}
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*db.Client, error) {
	var c db.Client
	query := `SELECT id, name, email, phone, password_hash, created_at FROM clients WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("client %s not found", id)
		}
		return nil, fmt.Errorf("query client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*db.Client, error) {
	var c db.Client
	query := `SELECT id, name, email, phone, password_hash, created_at FROM clients WHERE email = $1`
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("client with email %s not found", email)
		}
		return nil, fmt.Errorf("query client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *db.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Phone, c.PasswordHash, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}
