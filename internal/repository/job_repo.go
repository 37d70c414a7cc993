package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ListOverdueConfirmedIDs returns confirmed bookings whose end time has
// already passed.
func (r *JobRepository) ListOverdueConfirmedIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM bookings WHERE status = 'confirmed' AND end_time < NOW()`
	return r.listIDs(ctx, query)
}

// ListStalePendingIDs returns pending bookings created before the cutoff.
func (r *JobRepository) ListStalePendingIDs(ctx context.Context, before time.Time) ([]string, error) {
	query := `SELECT id FROM bookings WHERE status = 'pending' AND created_at < $1`
	return r.listIDs(ctx, query, before)
}

func (r *JobRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query booking ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking ids: %w", err)
	}
	return ids, nil
}
