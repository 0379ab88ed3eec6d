package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Perismakworo/Shesecure2/internal/locations/domain"
	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
)

type LocationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Upsert replaces the live sample for s.Email and appends s to history.
// Callers wrap it in a transaction so both writes land together.
func (r *LocationRepository) Upsert(ctx context.Context, s domain.Sample) error {
	q := postgres.Conn(ctx, r.db)

	live := `
		INSERT INTO user_locations (email, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    recorded_at = EXCLUDED.recorded_at
	`
	if _, err := q.ExecContext(ctx, live, s.Email, s.Latitude, s.Longitude, s.RecordedAt); err != nil {
		return fmt.Errorf("upsert live location: %w", err)
	}

	history := `
		INSERT INTO location_history (email, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.ExecContext(ctx, history, s.Email, s.Latitude, s.Longitude, s.RecordedAt); err != nil {
		return fmt.Errorf("append location history: %w", err)
	}
	return nil
}

// Latest returns the live sample for each email that has one.
func (r *LocationRepository) Latest(ctx context.Context, emails []string) (map[string]domain.Sample, error) {
	out := make(map[string]domain.Sample, len(emails))
	if len(emails) == 0 {
		return out, nil
	}

	query := `
		SELECT email, latitude, longitude, recorded_at
		FROM user_locations
		WHERE email = ANY($1)
	`

	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("query live locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Sample
		if err := rows.Scan(&s.Email, &s.Latitude, &s.Longitude, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan live location: %w", err)
		}
		out[s.Email] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live locations: %w", err)
	}
	return out, nil
}

// History returns up to limit samples for email, newest first.
func (r *LocationRepository) History(ctx context.Context, email string, limit int) ([]domain.HistoryPoint, error) {
	query := `
		SELECT latitude, longitude, recorded_at
		FROM location_history
		WHERE email = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("query location history: %w", err)
	}
	defer rows.Close()

	points := []domain.HistoryPoint{}
	for rows.Next() {
		var p domain.HistoryPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan location history: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location history: %w", err)
	}
	return points, nil
}

// PruneHistory deletes history recorded before the cutoff.
func (r *LocationRepository) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM location_history WHERE recorded_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune location history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune location history: %w", err)
	}
	return n, nil
}
