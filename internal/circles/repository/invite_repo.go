package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
)

type InviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create stores an invite code. A duplicate code yields domain.ErrInviteCollision.
func (r *InviteRepository) Create(ctx context.Context, inv *domain.InviteCode) error {
	query := `
		INSERT INTO invite_codes (code, circle_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx, query, inv.Code, inv.CircleID, inv.CreatedAt, inv.ExpiresAt)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", domain.ErrInviteCollision, err)
	}
	if err != nil {
		return fmt.Errorf("insert invite code: %w", err)
	}
	return nil
}

// FindActive looks up a code that has not expired at now. Expired rows stay
// in the table and are filtered here.
func (r *InviteRepository) FindActive(ctx context.Context, code string, now time.Time) (*domain.InviteCode, error) {
	query := `
		SELECT code, circle_id, created_at, expires_at
		FROM invite_codes
		WHERE code = $1 AND expires_at > $2
	`

	var inv domain.InviteCode
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, code, now).
		Scan(&inv.Code, &inv.CircleID, &inv.CreatedAt, &inv.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invite code: %w", err)
	}
	return &inv, nil
}
