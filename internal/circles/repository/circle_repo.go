package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
)

type CircleRepository struct {
	db *sql.DB
}

func NewCircleRepository(db *sql.DB) *CircleRepository {
	return &CircleRepository{db: db}
}

// Create inserts a circle. It joins the caller's transaction when ctx carries one.
func (r *CircleRepository) Create(ctx context.Context, c *domain.Circle) error {
	query := `
		INSERT INTO circles (id, name, leader_email, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx, query, c.ID, c.Name, c.LeaderEmail, c.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return apperr.Conflict("circles.create", "circle already exists", err)
	}
	if err != nil {
		return fmt.Errorf("insert circle: %w", err)
	}
	return nil
}

// GetByID retrieves a circle by its identifier
func (r *CircleRepository) GetByID(ctx context.Context, id string) (*domain.Circle, error) {
	query := `
		SELECT id, name, leader_email, created_at
		FROM circles
		WHERE id = $1
	`

	var c domain.Circle
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.LeaderEmail, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCircleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get circle: %w", err)
	}
	return &c, nil
}

// ListForUser returns circles led by email together with circles it is a member of.
func (r *CircleRepository) ListForUser(ctx context.Context, email string) ([]domain.Circle, error) {
	query := `
		SELECT c.id, c.name, c.leader_email, c.created_at
		FROM circles c
		WHERE c.leader_email = $1
		UNION
		SELECT c.id, c.name, c.leader_email, c.created_at
		FROM circles c
		JOIN circle_members cm ON cm.circle_id = c.id
		WHERE cm.member_email = $1
		ORDER BY created_at, id
	`

	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()

	circles := []domain.Circle{}
	for rows.Next() {
		var c domain.Circle
		if err := rows.Scan(&c.ID, &c.Name, &c.LeaderEmail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		circles = append(circles, c)
	}
	return circles, rows.Err()
}

// ListMembers returns the leader plus every member row. Missing push tokens
// come back as nil rather than dropping the member.
func (r *CircleRepository) ListMembers(ctx context.Context, circleID string) ([]domain.Member, error) {
	query := `
		SELECT m.email, COALESCE(u.name, ''), pt.token, m.is_leader
		FROM (
			SELECT leader_email AS email, TRUE AS is_leader FROM circles WHERE id = $1
			UNION
			SELECT cm.member_email, FALSE
			FROM circle_members cm
			JOIN circles c ON c.id = cm.circle_id
			WHERE cm.circle_id = $1 AND cm.member_email <> c.leader_email
		) m
		LEFT JOIN users u ON u.email = m.email
		LEFT JOIN push_tokens pt ON pt.email = m.email
		ORDER BY m.is_leader DESC, m.email
	`

	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var (
			m     domain.Member
			token sql.NullString
		)
		if err := rows.Scan(&m.Email, &m.Name, &token, &m.IsLeader); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if token.Valid {
			m.PushToken = &token.String
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsParticipant reports whether email leads or belongs to the circle.
func (r *CircleRepository) IsParticipant(ctx context.Context, circleID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM circles WHERE id = $1 AND leader_email = $2
			UNION ALL
			SELECT 1 FROM circle_members WHERE circle_id = $1 AND member_email = $2
		)
	`

	var ok bool
	if err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, circleID, email).Scan(&ok); err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return ok, nil
}

// AddMember inserts a membership row. The (circle_id, member_email) primary
// key absorbs duplicate joins, so added is false when the row already existed.
func (r *CircleRepository) AddMember(ctx context.Context, circleID, email string) (bool, error) {
	query := `
		INSERT INTO circle_members (circle_id, member_email, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (circle_id, member_email) DO NOTHING
	`

	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, query, circleID, email)
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	return n > 0, nil
}

// RemoveMember deletes a membership row. Removing an absent row is not an error.
func (r *CircleRepository) RemoveMember(ctx context.Context, circleID, email string) (bool, error) {
	query := `DELETE FROM circle_members WHERE circle_id = $1 AND member_email = $2`

	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, query, circleID, email)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return n > 0, nil
}
