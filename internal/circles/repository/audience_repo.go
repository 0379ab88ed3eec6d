package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
)

// audienceQuery yields one row per (peer, shared circle). my_circles is every
// circle the owner leads or belongs to; peers are the leaders and members of
// those circles.
const audienceQuery = `
	WITH my_circles AS (
		SELECT id AS circle_id FROM circles WHERE leader_email = $1
		UNION
		SELECT circle_id FROM circle_members WHERE member_email = $1
	),
	peers AS (
		SELECT c.leader_email AS email, c.id AS circle_id
		FROM circles c
		JOIN my_circles mc ON mc.circle_id = c.id
		UNION
		SELECT cm.member_email, cm.circle_id
		FROM circle_members cm
		JOIN my_circles mc ON mc.circle_id = cm.circle_id
	)
	SELECT p.email, COALESCE(u.name, ''), u.profile_photo_url, pt.token, c.id, c.name
	FROM peers p
	JOIN circles c ON c.id = p.circle_id
	LEFT JOIN users u ON u.email = p.email
	LEFT JOIN push_tokens pt ON pt.email = p.email
	WHERE p.email <> $1
	ORDER BY p.email, c.name
`

// Audience resolves every user sharing a circle with email.
func (r *CircleRepository) Audience(ctx context.Context, email string) (*domain.Audience, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, audienceQuery, email)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}
	defer rows.Close()

	var out []domain.AudienceRow
	for rows.Next() {
		var (
			row          domain.AudienceRow
			photo, token sql.NullString
		)
		if err := rows.Scan(&row.Email, &row.Name, &photo, &token, &row.CircleID, &row.CircleName); err != nil {
			return nil, fmt.Errorf("scan audience row: %w", err)
		}
		if photo.Valid {
			row.PhotoURL = &photo.String
		}
		if token.Valid {
			row.PushToken = &token.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	return domain.BuildAudience(email, out), nil
}
