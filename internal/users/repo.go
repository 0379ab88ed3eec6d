package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

type User struct {
	Email    string
	Name     string
	PhotoURL *string
	Verified bool
}

// EnsureUser inserts the user or fills in blank profile fields. Existing
// non-empty values are never overwritten with empty ones.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) error {
	if u.Email == "" {
		return fmt.Errorf("email required")
	}

	const q = `
insert into users (email, name, profile_photo_url, updated_at)
values ($1, coalesce(nullif($2,''), ''), nullif($3,''), now())
on conflict (email) do update
set
  name = case when users.name = '' then excluded.name else users.name end,
  profile_photo_url = coalesce(users.profile_photo_url, excluded.profile_photo_url),
  updated_at = now()
`
	if _, err := r.db.ExecContext(ctx, q, u.Email, u.DisplayName, u.PhotoURL); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `select email, name, profile_photo_url, verified from users where email = $1`

	var (
		u     User
		photo sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.Email, &u.Name, &photo, &u.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if photo.Valid {
		u.PhotoURL = &photo.String
	}
	return &u, nil
}

// DisplayName returns the user's name, falling back to the local part of
// the email when the user is unknown or has no name.
func (r *Repo) DisplayName(ctx context.Context, email string) (string, error) {
	u, err := r.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return FallbackName(email), nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(u.Name) == "" {
		return FallbackName(email), nil
	}
	return u.Name, nil
}

func FallbackName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
