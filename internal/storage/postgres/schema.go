package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email             TEXT PRIMARY KEY,
		name              TEXT NOT NULL DEFAULT '',
		password_hash     TEXT,
		verified          BOOLEAN NOT NULL DEFAULT FALSE,
		profile_photo_url TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS circles (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		leader_email TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS circles_leader_email_idx ON circles (leader_email)`,
	`CREATE TABLE IF NOT EXISTS circle_members (
		circle_id    TEXT NOT NULL REFERENCES circles (id) ON DELETE CASCADE,
		member_email TEXT NOT NULL,
		joined_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (circle_id, member_email)
	)`,
	`CREATE INDEX IF NOT EXISTS circle_members_member_email_idx ON circle_members (member_email)`,
	`CREATE TABLE IF NOT EXISTS invite_codes (
		code       CHAR(6) PRIMARY KEY,
		circle_id  TEXT NOT NULL REFERENCES circles (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS push_tokens (
		email      TEXT PRIMARY KEY,
		token      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_locations (
		email       TEXT PRIMARY KEY,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS location_history (
		id          BIGSERIAL PRIMARY KEY,
		email       TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS location_history_email_recorded_idx ON location_history (email, recorded_at DESC)`,
}

// EnsureSchema creates the tables the service needs. Every statement is
// idempotent so it is safe to run on each start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
