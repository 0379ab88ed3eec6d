// Package pgtest opens a real PostgreSQL database for repository tests.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
)

// Open connects to the test database and ensures the schema exists.
// The test is skipped unless TEST_DB_DSN is set, or TEST_DB_HOST, TEST_DB_PORT,
// TEST_DB_USER and TEST_DB_NAME (plus optional TEST_DB_PASSWORD) are.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		host := os.Getenv("TEST_DB_HOST")
		port := os.Getenv("TEST_DB_PORT")
		user := os.Getenv("TEST_DB_USER")
		dbname := os.Getenv("TEST_DB_NAME")
		if host == "" || port == "" || user == "" || dbname == "" {
			t.Skip("TEST_DB_DSN or TEST_DB_* environment variables not set, skipping PostgreSQL integration test")
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, os.Getenv("TEST_DB_PASSWORD"), dbname)
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, postgres.EnsureSchema(ctx, db))
	return db
}

// Email returns an address unique to this run so tests sharing a database
// never see each other's rows.
func Email(local string) string {
	return fmt.Sprintf("%s+%s@pgtest.local", local, uuid.New().String()[:8])
}

// Code returns a random six character invite code.
func Code() string {
	id := uuid.New()
	return fmt.Sprintf("%X", id[:3])
}
