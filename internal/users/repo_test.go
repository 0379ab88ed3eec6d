package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_EnsureUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepo(db)

	mock.ExpectExec(`insert into users`).
		WithArgs("mo@x.com", "Mo", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.EnsureUser(context.Background(), UpsertUser{Email: "mo@x.com", DisplayName: "Mo"}))
	assert.Error(t, repo.EnsureUser(context.Background(), UpsertUser{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_DisplayName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepo(db)
	ctx := context.Background()

	t.Run("stored name", func(t *testing.T) {
		mock.ExpectQuery(`select email, name, profile_photo_url, verified from users`).
			WithArgs("mo@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"email", "name", "profile_photo_url", "verified"}).
				AddRow("mo@x.com", "Mo Salah", nil, true))

		name, err := repo.DisplayName(ctx, "mo@x.com")
		require.NoError(t, err)
		assert.Equal(t, "Mo Salah", name)
	})

	t.Run("blank name falls back to local part", func(t *testing.T) {
		mock.ExpectQuery(`from users`).
			WithArgs("nia.k@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"email", "name", "profile_photo_url", "verified"}).
				AddRow("nia.k@x.com", "", "/assets/n.png", false))

		name, err := repo.DisplayName(ctx, "nia.k@x.com")
		require.NoError(t, err)
		assert.Equal(t, "nia.k", name)
	})

	t.Run("unknown user falls back too", func(t *testing.T) {
		mock.ExpectQuery(`from users`).
			WithArgs("ghost@x.com").
			WillReturnError(sql.ErrNoRows)

		name, err := repo.DisplayName(ctx, "ghost@x.com")
		require.NoError(t, err)
		assert.Equal(t, "ghost", name)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mock.ExpectQuery(`from users`).
			WithArgs("x@x.com").
			WillReturnError(sql.ErrConnDone)

		_, err := repo.DisplayName(ctx, "x@x.com")
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "lee", FallbackName("lee@x.com"))
	assert.Equal(t, "no-at-sign", FallbackName("no-at-sign"))
}
