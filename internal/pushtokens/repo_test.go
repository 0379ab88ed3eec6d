package pushtokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	repo := NewRepo(db)
	repo.now = func() time.Time { return at }

	mock.ExpectExec(`insert into push_tokens .* on conflict \(email\) do update`).
		WithArgs("u@x.com", "tok-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), "u@x.com", "tok-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`insert into push_tokens`).WillReturnError(errors.New("boom"))

	err = NewRepo(db).Save(context.Background(), "u@x.com", "tok-1")
	assert.ErrorContains(t, err, "save push token")
}

func TestRepo_Prune(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepo(db)

	n, err := repo.Prune(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(`delete from push_tokens where token = any\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err = repo.Prune(context.Background(), []string{"dead-1", "dead-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
