package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

func TestTombstoneRepositoryUpsertIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTombstoneRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tombstones")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second hide hits the conflict clause and touches no rows.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tombstones")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tombstone := &models.Tombstone{UserID: "fac-1", ItemID: "req-1", ItemType: models.ItemTypeRequest}
	require.NoError(t, repo.Upsert(context.Background(), tombstone))
	require.False(t, tombstone.HiddenAt.IsZero())
	require.NoError(t, repo.Upsert(context.Background(), tombstone))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTombstoneRepositoryHiddenIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTombstoneRepository(db)
	rows := sqlmock.NewRows([]string{"item_id"}).AddRow("req-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT item_id FROM tombstones")).
		WillReturnRows(rows)

	hidden, err := repo.HiddenIDs(context.Background(), "fac-1", []string{"req-1", "req-2"})
	require.NoError(t, err)
	require.Equal(t, []string{"req-2"}, hidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTombstoneRepositoryHiddenIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTombstoneRepository(db)
	hidden, err := repo.HiddenIDs(context.Background(), "fac-1", nil)
	require.NoError(t, err)
	require.Nil(t, hidden)
}
