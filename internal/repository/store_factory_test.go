package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerStoreBindUsesTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	factory := NewSchedulerStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM off_days")).
		WithArgs("i1", "2024-01-03").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	store := factory.Bind(tx)
	off, err := store.OffDays.IsOffDay(context.Background(), "i1", "2024-01-03")
	require.NoError(t, err)
	assert.False(t, off)
	require.NoError(t, tx.Commit())

	assert.NotNil(t, factory.Bind(nil).Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
