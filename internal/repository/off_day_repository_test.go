package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

func TestOffDayRepositoryListJoinsInstructor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOffDayRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM off_days o JOIN instructors i ON i.id = o.instructor_id WHERE o.instructor_id = $1")).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "instructor_name", "date", "created_at"}).
			AddRow("o1", "i1", "Kim", "2024-01-03", time.Now()))

	items, err := repo.List(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kim", items[0].InstructorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOffDayRepositoryCreateAndCheck(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOffDayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO off_days (id, instructor_id, date, created_at)")).
		WithArgs(sqlmock.AnyArg(), "i1", "2024-01-03", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM off_days WHERE instructor_id = $1 AND date = $2)")).
		WithArgs("i1", "2024-01-03").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.Create(context.Background(), &models.OffDay{InstructorID: "i1", Date: "2024-01-03"}))
	off, err := repo.IsOffDay(context.Background(), "i1", "2024-01-03")
	require.NoError(t, err)
	assert.True(t, off)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOffDayRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOffDayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM off_days WHERE id = $1")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "o1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

