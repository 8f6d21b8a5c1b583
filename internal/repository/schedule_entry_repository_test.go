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

var entryRowColumns = []string{"id", "course_id", "instructor_id", "date", "start_period", "end_period", "is_pre_assigned", "is_exam", "created_at", "updated_at"}

func TestScheduleEntryRepositoryFindByIDFormatsDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("to_char(date, 'YYYY-MM-DD') AS date")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).AddRow("e1", "c1", "i1", "2024-01-02", 1, 3, true, false, now, now))

	entry, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", entry.Date)
	assert.Equal(t, 3, entry.Hours())
	assert.True(t, entry.IsPreAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryHourSumsExcludeExams(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(end_period - start_period + 1), 0) FROM schedule_entries WHERE course_id = $1 AND date = $2 AND is_exam = FALSE")).
		WithArgs("c1", "2024-01-02").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(end_period - start_period + 1), 0) FROM schedule_entries WHERE course_id = $1 AND is_exam = FALSE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(7))

	onDate, err := repo.AssignedHoursOnDate(context.Background(), "c1", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 2, onDate)
	total, err := repo.TotalAssignedHours(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryOverlapPredicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE date = $1 AND start_period <= $3 AND end_period >= $2")).
		WithArgs("2024-01-02", 2, 4, "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE instructor_id = $1 AND date = $2 AND start_period <= $4 AND end_period >= $3")).
		WithArgs("i1", "2024-01-02", 2, 4, "e1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.HasOverlap(context.Background(), "2024-01-02", 2, 4, "")
	require.NoError(t, err)
	assert.True(t, taken)
	busy, err := repo.HasInstructorOverlap(context.Background(), "i1", "2024-01-02", 2, 4, "e1")
	require.NoError(t, err)
	assert.False(t, busy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryListDetailedFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	now := time.Now()
	cols := append(append([]string{}, entryRowColumns...), "course_name", "course_category", "instructor_name")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.date >= $1 AND e.date <= $2 AND e.instructor_id = $3 ORDER BY e.date ASC, e.start_period ASC")).
		WithArgs("2024-01-01", "2024-01-31", "i1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("e1", "c1", "i1", "2024-01-02", 1, 3, false, false, now, now, "Tactics", "Core", "Kim"))

	items, err := repo.ListDetailed(context.Background(), models.ScheduleEntryFilter{StartDate: "2024-01-01", EndDate: "2024-01-31", InstructorID: "i1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tactics", items[0].CourseName)
	assert.Equal(t, "Kim", items[0].InstructorName)
	assert.Equal(t, "2024-01-02", items[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WithArgs(sqlmock.AnyArg(), "c1", "i1", "2024-01-01", 1, 3, false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WithArgs(sqlmock.AnyArg(), "c1", "i1", "2024-01-02", 1, 2, false, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entries := []models.ScheduleEntry{
		{CourseID: "c1", InstructorID: "i1", Date: "2024-01-01", StartPeriod: 1, EndPeriod: 3},
		{CourseID: "c1", InstructorID: "i1", Date: "2024-01-02", StartPeriod: 1, EndPeriod: 2, IsExam: true},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), nil, entries))
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryUpdatePlacementMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_entries SET date = $2, start_period = $3, end_period = $4")).
		WithArgs("e1", "2024-01-03", 2, 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePlacement(context.Background(), nil, "e1", "2024-01-03", 2, 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryDeleteGeneratedKeepsPreAssigned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE is_pre_assigned = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := repo.DeleteGenerated(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 12, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryLockDatesSortsAndDedupes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("schedule:2024-01-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("schedule:2024-01-05").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.LockDates(context.Background(), tx, "2024-01-05", "2024-01-02", "2024-01-05"))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
