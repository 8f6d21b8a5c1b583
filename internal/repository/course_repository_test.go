package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

var courseRowColumns = []string{"id", "category", "name", "required_hours", "instructor_names", "assignment_mode", "evaluation", "sort_order", "created_at", "updated_at"}

func TestCourseRepositoryListAutomaticOrdersBySortOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("c1", "Core", "Tactics", 9, "{Kim}", "automatic", true, 1, now, now).
		AddRow("c2", "Core", "Logistics", 6, "{Lee}", "automatic", false, 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE assignment_mode = $1 ORDER BY sort_order ASC, id ASC")).
		WithArgs("automatic").
		WillReturnRows(rows)

	courses, err := repo.ListAutomatic(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, pq.StringArray{"Kim"}, courses[0].InstructorNames)
	assert.True(t, courses[0].Evaluation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND assignment_mode = $1 AND (LOWER(name) LIKE $2 OR LOWER(category) LIKE $2) ORDER BY sort_order ASC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("manual", "%tac%").
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND assignment_mode = $1")).
		WithArgs("manual", "%tac%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	_, total, err := repo.List(context.Background(), models.CourseFilter{Search: "Tac", AssignmentMode: models.AssignmentModeManual, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WithArgs(sqlmock.AnyArg(), "Core", "Tactics", 9, sqlmock.AnyArg(), "automatic", false, 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Category: "Core", Name: "Tactics", RequiredHours: 9, InstructorNames: pq.StringArray{"Kim"}, AssignmentMode: models.AssignmentModeAutomatic, SortOrder: 3}
	require.NoError(t, repo.Create(context.Background(), nil, course))
	assert.NotEmpty(t, course.ID)
	assert.False(t, course.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateMissingReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Course{ID: "missing", InstructorNames: pq.StringArray{"Kim"}})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteAllInsideTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sort_order), 0) + 1 FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	deleted, err := repo.DeleteAll(context.Background(), tx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, deleted)
	next, err := repo.WithExec(tx).NextSortOrder(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
