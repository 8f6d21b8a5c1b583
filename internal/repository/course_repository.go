package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

const courseColumns = `id, category, name, required_hours, instructor_names, assignment_mode, evaluation, sort_order, created_at, updated_at`

// CourseRepository handles persistence for catalogue courses.
type CourseRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// WithExec returns a copy bound to the given executor, typically a transaction.
func (r *CourseRepository) WithExec(exec sqlx.ExtContext) *CourseRepository {
	return &CourseRepository{db: r.db, ext: exec}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	if r.ext != nil {
		return r.ext
	}
	return r.db
}

// List returns courses matching filters with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AssignmentMode != "" {
		conditions = append(conditions, fmt.Sprintf("assignment_mode = $%d", len(args)+1))
		args = append(args, filter.AssignmentMode)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(category) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY sort_order ASC, id ASC LIMIT %d OFFSET %d", courseColumns, base, size, offset)
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, r.exec(nil), &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.exec(nil), &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListAutomatic returns the courses the generator places, in processing order.
func (r *CourseRepository) ListAutomatic(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE assignment_mode = $1 ORDER BY sort_order ASC, id ASC"
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, r.exec(exec), &courses, query, models.AssignmentModeAutomatic); err != nil {
		return nil, fmt.Errorf("list automatic courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(nil), &course, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &course, nil
}

// NextSortOrder returns the sort position after the current last course.
func (r *CourseRepository) NextSortOrder(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	var next int
	if err := sqlx.GetContext(ctx, r.exec(exec), &next, "SELECT COALESCE(MAX(sort_order), 0) + 1 FROM courses"); err != nil {
		return 0, fmt.Errorf("next course sort order: %w", err)
	}
	return next, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, category, name, required_hours, instructor_names, assignment_mode, evaluation, sort_order, created_at, updated_at)
VALUES (:id, :category, :name, :required_hours, :instructor_names, :assignment_mode, :evaluation, :sort_order, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET category = :category, name = :name, required_hours = :required_hours, instructor_names = :instructor_names,
assignment_mode = :assignment_mode, evaluation = :evaluation, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(nil), query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a course. Its schedule entries cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.exec(nil).ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return expectAffected(res)
}

// DeleteAll clears the catalogue ahead of a spreadsheet import.
func (r *CourseRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM courses")
	if err != nil {
		return 0, fmt.Errorf("delete courses: %w", err)
	}
	return res.RowsAffected()
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
