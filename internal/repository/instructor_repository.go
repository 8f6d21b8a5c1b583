package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

// InstructorRepository handles persistence for instructors.
type InstructorRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewInstructorRepository creates a new repository instance.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// WithExec returns a copy bound to the given executor.
func (r *InstructorRepository) WithExec(exec sqlx.ExtContext) *InstructorRepository {
	return &InstructorRepository{db: r.db, ext: exec}
}

func (r *InstructorRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	if r.ext != nil {
		return r.ext
	}
	return r.db
}

// List returns every instructor ordered by name.
func (r *InstructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	var instructors []models.Instructor
	if err := sqlx.SelectContext(ctx, r.exec(nil), &instructors, "SELECT id, name, created_at FROM instructors ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID returns an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	var instructor models.Instructor
	if err := sqlx.GetContext(ctx, r.exec(nil), &instructor, "SELECT id, name, created_at FROM instructors WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// FindByName returns an instructor by exact, trimmed name.
func (r *InstructorRepository) FindByName(ctx context.Context, name string) (*models.Instructor, error) {
	var instructor models.Instructor
	if err := sqlx.GetContext(ctx, r.exec(nil), &instructor, "SELECT id, name, created_at FROM instructors WHERE name = $1", strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Create persists a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, exec sqlx.ExtContext, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = time.Now().UTC()
	}
	instructor.Name = strings.TrimSpace(instructor.Name)

	const query = `INSERT INTO instructors (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// FindOrCreate returns the instructor with the given name, creating it when
// missing. The boolean reports whether a row was inserted.
func (r *InstructorRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, name string) (*models.Instructor, bool, error) {
	name = strings.TrimSpace(name)
	var instructor models.Instructor
	err := sqlx.GetContext(ctx, r.exec(exec), &instructor, "SELECT id, name, created_at FROM instructors WHERE name = $1", name)
	if err == nil {
		return &instructor, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find instructor %q: %w", name, err)
	}

	instructor = models.Instructor{Name: name}
	if err := r.Create(ctx, exec, &instructor); err != nil {
		return nil, false, err
	}
	return &instructor, true, nil
}
