package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

// OffDayRepository stores instructor unavailability.
type OffDayRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewOffDayRepository creates a new repository instance.
func NewOffDayRepository(db *sqlx.DB) *OffDayRepository {
	return &OffDayRepository{db: db}
}

// WithExec returns a copy bound to the given executor.
func (r *OffDayRepository) WithExec(exec sqlx.ExtContext) *OffDayRepository {
	return &OffDayRepository{db: r.db, ext: exec}
}

func (r *OffDayRepository) exec() sqlx.ExtContext {
	if r.ext != nil {
		return r.ext
	}
	return r.db
}

// List returns off-days, optionally for one instructor.
func (r *OffDayRepository) List(ctx context.Context, instructorID string) ([]models.OffDay, error) {
	query := `SELECT o.id, o.instructor_id, i.name AS instructor_name, to_char(o.date, 'YYYY-MM-DD') AS date, o.created_at
FROM off_days o JOIN instructors i ON i.id = o.instructor_id`
	var args []interface{}
	if instructorID != "" {
		query += " WHERE o.instructor_id = $1"
		args = append(args, instructorID)
	}
	query += " ORDER BY o.date ASC, i.name ASC"

	var items []models.OffDay
	if err := sqlx.SelectContext(ctx, r.exec(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list off-days: %w", err)
	}
	return items, nil
}

// Create persists an off-day.
func (r *OffDayRepository) Create(ctx context.Context, offDay *models.OffDay) error {
	if offDay.ID == "" {
		offDay.ID = uuid.NewString()
	}
	if offDay.CreatedAt.IsZero() {
		offDay.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO off_days (id, instructor_id, date, created_at) VALUES (:id, :instructor_id, :date, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(), query, offDay); err != nil {
		return fmt.Errorf("create off-day: %w", err)
	}
	return nil
}

// Delete removes an off-day.
func (r *OffDayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.exec().ExecContext(ctx, "DELETE FROM off_days WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete off-day: %w", err)
	}
	return expectAffected(res)
}

// IsOffDay reports whether the instructor is unavailable on the date.
func (r *OffDayRepository) IsOffDay(ctx context.Context, instructorID, date string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM off_days WHERE instructor_id = $1 AND date = $2)`
	if err := sqlx.GetContext(ctx, r.exec(), &exists, query, instructorID, date); err != nil {
		return false, fmt.Errorf("check off-day: %w", err)
	}
	return exists, nil
}
