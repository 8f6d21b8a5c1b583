package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

const holidayColumns = `id, to_char(date, 'YYYY-MM-DD') AS date, start_period, end_period, description, created_at`

// HolidayRepository stores institution-wide blackouts.
type HolidayRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewHolidayRepository creates a new repository instance.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// WithExec returns a copy bound to the given executor.
func (r *HolidayRepository) WithExec(exec sqlx.ExtContext) *HolidayRepository {
	return &HolidayRepository{db: r.db, ext: exec}
}

func (r *HolidayRepository) exec() sqlx.ExtContext {
	if r.ext != nil {
		return r.ext
	}
	return r.db
}

// ListBetween returns blackouts dated within [from, to]. Empty bounds are open.
func (r *HolidayRepository) ListBetween(ctx context.Context, from, to string) ([]models.Holiday, error) {
	var conditions []string
	var args []interface{}
	if from != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, from)
	}
	if to != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, to)
	}
	query := "SELECT " + holidayColumns + " FROM holidays"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, start_period ASC NULLS FIRST"

	var items []models.Holiday
	if err := sqlx.SelectContext(ctx, r.exec(), &items, query, args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return items, nil
}

// Create persists a blackout.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO holidays (id, date, start_period, end_period, description, created_at)
VALUES (:id, :date, :start_period, :end_period, :description, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(), query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Delete removes a blackout.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.exec().ExecContext(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return expectAffected(res)
}

// BlocksDay reports whether a whole-day blackout exists on the date.
func (r *HolidayRepository) BlocksDay(ctx context.Context, date string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1 AND start_period IS NULL)`
	if err := sqlx.GetContext(ctx, r.exec(), &exists, query, date); err != nil {
		return false, fmt.Errorf("check whole-day holiday: %w", err)
	}
	return exists, nil
}

// BlocksRange reports whether any blackout on the date touches [start, end].
func (r *HolidayRepository) BlocksRange(ctx context.Context, date string, start, end int) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1 AND (start_period IS NULL OR (start_period <= $3 AND end_period >= $2)))`
	if err := sqlx.GetContext(ctx, r.exec(), &exists, query, date, start, end); err != nil {
		return false, fmt.Errorf("check holiday range: %w", err)
	}
	return exists, nil
}
