package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

const entryColumns = `id, course_id, instructor_id, to_char(date, 'YYYY-MM-DD') AS date, start_period, end_period, is_pre_assigned, is_exam, created_at, updated_at`

// ScheduleEntryRepository persists placed course blocks.
type ScheduleEntryRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewScheduleEntryRepository creates a new repository instance.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// WithExec returns a copy bound to the given executor.
func (r *ScheduleEntryRepository) WithExec(exec sqlx.ExtContext) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: r.db, ext: exec}
}

func (r *ScheduleEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	if r.ext != nil {
		return r.ext
	}
	return r.db
}

// FindByID returns an entry by id.
func (r *ScheduleEntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	if err := sqlx.GetContext(ctx, r.exec(nil), &entry, "SELECT "+entryColumns+" FROM schedule_entries WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListPreAssigned returns pre-assigned entries dated within [from, to].
func (r *ScheduleEntryRepository) ListPreAssigned(ctx context.Context, from, to string) ([]models.ScheduleEntry, error) {
	query := "SELECT " + entryColumns + " FROM schedule_entries WHERE is_pre_assigned = TRUE AND date BETWEEN $1 AND $2 ORDER BY date ASC, start_period ASC"
	var entries []models.ScheduleEntry
	if err := sqlx.SelectContext(ctx, r.exec(nil), &entries, query, from, to); err != nil {
		return nil, fmt.Errorf("list pre-assigned entries: %w", err)
	}
	return entries, nil
}

// AssignedHoursOnDate sums the teaching hours of a course on one date.
func (r *ScheduleEntryRepository) AssignedHoursOnDate(ctx context.Context, courseID, date string) (int, error) {
	const query = `SELECT COALESCE(SUM(end_period - start_period + 1), 0) FROM schedule_entries WHERE course_id = $1 AND date = $2 AND is_exam = FALSE`
	var hours int
	if err := sqlx.GetContext(ctx, r.exec(nil), &hours, query, courseID, date); err != nil {
		return 0, fmt.Errorf("sum course hours on date: %w", err)
	}
	return hours, nil
}

// TotalAssignedHours sums every teaching hour stored for a course.
func (r *ScheduleEntryRepository) TotalAssignedHours(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COALESCE(SUM(end_period - start_period + 1), 0) FROM schedule_entries WHERE course_id = $1 AND is_exam = FALSE`
	var hours int
	if err := sqlx.GetContext(ctx, r.exec(nil), &hours, query, courseID); err != nil {
		return 0, fmt.Errorf("sum course hours: %w", err)
	}
	return hours, nil
}

// HasOverlap reports whether any entry other than excludeID intersects
// [start, end] on the date.
func (r *ScheduleEntryRepository) HasOverlap(ctx context.Context, date string, start, end int, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM schedule_entries WHERE date = $1 AND start_period <= $3 AND end_period >= $2 AND ($4 = '' OR id::text <> $4))`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(nil), &exists, query, date, start, end, excludeID); err != nil {
		return false, fmt.Errorf("check entry overlap: %w", err)
	}
	return exists, nil
}

// HasInstructorOverlap is HasOverlap restricted to one instructor.
func (r *ScheduleEntryRepository) HasInstructorOverlap(ctx context.Context, instructorID, date string, start, end int, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM schedule_entries WHERE instructor_id = $1 AND date = $2 AND start_period <= $4 AND end_period >= $3 AND ($5 = '' OR id::text <> $5))`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(nil), &exists, query, instructorID, date, start, end, excludeID); err != nil {
		return false, fmt.Errorf("check instructor overlap: %w", err)
	}
	return exists, nil
}

// ListDetailed returns entries joined with course and instructor names.
func (r *ScheduleEntryRepository) ListDetailed(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("e.date >= $%d", len(args)+1))
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("e.date <= $%d", len(args)+1))
		args = append(args, filter.EndDate)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("e.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}

	query := `SELECT e.id, e.course_id, e.instructor_id, to_char(e.date, 'YYYY-MM-DD') AS date, e.start_period, e.end_period,
e.is_pre_assigned, e.is_exam, e.created_at, e.updated_at, c.name AS course_name, c.category AS course_category, i.name AS instructor_name
FROM schedule_entries e
JOIN courses c ON c.id = e.course_id
JOIN instructors i ON i.id = e.instructor_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.date ASC, e.start_period ASC"

	var entries []models.ScheduleEntryDetail
	if err := sqlx.SelectContext(ctx, r.exec(nil), &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// CreateBatch inserts entries in order, assigning ids and timestamps.
func (r *ScheduleEntryRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO schedule_entries (id, course_id, instructor_id, date, start_period, end_period, is_pre_assigned, is_exam, created_at, updated_at)
VALUES (:id, :course_id, :instructor_id, :date, :start_period, :end_period, :is_pre_assigned, :is_exam, :created_at, :updated_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("create schedule entry: %w", err)
		}
	}
	return nil
}

// UpdatePlacement moves an entry. Only date and periods change.
func (r *ScheduleEntryRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id, date string, start, end int) error {
	const query = `UPDATE schedule_entries SET date = $2, start_period = $3, end_period = $4, updated_at = $5 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, id, date, start, end, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an entry.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.exec(nil).ExecContext(ctx, "DELETE FROM schedule_entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return expectAffected(res)
}

// DeleteGenerated removes every entry the generator produced, keeping
// pre-assignments.
func (r *ScheduleEntryRepository) DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM schedule_entries WHERE is_pre_assigned = FALSE")
	if err != nil {
		return 0, fmt.Errorf("delete generated entries: %w", err)
	}
	return res.RowsAffected()
}

// LockDates takes a transaction-scoped advisory lock per distinct date in
// ascending order. It must run inside a transaction.
func (r *ScheduleEntryRepository) LockDates(ctx context.Context, exec sqlx.ExtContext, dates ...string) error {
	seen := make(map[string]bool, len(dates))
	unique := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != "" && !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	sort.Strings(unique)

	target := r.exec(exec)
	for _, d := range unique {
		if _, err := target.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "schedule:"+d); err != nil {
			return fmt.Errorf("lock date %s: %w", d, err)
		}
	}
	return nil
}
