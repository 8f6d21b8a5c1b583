package scheduler

import (
	"context"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

// Lookups return sql.ErrNoRows when the record does not exist.

type CourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type InstructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindByName(ctx context.Context, name string) (*models.Instructor, error)
}

// EntryReader answers questions about persisted schedule entries. Hour sums
// exclude exam blocks.
type EntryReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	ListPreAssigned(ctx context.Context, from, to string) ([]models.ScheduleEntry, error)
	AssignedHoursOnDate(ctx context.Context, courseID, date string) (int, error)
	TotalAssignedHours(ctx context.Context, courseID string) (int, error)
	HasOverlap(ctx context.Context, date string, start, end int, excludeID string) (bool, error)
	HasInstructorOverlap(ctx context.Context, instructorID, date string, start, end int, excludeID string) (bool, error)
}

type OffDayReader interface {
	IsOffDay(ctx context.Context, instructorID, date string) (bool, error)
}

// HolidayReader answers blackout queries. BlocksDay only matches whole-day
// blackouts; BlocksRange matches whole-day blackouts and any partial one that
// intersects [start, end].
type HolidayReader interface {
	BlocksDay(ctx context.Context, date string) (bool, error)
	BlocksRange(ctx context.Context, date string, start, end int) (bool, error)
	ListBetween(ctx context.Context, from, to string) ([]models.Holiday, error)
}

// Store bundles the persisted-state readers the engine consults.
type Store struct {
	Courses     CourseReader
	Instructors InstructorReader
	Entries     EntryReader
	OffDays     OffDayReader
	Holidays    HolidayReader
}
