package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
)

// SchedulerStore builds engine stores from the repositories, either over the
// pool or bound to a transaction.
type SchedulerStore struct {
	Courses     *CourseRepository
	Instructors *InstructorRepository
	Entries     *ScheduleEntryRepository
	OffDays     *OffDayRepository
	Holidays    *HolidayRepository
}

// NewSchedulerStore wires the repositories used by the engine.
func NewSchedulerStore(db *sqlx.DB) *SchedulerStore {
	return &SchedulerStore{
		Courses:     NewCourseRepository(db),
		Instructors: NewInstructorRepository(db),
		Entries:     NewScheduleEntryRepository(db),
		OffDays:     NewOffDayRepository(db),
		Holidays:    NewHolidayRepository(db),
	}
}

// Bind returns a store whose reads run on exec. A nil exec uses the pool.
func (s *SchedulerStore) Bind(exec sqlx.ExtContext) scheduler.Store {
	if exec == nil {
		return scheduler.Store{
			Courses:     s.Courses,
			Instructors: s.Instructors,
			Entries:     s.Entries,
			OffDays:     s.OffDays,
			Holidays:    s.Holidays,
		}
	}
	return scheduler.Store{
		Courses:     s.Courses.WithExec(exec),
		Instructors: s.Instructors.WithExec(exec),
		Entries:     s.Entries.WithExec(exec),
		OffDays:     s.OffDays.WithExec(exec),
		Holidays:    s.Holidays.WithExec(exec),
	}
}
