package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

// Rules holds the allocation limits.
type Rules struct {
	SearchHorizonDays  int
	DailyHourCap       int
	ConsecutiveHourCap int
	ExamHours          int
	ExamDailyCap       int
}

// DefaultRules returns the stock limits: a 365 day horizon, 3 hours per course
// per day, 3 contiguous hours per instructor/course pair and a 2 hour exam.
func DefaultRules() Rules {
	return Rules{
		SearchHorizonDays:  365,
		DailyHourCap:       3,
		ConsecutiveHourCap: 3,
		ExamHours:          2,
		ExamDailyCap:       2,
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.SearchHorizonDays <= 0 {
		r.SearchHorizonDays = def.SearchHorizonDays
	}
	if r.DailyHourCap <= 0 {
		r.DailyHourCap = def.DailyHourCap
	}
	if r.ConsecutiveHourCap <= 0 {
		r.ConsecutiveHourCap = def.ConsecutiveHourCap
	}
	if r.ExamHours <= 0 {
		r.ExamHours = def.ExamHours
	}
	if r.ExamDailyCap <= 0 {
		r.ExamDailyCap = def.ExamDailyCap
	}
	return r
}

// HourShare is the part of a course's hours owed by one instructor name.
type HourShare struct {
	Name  string
	Hours int
}

// SplitHours divides total hours evenly across the names. The first name also
// receives the remainder. Blank names are ignored.
func SplitHours(total int, names []string) []HourShare {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 || total <= 0 {
		return nil
	}
	base := total / len(cleaned)
	remainder := total % len(cleaned)
	shares := make([]HourShare, len(cleaned))
	for i, name := range cleaned {
		shares[i] = HourShare{Name: name, Hours: base}
	}
	shares[0].Hours += remainder
	return shares
}

// AllocationError reports a course whose hours could not be placed.
type AllocationError struct {
	CourseID       string `json:"courseId"`
	CourseName     string `json:"courseName"`
	InstructorID   string `json:"instructorId,omitempty"`
	InstructorName string `json:"instructorName,omitempty"`
	RemainingHours int    `json:"remainingHours"`
	Reason         string `json:"reason"`
}

func (e *AllocationError) Error() string {
	if e.InstructorName != "" {
		return fmt.Sprintf("course %q: %s (instructor %s, %d hours remaining)", e.CourseName, e.Reason, e.InstructorName, e.RemainingHours)
	}
	return fmt.Sprintf("course %q: %s", e.CourseName, e.Reason)
}

// Assignment is the ordered list of entries proposed for one course.
type Assignment struct {
	CourseID string
	Entries  []models.ScheduleEntry
	Warnings []string
}

// TeachingHours sums the non-exam hours of the assignment.
func (a *Assignment) TeachingHours() int {
	total := 0
	for _, e := range a.Entries {
		if !e.IsExam {
			total += e.Hours()
		}
	}
	return total
}

// Allocator places course hours greedily, one course at a time, against an
// AvailabilityIndex.
type Allocator struct {
	index       *AvailabilityIndex
	instructors InstructorReader
	rules       Rules
	logger      *zap.Logger
}

// NewAllocator wires an allocator over an initialized index.
func NewAllocator(index *AvailabilityIndex, instructors InstructorReader, rules Rules, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{index: index, instructors: instructors, rules: rules.withDefaults(), logger: logger}
}

type resolvedShare struct {
	instructor models.Instructor
	hours      int
}

type slotSearch struct {
	courseID     string
	instructorID string
	from         time.Time
	hours        int
	dailyCap     int
	exact        bool
}

// AssignCourse proposes entries covering course.RequiredHours starting at
// startDate. Every accepted slot is marked in the index before the next search.
// A flagged course gets an exam block after its last teaching date when one fits.
func (al *Allocator) AssignCourse(ctx context.Context, course models.Course, startDate string) (*Assignment, error) {
	if course.RequiredHours <= 0 {
		return nil, &AllocationError{CourseID: course.ID, CourseName: course.Name, Reason: "required hours must be positive"}
	}
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	shares, err := al.resolveShares(ctx, course)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, &AllocationError{
			CourseID:       course.ID,
			CourseName:     course.Name,
			RemainingHours: course.RequiredHours,
			Reason:         fmt.Sprintf("no instructor could be resolved from %q", strings.Join(course.InstructorNames, ",")),
		}
	}

	placed := make(map[string]int)
	result := &Assignment{CourseID: course.ID}
	// The cursor carries over between shares so entries stay in date order.
	cursor := start
	for _, share := range shares {
		remaining := share.hours
		for remaining > 0 {
			slot, found, err := al.findSlot(ctx, slotSearch{
				courseID:     course.ID,
				instructorID: share.instructor.ID,
				from:         cursor,
				hours:        remaining,
				dailyCap:     al.rules.DailyHourCap,
			}, placed)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, &AllocationError{
					CourseID:       course.ID,
					CourseName:     course.Name,
					InstructorID:   share.instructor.ID,
					InstructorName: share.instructor.Name,
					RemainingHours: remaining,
					Reason:         fmt.Sprintf("no legal slot within %d days of %s", al.rules.SearchHorizonDays, FormatDate(cursor)),
				}
			}

			al.index.MarkOccupied(slot.Date, slot.StartPeriod, slot.EndPeriod, share.instructor.ID, course.ID)
			placed[slot.Date] += slot.Hours()
			remaining -= slot.Hours()
			result.Entries = append(result.Entries, models.ScheduleEntry{
				CourseID:     course.ID,
				InstructorID: share.instructor.ID,
				Date:         slot.Date,
				StartPeriod:  slot.StartPeriod,
				EndPeriod:    slot.EndPeriod,
			})
			cursor, _ = ParseDate(slot.Date)
		}
	}

	if course.Evaluation && len(result.Entries) > 0 {
		if err := al.scheduleExam(ctx, course, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (al *Allocator) resolveShares(ctx context.Context, course models.Course) ([]resolvedShare, error) {
	var out []resolvedShare
	for _, share := range SplitHours(course.RequiredHours, course.InstructorNames) {
		instructor, err := al.instructors.FindByName(ctx, share.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				al.logger.Warn("instructor not found, skipping share",
					zap.String("course_id", course.ID),
					zap.String("instructor", share.Name),
					zap.Int("hours", share.Hours))
				continue
			}
			return nil, fmt.Errorf("resolve instructor %q: %w", share.Name, err)
		}
		out = append(out, resolvedShare{instructor: *instructor, hours: share.Hours})
	}
	return out, nil
}

// findSlot walks forward from req.from one day at a time and returns the first
// legal slot. placed holds hours proposed earlier in this call that are not
// persisted yet and therefore invisible to the store.
func (al *Allocator) findSlot(ctx context.Context, req slotSearch, placed map[string]int) (Slot, bool, error) {
	pairCap := al.rules.ConsecutiveHourCap
	for day := 0; day < al.rules.SearchHorizonDays; day++ {
		current := req.from.AddDate(0, 0, day)
		if isWeekendDay(current) {
			continue
		}
		date := FormatDate(current)

		off, err := al.index.IsInstructorOffDay(ctx, req.instructorID, date)
		if err != nil {
			return Slot{}, false, fmt.Errorf("check off-day: %w", err)
		}
		if off {
			continue
		}
		holiday, err := al.index.IsHoliday(ctx, date)
		if err != nil {
			return Slot{}, false, fmt.Errorf("check holiday: %w", err)
		}
		if holiday {
			continue
		}

		persisted, err := al.index.AssignedHoursForCourseOnDate(ctx, req.courseID, date)
		if err != nil {
			return Slot{}, false, fmt.Errorf("count assigned hours: %w", err)
		}
		assigned := persisted + placed[date]
		if assigned >= req.dailyCap {
			continue
		}
		want := min(req.dailyCap-assigned, req.hours)
		if req.exact && want < req.hours {
			continue
		}

		run, ok := al.index.FindConsecutiveFreeRun(date, want)
		if !ok {
			continue
		}
		before := al.index.ConsecutiveHoursBefore(req.instructorID, req.courseID, date, run.StartPeriod)
		if before >= pairCap {
			continue
		}
		if before+run.Hours() > pairCap {
			if req.exact {
				continue
			}
			run, ok = al.index.FindConsecutiveFreeRun(date, pairCap-before)
			if !ok {
				continue
			}
		}
		if !al.withinConsecutiveCap(req, run) {
			continue
		}
		return run, true, nil
	}
	return Slot{}, false, nil
}

func (al *Allocator) withinConsecutiveCap(req slotSearch, run Slot) bool {
	before := al.index.ConsecutiveHoursBefore(req.instructorID, req.courseID, run.Date, run.StartPeriod)
	after := al.index.ConsecutiveHoursAfter(req.instructorID, req.courseID, run.Date, run.EndPeriod)
	return before+run.Hours()+after <= al.rules.ConsecutiveHourCap
}

func (al *Allocator) scheduleExam(ctx context.Context, course models.Course, result *Assignment) error {
	last := result.Entries[0]
	for _, e := range result.Entries[1:] {
		if e.Date >= last.Date {
			last = e
		}
	}
	lastDate, err := ParseDate(last.Date)
	if err != nil {
		return err
	}

	slot, found, err := al.findSlot(ctx, slotSearch{
		courseID:     course.ID,
		instructorID: last.InstructorID,
		from:         lastDate.AddDate(0, 0, 1),
		hours:        al.rules.ExamHours,
		dailyCap:     al.rules.ExamDailyCap,
		exact:        true,
	}, nil)
	if err != nil {
		return err
	}
	if !found {
		msg := fmt.Sprintf("course %q: no %d-hour exam slot found after %s", course.Name, al.rules.ExamHours, last.Date)
		al.logger.Warn("exam block skipped",
			zap.String("course_id", course.ID),
			zap.String("after", last.Date))
		result.Warnings = append(result.Warnings, msg)
		return nil
	}

	al.index.MarkOccupied(slot.Date, slot.StartPeriod, slot.EndPeriod, last.InstructorID, course.ID)
	result.Entries = append(result.Entries, models.ScheduleEntry{
		CourseID:     course.ID,
		InstructorID: last.InstructorID,
		Date:         slot.Date,
		StartPeriod:  slot.StartPeriod,
		EndPeriod:    slot.EndPeriod,
		IsExam:       true,
	})
	return nil
}
