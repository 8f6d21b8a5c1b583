package scheduler

import (
	"context"
	"fmt"
	"time"
)

type slotKey struct {
	date   string
	period int
}

type slotOwner struct {
	instructorID string
	courseID     string
}

// Slot is a contiguous period range on one date.
type Slot struct {
	Date        string `json:"date"`
	StartPeriod int    `json:"startPeriod"`
	EndPeriod   int    `json:"endPeriod"`
}

// Hours returns the number of periods covered by the slot.
func (s Slot) Hours() int {
	return s.EndPeriod - s.StartPeriod + 1
}

// AvailabilityIndex tracks which (date, period) slots are taken during one
// generation run. It is built per run and must not be shared between runs.
// Slots outside the initialized window are treated as free.
type AvailabilityIndex struct {
	store    Store
	from     time.Time
	to       time.Time
	occupied map[slotKey]bool
	owners   map[slotKey]slotOwner
}

// NewAvailabilityIndex builds an empty index backed by the given store.
func NewAvailabilityIndex(store Store) *AvailabilityIndex {
	return &AvailabilityIndex{
		store:    store,
		occupied: make(map[slotKey]bool),
		owners:   make(map[slotKey]slotOwner),
	}
}

// Initialize resets the index and registers every weekday period in
// [startDate, startDate+horizonDays) as free.
func (a *AvailabilityIndex) Initialize(startDate string, horizonDays int) error {
	start, err := ParseDate(startDate)
	if err != nil {
		return err
	}
	if horizonDays <= 0 {
		horizonDays = DefaultRules().SearchHorizonDays
	}

	a.from = start
	a.to = start.AddDate(0, 0, horizonDays-1)
	a.occupied = make(map[slotKey]bool, horizonDays*7)
	a.owners = make(map[slotKey]slotOwner)

	for day := 0; day < horizonDays; day++ {
		current := start.AddDate(0, 0, day)
		limit := MaxPeriods(current.Weekday())
		date := FormatDate(current)
		for period := 1; period <= limit; period++ {
			a.occupied[slotKey{date, period}] = false
		}
	}
	return nil
}

// Window returns the first and last date covered by Initialize.
func (a *AvailabilityIndex) Window() (string, string) {
	return FormatDate(a.from), FormatDate(a.to)
}

// MarkPreAssigned loads persisted pre-assigned entries in [from, to] and marks
// their slots occupied under their own instructor/course pair.
func (a *AvailabilityIndex) MarkPreAssigned(ctx context.Context, from, to string) (int, error) {
	entries, err := a.store.Entries.ListPreAssigned(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load pre-assigned entries: %w", err)
	}
	for _, entry := range entries {
		a.MarkOccupied(entry.Date, entry.StartPeriod, entry.EndPeriod, entry.InstructorID, entry.CourseID)
	}
	return len(entries), nil
}

// MarkHolidays blocks the periods of every blackout in [from, to]. Partial
// ranges are clipped to the periods taught that day.
func (a *AvailabilityIndex) MarkHolidays(ctx context.Context, from, to string) (int, error) {
	holidays, err := a.store.Holidays.ListBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load holidays: %w", err)
	}
	for _, h := range holidays {
		limit, err := MaxPeriodsOn(h.Date)
		if err != nil {
			return 0, err
		}
		for period := 1; period <= limit; period++ {
			if h.Covers(period) {
				a.MarkOccupied(h.Date, period, period, "", "")
			}
		}
	}
	return len(holidays), nil
}

// IsOccupied reports whether the slot is taken.
func (a *AvailabilityIndex) IsOccupied(date string, period int) bool {
	return a.occupied[slotKey{date, period}]
}

// MarkOccupied takes [start, end] on the date. A non-empty instructor/course
// pair is recorded for consecutive-hour lookups.
func (a *AvailabilityIndex) MarkOccupied(date string, start, end int, instructorID, courseID string) {
	for period := start; period <= end; period++ {
		key := slotKey{date, period}
		a.occupied[key] = true
		if instructorID != "" || courseID != "" {
			a.owners[key] = slotOwner{instructorID: instructorID, courseID: courseID}
		} else {
			delete(a.owners, key)
		}
	}
}

// FindConsecutiveFreeRun returns the earliest run of hours free periods on the
// date. Weekends and dates outside the weekly template never match.
func (a *AvailabilityIndex) FindConsecutiveFreeRun(date string, hours int) (Slot, bool) {
	if hours <= 0 {
		return Slot{}, false
	}
	limit, err := MaxPeriodsOn(date)
	if err != nil || limit == 0 {
		return Slot{}, false
	}
	for start := 1; start+hours-1 <= limit; start++ {
		free := true
		for period := start; period < start+hours; period++ {
			if a.IsOccupied(date, period) {
				free = false
				break
			}
		}
		if free {
			return Slot{Date: date, StartPeriod: start, EndPeriod: start + hours - 1}, true
		}
	}
	return Slot{}, false
}

// ConsecutiveHoursBefore counts the contiguous periods ending at startPeriod-1
// that belong to the same instructor/course pair.
func (a *AvailabilityIndex) ConsecutiveHoursBefore(instructorID, courseID, date string, startPeriod int) int {
	owner := slotOwner{instructorID: instructorID, courseID: courseID}
	count := 0
	for period := startPeriod - 1; period >= 1; period-- {
		key := slotKey{date, period}
		if !a.occupied[key] || a.owners[key] != owner {
			break
		}
		count++
	}
	return count
}

// ConsecutiveHoursAfter counts the contiguous periods starting at endPeriod+1
// that belong to the same instructor/course pair.
func (a *AvailabilityIndex) ConsecutiveHoursAfter(instructorID, courseID, date string, endPeriod int) int {
	limit, err := MaxPeriodsOn(date)
	if err != nil {
		return 0
	}
	owner := slotOwner{instructorID: instructorID, courseID: courseID}
	count := 0
	for period := endPeriod + 1; period <= limit; period++ {
		key := slotKey{date, period}
		if !a.occupied[key] || a.owners[key] != owner {
			break
		}
		count++
	}
	return count
}

// AssignedHoursForCourseOnDate returns the persisted teaching hours of the course on the date.
func (a *AvailabilityIndex) AssignedHoursForCourseOnDate(ctx context.Context, courseID, date string) (int, error) {
	return a.store.Entries.AssignedHoursOnDate(ctx, courseID, date)
}

// TotalAssignedHoursForCourse returns the persisted teaching hours of the course.
func (a *AvailabilityIndex) TotalAssignedHoursForCourse(ctx context.Context, courseID string) (int, error) {
	return a.store.Entries.TotalAssignedHours(ctx, courseID)
}

// IsInstructorOffDay reports whether the instructor is unavailable on the date.
func (a *AvailabilityIndex) IsInstructorOffDay(ctx context.Context, instructorID, date string) (bool, error) {
	return a.store.OffDays.IsOffDay(ctx, instructorID, date)
}

// IsHoliday reports whether a whole-day blackout applies to the date.
func (a *AvailabilityIndex) IsHoliday(ctx context.Context, date string) (bool, error) {
	return a.store.Holidays.BlocksDay(ctx, date)
}

// IsHolidayPeriod reports whether any blackout covers the period on the date.
func (a *AvailabilityIndex) IsHolidayPeriod(ctx context.Context, date string, period int) (bool, error) {
	return a.store.Holidays.BlocksRange(ctx, date, period, period)
}
