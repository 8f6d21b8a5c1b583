package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/repository"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
)

// memScheduling backs the scheduler.Store and the service write ports with
// plain maps so orchestration can be tested without SQL.
type memScheduling struct {
	courses     []models.Course
	instructors map[string]models.Instructor
	entries     []models.ScheduleEntry
	offDays     map[string]bool
	holidays    []models.Holiday
	nextID      int

	deletedGenerated int
	batches          int
	failBatch        error
	lockedDates      []string
}

func newMemScheduling() *memScheduling {
	return &memScheduling{
		instructors: make(map[string]models.Instructor),
		offDays:     make(map[string]bool),
	}
}

func (m *memScheduling) addInstructor(id, name string) {
	m.instructors[id] = models.Instructor{ID: id, Name: name}
}

func (m *memScheduling) addCourse(c models.Course) {
	m.courses = append(m.courses, c)
}

func (m *memScheduling) addEntry(e models.ScheduleEntry) models.ScheduleEntry {
	if e.ID == "" {
		m.nextID++
		e.ID = fmt.Sprintf("entry-%d", m.nextID)
	}
	m.entries = append(m.entries, e)
	return e
}

func (m *memScheduling) Bind(_ sqlx.ExtContext) scheduler.Store {
	return scheduler.Store{
		Courses:     memCourseReader{m},
		Instructors: memInstructorReader{m},
		Entries:     memEntryReader{m},
		OffDays:     m,
		Holidays:    m,
	}
}

func (m *memScheduling) ListAutomatic(_ context.Context, _ sqlx.ExtContext) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.AssignmentMode == models.AssignmentModeAutomatic {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memScheduling) DeleteGenerated(_ context.Context, _ sqlx.ExtContext) (int64, error) {
	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if e.IsPreAssigned {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	m.entries = kept
	m.deletedGenerated += int(removed)
	return removed, nil
}

func (m *memScheduling) CreateBatch(_ context.Context, _ sqlx.ExtContext, entries []models.ScheduleEntry) error {
	if m.failBatch != nil {
		return m.failBatch
	}
	m.batches++
	for i := range entries {
		entries[i] = m.addEntry(entries[i])
	}
	return nil
}

func (m *memScheduling) ListDetailed(_ context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, error) {
	var out []models.ScheduleEntryDetail
	for _, e := range m.entries {
		if filter.StartDate != "" && e.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && e.Date > filter.EndDate {
			continue
		}
		if filter.InstructorID != "" && e.InstructorID != filter.InstructorID {
			continue
		}
		detail := models.ScheduleEntryDetail{ScheduleEntry: e, InstructorName: m.instructors[e.InstructorID].Name}
		for _, c := range m.courses {
			if c.ID == e.CourseID {
				detail.CourseName = c.Name
				detail.CourseCategory = c.Category
			}
		}
		out = append(out, detail)
	}
	return out, nil
}

func (m *memScheduling) UpdatePlacement(_ context.Context, _ sqlx.ExtContext, id, date string, start, end int) error {
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Date = date
			m.entries[i].StartPeriod = start
			m.entries[i].EndPeriod = end
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memScheduling) Delete(_ context.Context, id string) error {
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memScheduling) LockDates(_ context.Context, _ sqlx.ExtContext, dates ...string) error {
	m.lockedDates = append(m.lockedDates, dates...)
	return nil
}

func (m *memScheduling) IsOffDay(_ context.Context, instructorID, date string) (bool, error) {
	return m.offDays[instructorID+"|"+date], nil
}

func (m *memScheduling) BlocksDay(_ context.Context, date string) (bool, error) {
	for _, h := range m.holidays {
		if h.Date == date && h.WholeDay() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memScheduling) BlocksRange(_ context.Context, date string, start, end int) (bool, error) {
	for _, h := range m.holidays {
		if h.Date == date && (h.WholeDay() || (*h.StartPeriod <= end && *h.EndPeriod >= start)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memScheduling) ListBetween(_ context.Context, from, to string) ([]models.Holiday, error) {
	var out []models.Holiday
	for _, h := range m.holidays {
		if h.Date >= from && h.Date <= to {
			out = append(out, h)
		}
	}
	return out, nil
}

type memCourseReader struct{ *memScheduling }

func (m memCourseReader) FindByID(_ context.Context, id string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memInstructorReader struct{ *memScheduling }

func (m memInstructorReader) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	inst, ok := m.instructors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inst, nil
}

func (m memInstructorReader) FindByName(_ context.Context, name string) (*models.Instructor, error) {
	for _, inst := range m.instructors {
		if inst.Name == name {
			found := inst
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memEntryReader struct{ *memScheduling }

func (m memEntryReader) FindByID(_ context.Context, id string) (*models.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memEntryReader) ListPreAssigned(_ context.Context, from, to string) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.IsPreAssigned && e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEntryReader) AssignedHoursOnDate(_ context.Context, courseID, date string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.CourseID == courseID && e.Date == date && !e.IsExam {
			total += e.Hours()
		}
	}
	return total, nil
}

func (m memEntryReader) TotalAssignedHours(_ context.Context, courseID string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.CourseID == courseID && !e.IsExam {
			total += e.Hours()
		}
	}
	return total, nil
}

func (m memEntryReader) HasOverlap(_ context.Context, date string, start, end int, excludeID string) (bool, error) {
	for _, e := range m.entries {
		if e.ID != excludeID && e.Date == date && e.StartPeriod <= end && e.EndPeriod >= start {
			return true, nil
		}
	}
	return false, nil
}

func (m memEntryReader) HasInstructorOverlap(_ context.Context, instructorID, date string, start, end int, excludeID string) (bool, error) {
	for _, e := range m.entries {
		if e.ID != excludeID && e.InstructorID == instructorID && e.Date == date && e.StartPeriod <= end && e.EndPeriod >= start {
			return true, nil
		}
	}
	return false, nil
}

type lockerStub struct {
	mu       sync.Mutex
	held     bool
	acquired int
	released int
	err      error
}

func (l *lockerStub) Acquire(_ context.Context, _ string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if l.held {
		return "", repository.ErrLockHeld
	}
	l.held = true
	l.acquired++
	return "token", nil
}

func (l *lockerStub) Release(_ context.Context, _ string, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released++
	return nil
}

func intPtr(v int) *int { return &v }
