package scheduler

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noah-isme/course-scheduler-api/internal/models"
)

// memStore is an in-memory Store used by the engine tests.
type memStore struct {
	courses     map[string]models.Course
	instructors map[string]models.Instructor
	entries     []models.ScheduleEntry
	offDays     map[string]bool
	holidays    []models.Holiday
	nextID      int
}

func newMemStore() *memStore {
	return &memStore{
		courses:     make(map[string]models.Course),
		instructors: make(map[string]models.Instructor),
		offDays:     make(map[string]bool),
	}
}

func (m *memStore) store() Store {
	return Store{Courses: m, Instructors: memInstructors{m}, Entries: memEntries{m}, OffDays: m, Holidays: m}
}

func (m *memStore) addInstructor(id, name string) models.Instructor {
	inst := models.Instructor{ID: id, Name: name}
	m.instructors[id] = inst
	return inst
}

func (m *memStore) addCourse(c models.Course) models.Course {
	m.courses[c.ID] = c
	return c
}

func (m *memStore) addEntry(e models.ScheduleEntry) models.ScheduleEntry {
	if e.ID == "" {
		m.nextID++
		e.ID = fmt.Sprintf("entry-%d", m.nextID)
	}
	m.entries = append(m.entries, e)
	return e
}

func (m *memStore) addOffDay(instructorID, date string) {
	m.offDays[instructorID+"|"+date] = true
}

func (m *memStore) addHoliday(date string, start, end *int) {
	m.holidays = append(m.holidays, models.Holiday{Date: date, StartPeriod: start, EndPeriod: end})
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type memInstructors struct{ *memStore }

func (m memInstructors) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	inst, ok := m.instructors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inst, nil
}

func (m memInstructors) FindByName(_ context.Context, name string) (*models.Instructor, error) {
	for _, inst := range m.instructors {
		if inst.Name == name {
			found := inst
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memEntries struct{ *memStore }

func (m memEntries) FindByID(_ context.Context, id string) (*models.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memEntries) ListPreAssigned(_ context.Context, from, to string) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.IsPreAssigned && e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEntries) AssignedHoursOnDate(_ context.Context, courseID, date string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.CourseID == courseID && e.Date == date && !e.IsExam {
			total += e.Hours()
		}
	}
	return total, nil
}

func (m memEntries) TotalAssignedHours(_ context.Context, courseID string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.CourseID == courseID && !e.IsExam {
			total += e.Hours()
		}
	}
	return total, nil
}

func (m memEntries) HasOverlap(_ context.Context, date string, start, end int, excludeID string) (bool, error) {
	for _, e := range m.entries {
		if e.ID != excludeID && e.Date == date && e.StartPeriod <= end && e.EndPeriod >= start {
			return true, nil
		}
	}
	return false, nil
}

func (m memEntries) HasInstructorOverlap(_ context.Context, instructorID, date string, start, end int, excludeID string) (bool, error) {
	for _, e := range m.entries {
		if e.ID != excludeID && e.InstructorID == instructorID && e.Date == date && e.StartPeriod <= end && e.EndPeriod >= start {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) IsOffDay(_ context.Context, instructorID, date string) (bool, error) {
	return m.offDays[instructorID+"|"+date], nil
}

func (m *memStore) BlocksDay(_ context.Context, date string) (bool, error) {
	for _, h := range m.holidays {
		if h.Date == date && h.WholeDay() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) BlocksRange(_ context.Context, date string, start, end int) (bool, error) {
	for _, h := range m.holidays {
		if h.Date != date {
			continue
		}
		if h.WholeDay() || (*h.StartPeriod <= end && *h.EndPeriod >= start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListBetween(_ context.Context, from, to string) ([]models.Holiday, error) {
	var out []models.Holiday
	for _, h := range m.holidays {
		if h.Date >= from && h.Date <= to {
			out = append(out, h)
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }
