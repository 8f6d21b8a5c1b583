package models

import "time"

// ScheduleEntry places one course/instructor block on a date across a period range.
type ScheduleEntry struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"courseId"`
	InstructorID  string    `db:"instructor_id" json:"instructorId"`
	Date          string    `db:"date" json:"date"`
	StartPeriod   int       `db:"start_period" json:"startPeriod"`
	EndPeriod     int       `db:"end_period" json:"endPeriod"`
	IsPreAssigned bool      `db:"is_pre_assigned" json:"isPreAssigned"`
	IsExam        bool      `db:"is_exam" json:"isExam"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Hours returns the number of periods covered by the entry.
func (e ScheduleEntry) Hours() int {
	return e.EndPeriod - e.StartPeriod + 1
}

// ScheduleEntryDetail joins an entry with its course and instructor names.
type ScheduleEntryDetail struct {
	ScheduleEntry
	CourseName     string `db:"course_name" json:"courseName"`
	CourseCategory string `db:"course_category" json:"courseCategory"`
	InstructorName string `db:"instructor_name" json:"instructorName"`
	StartTime      string `db:"-" json:"startTime,omitempty"`
	EndTime        string `db:"-" json:"endTime,omitempty"`
}

// ScheduleEntryFilter narrows schedule listings. Empty fields are ignored.
type ScheduleEntryFilter struct {
	StartDate    string
	EndDate      string
	InstructorID string
}
