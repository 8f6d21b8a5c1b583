package models

import (
	"time"

	"github.com/lib/pq"
)

// AssignmentMode tells the generator whether a course is placed automatically.
type AssignmentMode string

const (
	AssignmentModeManual    AssignmentMode = "manual"
	AssignmentModeAutomatic AssignmentMode = "automatic"
)

// Course is a catalogue row requiring a fixed number of teaching hours.
type Course struct {
	ID              string         `db:"id" json:"id"`
	Category        string         `db:"category" json:"category"`
	Name            string         `db:"name" json:"name"`
	RequiredHours   int            `db:"required_hours" json:"requiredHours"`
	InstructorNames pq.StringArray `db:"instructor_names" json:"instructorNames"`
	AssignmentMode  AssignmentMode `db:"assignment_mode" json:"assignmentMode"`
	Evaluation      bool           `db:"evaluation" json:"evaluation"`
	SortOrder       int            `db:"sort_order" json:"sortOrder"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search         string
	AssignmentMode AssignmentMode
	Page           int
	PageSize       int
}
