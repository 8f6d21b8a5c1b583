package models

import "time"

// OffDay marks an instructor unavailable for a whole date.
type OffDay struct {
	ID             string    `db:"id" json:"id"`
	InstructorID   string    `db:"instructor_id" json:"instructorId"`
	InstructorName string    `db:"instructor_name" json:"instructorName,omitempty"`
	Date           string    `db:"date" json:"date"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
