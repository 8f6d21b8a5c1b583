package dto

import "github.com/noah-isme/course-scheduler-api/internal/scheduler"

// GenerateScheduleRequest starts a generation run from the given date.
type GenerateScheduleRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// GenerationFailure describes one course the generator could not place.
type GenerationFailure struct {
	CourseID       string `json:"courseId"`
	CourseName     string `json:"courseName"`
	InstructorID   string `json:"instructorId,omitempty"`
	InstructorName string `json:"instructorName,omitempty"`
	RemainingHours int    `json:"remainingHours"`
	Message        string `json:"message"`
}

// GenerateScheduleResult summarises a generation run.
type GenerateScheduleResult struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message"`
	ScheduleCount int                 `json:"scheduleCount"`
	Errors        []GenerationFailure `json:"errors"`
	Warnings      []string            `json:"warnings"`
}

// FailureFromAllocation converts an engine allocation error.
func FailureFromAllocation(err *scheduler.AllocationError) GenerationFailure {
	return GenerationFailure{
		CourseID:       err.CourseID,
		CourseName:     err.CourseName,
		InstructorID:   err.InstructorID,
		InstructorName: err.InstructorName,
		RemainingHours: err.RemainingHours,
		Message:        err.Error(),
	}
}
