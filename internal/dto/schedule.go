package dto

// CreateScheduleEntryRequest is a manual pre-assignment.
type CreateScheduleEntryRequest struct {
	CourseID     string `json:"courseId" validate:"required"`
	InstructorID string `json:"instructorId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartPeriod  int    `json:"startPeriod" validate:"required,min=1"`
	EndPeriod    int    `json:"endPeriod" validate:"required,min=1"`
}

// UpdateScheduleEntryRequest moves an entry to a new date and period range.
type UpdateScheduleEntryRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartPeriod int    `json:"startPeriod" validate:"required,min=1"`
	EndPeriod   int    `json:"endPeriod" validate:"required,min=1"`
}

// ScheduleQuery narrows schedule listings and exports.
type ScheduleQuery struct {
	StartDate    string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
	InstructorID string `form:"instructorId"`
}

// ExportScheduleQuery selects an export format on top of the listing filters.
type ExportScheduleQuery struct {
	ScheduleQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx ics"`
}

// PlacementValidationResponse reports a dry-run verdict.
type PlacementValidationResponse struct {
	Valid   bool           `json:"valid"`
	Kind    string         `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
