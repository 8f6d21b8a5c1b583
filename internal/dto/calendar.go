package dto

// CreateOffDayRequest marks an instructor unavailable on a date.
type CreateOffDayRequest struct {
	InstructorID string `json:"instructorId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

// CreateHolidayRequest adds a blackout. Omitting both periods blocks the whole day.
type CreateHolidayRequest struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartPeriod *int    `json:"startPeriod" validate:"omitempty,min=1,max=9"`
	EndPeriod   *int    `json:"endPeriod" validate:"omitempty,min=1,max=9"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// HolidayQuery filters holidays by date range.
type HolidayQuery struct {
	StartDate string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// PeriodTableResponse is the weekly template for one date.
type PeriodTableResponse struct {
	Date       string      `json:"date"`
	Weekday    string      `json:"weekday"`
	MaxPeriods int         `json:"maxPeriods"`
	Periods    []PeriodDTO `json:"periods"`
}

// PeriodDTO is one period row of the template.
type PeriodDTO struct {
	Period int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}
