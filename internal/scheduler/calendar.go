package scheduler

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// Period is one numbered class slot with its wall-clock bounds.
type Period struct {
	Number int    `json:"period"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

var (
	fullDayPeriods = []Period{
		{1, "08:05", "08:50"},
		{2, "08:55", "09:40"},
		{3, "09:45", "10:30"},
		{4, "10:35", "11:20"},
		{5, "13:00", "13:45"},
		{6, "13:50", "14:35"},
		{7, "14:40", "15:25"},
		{8, "15:30", "16:15"},
		{9, "16:20", "17:05"},
	}
	thursdayPeriods = []Period{
		{1, "08:40", "09:25"},
		{2, "09:30", "10:15"},
		{3, "10:20", "11:05"},
		{4, "13:00", "13:45"},
		{5, "13:50", "14:35"},
		{6, "14:40", "15:25"},
		{7, "15:30", "16:15"},
		{8, "16:20", "17:05"},
	}
	fridayPeriods = []Period{
		{1, "08:40", "09:25"},
		{2, "09:30", "10:15"},
		{3, "10:20", "11:05"},
		{4, "13:00", "13:45"},
		{5, "13:50", "14:35"},
	}

	weeklyTemplate = map[time.Weekday][]Period{
		time.Monday:    fullDayPeriods,
		time.Tuesday:   fullDayPeriods,
		time.Wednesday: fullDayPeriods,
		time.Thursday:  thursdayPeriods,
		time.Friday:    fridayPeriods,
	}
)

// MaxPeriods returns the number of periods taught on the weekday. Weekends have none.
func MaxPeriods(day time.Weekday) int {
	return len(weeklyTemplate[day])
}

// PeriodTime returns the clock bounds of a period on the weekday.
func PeriodTime(day time.Weekday, period int) (Period, bool) {
	periods := weeklyTemplate[day]
	if period < 1 || period > len(periods) {
		return Period{}, false
	}
	return periods[period-1], true
}

// Periods returns a copy of the weekday's period table.
func Periods(day time.Weekday) []Period {
	periods := weeklyTemplate[day]
	out := make([]Period, len(periods))
	copy(out, periods)
	return out
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	if len(value) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("date %q must use YYYY-MM-DD", value)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must use YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(date string) (bool, error) {
	t, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	return isWeekendDay(t), nil
}

// MaxPeriodsOn returns the period count for the weekday of the date.
func MaxPeriodsOn(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return MaxPeriods(t.Weekday()), nil
}

func isWeekendDay(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}
