package models

import "time"

// Holiday is an institution-wide blackout. Nil period bounds cover the whole day.
type Holiday struct {
	ID          string    `db:"id" json:"id"`
	Date        string    `db:"date" json:"date"`
	StartPeriod *int      `db:"start_period" json:"startPeriod"`
	EndPeriod   *int      `db:"end_period" json:"endPeriod"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// WholeDay reports whether the blackout covers every period of its date.
func (h Holiday) WholeDay() bool {
	return h.StartPeriod == nil || h.EndPeriod == nil
}

// Covers reports whether the blackout applies to the given period.
func (h Holiday) Covers(period int) bool {
	if h.WholeDay() {
		return true
	}
	return period >= *h.StartPeriod && period <= *h.EndPeriod
}
