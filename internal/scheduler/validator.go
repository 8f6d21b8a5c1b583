package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Kind classifies a rejected placement.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindRuleViolation Kind = "rule_violation"
	KindConflict      Kind = "conflict"
)

// Verdict is the outcome of a placement check. Kind, Message and Details are
// only set when Valid is false.
type Verdict struct {
	Valid   bool           `json:"valid"`
	Kind    Kind           `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func accept() Verdict {
	return Verdict{Valid: true}
}

func reject(kind Kind, message string, details map[string]any) Verdict {
	return Verdict{Kind: kind, Message: message, Details: details}
}

// PlacementRequest describes a manual pre-assignment.
type PlacementRequest struct {
	CourseID     string
	InstructorID string
	Date         string
	StartPeriod  int
	EndPeriod    int
}

// Hours returns the period count requested.
func (r PlacementRequest) Hours() int {
	return r.EndPeriod - r.StartPeriod + 1
}

// ModificationRequest moves an existing entry to a new date and period range.
type ModificationRequest struct {
	EntryID     string
	Date        string
	StartPeriod int
	EndPeriod   int
}

// PlacementValidator checks manual placements against the same hard rules the
// allocator honours, reading only persisted state.
type PlacementValidator struct {
	store Store
}

// NewPlacementValidator builds a validator over the given store.
func NewPlacementValidator(store Store) *PlacementValidator {
	return &PlacementValidator{store: store}
}

// ValidatePreAssignment decides whether a new pre-assigned entry may be stored.
// Checks run in a fixed order and the first failure wins.
func (v *PlacementValidator) ValidatePreAssignment(ctx context.Context, req PlacementRequest) (Verdict, error) {
	course, err := v.store.Courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reject(KindNotFound, "course not found", map[string]any{"courseId": req.CourseID}), nil
		}
		return Verdict{}, fmt.Errorf("load course: %w", err)
	}
	if _, err := v.store.Instructors.FindByID(ctx, req.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reject(KindNotFound, "instructor not found", map[string]any{"instructorId": req.InstructorID}), nil
		}
		return Verdict{}, fmt.Errorf("load instructor: %w", err)
	}

	if verdict := checkRange(req.StartPeriod, req.EndPeriod); !verdict.Valid {
		return verdict, nil
	}

	assigned, err := v.store.Entries.TotalAssignedHours(ctx, course.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("sum assigned hours: %w", err)
	}
	if assigned+req.Hours() > course.RequiredHours {
		return reject(KindRuleViolation,
			fmt.Sprintf("course %q has %d of %d hours remaining, cannot add %d", course.Name, course.RequiredHours-assigned, course.RequiredHours, req.Hours()),
			map[string]any{
				"requiredHours":  course.RequiredHours,
				"assignedHours":  assigned,
				"remainingHours": course.RequiredHours - assigned,
				"requestedHours": req.Hours(),
			}), nil
	}

	verdict, err := v.checkWorkingDay(ctx, req.InstructorID, req.Date, req.StartPeriod, req.EndPeriod)
	if err != nil || !verdict.Valid {
		return verdict, err
	}
	return v.checkOverlap(ctx, req.Date, req.StartPeriod, req.EndPeriod, "")
}

// ValidateScheduleModification decides whether an existing entry may move to
// the requested date and period range.
func (v *PlacementValidator) ValidateScheduleModification(ctx context.Context, req ModificationRequest) (Verdict, error) {
	entry, err := v.store.Entries.FindByID(ctx, req.EntryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reject(KindNotFound, "schedule entry not found", map[string]any{"id": req.EntryID}), nil
		}
		return Verdict{}, fmt.Errorf("load entry: %w", err)
	}

	if verdict := checkRange(req.StartPeriod, req.EndPeriod); !verdict.Valid {
		return verdict, nil
	}

	verdict, err := v.checkWorkingDay(ctx, entry.InstructorID, req.Date, req.StartPeriod, req.EndPeriod)
	if err != nil || !verdict.Valid {
		return verdict, err
	}

	if !entry.IsExam {
		course, err := v.store.Courses.FindByID(ctx, entry.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return reject(KindNotFound, "course not found", map[string]any{"courseId": entry.CourseID}), nil
			}
			return Verdict{}, fmt.Errorf("load course: %w", err)
		}
		assigned, err := v.store.Entries.TotalAssignedHours(ctx, course.ID)
		if err != nil {
			return Verdict{}, fmt.Errorf("sum assigned hours: %w", err)
		}
		newHours := req.EndPeriod - req.StartPeriod + 1
		if assigned-entry.Hours()+newHours > course.RequiredHours {
			return reject(KindRuleViolation,
				fmt.Sprintf("course %q would exceed its %d required hours", course.Name, course.RequiredHours),
				map[string]any{
					"requiredHours":  course.RequiredHours,
					"assignedHours":  assigned,
					"remainingHours": course.RequiredHours - (assigned - entry.Hours()),
					"requestedHours": newHours,
				}), nil
		}
	}

	busy, err := v.store.Entries.HasInstructorOverlap(ctx, entry.InstructorID, req.Date, req.StartPeriod, req.EndPeriod, entry.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("check instructor overlap: %w", err)
	}
	if busy {
		return reject(KindConflict,
			fmt.Sprintf("instructor already teaches on %s between periods %d and %d", req.Date, req.StartPeriod, req.EndPeriod),
			map[string]any{"instructorId": entry.InstructorID, "date": req.Date}), nil
	}

	return v.checkOverlap(ctx, req.Date, req.StartPeriod, req.EndPeriod, entry.ID)
}

func checkRange(start, end int) Verdict {
	if start < 1 || end < start {
		return reject(KindValidation,
			fmt.Sprintf("invalid period range %d-%d", start, end),
			map[string]any{"startPeriod": start, "endPeriod": end})
	}
	return accept()
}

// checkWorkingDay covers the weekly template, instructor off-days and blackouts.
func (v *PlacementValidator) checkWorkingDay(ctx context.Context, instructorID, date string, start, end int) (Verdict, error) {
	day, err := ParseDate(date)
	if err != nil {
		return reject(KindValidation, err.Error(), map[string]any{"date": date}), nil
	}
	if isWeekendDay(day) {
		return reject(KindRuleViolation, fmt.Sprintf("%s is a weekend", date), map[string]any{"date": date}), nil
	}
	limit := MaxPeriods(day.Weekday())
	if end > limit {
		return reject(KindRuleViolation,
			fmt.Sprintf("%s only has %d periods", day.Weekday(), limit),
			map[string]any{"date": date, "maxPeriods": limit, "endPeriod": end}), nil
	}

	off, err := v.store.OffDays.IsOffDay(ctx, instructorID, date)
	if err != nil {
		return Verdict{}, fmt.Errorf("check off-day: %w", err)
	}
	if off {
		return reject(KindRuleViolation,
			fmt.Sprintf("instructor is off on %s", date),
			map[string]any{"instructorId": instructorID, "date": date}), nil
	}

	blocked, err := v.store.Holidays.BlocksRange(ctx, date, start, end)
	if err != nil {
		return Verdict{}, fmt.Errorf("check holiday: %w", err)
	}
	if blocked {
		return reject(KindRuleViolation,
			fmt.Sprintf("%s periods %d-%d fall on a holiday", date, start, end),
			map[string]any{"date": date}), nil
	}
	return accept(), nil
}

func (v *PlacementValidator) checkOverlap(ctx context.Context, date string, start, end int, excludeID string) (Verdict, error) {
	taken, err := v.store.Entries.HasOverlap(ctx, date, start, end, excludeID)
	if err != nil {
		return Verdict{}, fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return reject(KindConflict,
			fmt.Sprintf("periods %d-%d on %s are already scheduled", start, end, date),
			map[string]any{"date": date, "startPeriod": start, "endPeriod": end}), nil
	}
	return accept(), nil
}
