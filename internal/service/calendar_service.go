package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

type offDayRepository interface {
	List(ctx context.Context, instructorID string) ([]models.OffDay, error)
	Create(ctx context.Context, offDay *models.OffDay) error
	Delete(ctx context.Context, id string) error
}

type holidayRepository interface {
	ListBetween(ctx context.Context, from, to string) ([]models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

type instructorLookup interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// CalendarService manages instructor off-days, institution blackouts and the
// weekly period template.
type CalendarService struct {
	offDays     offDayRepository
	holidays    holidayRepository
	instructors instructorLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(offDays offDayRepository, holidays holidayRepository, instructors instructorLookup, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		offDays:     offDays,
		holidays:    holidays,
		instructors: instructors,
		validator:   validate,
		logger:      logger,
	}
}

// ListOffDays returns off-days, optionally restricted to one instructor.
func (s *CalendarService) ListOffDays(ctx context.Context, instructorID string) ([]models.OffDay, error) {
	items, err := s.offDays.List(ctx, strings.TrimSpace(instructorID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list off-days")
	}
	return items, nil
}

// CreateOffDay marks an instructor unavailable on a date.
func (s *CalendarService) CreateOffDay(ctx context.Context, req dto.CreateOffDayRequest) (*models.OffDay, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid off-day payload")
	}
	if _, err := scheduler.ParseDate(req.Date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be a YYYY-MM-DD date")
	}
	instructor, err := s.instructors.FindByID(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	offDay := &models.OffDay{InstructorID: instructor.ID, InstructorName: instructor.Name, Date: req.Date}
	if err := s.offDays.Create(ctx, offDay); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already off on %s", instructor.Name, req.Date))
		}
		if isForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create off-day")
	}
	s.logger.Info("off-day created", zap.String("instructor_id", instructor.ID), zap.String("date", req.Date))
	return offDay, nil
}

// DeleteOffDay removes an off-day.
func (s *CalendarService) DeleteOffDay(ctx context.Context, id string) error {
	if err := s.offDays.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "off-day not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete off-day")
	}
	return nil
}

// ListHolidays returns blackouts within the optional date range.
func (s *CalendarService) ListHolidays(ctx context.Context, query dto.HolidayQuery) ([]models.Holiday, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday filter")
	}
	if query.StartDate != "" && query.EndDate != "" && query.EndDate < query.StartDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	items, err := s.holidays.ListBetween(ctx, query.StartDate, query.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return items, nil
}

// CreateHoliday adds a blackout. Both period bounds must be present or absent.
func (s *CalendarService) CreateHoliday(ctx context.Context, req dto.CreateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	if _, err := scheduler.ParseDate(req.Date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be a YYYY-MM-DD date")
	}
	if (req.StartPeriod == nil) != (req.EndPeriod == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startPeriod and endPeriod must be given together")
	}
	if req.StartPeriod != nil && *req.StartPeriod > *req.EndPeriod {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "startPeriod must not be after endPeriod"),
			map[string]any{"startPeriod": *req.StartPeriod, "endPeriod": *req.EndPeriod})
	}

	holiday := &models.Holiday{
		Date:        req.Date,
		StartPeriod: req.StartPeriod,
		EndPeriod:   req.EndPeriod,
		Description: req.Description,
	}
	if err := s.holidays.Create(ctx, holiday); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "holiday already exists for this date and period range")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.logger.Info("holiday created", zap.String("date", req.Date), zap.Bool("whole_day", holiday.WholeDay()))
	return holiday, nil
}

// DeleteHoliday removes a blackout.
func (s *CalendarService) DeleteHoliday(ctx context.Context, id string) error {
	if err := s.holidays.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}

// Periods returns the period table that applies to the date's weekday.
func (s *CalendarService) Periods(date string) (*dto.PeriodTableResponse, error) {
	day, err := scheduler.ParseDate(date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be a YYYY-MM-DD date")
	}
	periods := scheduler.Periods(day.Weekday())
	resp := &dto.PeriodTableResponse{
		Date:       date,
		Weekday:    day.Weekday().String(),
		MaxPeriods: len(periods),
		Periods:    make([]dto.PeriodDTO, 0, len(periods)),
	}
	for _, p := range periods {
		resp.Periods = append(resp.Periods, dto.PeriodDTO{Period: p.Number, Start: p.Start, End: p.End})
	}
	return resp, nil
}
