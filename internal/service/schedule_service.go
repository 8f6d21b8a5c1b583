package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

type scheduleEntryRepository interface {
	ListDetailed(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntryDetail, error)
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id, date string, start, end int) error
	Delete(ctx context.Context, id string) error
	LockDates(ctx context.Context, exec sqlx.ExtContext, dates ...string) error
}

// ScheduleService manages manual placements and schedule listings.
type ScheduleService struct {
	entries   scheduleEntryRepository
	stores    schedulerStoreBinder
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(entries scheduleEntryRepository, stores schedulerStoreBinder, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		entries:   entries,
		stores:    stores,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns entries in chronological order with wall-clock period bounds.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule filter")
	}
	if query.StartDate != "" && query.EndDate != "" && query.EndDate < query.StartDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	entries, err := s.entries.ListDetailed(ctx, models.ScheduleEntryFilter{
		StartDate:    query.StartDate,
		EndDate:      query.EndDate,
		InstructorID: query.InstructorID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}
	for i := range entries {
		withPeriodTimes(&entries[i])
	}
	return entries, nil
}

func withPeriodTimes(entry *models.ScheduleEntryDetail) {
	day, err := scheduler.ParseDate(entry.Date)
	if err != nil {
		return
	}
	if first, ok := scheduler.PeriodTime(day.Weekday(), entry.StartPeriod); ok {
		entry.StartTime = first.Start
	}
	if last, ok := scheduler.PeriodTime(day.Weekday(), entry.EndPeriod); ok {
		entry.EndTime = last.End
	}
}

// ValidatePlacement runs the pre-assignment checks without writing anything.
func (s *ScheduleService) ValidatePlacement(ctx context.Context, req dto.CreateScheduleEntryRequest) (*dto.PlacementValidationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	verdict, err := scheduler.NewPlacementValidator(s.stores.Bind(nil)).ValidatePreAssignment(ctx, placementFromRequest(req))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate placement")
	}
	s.metrics.RecordPlacementValidation("dry_run", verdict.Valid)
	return verdictResponse(verdict), nil
}

// ValidateModification runs the move checks for an entry without writing anything.
func (s *ScheduleService) ValidateModification(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest) (*dto.PlacementValidationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	verdict, err := scheduler.NewPlacementValidator(s.stores.Bind(nil)).ValidateScheduleModification(ctx, modificationFromRequest(id, req))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate placement")
	}
	s.metrics.RecordPlacementValidation("dry_run", verdict.Valid)
	return verdictResponse(verdict), nil
}

// Create stores a pre-assigned entry after validating it under a per-date lock.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleEntryRequest) (entry *models.ScheduleEntry, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.entries.LockDates(ctx, tx, req.Date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule date")
	}
	verdict, verr := scheduler.NewPlacementValidator(s.stores.Bind(tx)).ValidatePreAssignment(ctx, placementFromRequest(req))
	if verr != nil {
		err = appErrors.Wrap(verr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate placement")
		return nil, err
	}
	s.metrics.RecordPlacementValidation("create", verdict.Valid)
	if !verdict.Valid {
		err = verdictError(verdict)
		return nil, err
	}

	created := []models.ScheduleEntry{{
		CourseID:      req.CourseID,
		InstructorID:  req.InstructorID,
		Date:          req.Date,
		StartPeriod:   req.StartPeriod,
		EndPeriod:     req.EndPeriod,
		IsPreAssigned: true,
	}}
	if err = s.entries.CreateBatch(ctx, tx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule entry")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule entry")
	}
	s.logger.Info("schedule entry pre-assigned",
		zap.String("id", created[0].ID),
		zap.String("course_id", req.CourseID),
		zap.String("date", req.Date))
	return &created[0], nil
}

// Update moves an entry after validating the new placement. Both the old and
// the new date are locked.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest) (entry *models.ScheduleEntry, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	store := s.stores.Bind(tx)
	current, ferr := store.Entries.FindByID(ctx, id)
	if ferr != nil {
		if errors.Is(ferr, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
			return nil, err
		}
		err = appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
		return nil, err
	}
	if err = s.entries.LockDates(ctx, tx, current.Date, req.Date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule dates")
	}

	verdict, verr := scheduler.NewPlacementValidator(store).ValidateScheduleModification(ctx, modificationFromRequest(id, req))
	if verr != nil {
		err = appErrors.Wrap(verr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate placement")
		return nil, err
	}
	s.metrics.RecordPlacementValidation("update", verdict.Valid)
	if !verdict.Valid {
		err = verdictError(verdict)
		return nil, err
	}

	if err = s.entries.UpdatePlacement(ctx, tx, id, req.Date, req.StartPeriod, req.EndPeriod); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule entry")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule entry")
	}

	moved := *current
	moved.Date = req.Date
	moved.StartPeriod = req.StartPeriod
	moved.EndPeriod = req.EndPeriod
	s.logger.Info("schedule entry moved",
		zap.String("id", id),
		zap.String("from", current.Date),
		zap.String("to", req.Date))
	return &moved, nil
}

// Delete removes an entry, pre-assigned or generated.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	return nil
}

func (s *ScheduleService) begin(ctx context.Context) (*sqlx.Tx, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	return tx, nil
}

func placementFromRequest(req dto.CreateScheduleEntryRequest) scheduler.PlacementRequest {
	return scheduler.PlacementRequest{
		CourseID:     req.CourseID,
		InstructorID: req.InstructorID,
		Date:         req.Date,
		StartPeriod:  req.StartPeriod,
		EndPeriod:    req.EndPeriod,
	}
}

func modificationFromRequest(id string, req dto.UpdateScheduleEntryRequest) scheduler.ModificationRequest {
	return scheduler.ModificationRequest{
		EntryID:     id,
		Date:        req.Date,
		StartPeriod: req.StartPeriod,
		EndPeriod:   req.EndPeriod,
	}
}

func verdictResponse(v scheduler.Verdict) *dto.PlacementValidationResponse {
	return &dto.PlacementValidationResponse{
		Valid:   v.Valid,
		Kind:    string(v.Kind),
		Message: v.Message,
		Details: v.Details,
	}
}

// verdictError maps a rejected verdict onto the HTTP-aware error catalogue.
func verdictError(v scheduler.Verdict) error {
	var base *appErrors.Error
	switch v.Kind {
	case scheduler.KindValidation:
		base = appErrors.ErrValidation
	case scheduler.KindNotFound:
		base = appErrors.ErrNotFound
	case scheduler.KindConflict:
		base = appErrors.ErrConflict
	case scheduler.KindRuleViolation:
		base = appErrors.ErrRuleViolation
	default:
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown verdict kind %q", v.Kind))
	}
	return appErrors.WithDetails(appErrors.Clone(base, v.Message), v.Details)
}
