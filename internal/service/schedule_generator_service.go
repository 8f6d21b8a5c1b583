package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/repository"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type schedulerStoreBinder interface {
	Bind(exec sqlx.ExtContext) scheduler.Store
}

type generationCourseLister interface {
	ListAutomatic(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error)
}

type generationEntryWriter interface {
	DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error
}

type generationLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	Rules           scheduler.Rules
	IndexWindowDays int
	LockKey         string
	LockTTL         time.Duration
}

// ScheduleGeneratorService runs whole-catalogue generation inside one transaction.
type ScheduleGeneratorService struct {
	courses   generationCourseLister
	entries   generationEntryWriter
	stores    schedulerStoreBinder
	locker    generationLocker
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	courses generationCourseLister,
	entries generationEntryWriter,
	stores schedulerStoreBinder,
	locker generationLocker,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IndexWindowDays <= 0 {
		cfg.IndexWindowDays = 730
	}
	if cfg.LockKey == "" {
		cfg.LockKey = "course-scheduler:generation"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &ScheduleGeneratorService{
		courses:   courses,
		entries:   entries,
		stores:    stores,
		locker:    locker,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate replaces every generated entry with a fresh allocation starting at
// req.StartDate. Pre-assigned entries are kept and treated as fixed.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (result *dto.GenerateScheduleResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "startDate must be a YYYY-MM-DD date")
	}
	if _, err := scheduler.ParseDate(req.StartDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "startDate must be a YYYY-MM-DD date")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	if s.locker != nil {
		token, lockErr := s.locker.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if lockErr != nil {
			if errors.Is(lockErr, repository.ErrLockHeld) {
				return nil, appErrors.Clone(appErrors.ErrLocked, "schedule generation already in progress")
			}
			return nil, appErrors.Wrap(lockErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
		}
		defer func() {
			if releaseErr := s.locker.Release(context.WithoutCancel(ctx), s.cfg.LockKey, token); releaseErr != nil {
				s.logger.Warn("release generation lock", zap.Error(releaseErr))
			}
		}()
	}

	started := time.Now()
	s.logger.Info("schedule generation started", zap.String("start_date", req.StartDate))

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err = s.run(ctx, tx, req.StartDate)
	if err != nil {
		s.metrics.ObserveGeneration("error", time.Since(started), 0)
		return nil, err
	}

	if !result.Success {
		s.logger.Error("schedule generation rolled back",
			zap.String("start_date", req.StartDate),
			zap.Int("failures", len(result.Errors)))
		s.metrics.ObserveGeneration("failed", time.Since(started), 0)
		return result, nil
	}

	if err = tx.Commit(); err != nil {
		s.metrics.ObserveGeneration("error", time.Since(started), 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated schedule")
	}
	committed = true

	outcome := "success"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	s.metrics.ObserveGeneration(outcome, time.Since(started), result.ScheduleCount)
	s.logger.Info("schedule generation finished",
		zap.String("start_date", req.StartDate),
		zap.Int("entries", result.ScheduleCount),
		zap.Int("failures", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (s *ScheduleGeneratorService) run(ctx context.Context, tx *sqlx.Tx, startDate string) (*dto.GenerateScheduleResult, error) {
	store := s.stores.Bind(tx)

	removed, err := s.entries.DeleteGenerated(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear generated entries")
	}

	index := scheduler.NewAvailabilityIndex(store)
	if err := index.Initialize(startDate, s.cfg.IndexWindowDays); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate")
	}
	from, to := index.Window()
	fixed, err := index.MarkPreAssigned(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pre-assigned entries")
	}
	blackouts, err := index.MarkHolidays(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	s.logger.Debug("availability index ready",
		zap.Int64("removed_generated", removed),
		zap.Int("pre_assigned", fixed),
		zap.Int("holidays", blackouts),
		zap.String("window_end", to))

	courses, err := s.courses.ListAutomatic(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	allocator := scheduler.NewAllocator(index, store.Instructors, s.cfg.Rules, s.logger)
	result := &dto.GenerateScheduleResult{
		Errors:   []dto.GenerationFailure{},
		Warnings: []string{},
	}

	for _, course := range courses {
		assigned, err := index.TotalAssignedHoursForCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum assigned hours")
		}
		remaining := course.RequiredHours - assigned
		if remaining <= 0 {
			continue
		}

		pending := course
		pending.RequiredHours = remaining
		assignment, err := allocator.AssignCourse(ctx, pending, startDate)
		if err != nil {
			var allocErr *scheduler.AllocationError
			if errors.As(err, &allocErr) {
				s.logger.Warn("course allocation failed",
					zap.String("course_id", course.ID),
					zap.String("course", course.Name),
					zap.Int("remaining_hours", allocErr.RemainingHours),
					zap.String("reason", allocErr.Reason))
				result.Errors = append(result.Errors, dto.FailureFromAllocation(allocErr))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to allocate course %q", course.Name))
		}

		if err := s.entries.CreateBatch(ctx, tx, assignment.Entries); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule entries")
		}
		result.ScheduleCount += len(assignment.Entries)
		result.Warnings = append(result.Warnings, assignment.Warnings...)
	}

	result.Success = len(result.Errors) == 0 || result.ScheduleCount > 0
	switch {
	case !result.Success:
		result.Message = "no course could be scheduled"
	case len(result.Errors) > 0:
		result.Message = fmt.Sprintf("generated %d entries, %d courses could not be placed", result.ScheduleCount, len(result.Errors))
	default:
		result.Message = fmt.Sprintf("generated %d entries", result.ScheduleCount)
	}
	return result, nil
}
