package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	NextSortOrder(ctx context.Context, exec sqlx.ExtContext) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type instructorResolver interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, name string) (*models.Instructor, bool, error)
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo        courseRepository
	instructors instructorResolver
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, instructors instructorResolver, tx txProvider, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, instructors: instructors, tx: tx, validator: validate, logger: logger}
}

// List returns paginated courses in catalogue order.
func (s *CourseService) List(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course filter")
	}
	filter := models.CourseFilter{
		Search:         strings.TrimSpace(query.Search),
		AssignmentMode: models.AssignmentMode(query.AssignmentMode),
		Page:           query.Page,
		PageSize:       query.PageSize,
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a course by identifier.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course. Several instructor names produce one course per
// instructor sharing the same sort order, with the hours split evenly and the
// remainder going to the first instructor.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (courses []models.Course, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	shares := positiveShares(scheduler.SplitHours(req.RequiredHours, req.InstructorNames))
	if len(shares) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one instructor must receive hours")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order, err := s.repo.NextSortOrder(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate sort order")
	}

	for _, share := range shares {
		instructor, _, ferr := s.instructors.FindOrCreate(ctx, tx, share.Name)
		if ferr != nil {
			err = appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve instructor")
			return nil, err
		}
		course := models.Course{
			Category:        strings.TrimSpace(req.Category),
			Name:            strings.TrimSpace(req.Name),
			RequiredHours:   share.Hours,
			InstructorNames: []string{instructor.Name},
			AssignmentMode:  models.AssignmentMode(req.AssignmentMode),
			Evaluation:      req.Evaluation,
			SortOrder:       order,
		}
		if err = s.repo.Create(ctx, tx, &course); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
		}
		courses = append(courses, course)
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit course")
	}
	s.logger.Info("course created", zap.String("name", req.Name), zap.Int("rows", len(courses)))
	return courses, nil
}

// Update replaces the fields of a single-instructor course.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	instructor, _, err := s.instructors.FindOrCreate(ctx, nil, req.InstructorName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve instructor")
	}

	course.Category = strings.TrimSpace(req.Category)
	course.Name = strings.TrimSpace(req.Name)
	course.RequiredHours = req.RequiredHours
	course.InstructorNames = []string{instructor.Name}
	course.AssignmentMode = models.AssignmentMode(req.AssignmentMode)
	course.Evaluation = req.Evaluation
	if req.SortOrder != nil {
		course.SortOrder = *req.SortOrder
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course together with its schedule entries.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// positiveShares drops shares that received no hours, which happens when a
// course has fewer hours than instructors.
func positiveShares(shares []scheduler.HourShare) []scheduler.HourShare {
	out := shares[:0]
	for _, share := range shares {
		if share.Hours > 0 {
			out = append(out, share)
		}
	}
	return out
}
