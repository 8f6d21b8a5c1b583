package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

type courseImportRepository interface {
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
}

const (
	columnCategory    = "category"
	columnName        = "name"
	columnHours       = "hours"
	columnInstructors = "instructors"
	columnAssignment  = "assignment"
	columnEvaluation  = "evaluation"
)

// headerAliases maps normalised header text to a logical column. The Korean
// headers come from the legacy course sheet.
var headerAliases = map[string]string{
	"category":    columnCategory,
	"구분":          columnCategory,
	"name":        columnName,
	"course":      columnName,
	"과목":          columnName,
	"hours":       columnHours,
	"시수":          columnHours,
	"instructors": columnInstructors,
	"instructor":  columnInstructors,
	"담당교관":        columnInstructors,
	"assignment":  columnAssignment,
	"선배정":         columnAssignment,
	"evaluation":  columnEvaluation,
	"평가":          columnEvaluation,
}

var requiredColumns = []string{columnName, columnHours, columnInstructors, columnAssignment}

// IngestionService replaces the course catalogue from an uploaded workbook.
type IngestionService struct {
	courses     courseImportRepository
	instructors instructorResolver
	tx          txProvider
	logger      *zap.Logger
}

// NewIngestionService constructs the ingestion service.
func NewIngestionService(courses courseImportRepository, instructors instructorResolver, tx txProvider, logger *zap.Logger) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{courses: courses, instructors: instructors, tx: tx, logger: logger}
}

// ParseWorkbook reads the first sheet of an xlsx workbook. Every invalid cell
// is reported; no rows are returned unless the whole sheet is valid.
func (s *IngestionService) ParseWorkbook(r io.Reader) ([]dto.CourseImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a readable xlsx workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read worksheet")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no course rows")
	}

	index := headerIndex(rows[0])
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "spreadsheet is missing required columns"),
			map[string]any{"missing": missing})
	}

	var (
		parsed  []dto.CourseImportRow
		rowErrs []dto.ImportRowError
	)
	for i := 1; i < len(rows); i++ {
		raw := rows[i]
		if blankRow(raw) {
			continue
		}
		cell := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[idx])
		}
		row := dto.CourseImportRow{
			Row:      i + 1,
			Category: cell(columnCategory),
			Name:     cell(columnName),
		}
		fail := func(col, msg string) {
			rowErrs = append(rowErrs, dto.ImportRowError{Row: row.Row, Column: col, Message: msg})
		}

		if row.Name == "" {
			fail(columnName, "course name is required")
		}
		hours, ok := parseHours(cell(columnHours))
		if !ok {
			fail(columnHours, fmt.Sprintf("hours %q must be a positive integer", cell(columnHours)))
		}
		row.Hours = hours

		for _, name := range strings.Split(cell(columnInstructors), ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				row.InstructorNames = append(row.InstructorNames, trimmed)
			}
		}
		if len(row.InstructorNames) == 0 {
			fail(columnInstructors, "at least one instructor is required")
		}

		mode, ok := parseAssignment(cell(columnAssignment))
		if !ok {
			fail(columnAssignment, fmt.Sprintf("assignment %q must be 1 (manual) or 2 (automatic)", cell(columnAssignment)))
		}
		row.AssignmentMode = string(mode)
		row.Evaluation = parseFlag(cell(columnEvaluation))

		parsed = append(parsed, row)
	}

	if len(rowErrs) > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%d invalid cells in spreadsheet", len(rowErrs))),
			map[string]any{"errors": rowErrs})
	}
	if len(parsed) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no course rows")
	}
	return parsed, nil
}

// Import replaces every course with the workbook contents in one transaction.
// Deleting courses cascades to their schedule entries.
func (s *IngestionService) Import(ctx context.Context, r io.Reader) (result *dto.CourseImportResult, err error) {
	rows, err := s.ParseWorkbook(r)
	if err != nil {
		return nil, err
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

	removed, err := s.courses.DeleteAll(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear courses")
	}

	result = &dto.CourseImportResult{RowsRead: len(rows)}
	for order, row := range rows {
		for _, share := range positiveShares(scheduler.SplitHours(row.Hours, row.InstructorNames)) {
			instructor, created, ferr := s.instructors.FindOrCreate(ctx, tx, share.Name)
			if ferr != nil {
				err = appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("row %d: failed to resolve instructor", row.Row))
				return nil, err
			}
			if created {
				result.InstructorsCreated++
			}
			course := models.Course{
				Category:        row.Category,
				Name:            row.Name,
				RequiredHours:   share.Hours,
				InstructorNames: []string{instructor.Name},
				AssignmentMode:  models.AssignmentMode(row.AssignmentMode),
				Evaluation:      row.Evaluation,
				SortOrder:       order,
			}
			if err = s.courses.Create(ctx, tx, &course); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("row %d: failed to create course", row.Row))
			}
			result.CoursesCreated++
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
	}
	s.logger.Info("course catalogue imported",
		zap.Int64("removed_courses", removed),
		zap.Int("rows", result.RowsRead),
		zap.Int("courses", result.CoursesCreated),
		zap.Int("instructors_created", result.InstructorsCreated))
	return result, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if col, ok := headerAliases[key]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	return index
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseHours accepts integers and integral decimals such as "3.0".
func parseHours(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f <= 0 {
		return 0, false
	}
	return int(f), true
}

func parseAssignment(raw string) (models.AssignmentMode, bool) {
	switch strings.ToLower(raw) {
	case "1", "manual":
		return models.AssignmentModeManual, true
	case "2", "automatic":
		return models.AssignmentModeAutomatic, true
	default:
		return "", false
	}
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
