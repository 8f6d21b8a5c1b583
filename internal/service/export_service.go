package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
	"github.com/noah-isme/course-scheduler-api/pkg/export"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
	ExportFormatICS  = "ics"
)

type scheduleLister interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error)
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

type calendarRenderer interface {
	ContentType() string
	Extension() string
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Entries     int
}

var exportHeaders = []string{
	"Date", "Weekday", "Start Period", "End Period", "Start Time", "End Time",
	"Course", "Category", "Instructor", "Type",
}

// ExportService renders the schedule in download formats.
type ExportService struct {
	schedule scheduleLister
	tables   map[string]tableRenderer
	calendar calendarRenderer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(schedule scheduleLister, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedule: schedule,
		tables: map[string]tableRenderer{
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
			ExportFormatXLSX: export.NewXLSXExporter(),
		},
		calendar: export.NewICSExporter(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Export lists the filtered schedule and renders it. Format defaults to csv.
func (s *ExportService) Export(ctx context.Context, query dto.ExportScheduleQuery) (*ExportFile, error) {
	format := query.Format
	if format == "" {
		format = ExportFormatCSV
	}
	if _, ok := s.tables[format]; !ok && format != ExportFormatICS {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	entries, err := s.schedule.List(ctx, query.ScheduleQuery)
	if err != nil {
		return nil, err
	}
	title := exportTitle(query.ScheduleQuery)

	var (
		payload     []byte
		contentType string
		ext         string
	)
	switch format {
	case ExportFormatICS:
		events, evErr := calendarEvents(entries)
		if evErr != nil {
			return nil, appErrors.Wrap(evErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build calendar events")
		}
		payload, err = s.calendar.Render(title, events)
		contentType, ext = s.calendar.ContentType(), s.calendar.Extension()
	default:
		renderer := s.tables[format]
		payload, err = renderer.Render(scheduleDataset(title, entries))
		contentType, ext = renderer.ContentType(), renderer.Extension()
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.metrics.RecordExport(format)
	s.logger.Info("schedule exported", zap.String("format", format), zap.Int("entries", len(entries)))
	return &ExportFile{
		Filename:    exportFilename(query.ScheduleQuery, ext),
		ContentType: contentType,
		Data:        payload,
		Entries:     len(entries),
	}, nil
}

func scheduleDataset(title string, entries []models.ScheduleEntryDetail) export.Dataset {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		weekday := ""
		if day, err := scheduler.ParseDate(e.Date); err == nil {
			weekday = day.Weekday().String()
		}
		rows = append(rows, []string{
			e.Date,
			weekday,
			strconv.Itoa(e.StartPeriod),
			strconv.Itoa(e.EndPeriod),
			e.StartTime,
			e.EndTime,
			e.CourseName,
			e.CourseCategory,
			e.InstructorName,
			entryType(e.ScheduleEntry),
		})
	}
	return export.Dataset{Title: title, Headers: exportHeaders, Rows: rows}
}

func calendarEvents(entries []models.ScheduleEntryDetail) ([]export.CalendarEvent, error) {
	events := make([]export.CalendarEvent, 0, len(entries))
	for _, e := range entries {
		day, err := scheduler.ParseDate(e.Date)
		if err != nil {
			return nil, err
		}
		start, err := clockOn(day, e.StartTime)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		end, err := clockOn(day, e.EndTime)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		summary := e.CourseName
		if e.IsExam {
			summary += " (exam)"
		}
		events = append(events, export.CalendarEvent{
			UID:         e.ID,
			Summary:     summary,
			Description: fmt.Sprintf("%s, periods %d-%d, %s", e.InstructorName, e.StartPeriod, e.EndPeriod, entryType(e.ScheduleEntry)),
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("period time %q: %w", clock, err)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

func entryType(e models.ScheduleEntry) string {
	switch {
	case e.IsExam:
		return "exam"
	case e.IsPreAssigned:
		return "pre-assigned"
	default:
		return "generated"
	}
}

func exportTitle(query dto.ScheduleQuery) string {
	switch {
	case query.StartDate != "" && query.EndDate != "":
		return fmt.Sprintf("Schedule %s - %s", query.StartDate, query.EndDate)
	case query.StartDate != "":
		return fmt.Sprintf("Schedule from %s", query.StartDate)
	case query.EndDate != "":
		return fmt.Sprintf("Schedule until %s", query.EndDate)
	default:
		return "Schedule"
	}
}

func exportFilename(query dto.ScheduleQuery, ext string) string {
	name := "schedule"
	if query.StartDate != "" {
		name += "_" + query.StartDate
	}
	if query.EndDate != "" {
		name += "_" + query.EndDate
	}
	return name + "." + ext
}
