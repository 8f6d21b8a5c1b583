package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

func TestExportServiceCSV(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewExportService(&scheduleListerStub{entries: sampleExportEntries()}, metrics, zap.NewNop())

	file, err := svc.Export(context.Background(), dto.ExportScheduleQuery{
		ScheduleQuery: dto.ScheduleQuery{StartDate: "2024-01-01", EndDate: "2024-01-07"},
	})
	require.NoError(t, err)
	assert.Equal(t, "schedule_2024-01-01_2024-01-07.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, 3, file.Entries)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(file.Data), "\ufeff")), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Weekday,Start Period,End Period,Start Time,End Time,Course,Category,Instructor,Type", lines[0])
	assert.Equal(t, "2024-01-01,Monday,1,4,08:05,11:20,Tactics,Core,Kim,pre-assigned", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",generated"))
	assert.True(t, strings.HasSuffix(lines[3], ",exam"))
}

func TestExportServiceXLSX(t *testing.T) {
	svc := NewExportService(&scheduleListerStub{entries: sampleExportEntries()}, nil, nil)

	file, err := svc.Export(context.Background(), dto.ExportScheduleQuery{Format: ExportFormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, "schedule.xlsx", file.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Contains(t, rows[len(rows)-1], "Tactics")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(&scheduleListerStub{entries: sampleExportEntries()}, nil, nil)

	file, err := svc.Export(context.Background(), dto.ExportScheduleQuery{Format: ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceICS(t *testing.T) {
	svc := NewExportService(&scheduleListerStub{entries: sampleExportEntries()}, nil, nil)

	file, err := svc.Export(context.Background(), dto.ExportScheduleQuery{Format: ExportFormatICS})
	require.NoError(t, err)
	body := string(file.Data)
	assert.Contains(t, body, "UID:e-1")
	assert.Contains(t, body, "DTSTART:20240101T080500")
	assert.Contains(t, body, "DTEND:20240101T112000")
	assert.Contains(t, body, "SUMMARY:Tactics (exam)")
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&scheduleListerStub{}, nil, nil)

	_, err := svc.Export(context.Background(), dto.ExportScheduleQuery{Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServicePropagatesListErrors(t *testing.T) {
	svc := NewExportService(&scheduleListerStub{err: appErrors.Clone(appErrors.ErrValidation, "bad range")}, nil, nil)

	_, err := svc.Export(context.Background(), dto.ExportScheduleQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type scheduleListerStub struct {
	entries []models.ScheduleEntryDetail
	err     error
}

func (s *scheduleListerStub) List(_ context.Context, _ dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error) {
	return s.entries, s.err
}

func sampleExportEntries() []models.ScheduleEntryDetail {
	detail := func(id, date string, start, end int, pre, exam bool, startTime, endTime string) models.ScheduleEntryDetail {
		return models.ScheduleEntryDetail{
			ScheduleEntry: models.ScheduleEntry{
				ID: id, CourseID: "c-1", InstructorID: "inst-1", Date: date,
				StartPeriod: start, EndPeriod: end, IsPreAssigned: pre, IsExam: exam,
			},
			CourseName:     "Tactics",
			CourseCategory: "Core",
			InstructorName: "Kim",
			StartTime:      startTime,
			EndTime:        endTime,
		}
	}
	return []models.ScheduleEntryDetail{
		detail("e-1", "2024-01-01", 1, 4, true, false, "08:05", "11:20"),
		detail("e-2", "2024-01-02", 1, 2, false, false, "08:05", "09:40"),
		detail("e-3", "2024-01-03", 1, 2, false, true, "08:05", "09:40"),
	}
}
