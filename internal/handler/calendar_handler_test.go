package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

func TestCalendarHandlerPeriods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &CalendarHandler{service: service.NewCalendarService(nil, nil, nil, nil, nil)}

	c, w := newGinContext(http.MethodGet, "/calendar/periods?date=2024-01-05", nil)
	handler.Periods(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"maxPeriods":5`)
	assert.Contains(t, w.Body.String(), `"weekday":"Friday"`)

	c, w = newGinContext(http.MethodGet, "/calendar/periods?date=soon", nil)
	handler.Periods(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerOffDays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &calendarManagerMock{}
	handler := &CalendarHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/off-days?instructorId=inst-1", nil)
	handler.ListOffDays(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inst-1", mockSvc.instructorID)

	c, w = newGinContext(http.MethodPost, "/off-days", []byte(`{"instructorId":"inst-1","date":"2024-01-03"}`))
	handler.CreateOffDay(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2024-01-03", mockSvc.offDay.Date)

	mockSvc.err = appErrors.Clone(appErrors.ErrConflict, "already off")
	c, w = newGinContext(http.MethodPost, "/off-days", []byte(`{"instructorId":"inst-1","date":"2024-01-03"}`))
	handler.CreateOffDay(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCalendarHandlerHolidays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &calendarManagerMock{}
	handler := &CalendarHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/holidays?startDate=2024-01-01&endDate=2024-01-31", nil)
	handler.ListHolidays(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.HolidayQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"}, mockSvc.holidayQuery)

	c, w = newGinContext(http.MethodPost, "/holidays", []byte(`{"date":"2024-01-09","startPeriod":5,"endPeriod":9}`))
	handler.CreateHoliday(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockSvc.holiday.StartPeriod)
	assert.Equal(t, 5, *mockSvc.holiday.StartPeriod)

	c, w = newGinContext(http.MethodDelete, "/holidays/hol-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "hol-1"}}
	handler.DeleteHoliday(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "hol-1", mockSvc.deletedID)
}

func TestCalendarHandlerInternalErrorIsRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &CalendarHandler{service: &calendarManagerMock{err: errors.New("connection reset")}}

	c, w := newGinContext(http.MethodDelete, "/off-days/off-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "off-1"}}
	handler.DeleteOffDay(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}

// --- Fixtures ---

type calendarManagerMock struct {
	err          error
	instructorID string
	offDay       dto.CreateOffDayRequest
	holidayQuery dto.HolidayQuery
	holiday      dto.CreateHolidayRequest
	deletedID    string
}

func (m *calendarManagerMock) ListOffDays(_ context.Context, instructorID string) ([]models.OffDay, error) {
	m.instructorID = instructorID
	return nil, m.err
}

func (m *calendarManagerMock) CreateOffDay(_ context.Context, req dto.CreateOffDayRequest) (*models.OffDay, error) {
	m.offDay = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.OffDay{ID: "off-1", InstructorID: req.InstructorID, Date: req.Date}, nil
}

func (m *calendarManagerMock) DeleteOffDay(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *calendarManagerMock) ListHolidays(_ context.Context, query dto.HolidayQuery) ([]models.Holiday, error) {
	m.holidayQuery = query
	return nil, m.err
}

func (m *calendarManagerMock) CreateHoliday(_ context.Context, req dto.CreateHolidayRequest) (*models.Holiday, error) {
	m.holiday = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Holiday{ID: "hol-1", Date: req.Date, StartPeriod: req.StartPeriod, EndPeriod: req.EndPeriod}, nil
}

func (m *calendarManagerMock) DeleteHoliday(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *calendarManagerMock) Periods(date string) (*dto.PeriodTableResponse, error) {
	return service.NewCalendarService(nil, nil, nil, nil, nil).Periods(date)
}
