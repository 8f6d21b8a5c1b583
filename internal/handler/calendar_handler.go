package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
	"github.com/noah-isme/course-scheduler-api/pkg/response"
)

type calendarManager interface {
	ListOffDays(ctx context.Context, instructorID string) ([]models.OffDay, error)
	CreateOffDay(ctx context.Context, req dto.CreateOffDayRequest) (*models.OffDay, error)
	DeleteOffDay(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, query dto.HolidayQuery) ([]models.Holiday, error)
	CreateHoliday(ctx context.Context, req dto.CreateHolidayRequest) (*models.Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	Periods(date string) (*dto.PeriodTableResponse, error)
}

// CalendarHandler exposes off-days, holidays and the period template.
type CalendarHandler struct {
	service calendarManager
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Periods godoc
// @Summary Period table for a date
// @Tags Calendar
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/periods [get]
func (h *CalendarHandler) Periods(c *gin.Context) {
	table, err := h.service.Periods(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table, nil)
}

// ListOffDays godoc
// @Summary List instructor off-days
// @Tags Calendar
// @Produce json
// @Param instructorId query string false "Filter by instructor"
// @Success 200 {object} response.Envelope
// @Router /off-days [get]
func (h *CalendarHandler) ListOffDays(c *gin.Context) {
	items, err := h.service.ListOffDays(c.Request.Context(), c.Query("instructorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateOffDay godoc
// @Summary Mark an instructor unavailable on a date
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.CreateOffDayRequest true "Off-day payload"
// @Success 201 {object} response.Envelope
// @Router /off-days [post]
func (h *CalendarHandler) CreateOffDay(c *gin.Context) {
	var req dto.CreateOffDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid off-day payload"))
		return
	}
	item, err := h.service.CreateOffDay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteOffDay godoc
// @Summary Delete an off-day
// @Tags Calendar
// @Param id path string true "Off-day ID"
// @Success 204
// @Router /off-days/{id} [delete]
func (h *CalendarHandler) DeleteOffDay(c *gin.Context) {
	if err := h.service.DeleteOffDay(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListHolidays godoc
// @Summary List holidays and blackouts
// @Tags Calendar
// @Produce json
// @Param startDate query string false "First date (YYYY-MM-DD)"
// @Param endDate query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *CalendarHandler) ListHolidays(c *gin.Context) {
	items, err := h.service.ListHolidays(c.Request.Context(), dto.HolidayQuery{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateHoliday godoc
// @Summary Add a holiday or period blackout
// @Description Omit both periods to block the whole day.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *CalendarHandler) CreateHoliday(c *gin.Context) {
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	item, err := h.service.CreateHoliday(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteHoliday godoc
// @Summary Delete a holiday
// @Tags Calendar
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *CalendarHandler) DeleteHoliday(c *gin.Context) {
	if err := h.service.DeleteHoliday(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
