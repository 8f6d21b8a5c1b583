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

type scheduleManager interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error)
	Create(ctx context.Context, req dto.CreateScheduleEntryRequest) (*models.ScheduleEntry, error)
	Update(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest) (*models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
	ValidatePlacement(ctx context.Context, req dto.CreateScheduleEntryRequest) (*dto.PlacementValidationResponse, error)
	ValidateModification(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest) (*dto.PlacementValidationResponse, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, query dto.ExportScheduleQuery) (*service.ExportFile, error)
}

// ScheduleHandler manages schedule entries.
type ScheduleHandler struct {
	service  scheduleManager
	exporter scheduleExporter
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService, exporter *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param startDate query string false "First date (YYYY-MM-DD)"
// @Param endDate query string false "Last date (YYYY-MM-DD)"
// @Param instructorId query string false "Filter by instructor"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), scheduleQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, map[string]interface{}{"count": len(entries)})
}

// Create godoc
// @Summary Create a pre-assigned schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleEntryRequest true "Placement"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Validate godoc
// @Summary Dry-run a pre-assignment
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleEntryRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /schedules/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	verdict, err := h.service.ValidatePlacement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Update godoc
// @Summary Move a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateScheduleEntryRequest true "New placement"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ValidateUpdate godoc
// @Summary Dry-run moving a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateScheduleEntryRequest true "New placement"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/validate [post]
func (h *ScheduleHandler) ValidateUpdate(c *gin.Context) {
	var req dto.UpdateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	verdict, err := h.service.ValidateModification(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict, nil)
}

// Delete godoc
// @Summary Delete a schedule entry
// @Tags Schedules
// @Param id path string true "Entry ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download the schedule
// @Tags Schedules
// @Produce octet-stream
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Param startDate query string false "First date (YYYY-MM-DD)"
// @Param endDate query string false "Last date (YYYY-MM-DD)"
// @Param instructorId query string false "Filter by instructor"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), dto.ExportScheduleQuery{
		ScheduleQuery: scheduleQuery(c),
		Format:        c.Query("format"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func scheduleQuery(c *gin.Context) dto.ScheduleQuery {
	return dto.ScheduleQuery{
		StartDate:    c.Query("startDate"),
		EndDate:      c.Query("endDate"),
		InstructorID: c.Query("instructorId"),
	}
}
