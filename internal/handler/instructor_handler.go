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

type instructorManager interface {
	List(ctx context.Context) ([]models.Instructor, error)
	Create(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error)
}

// InstructorHandler handles instructor endpoints.
type InstructorHandler struct {
	service instructorManager
}

// NewInstructorHandler constructs an instructor handler.
func NewInstructorHandler(svc *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{service: svc}
}

// List godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *InstructorHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param payload body dto.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructors [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instructor payload"))
		return
	}
	instructor, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}
