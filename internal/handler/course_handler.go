package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	"github.com/noah-isme/course-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
	"github.com/noah-isme/course-scheduler-api/pkg/response"
)

const defaultUploadLimit int64 = 5 << 20

type courseManager interface {
	List(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, req dto.CreateCourseRequest) ([]models.Course, error)
	Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

type courseImporter interface {
	Import(ctx context.Context, r io.Reader) (*dto.CourseImportResult, error)
}

// CourseHandler handles course catalogue endpoints.
type CourseHandler struct {
	service        courseManager
	importer       courseImporter
	maxUploadBytes int64
}

// NewCourseHandler constructs a course handler. maxUploadBytes <= 0 uses 5 MiB.
func NewCourseHandler(svc *service.CourseService, importer *service.IngestionService, maxUploadBytes int64) *CourseHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultUploadLimit
	}
	return &CourseHandler{service: svc, importer: importer, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by name or category"
// @Param assignmentMode query string false "manual or automatic"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	query := dto.CourseQuery{
		Search:         strings.TrimSpace(c.Query("search")),
		AssignmentMode: c.Query("assignmentMode"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		query.PageSize = limit
	}

	courses, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course by id
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Description Several instructor names create one course per instructor with the hours split between them.
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	courses, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, courses)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Schedule entries of the course are removed with it.
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Upload godoc
// @Summary Replace the course catalogue from a spreadsheet
// @Description Reads the first sheet of an xlsx workbook. All existing courses and their schedule entries are replaced.
// @Tags Courses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Course workbook (.xlsx)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /courses/upload [post]
func (h *CourseHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field \"file\" is required"))
		return
	}
	if header.Size > h.maxUploadBytes {
		response.Error(c, appErrors.New("FILE_TOO_LARGE", http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes)))
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only .xlsx workbooks are accepted"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
