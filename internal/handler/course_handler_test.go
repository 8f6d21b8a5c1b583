package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
	"github.com/noah-isme/course-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/course-scheduler-api/pkg/errors"
)

func TestCourseHandlerListParsesPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &courseManagerMock{}
	handler := &CourseHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/courses?search=%20tac%20&assignmentMode=automatic&page=2&limit=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.CourseQuery{Search: "tac", AssignmentMode: "automatic", Page: 2, PageSize: 10}, mockSvc.query)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestCourseHandlerCreateReturnsSplitCourses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &courseManagerMock{}
	handler := &CourseHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/courses", []byte(`{"name":"Tactics","requiredHours":7,"instructorNames":["Kim","Lee"],"assignmentMode":"automatic"}`))
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"Kim", "Lee"}, mockSvc.created.InstructorNames)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &CourseHandler{service: &courseManagerMock{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}}

	c, w := newGinContext(http.MethodGet, "/courses/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	importer := &courseImporterMock{result: &dto.CourseImportResult{RowsRead: 2, CoursesCreated: 3, InstructorsCreated: 1}}
	handler := &CourseHandler{service: &courseManagerMock{}, importer: importer, maxUploadBytes: 1024}

	c, w := newUploadContext(t, "courses.xlsx", []byte("workbook-bytes"))
	handler.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "workbook-bytes", string(importer.received))
	assert.Contains(t, w.Body.String(), `"coursesCreated":3`)
}

func TestCourseHandlerUploadRejections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &CourseHandler{service: &courseManagerMock{}, importer: &courseImporterMock{}, maxUploadBytes: 8}

	c, w := newUploadContext(t, "courses.xlsx", bytes.Repeat([]byte("x"), 16))
	handler.Upload(c)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	c, w = newUploadContext(t, "courses.csv", []byte("a,b"))
	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/courses/upload", []byte(`{}`))
	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerUploadValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rowErr := appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "1 invalid cells in spreadsheet"),
		map[string]any{"errors": []dto.ImportRowError{{Row: 3, Column: "hours", Message: "hours must be a positive integer"}}})
	handler := &CourseHandler{service: &courseManagerMock{}, importer: &courseImporterMock{err: rowErr}, maxUploadBytes: 1024}

	c, w := newUploadContext(t, "courses.xlsx", []byte("workbook-bytes"))
	handler.Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"row":3`)
}

func TestInstructorHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &InstructorHandler{service: &instructorManagerMock{err: appErrors.Clone(appErrors.ErrConflict, "instructor already exists")}}

	c, w := newGinContext(http.MethodPost, "/instructors", []byte(`{"name":"Kim"}`))
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInstructorHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &InstructorHandler{service: &instructorManagerMock{items: []models.Instructor{{ID: "inst-1", Name: "Kim"}}}}

	c, w := newGinContext(http.MethodGet, "/instructors", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Kim"`)
}

// --- Fixtures ---

func newUploadContext(t *testing.T, filename string, content []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}

type courseManagerMock struct {
	err     error
	query   dto.CourseQuery
	created dto.CreateCourseRequest
}

func (m *courseManagerMock) List(_ context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, error) {
	m.query = query
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.Course{{ID: "c-1", Name: "Tactics"}}, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, nil
}

func (m *courseManagerMock) Get(_ context.Context, id string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Course{ID: id}, nil
}

func (m *courseManagerMock) Create(_ context.Context, req dto.CreateCourseRequest) ([]models.Course, error) {
	m.created = req
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Course, 0, len(req.InstructorNames))
	for _, name := range req.InstructorNames {
		out = append(out, models.Course{Name: req.Name, InstructorNames: []string{name}})
	}
	return out, nil
}

func (m *courseManagerMock) Update(_ context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Course{ID: id, Name: req.Name}, nil
}

func (m *courseManagerMock) Delete(_ context.Context, _ string) error {
	return m.err
}

type courseImporterMock struct {
	result   *dto.CourseImportResult
	err      error
	received []byte
}

func (m *courseImporterMock) Import(_ context.Context, r io.Reader) (*dto.CourseImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.received = data
	return m.result, m.err
}

type instructorManagerMock struct {
	items []models.Instructor
	err   error
}

func (m *instructorManagerMock) List(_ context.Context) ([]models.Instructor, error) {
	return m.items, m.err
}

func (m *instructorManagerMock) Create(_ context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Instructor{ID: "inst-1", Name: req.Name}, nil
}
