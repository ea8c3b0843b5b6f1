package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type importRunnerMock struct {
	kind    models.ImportKind
	req     service.ImportRequest
	summary interface{}
	err     error
}

func (m *importRunnerMock) Import(ctx context.Context, kind models.ImportKind, req service.ImportRequest) (interface{}, error) {
	m.kind = kind
	m.req = req
	return m.summary, m.err
}

type historyReaderMock struct {
	filter dto.ImportHistoryFilter
	runs   []models.ImportRun
	run    *models.ImportRun
	pdf    []byte
	err    error
}

func (m *historyReaderMock) List(ctx context.Context, filter dto.ImportHistoryFilter) ([]models.ImportRun, error) {
	m.filter = filter
	return m.runs, m.err
}

func (m *historyReaderMock) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	return m.run, m.err
}

func (m *historyReaderMock) Report(ctx context.Context, id string) ([]byte, error) {
	return m.pdf, m.err
}

func uploadContext(t *testing.T, path, field, fileName, content string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestImportHandlerScheduleSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &importRunnerMock{summary: &dto.ScheduleImportSummary{Message: "ok", ClassesCreated: 2, Errors: []string{}}}
	h := NewImportHandler(runner, nil, nil, 0, nil)

	c, w := uploadContext(t, "/api/v1/imports/classcard/schedule", "file", "lessons.csv", "Date,Day\n")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	h.ImportClassCardSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ImportKindClassCardSchedule, runner.kind)
	assert.Equal(t, "admin-1", runner.req.ActorID)
	assert.Equal(t, "lessons.csv", runner.req.FileName)
	assert.Equal(t, "Date,Day\n", runner.req.Content)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["classesCreated"])
	assert.NotContains(t, body, "data")
}

func TestImportHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &importRunnerMock{}
	h := NewImportHandler(runner, nil, nil, 0, nil)

	c, w := uploadContext(t, "/api/v1/imports/teachers", "", "", "")
	h.ImportTeachers(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decodeBody(t, w)["error"])
	assert.Empty(t, runner.kind)
}

func TestImportHandlerRejectsEmptyFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &importRunnerMock{}
	h := NewImportHandler(runner, nil, nil, 0, nil)

	c, w := uploadContext(t, "/api/v1/imports/classcard/students", "file", "empty.csv", "")
	h.ImportClassCardStudents(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decodeBody(t, w)["error"])
	assert.Empty(t, runner.kind)
}

func TestImportHandlerRejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &importRunnerMock{}
	h := NewImportHandler(runner, nil, nil, 8, nil)

	c, w := uploadContext(t, "/api/v1/imports/students", "file", "big.csv", strings.Repeat("x", 64))
	h.ImportStudents(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "byte limit")
	assert.Empty(t, runner.kind)
}

func TestImportHandlerValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &importRunnerMock{err: &service.ValidationFailedError{Kind: models.ImportKindTeachers, Errors: []string{"Row 2: Email is required"}}}
	h := NewImportHandler(runner, nil, nil, 0, nil)

	c, w := uploadContext(t, "/api/v1/imports/teachers", "file", "t.csv", "Email,Full Name\n,Jo\n")
	h.ImportTeachers(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{"Row 2: Email is required"}, decodeBody(t, w)["errors"])
}

func TestImportHandlerMapsServiceErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"malformed", appErrors.Clone(appErrors.ErrMalformedInput, "invalid taxonomy CSV format: missing required columns Subject"), http.StatusBadRequest, "invalid taxonomy CSV format: missing required columns Subject"},
		{"internal", appErrors.Clone(appErrors.ErrInternal, "failed to load references"), http.StatusInternalServerError, "failed to load references"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewImportHandler(&importRunnerMock{err: tc.err}, nil, nil, 0, nil)
			c, w := uploadContext(t, "/api/v1/imports/taxonomy", "file", "tax.csv", "x")
			h.ImportTaxonomy(c)

			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decodeBody(t, w)["error"])
		})
	}
}

func TestImportHandlerTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewImportHandler(&importRunnerMock{}, nil, nil, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/imports/templates/teachers", nil)
	c.Params = gin.Params{{Key: "kind", Value: "teachers"}}
	h.Template(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeffEmail,Full Name\n"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/imports/templates/grades", nil)
	c.Params = gin.Params{{Key: "kind", Value: "grades"}}
	h.Template(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportHandlerHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &historyReaderMock{runs: []models.ImportRun{{ID: "run-1", Kind: models.ImportKindTeachers}}}
	h := NewImportHandler(&importRunnerMock{}, history, nil, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/imports/history?kind=teachers&limit=5", nil)
	h.History(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ImportHistoryFilter{Kind: "teachers", Limit: 5}, history.filter)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["meta"].(map[string]interface{})["count"])
}

func TestImportHandlerHistoryDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &historyReaderMock{err: appErrors.Clone(appErrors.ErrFeatureDisabled, "import history is disabled")}
	h := NewImportHandler(&importRunnerMock{}, history, nil, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/imports/history", nil)
	h.History(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestImportHandlerHistoryReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &historyReaderMock{pdf: []byte("%PDF-1.3")}
	h := NewImportHandler(&importRunnerMock{}, history, nil, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/imports/history/run-1/report.pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}
	h.HistoryReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "import-run-1.pdf")
}
