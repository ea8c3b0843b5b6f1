package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

const defaultMaxFileSize int64 = 5 << 20

type importRunner interface {
	Import(ctx context.Context, kind models.ImportKind, req service.ImportRequest) (interface{}, error)
}

type importHistoryReader interface {
	List(ctx context.Context, filter dto.ImportHistoryFilter) ([]models.ImportRun, error)
	Get(ctx context.Context, id string) (*models.ImportRun, error)
	Report(ctx context.Context, id string) ([]byte, error)
}

// ImportHandler exposes the CSV import endpoints.
type ImportHandler struct {
	imports     importRunner
	history     importHistoryReader
	csv         *export.CSVExporter
	maxFileSize int64
	logger      *zap.Logger
}

// NewImportHandler constructs an ImportHandler. A non-positive maxFileSize falls back to 5 MiB.
func NewImportHandler(imports importRunner, history importHistoryReader, csv *export.CSVExporter, maxFileSize int64, logger *zap.Logger) *ImportHandler {
	if csv == nil {
		csv = &export.CSVExporter{WithBOM: true}
	}
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{imports: imports, history: history, csv: csv, maxFileSize: maxFileSize, logger: logger}
}

// ImportTaxonomy godoc
// @Summary Import the qualification taxonomy
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file: Qualification, Exam Board, Subject, Topic, Subtopic"
// @Success 200 {object} dto.TaxonomyImportSummary
// @Failure 400 {object} map[string]interface{}
// @Router /imports/taxonomy [post]
func (h *ImportHandler) ImportTaxonomy(c *gin.Context) {
	h.upload(c, models.ImportKindTaxonomy)
}

// ImportTeachers godoc
// @Summary Import the teacher roster
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file: Email, Full Name"
// @Success 200 {object} dto.RosterImportSummary
// @Failure 400 {object} map[string]interface{}
// @Router /imports/teachers [post]
func (h *ImportHandler) ImportTeachers(c *gin.Context) {
	h.upload(c, models.ImportKindTeachers)
}

// ImportStudents godoc
// @Summary Import the student roster
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file: Full Name, Year Group"
// @Success 200 {object} dto.RosterImportSummary
// @Failure 400 {object} map[string]interface{}
// @Router /imports/students [post]
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	h.upload(c, models.ImportKindStudents)
}

// ImportClassCardStaff godoc
// @Summary Import a ClassCard staff export
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ClassCard staff CSV"
// @Success 200 {object} dto.RosterImportSummary
// @Failure 400 {object} map[string]interface{}
// @Router /imports/classcard/staff [post]
func (h *ImportHandler) ImportClassCardStaff(c *gin.Context) {
	h.upload(c, models.ImportKindClassCardStaff)
}

// ImportClassCardStudents godoc
// @Summary Import a ClassCard student export
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ClassCard students CSV"
// @Success 200 {object} dto.RosterImportSummary
// @Failure 400 {object} map[string]interface{}
// @Router /imports/classcard/students [post]
func (h *ImportHandler) ImportClassCardStudents(c *gin.Context) {
	h.upload(c, models.ImportKindClassCardStudents)
}

// ImportClassCardSchedule godoc
// @Summary Import a ClassCard lesson schedule export
// @Description Groups marked sessions into classes and replaces their students and weekly slots.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ClassCard schedule CSV"
// @Success 200 {object} dto.ScheduleImportSummary
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /imports/classcard/schedule [post]
func (h *ImportHandler) ImportClassCardSchedule(c *gin.Context) {
	h.upload(c, models.ImportKindClassCardSchedule)
}

func (h *ImportHandler) upload(c *gin.Context, kind models.ImportKind) {
	content, fileName, err := h.readFile(c)
	if err != nil {
		h.importError(c, err)
		return
	}

	req := service.ImportRequest{FileName: fileName, ActorID: actorFromContext(c), Content: content}

	summary, err := h.imports.Import(c.Request.Context(), kind, req)
	if err != nil {
		h.importError(c, err)
		return
	}
	response.Raw(c, http.StatusOK, summary)
}

func (h *ImportHandler) readFile(c *gin.Context) (string, string, error) {
	header, err := c.FormFile("file")
	if err != nil || header.Size == 0 {
		return "", "", appErrors.Clone(appErrors.ErrMissingFile, "No file uploaded")
	}
	if header.Size > h.maxFileSize {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", h.maxFileSize))
	}
	file, err := header.Open()
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, "failed to read uploaded file")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, "failed to read uploaded file")
	}
	if int64(len(raw)) > h.maxFileSize {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", h.maxFileSize))
	}
	return string(raw), header.Filename, nil
}

// importError writes the flat error bodies import clients expect.
func (h *ImportHandler) importError(c *gin.Context, err error) {
	var rejected *service.ValidationFailedError
	if errors.As(err, &rejected) {
		response.Raw(c, http.StatusBadRequest, gin.H{"errors": rejected.Errors})
		return
	}
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("import failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Raw(c, appErr.Status, gin.H{"error": appErr.Message})
}

// Template godoc
// @Summary Download a CSV template
// @Tags Imports
// @Produce text/csv
// @Param kind path string true "Import kind" Enums(taxonomy, teachers, students, classcard-staff, classcard-students, classcard-schedule)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /imports/templates/{kind} [get]
func (h *ImportHandler) Template(c *gin.Context) {
	kind := models.ImportKind(c.Param("kind"))
	dataset, err := service.ImportTemplate(kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.csv.Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(kind)+"-template.csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
}

// History godoc
// @Summary List recent import runs
// @Tags Imports
// @Produce json
// @Param kind query string false "Import kind"
// @Param limit query int false "Maximum runs (1-100)"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /imports/history [get]
func (h *ImportHandler) History(c *gin.Context) {
	var filter dto.ImportHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	runs, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, map[string]interface{}{"count": len(runs)})
}

// HistoryDetail godoc
// @Summary Get one import run
// @Tags Imports
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/history/{id} [get]
func (h *ImportHandler) HistoryDetail(c *gin.Context) {
	run, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// HistoryReport godoc
// @Summary Download an import run report
// @Tags Imports
// @Produce application/pdf
// @Param id path string true "Run ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /imports/history/{id}/report.pdf [get]
func (h *ImportHandler) HistoryReport(c *gin.Context) {
	id := c.Param("id")
	out, err := h.history.Report(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "import-"+id+".pdf"))
	c.Data(http.StatusOK, "application/pdf", out)
}
