package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

type importHistoryStore interface {
	Enabled() bool
	Save(ctx context.Context, run *models.ImportRun) error
	Get(ctx context.Context, id string) (*models.ImportRun, error)
	List(ctx context.Context, limit int) ([]models.ImportRun, error)
}

type runQueue interface {
	Submit(run *models.ImportRun) error
}

type reportRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// ImportHistoryService keeps and reports recent import runs.
type ImportHistoryService struct {
	store     importHistoryStore
	queue     runQueue
	pdf       reportRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImportHistoryService constructs an ImportHistoryService.
func NewImportHistoryService(store importHistoryStore, pdf reportRenderer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ImportHistoryService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHistoryService{store: store, pdf: pdf, metrics: metrics, validator: validate, logger: logger}
}

func (s *ImportHistoryService) enabled() bool {
	return s != nil && s.store != nil && s.store.Enabled()
}

// UseQueue hands future Record calls to q instead of saving inline.
func (s *ImportHistoryService) UseQueue(q runQueue) {
	s.queue = q
}

// Record stores a run. Failures are logged and swallowed so history never breaks an import.
func (s *ImportHistoryService) Record(ctx context.Context, run *models.ImportRun) {
	if !s.enabled() || run == nil {
		return
	}
	if s.queue != nil {
		err := s.queue.Submit(run)
		if err == nil {
			return
		}
		s.logger.Warn("history queue rejected run, saving inline", zap.String("id", run.ID), zap.Error(err))
	}
	if err := s.Persist(ctx, run); err != nil {
		s.logger.Warn("failed to record import run", zap.String("id", run.ID), zap.Error(err))
	}
}

// Persist writes one run to the store. It is the history queue's job handler.
func (s *ImportHistoryService) Persist(ctx context.Context, run *models.ImportRun) error {
	start := time.Now()
	err := s.store.Save(ctx, run)
	s.metrics.ObserveHistoryOperation(time.Since(start))
	return err
}

// List returns recent runs, newest first, optionally filtered by kind.
func (s *ImportHistoryService) List(ctx context.Context, filter dto.ImportHistoryFilter) ([]models.ImportRun, error) {
	if !s.enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "import history is disabled")
	}
	if err := s.validator.Struct(filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid history filter")
	}
	start := time.Now()
	runs, err := s.store.List(ctx, 0)
	s.metrics.ObserveHistoryOperation(time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list import history")
	}

	filtered := make([]models.ImportRun, 0, len(runs))
	for _, run := range runs {
		if filter.Kind != "" && string(run.Kind) != filter.Kind {
			continue
		}
		filtered = append(filtered, run)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].StartedAt.After(filtered[j].StartedAt) })
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

// Get returns one run by id.
func (s *ImportHistoryService) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	if !s.enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "import history is disabled")
	}
	start := time.Now()
	run, err := s.store.Get(ctx, id)
	s.metrics.ObserveHistoryOperation(time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import run")
	}
	return run, nil
}

// Report renders a run as a PDF: counters first, then the recorded error sample.
func (s *ImportHistoryService) Report(ctx context.Context, id string) ([]byte, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report := export.Report{
		Title: fmt.Sprintf("%s import report", run.Kind),
		Summary: []export.Field{
			{Label: "Run", Value: run.ID},
			{Label: "File", Value: run.FileName},
			{Label: "Started", Value: run.StartedAt.Format(time.RFC3339)},
			{Label: "Finished", Value: run.FinishedAt.Format(time.RFC3339)},
			{Label: "Succeeded", Value: strconv.FormatBool(run.Succeeded)},
			{Label: "Errors", Value: strconv.Itoa(run.ErrorCount)},
		},
	}
	if run.Failure != "" {
		report.Summary = append(report.Summary, export.Field{Label: "Failure", Value: run.Failure})
	}

	counters, errs := decodeRunSummary(run.Summary)
	report.Summary = append(report.Summary, counters...)
	if len(errs) > 0 {
		report.Table.Headers = []string{"#", "Error"}
		for i, msg := range errs {
			report.Table.Rows = append(report.Table.Rows, map[string]string{"#": strconv.Itoa(i + 1), "Error": msg})
		}
	}

	out, err := s.pdf.Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render import report")
	}
	return out, nil
}

// decodeRunSummary splits a stored summary into numeric counters and the errors list.
func decodeRunSummary(raw json.RawMessage) ([]export.Field, []string) {
	if len(raw) == 0 {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil
	}

	var errs []string
	if rawErrs, ok := fields["errors"]; ok {
		_ = json.Unmarshal(rawErrs, &errs)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	counters := make([]export.Field, 0, len(keys))
	for _, key := range keys {
		if key == "errors" || key == "errorCount" || key == "message" {
			continue
		}
		var n int
		if err := json.Unmarshal(fields[key], &n); err != nil {
			continue
		}
		counters = append(counters, export.Field{Label: key, Value: strconv.Itoa(n)})
	}
	return counters, errs
}
