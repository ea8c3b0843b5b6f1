package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/csvimport"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type teacherStore interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	UpdateName(ctx context.Context, id, fullName string) error
}

type studentStore interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateYearGroup(ctx context.Context, id string, yearGroupID *string) error
}

type subjectStore interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
	ListYearGroups(ctx context.Context) ([]models.YearGroup, error)
}

type taxonomyStore interface {
	EnsureQualification(ctx context.Context, name string) (string, bool, error)
	EnsureExamBoard(ctx context.Context, qualificationID, name string) (string, bool, error)
	EnsureSubject(ctx context.Context, qualificationID, examBoardID, name string) (string, bool, error)
	EnsureTopic(ctx context.Context, subjectID, name string) (string, bool, error)
	EnsureSubtopic(ctx context.Context, topicID, name string) (string, bool, error)
}

type importRecorder interface {
	Record(ctx context.Context, run *models.ImportRun)
}

// ImportRequest carries one uploaded file.
type ImportRequest struct {
	FileName string
	ActorID  string
	Content  string
}

// ValidationFailedError carries the full row-level error list of a rejected file.
type ValidationFailedError struct {
	Kind   models.ImportKind
	Errors []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%s import rejected with %d validation errors", e.Kind, len(e.Errors))
}

// ImportOptions tunes name resolution.
type ImportOptions struct {
	SubjectAliases        map[string]string
	SubjectMatchMinLength int
}

// ImportService runs the parse, validate, resolve and synchronize pipeline for every import flavor.
type ImportService struct {
	teachers  teacherStore
	students  studentStore
	subjects  subjectStore
	taxonomy  taxonomyStore
	sync      *ClassSynchronizer
	validator *RowValidator
	history   importRecorder
	metrics   *MetricsService
	opts      ImportOptions
	logger    *zap.Logger
}

// NewImportService constructs an ImportService. history and metrics may be nil.
func NewImportService(teachers teacherStore, students studentStore, subjects subjectStore, taxonomy taxonomyStore, classes classStore, validator *RowValidator, history importRecorder, metrics *MetricsService, opts ImportOptions, logger *zap.Logger) *ImportService {
	if validator == nil {
		validator = NewRowValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SubjectMatchMinLength <= 0 {
		opts.SubjectMatchMinLength = 4
	}
	return &ImportService{
		teachers:  teachers,
		students:  students,
		subjects:  subjects,
		taxonomy:  taxonomy,
		sync:      NewClassSynchronizer(classes, logger),
		validator: validator,
		history:   history,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
	}
}

// Import dispatches to the flavor named by kind and returns its summary.
func (s *ImportService) Import(ctx context.Context, kind models.ImportKind, req ImportRequest) (interface{}, error) {
	switch kind {
	case models.ImportKindTaxonomy:
		return s.ImportTaxonomy(ctx, req)
	case models.ImportKindTeachers:
		return s.ImportTeachers(ctx, req)
	case models.ImportKindStudents:
		return s.ImportStudents(ctx, req)
	case models.ImportKindClassCardStaff:
		return s.ImportStaff(ctx, req)
	case models.ImportKindClassCardStudents:
		return s.ImportClassCardStudents(ctx, req)
	case models.ImportKindClassCardSchedule:
		return s.ImportSchedule(ctx, req)
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown import kind %q", kind))
	}
}

// ImportSchedule synchronizes classes, rosters and weekly slots from a ClassCard session export.
func (s *ImportService) ImportSchedule(ctx context.Context, req ImportRequest) (summary *dto.ScheduleImportSummary, err error) {
	kind := models.ImportKindClassCardSchedule
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.ClassCardScheduleSchema)
	if err != nil {
		return nil, err
	}
	rows := dto.ScheduleRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateSchedule(rows, len(records))); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	refs, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}

	var log dto.ErrorLog
	summary = &dto.ScheduleImportSummary{}
	for _, group := range GroupScheduleRows(rows) {
		outcome, syncErr := s.sync.Sync(ctx, group, refs, req.ActorID)
		for _, msg := range outcome.Errors {
			log.Add(msg)
		}
		if syncErr != nil {
			s.logger.Error("class sync failed", zap.String("class", group.Title), zap.Error(syncErr))
			err = appErrors.Wrap(syncErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to synchronize class %q", group.Title))
			return nil, err
		}
		switch {
		case outcome.Created:
			summary.ClassesCreated++
		case outcome.Updated:
			summary.ClassesUpdated++
		}
		summary.SchedulesCreated += outcome.SchedulesCreated
		summary.StudentsLinked += outcome.StudentsLinked
	}

	summary.ErrorCount = log.Count()
	summary.Errors = log.Sample()
	summary.Message = fmt.Sprintf("Schedule import complete: %d classes created, %d updated, %d errors",
		summary.ClassesCreated, summary.ClassesUpdated, summary.ErrorCount)
	return summary, nil
}

// ImportTeachers creates or renames teachers keyed by e-mail.
func (s *ImportService) ImportTeachers(ctx context.Context, req ImportRequest) (summary *dto.RosterImportSummary, err error) {
	kind := models.ImportKindTeachers
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.TeacherSchema)
	if err != nil {
		return nil, err
	}
	rows := dto.TeacherRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateTeachers(rows)); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	entries := make([]teacherEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, teacherEntry{Email: row.Email, FullName: row.FullName})
	}
	summary, err = s.upsertTeachers(ctx, entries)
	if err != nil {
		return nil, err
	}
	summary.Message = fmt.Sprintf("Teacher import complete: %d created, %d updated, %d unchanged", summary.Created, summary.Updated, summary.Skipped)
	return summary, nil
}

// ImportStaff imports the teachers of a ClassCard staff export.
func (s *ImportService) ImportStaff(ctx context.Context, req ImportRequest) (summary *dto.RosterImportSummary, err error) {
	kind := models.ImportKindClassCardStaff
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.ClassCardStaffSchema)
	if err != nil {
		return nil, err
	}
	rows := dto.StaffRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateStaff(rows)); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	entries := make([]teacherEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, teacherEntry{Email: row.Email, FullName: row.FullName})
	}
	summary, err = s.upsertTeachers(ctx, entries)
	if err != nil {
		return nil, err
	}
	summary.Message = fmt.Sprintf("ClassCard staff import complete: %d teachers created, %d updated, %d unchanged", summary.Created, summary.Updated, summary.Skipped)
	return summary, nil
}

type teacherEntry struct {
	Email    string
	FullName string
}

func (s *ImportService) upsertTeachers(ctx context.Context, entries []teacherEntry) (*dto.RosterImportSummary, error) {
	existing, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load teachers")
	}
	byEmail := make(map[string]*models.Teacher, len(existing))
	for i := range existing {
		byEmail[foldKey(existing[i].Email)] = &existing[i]
	}

	summary := &dto.RosterImportSummary{}
	for _, entry := range entries {
		key := foldKey(entry.Email)
		current, found := byEmail[key]
		if !found {
			teacher := &models.Teacher{Email: strings.ToLower(strings.TrimSpace(entry.Email)), FullName: entry.FullName, Active: true}
			if err := s.teachers.Create(ctx, teacher); err != nil {
				return nil, s.dataAccess(err, "failed to create teacher")
			}
			byEmail[key] = teacher
			summary.Created++
			continue
		}
		if current.FullName == entry.FullName {
			summary.Skipped++
			continue
		}
		if err := s.teachers.UpdateName(ctx, current.ID, entry.FullName); err != nil {
			return nil, s.dataAccess(err, "failed to update teacher")
		}
		current.FullName = entry.FullName
		summary.Updated++
	}
	summary.Errors = []string{}
	return summary, nil
}

// ImportStudents creates students or moves them to the year group named in the file.
func (s *ImportService) ImportStudents(ctx context.Context, req ImportRequest) (summary *dto.RosterImportSummary, err error) {
	kind := models.ImportKindStudents
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.StudentSchema)
	if err != nil {
		return nil, err
	}
	rows := dto.StudentRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateStudents(rows)); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	entries := make([]studentEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, studentEntry{Row: rowNumber(row.Line, i), FullName: row.FullName, YearGroup: row.YearGroup, RequireYearGroup: true})
	}
	summary, err = s.upsertStudents(ctx, entries)
	if err != nil {
		return nil, err
	}
	summary.Message = fmt.Sprintf("Student import complete: %d created, %d updated, %d unchanged, %d errors", summary.Created, summary.Updated, summary.Skipped, summary.ErrorCount)
	return summary, nil
}

// ImportClassCardStudents imports the active students of a ClassCard student export.
func (s *ImportService) ImportClassCardStudents(ctx context.Context, req ImportRequest) (summary *dto.RosterImportSummary, err error) {
	kind := models.ImportKindClassCardStudents
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.ClassCardStudentSchema)
	if err != nil {
		return nil, err
	}
	rows := dto.ClassCardStudentRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateClassCardStudents(rows)); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	entries := make([]studentEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, studentEntry{Row: rowNumber(row.Line, i), FullName: row.FullName, YearGroup: row.YearGroup})
	}
	summary, err = s.upsertStudents(ctx, entries)
	if err != nil {
		return nil, err
	}
	summary.Message = fmt.Sprintf("ClassCard student import complete: %d created, %d updated, %d unchanged, %d errors", summary.Created, summary.Updated, summary.Skipped, summary.ErrorCount)
	return summary, nil
}

type studentEntry struct {
	Row              int
	FullName         string
	YearGroup        string
	RequireYearGroup bool
}

func (s *ImportService) upsertStudents(ctx context.Context, entries []studentEntry) (*dto.RosterImportSummary, error) {
	existing, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load students")
	}
	yearGroups, err := s.subjects.ListYearGroups(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load year groups")
	}
	refs := NewReferenceSet(nil, nil, nil, yearGroups, nil, s.opts.SubjectMatchMinLength)

	byName := make(map[string]*models.Student, len(existing))
	for i := range existing {
		key := foldKey(existing[i].FullName)
		if _, dup := byName[key]; !dup {
			byName[key] = &existing[i]
		}
	}

	var log dto.ErrorLog
	summary := &dto.RosterImportSummary{}
	for _, entry := range entries {
		var yearGroupID *string
		if entry.YearGroup != "" {
			id, ok := refs.ResolveYearGroup(entry.YearGroup)
			if !ok {
				log.Add(fmt.Sprintf("Row %d: %s", entry.Row, notFoundMessage("Year group", entry.YearGroup, refs.YearGroups)))
				if entry.RequireYearGroup {
					continue
				}
			} else {
				yearGroupID = &id
			}
		}

		key := foldKey(entry.FullName)
		current, found := byName[key]
		if !found {
			student := &models.Student{FullName: entry.FullName, YearGroupID: yearGroupID, Active: true}
			if err := s.students.Create(ctx, student); err != nil {
				return nil, s.dataAccess(err, "failed to create student")
			}
			byName[key] = student
			summary.Created++
			continue
		}
		if yearGroupID == nil || sameID(current.YearGroupID, yearGroupID) {
			summary.Skipped++
			continue
		}
		if err := s.students.UpdateYearGroup(ctx, current.ID, yearGroupID); err != nil {
			return nil, s.dataAccess(err, "failed to update student")
		}
		current.YearGroupID = yearGroupID
		summary.Updated++
	}
	summary.ErrorCount = log.Count()
	summary.Errors = log.Sample()
	return summary, nil
}

// ImportTaxonomy find-or-creates every level of each qualification path.
func (s *ImportService) ImportTaxonomy(ctx context.Context, req ImportRequest) (summary *dto.TaxonomyImportSummary, err error) {
	kind := models.ImportKindTaxonomy
	started := time.Now()
	rowCount := 0
	defer func() { s.finish(ctx, kind, req, started, rowCount, summary, err) }()

	records, err := s.parse(kind, req.Content, csvimport.TaxonomySchema)
	if err != nil {
		return nil, err
	}
	rows := dto.TaxonomyRowsFromRecords(records)
	if err = s.check(kind, s.validator.ValidateTaxonomy(rows)); err != nil {
		return nil, err
	}
	rowCount = len(rows)

	memo := make(map[string]string)
	ensure := func(level, key string, create func() (string, bool, error), counter *int) (string, error) {
		memoKey := level + "\x00" + key
		if id, ok := memo[memoKey]; ok {
			return id, nil
		}
		id, created, err := create()
		if err != nil {
			return "", s.dataAccess(err, "failed to import "+level)
		}
		if created {
			*counter++
		}
		memo[memoKey] = id
		return id, nil
	}

	summary = &dto.TaxonomyImportSummary{}
	for _, row := range rows {
		path := foldKey(row.Qualification)
		qualificationID, err := ensure("qualification", path, func() (string, bool, error) {
			return s.taxonomy.EnsureQualification(ctx, row.Qualification)
		}, &summary.QualificationsCreated)
		if err != nil {
			return nil, err
		}

		path += "\x00" + foldKey(row.ExamBoard)
		examBoardID, err := ensure("exam board", path, func() (string, bool, error) {
			return s.taxonomy.EnsureExamBoard(ctx, qualificationID, row.ExamBoard)
		}, &summary.ExamBoardsCreated)
		if err != nil {
			return nil, err
		}

		path += "\x00" + foldKey(row.Subject)
		subjectID, err := ensure("subject", path, func() (string, bool, error) {
			return s.taxonomy.EnsureSubject(ctx, qualificationID, examBoardID, row.Subject)
		}, &summary.SubjectsCreated)
		if err != nil {
			return nil, err
		}

		if row.Topic == "" {
			continue
		}
		path += "\x00" + foldKey(row.Topic)
		topicID, err := ensure("topic", path, func() (string, bool, error) {
			return s.taxonomy.EnsureTopic(ctx, subjectID, row.Topic)
		}, &summary.TopicsCreated)
		if err != nil {
			return nil, err
		}

		if row.Subtopic == "" {
			continue
		}
		path += "\x00" + foldKey(row.Subtopic)
		if _, err := ensure("subtopic", path, func() (string, bool, error) {
			return s.taxonomy.EnsureSubtopic(ctx, topicID, row.Subtopic)
		}, &summary.SubtopicsCreated); err != nil {
			return nil, err
		}
	}

	summary.Errors = []string{}
	summary.Message = fmt.Sprintf("Taxonomy import complete: %d qualifications, %d exam boards, %d subjects, %d topics, %d subtopics created",
		summary.QualificationsCreated, summary.ExamBoardsCreated, summary.SubjectsCreated, summary.TopicsCreated, summary.SubtopicsCreated)
	return summary, nil
}

// loadReferences bulk-fetches every reference table once for the run.
func (s *ImportService) loadReferences(ctx context.Context) (*ReferenceSet, error) {
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load teachers")
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load students")
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load subjects")
	}
	yearGroups, err := s.subjects.ListYearGroups(ctx)
	if err != nil {
		return nil, s.dataAccess(err, "failed to load year groups")
	}
	return NewReferenceSet(teachers, students, subjects, yearGroups, s.opts.SubjectAliases, s.opts.SubjectMatchMinLength), nil
}

func (s *ImportService) parse(kind models.ImportKind, content string, schema csvimport.Schema) ([]csvimport.Record, error) {
	records, err := csvimport.Parse(content, schema)
	if err != nil {
		var malformed *csvimport.MalformedInputError
		if errors.As(err, &malformed) {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, malformed.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, fmt.Sprintf("unable to parse %s CSV", kind))
	}
	return records, nil
}

func (s *ImportService) check(kind models.ImportKind, result ValidationResult) error {
	if result.Valid {
		return nil
	}
	return &ValidationFailedError{Kind: kind, Errors: result.Errors}
}

func (s *ImportService) dataAccess(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// finish records metrics and history for a run. It never changes the outcome.
func (s *ImportService) finish(ctx context.Context, kind models.ImportKind, req ImportRequest, started time.Time, rows int, summary interface{}, err error) {
	duration := time.Since(started)
	run := &models.ImportRun{
		ID:         uuid.NewString(),
		Kind:       kind,
		FileName:   req.FileName,
		ActorID:    req.ActorID,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
	}

	outcome := "success"
	var validation *ValidationFailedError
	switch {
	case errors.As(err, &validation):
		outcome = "invalid"
		run.ErrorCount = len(validation.Errors)
		run.Failure = validation.Error()
		if payload, marshalErr := json.Marshal(map[string][]string{"errors": capErrors(validation.Errors)}); marshalErr == nil {
			run.Summary = payload
		}
	case err != nil:
		appErr := appErrors.FromError(err)
		outcome = "failed"
		if appErr.Code == appErrors.ErrMalformedInput.Code {
			outcome = "invalid"
		}
		run.Failure = appErr.Message
	default:
		run.Succeeded = true
		run.ErrorCount = summaryErrorCount(summary)
		if payload, marshalErr := json.Marshal(summary); marshalErr == nil {
			run.Summary = payload
		}
	}

	s.metrics.ObserveImport(string(kind), outcome, rows, run.ErrorCount, duration)
	s.logger.Info("import finished",
		zap.String("kind", string(kind)),
		zap.String("file", req.FileName),
		zap.String("actor", req.ActorID),
		zap.String("outcome", outcome),
		zap.Int("rows", rows),
		zap.Int("error_count", run.ErrorCount),
		zap.Duration("duration", duration),
	)
	if s.history != nil {
		s.history.Record(ctx, run)
	}
}

func capErrors(errs []string) []string {
	if len(errs) > dto.MaxReportedErrors {
		return errs[:dto.MaxReportedErrors]
	}
	return errs
}

func summaryErrorCount(summary interface{}) int {
	switch v := summary.(type) {
	case *dto.ScheduleImportSummary:
		if v != nil {
			return v.ErrorCount
		}
	case *dto.RosterImportSummary:
		if v != nil {
			return v.ErrorCount
		}
	case *dto.TaxonomyImportSummary:
		if v != nil {
			return v.ErrorCount
		}
	}
	return 0
}
