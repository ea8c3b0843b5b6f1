package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult collects every problem found in a batch of rows.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// RowValidator checks parsed import rows without stopping at the first problem.
type RowValidator struct {
	validate *validator.Validate
}

// NewRowValidator builds a RowValidator. Field names in messages come from the csv struct tag.
func NewRowValidator(validate *validator.Validate) *RowValidator {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("csv"); name != "" {
			return name
		}
		return field.Name
	})
	return &RowValidator{validate: validate}
}

type rowIssues struct {
	errors []string
}

func (r *rowIssues) addf(row int, format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf("Row %d: ", row)+fmt.Sprintf(format, args...))
}

func (r *rowIssues) result() ValidationResult {
	if r.errors == nil {
		return ValidationResult{Valid: true, Errors: []string{}}
	}
	return ValidationResult{Valid: false, Errors: r.errors}
}

// rowNumber returns the 1-based file line of a row. Rows built without a
// source line fall back to their zero-based index, counting the header.
func rowNumber(line, index int) int {
	if line > 0 {
		return line
	}
	return index + 2
}

func emptyResult(noun string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("CSV file is empty or contains no valid %s rows", noun)}}
}

func (v *RowValidator) checkStruct(issues *rowIssues, line int, row interface{}) {
	err := v.validate.Struct(row)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		issues.addf(line, "%v", err)
		return
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			issues.addf(line, "%s is required", fe.Field())
		default:
			issues.addf(line, "%s is invalid", fe.Field())
		}
	}
}

type duplicateTracker map[string]int

// seen records key and returns the row number it first appeared on.
func (d duplicateTracker) seen(key string, line int) (int, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if first, ok := d[key]; ok {
		return first, true
	}
	d[key] = line
	return 0, false
}

// ValidateTaxonomy checks taxonomy rows for required levels and duplicate paths.
func (v *RowValidator) ValidateTaxonomy(rows []dto.TaxonomyRow) ValidationResult {
	if len(rows) == 0 {
		return emptyResult("taxonomy")
	}
	issues := &rowIssues{}
	paths := duplicateTracker{}
	for i, row := range rows {
		line := rowNumber(row.Line, i)
		v.checkStruct(issues, line, row)
		path := strings.Join([]string{row.Qualification, row.ExamBoard, row.Subject, row.Topic, row.Subtopic}, " > ")
		if row.Subtopic != "" && row.Topic == "" {
			issues.addf(line, "Subtopic %q requires a Topic", row.Subtopic)
		}
		if first, dup := paths.seen(path, line); dup {
			issues.addf(line, "duplicate taxonomy entry (first seen on row %d)", first)
		}
	}
	return issues.result()
}

// ValidateTeachers checks teacher rows for e-mail format and duplicate e-mails.
func (v *RowValidator) ValidateTeachers(rows []dto.TeacherRow) ValidationResult {
	if len(rows) == 0 {
		return emptyResult("teacher")
	}
	issues := &rowIssues{}
	emails := duplicateTracker{}
	for i, row := range rows {
		line := rowNumber(row.Line, i)
		v.checkStruct(issues, line, row)
		v.checkEmail(issues, emails, line, row.Email)
	}
	return issues.result()
}

// ValidateStaff checks ClassCard staff rows like teacher rows.
func (v *RowValidator) ValidateStaff(rows []dto.StaffRow) ValidationResult {
	if len(rows) == 0 {
		return emptyResult("teacher staff")
	}
	issues := &rowIssues{}
	emails := duplicateTracker{}
	for i, row := range rows {
		line := rowNumber(row.Line, i)
		v.checkStruct(issues, line, row)
		v.checkEmail(issues, emails, line, row.Email)
	}
	return issues.result()
}

func (v *RowValidator) checkEmail(issues *rowIssues, emails duplicateTracker, line int, email string) {
	if email == "" {
		return
	}
	if !emailPattern.MatchString(email) {
		issues.addf(line, "invalid email format %q", email)
		return
	}
	if first, dup := emails.seen(email, line); dup {
		issues.addf(line, "duplicate email %q (first seen on row %d)", email, first)
	}
}

// ValidateStudents checks student rows for required fields and duplicate name+year group pairs.
func (v *RowValidator) ValidateStudents(rows []dto.StudentRow) ValidationResult {
	if len(rows) == 0 {
		return emptyResult("student")
	}
	issues := &rowIssues{}
	keys := duplicateTracker{}
	for i, row := range rows {
		line := rowNumber(row.Line, i)
		v.checkStruct(issues, line, row)
		if row.FullName == "" {
			continue
		}
		if first, dup := keys.seen(row.FullName+"|"+row.YearGroup, line); dup {
			issues.addf(line, "duplicate student %q in %q (first seen on row %d)", row.FullName, row.YearGroup, first)
		}
	}
	return issues.result()
}

// ValidateClassCardStudents checks ClassCard student rows for duplicate names.
func (v *RowValidator) ValidateClassCardStudents(rows []dto.ClassCardStudentRow) ValidationResult {
	if len(rows) == 0 {
		return emptyResult("active student")
	}
	issues := &rowIssues{}
	names := duplicateTracker{}
	for i, row := range rows {
		line := rowNumber(row.Line, i)
		v.checkStruct(issues, line, row)
		if row.FullName == "" {
			continue
		}
		if first, dup := names.seen(row.FullName, line); dup {
			issues.addf(line, "duplicate student %q (first seen on row %d)", row.FullName, first)
		}
	}
	return issues.result()
}

// ValidateSchedule checks marked schedule rows. parsed is the row count before the
// attendance filter, so an all-unmarked file is reported distinctly from an empty one.
func (v *RowValidator) ValidateSchedule(rows []dto.ScheduleRow, parsed int) ValidationResult {
	if parsed == 0 {
		return emptyResult("schedule")
	}
	if len(rows) == 0 {
		return ValidationResult{Valid: false, Errors: []string{`No rows with Attendance Status "Marked" found`}}
	}
	issues := &rowIssues{}
	for i, row := range rows {
		v.checkStruct(issues, rowNumber(row.Line, i), row)
	}
	return issues.result()
}
