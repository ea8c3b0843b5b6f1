package dto

import (
	"strings"

	"github.com/noah-isme/school-admin-api/pkg/csvimport"
)

// MaxReportedErrors caps the error sample returned with an import summary.
const MaxReportedErrors = 50

// TaxonomyRow is one Qualification > Exam Board > Subject [> Topic [> Subtopic]] path.
type TaxonomyRow struct {
	Line          int
	Qualification string `csv:"Qualification" validate:"required"`
	ExamBoard     string `csv:"Exam Board" validate:"required"`
	Subject       string `csv:"Subject" validate:"required"`
	Topic         string
	Subtopic      string
}

// TeacherRow is one line of the teacher roster import.
type TeacherRow struct {
	Line     int
	Email    string `csv:"Email" validate:"required"`
	FullName string `csv:"Full Name" validate:"required"`
}

// StudentRow is one line of the student roster import.
type StudentRow struct {
	Line      int
	FullName  string `csv:"Full Name" validate:"required"`
	YearGroup string `csv:"Year Group" validate:"required"`
}

// StaffRow is one ClassCard staff line with Role == Teacher.
type StaffRow struct {
	Line     int
	FullName string `csv:"Full Name" validate:"required"`
	Email    string `csv:"Email" validate:"required"`
	Role     string
}

// ClassCardStudentRow is one active ClassCard student line.
type ClassCardStudentRow struct {
	Line      int
	FullName  string `csv:"Full Name" validate:"required"`
	Status    string
	YearGroup string
}

// ScheduleRow is one marked ClassCard session line.
type ScheduleRow struct {
	Line         int
	Date         string `csv:"Date" validate:"required"`
	Day          string `csv:"Day" validate:"required"`
	Time         string `csv:"Time" validate:"required"`
	ClassTitle   string `csv:"Class Title" validate:"required"`
	ClassSubject string
	Students     []string
	Staff        string `csv:"Staff" validate:"required"`
}

// TaxonomyRowsFromRecords maps parsed records to taxonomy rows.
func TaxonomyRowsFromRecords(records []csvimport.Record) []TaxonomyRow {
	rows := make([]TaxonomyRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, TaxonomyRow{
			Line:          r.Line,
			Qualification: r.Get(csvimport.KeyQualification),
			ExamBoard:     r.Get(csvimport.KeyExamBoard),
			Subject:       r.Get(csvimport.KeySubject),
			Topic:         r.Get(csvimport.KeyTopic),
			Subtopic:      r.Get(csvimport.KeySubtopic),
		})
	}
	return rows
}

// TeacherRowsFromRecords maps parsed records to teacher rows.
func TeacherRowsFromRecords(records []csvimport.Record) []TeacherRow {
	rows := make([]TeacherRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, TeacherRow{Line: r.Line, Email: r.Get(csvimport.KeyEmail), FullName: r.Get(csvimport.KeyFullName)})
	}
	return rows
}

// StudentRowsFromRecords maps parsed records to student rows.
func StudentRowsFromRecords(records []csvimport.Record) []StudentRow {
	rows := make([]StudentRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, StudentRow{Line: r.Line, FullName: r.Get(csvimport.KeyFullName), YearGroup: r.Get(csvimport.KeyYearGroup)})
	}
	return rows
}

// StaffRowsFromRecords keeps only staff whose role is Teacher.
func StaffRowsFromRecords(records []csvimport.Record) []StaffRow {
	rows := make([]StaffRow, 0, len(records))
	for _, r := range records {
		role := r.Get(csvimport.KeyRole)
		if !strings.EqualFold(role, "Teacher") {
			continue
		}
		rows = append(rows, StaffRow{Line: r.Line, FullName: r.Get(csvimport.KeyFullName), Email: r.Get(csvimport.KeyEmail), Role: role})
	}
	return rows
}

// ClassCardStudentRowsFromRecords keeps only students whose status is Active.
// Files without a Status column are admitted whole.
func ClassCardStudentRowsFromRecords(records []csvimport.Record) []ClassCardStudentRow {
	rows := make([]ClassCardStudentRow, 0, len(records))
	for _, r := range records {
		status := r.Get(csvimport.KeyStatus)
		if r.Has(csvimport.KeyStatus) && !strings.EqualFold(status, "Active") {
			continue
		}
		rows = append(rows, ClassCardStudentRow{
			Line:      r.Line,
			FullName:  r.Get(csvimport.KeyFullName),
			Status:    status,
			YearGroup: r.Get(csvimport.KeyYearGroup),
		})
	}
	return rows
}

// ScheduleRowsFromRecords keeps only sessions whose attendance is Marked.
func ScheduleRowsFromRecords(records []csvimport.Record) []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(records))
	for _, r := range records {
		if !strings.EqualFold(r.Get(csvimport.KeyAttendanceStatus), "Marked") {
			continue
		}
		rows = append(rows, ScheduleRow{
			Line:         r.Line,
			Date:         r.Get(csvimport.KeyDate),
			Day:          r.Get(csvimport.KeyDay),
			Time:         r.Get(csvimport.KeyTime),
			ClassTitle:   r.Get(csvimport.KeyClassTitle),
			ClassSubject: r.Get(csvimport.KeyClassSubject),
			Students:     SplitNames(r.Get(csvimport.KeyStudents)),
			Staff:        r.Get(csvimport.KeyStaff),
		})
	}
	return rows
}

// SplitNames splits a comma-joined list of names, dropping blanks.
func SplitNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ErrorLog accumulates row-level problems, keeping the first MaxReportedErrors.
type ErrorLog struct {
	count  int
	sample []string
}

// Add records one error.
func (l *ErrorLog) Add(msg string) {
	l.count++
	if len(l.sample) < MaxReportedErrors {
		l.sample = append(l.sample, msg)
	}
}

// Count returns the uncapped number of recorded errors.
func (l *ErrorLog) Count() int { return l.count }

// Sample returns the capped error list; never nil.
func (l *ErrorLog) Sample() []string {
	if l.sample == nil {
		return []string{}
	}
	out := make([]string, len(l.sample))
	copy(out, l.sample)
	return out
}

// ScheduleImportSummary is the response of a ClassCard schedule import.
type ScheduleImportSummary struct {
	Message          string   `json:"message"`
	ClassesCreated   int      `json:"classesCreated"`
	ClassesUpdated   int      `json:"classesUpdated"`
	SchedulesCreated int      `json:"schedulesCreated"`
	StudentsLinked   int      `json:"studentsLinked"`
	ErrorCount       int      `json:"errorCount"`
	Errors           []string `json:"errors"`
}

// RosterImportSummary is the response of teacher and student roster imports.
type RosterImportSummary struct {
	Message    string   `json:"message"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"errorCount"`
	Errors     []string `json:"errors"`
}

// TaxonomyImportSummary is the response of a taxonomy import.
type TaxonomyImportSummary struct {
	Message               string   `json:"message"`
	QualificationsCreated int      `json:"qualificationsCreated"`
	ExamBoardsCreated     int      `json:"examBoardsCreated"`
	SubjectsCreated       int      `json:"subjectsCreated"`
	TopicsCreated         int      `json:"topicsCreated"`
	SubtopicsCreated      int      `json:"subtopicsCreated"`
	ErrorCount            int      `json:"errorCount"`
	Errors                []string `json:"errors"`
}

// ImportHistoryFilter limits history listings.
type ImportHistoryFilter struct {
	Kind  string `form:"kind" validate:"omitempty,oneof=taxonomy teachers students classcard-staff classcard-students classcard-schedule"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
