package service

import (
	"fmt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/csvimport"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
)

type importTemplate struct {
	schema csvimport.Schema
	sample map[string]string
}

var importTemplates = map[models.ImportKind]importTemplate{
	models.ImportKindTaxonomy: {
		schema: csvimport.TaxonomySchema,
		sample: map[string]string{"Qualification": "GCSE", "Exam Board": "AQA", "Subject": "Mathematics", "Topic": "Algebra", "Subtopic": "Quadratics"},
	},
	models.ImportKindTeachers: {
		schema: csvimport.TeacherSchema,
		sample: map[string]string{"Email": "jo.smith@school.test", "Full Name": "Jo Smith"},
	},
	models.ImportKindStudents: {
		schema: csvimport.StudentSchema,
		sample: map[string]string{"Full Name": "Ann Lee", "Year Group": "Year 10"},
	},
	models.ImportKindClassCardStaff: {
		schema: csvimport.ClassCardStaffSchema,
		sample: map[string]string{"Name": "Jo Smith", "Role": "Teacher", "Email": "jo.smith@school.test"},
	},
	models.ImportKindClassCardStudents: {
		schema: csvimport.ClassCardStudentSchema,
		sample: map[string]string{"Name": "Ann Lee", "Status": "Active", "Current Year Group": "Year 10"},
	},
	models.ImportKindClassCardSchedule: {
		schema: csvimport.ClassCardScheduleSchema,
		sample: map[string]string{
			"Date":              "2024-09-02",
			"Day":               "Monday",
			"Time":              "04:00 pm-05:00 pm (Asia/Dubai)",
			"Class Title":       "Y10 Maths",
			"Class Subject":     "Mathematics",
			"Students":          "Ann Lee, Bo Chan",
			"Staff":             "Jo Smith",
			"Attendance Status": "Marked",
		},
	},
}

// ImportTemplate returns the header row and one example row for an import kind.
func ImportTemplate(kind models.ImportKind) (export.Dataset, error) {
	tpl, ok := importTemplates[kind]
	if !ok {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown import kind %q", kind))
	}
	return export.Dataset{
		Headers: tpl.schema.TemplateHeaders(),
		Rows:    []map[string]string{tpl.sample},
	}, nil
}
