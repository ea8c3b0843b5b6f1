package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

func TestValidateTeachersDetectsDuplicateEmail(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateTeachers([]dto.TeacherRow{
		{Email: "jo@school.test", FullName: "Jo Smith"},
		{Email: "al@school.test", FullName: "Al Roe"},
		{Email: "JO@School.test", FullName: "Joanne Smith"},
	})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Row 4: duplicate email "JO@School.test" (first seen on row 2)`, result.Errors[0])
}

func TestValidateTeachersCollectsEveryProblem(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateTeachers([]dto.TeacherRow{
		{Email: "not-an-email", FullName: "Jo Smith"},
		{Email: "al@school.test"},
	})

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		`Row 2: invalid email format "not-an-email"`,
		"Row 3: Full Name is required",
	}, result.Errors)
}

func TestValidateStaffReportsSourceLines(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateStaff([]dto.StaffRow{
		{Line: 3, FullName: "Jo Smith", Email: "not-an-email", Role: "Teacher"},
		{Line: 5, FullName: "Al Roe", Email: "al@school.test", Role: "Teacher"},
		{Line: 6, FullName: "Al Roe", Email: "AL@school.test", Role: "Teacher"},
	})

	assert.Equal(t, []string{
		`Row 3: invalid email format "not-an-email"`,
		`Row 6: duplicate email "AL@school.test" (first seen on row 5)`,
	}, result.Errors)
}

func TestValidateEmptyInput(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateStudents(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"CSV file is empty or contains no valid student rows"}, result.Errors)
}

func TestValidateStudentsDuplicatePairs(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateStudents([]dto.StudentRow{
		{FullName: "Ann Lee", YearGroup: "Year 10"},
		{FullName: "Ann Lee", YearGroup: "Year 11"},
		{FullName: "ann lee", YearGroup: "year 10"},
	})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 4: duplicate student")
	assert.Contains(t, result.Errors[0], "first seen on row 2")
}

func TestValidateTaxonomy(t *testing.T) {
	v := NewRowValidator(nil)
	result := v.ValidateTaxonomy([]dto.TaxonomyRow{
		{Qualification: "GCSE", ExamBoard: "AQA", Subject: "Maths", Topic: "Algebra"},
		{Qualification: "GCSE", ExamBoard: "AQA", Subject: "Maths", Subtopic: "Quadratics"},
		{Qualification: "gcse", ExamBoard: "aqa", Subject: "maths", Topic: "algebra"},
	})
	assert.Equal(t, []string{
		`Row 3: Subtopic "Quadratics" requires a Topic`,
		"Row 4: duplicate taxonomy entry (first seen on row 2)",
	}, result.Errors)
}

func TestValidateScheduleStructuralFailures(t *testing.T) {
	v := NewRowValidator(nil)

	result := v.ValidateSchedule(nil, 0)
	assert.Equal(t, []string{"CSV file is empty or contains no valid schedule rows"}, result.Errors)

	result = v.ValidateSchedule(nil, 3)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{`No rows with Attendance Status "Marked" found`}, result.Errors)

	result = v.ValidateSchedule([]dto.ScheduleRow{{Date: "2024-01-01", Day: "Monday", Time: "09:00 am-10:00 am", ClassTitle: "Y10 Maths", Staff: "Jo Smith"}}, 1)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidatorDoesNotMutateInput(t *testing.T) {
	rows := []dto.StaffRow{{FullName: "Jo", Email: "b@x.io"}, {FullName: "Al", Email: "a@x.io"}}
	before := append([]dto.StaffRow(nil), rows...)
	NewRowValidator(nil).ValidateStaff(rows)
	assert.Equal(t, before, rows)
}
