package models

import "time"

// Class represents a taught class owned by one teacher for one subject.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	YearGroupID  *string   `db:"year_group_id" json:"year_group_id,omitempty"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedBy    *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassKey is the natural key used to match an imported class to an existing one.
type ClassKey struct {
	Name      string
	TeacherID string
	SubjectID string
}

// ClassStudent links a student to a class roster.
type ClassStudent struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
