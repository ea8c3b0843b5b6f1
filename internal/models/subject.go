package models

import "time"

// Subject represents an academic subject, optionally placed in the qualification taxonomy.
type Subject struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	QualificationID *string   `db:"qualification_id" json:"qualification_id,omitempty"`
	ExamBoardID     *string   `db:"exam_board_id" json:"exam_board_id,omitempty"`
	DepartmentID    *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// YearGroup is a cohort label such as "Year 10".
type YearGroup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
