package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// ClassRepository persists classes together with their rosters and weekly slots.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByKey returns the class matching (name, teacher, subject) or nil when absent.
func (r *ClassRepository) FindByKey(ctx context.Context, key models.ClassKey) (*models.Class, error) {
	const query = `SELECT id, name, teacher_id, subject_id, year_group_id, department_id, created_by, created_at, updated_at FROM classes WHERE name = $1 AND teacher_id = $2 AND subject_id = $3 ORDER BY created_at ASC LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, key.Name, key.TeacherID, key.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find class by key: %w", err)
	}
	return &class, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, teacher_id, subject_id, year_group_id, department_id, created_by, created_at, updated_at) VALUES (:id, :name, :teacher_id, :subject_id, :year_group_id, :department_id, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// UpdateYearGroup sets the year group of a class.
func (r *ClassRepository) UpdateYearGroup(ctx context.Context, id string, yearGroupID *string) error {
	const query = `UPDATE classes SET year_group_id = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, yearGroupID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update class year group: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddStudents inserts roster links for a freshly created class.
func (r *ClassRepository) AddStudents(ctx context.Context, classID string, studentIDs []string) error {
	return r.insertStudents(ctx, r.db, classID, studentIDs)
}

// AddSchedules inserts weekly slots for a freshly created class.
func (r *ClassRepository) AddSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) error {
	return r.insertSchedules(ctx, r.db, classID, slots)
}

// ReplaceStudents swaps the whole roster of a class in one transaction.
func (r *ClassRepository) ReplaceStudents(ctx context.Context, classID string, studentIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class students: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_students WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete class students: %w", err)
	}
	if err = r.insertStudents(ctx, tx, classID, studentIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class students: %w", err)
	}
	return nil
}

// ReplaceSchedules swaps all weekly slots of a class in one transaction.
func (r *ClassRepository) ReplaceSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class schedules: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_schedules WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete class schedules: %w", err)
	}
	if err = r.insertSchedules(ctx, tx, classID, slots); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class schedules: %w", err)
	}
	return nil
}

func (r *ClassRepository) insertStudents(ctx context.Context, exec sqlx.ExtContext, classID string, studentIDs []string) error {
	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		link := models.ClassStudent{ID: uuid.NewString(), ClassID: classID, StudentID: studentID, CreatedAt: now}
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO class_students (id, class_id, student_id, created_at) VALUES (:id, :class_id, :student_id, :created_at)`, &link); err != nil {
			return fmt.Errorf("insert class student: %w", err)
		}
	}
	return nil
}

func (r *ClassRepository) insertSchedules(ctx context.Context, exec sqlx.ExtContext, classID string, slots []models.ClassSchedule) error {
	now := time.Now().UTC()
	for i := range slots {
		slot := slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.ClassID = classID
		slot.CreatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO class_schedules (id, class_id, day_of_week, start_time, end_time, created_at) VALUES (:id, :class_id, :day_of_week, :start_time, :end_time, :created_at)`, &slot); err != nil {
			return fmt.Errorf("insert class schedule: %w", err)
		}
		slots[i] = slot
	}
	return nil
}
