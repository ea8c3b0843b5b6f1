package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// SubjectRepository reads subjects and year groups used as import references.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListAll returns every subject. Insertion order drives partial-match precedence,
// so the order is fixed by creation time.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, qualification_id, exam_board_id, department_id, created_at, updated_at FROM subjects ORDER BY created_at ASC, id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list all subjects: %w", err)
	}
	return subjects, nil
}

// ListYearGroups returns every year group.
func (r *SubjectRepository) ListYearGroups(ctx context.Context) ([]models.YearGroup, error) {
	const query = `SELECT id, name, created_at FROM year_groups ORDER BY created_at ASC, id ASC`
	var groups []models.YearGroup
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list year groups: %w", err)
	}
	return groups, nil
}
