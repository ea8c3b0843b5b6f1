package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TaxonomyRepository find-or-creates the qualification > exam board > subject > topic > subtopic tree.
type TaxonomyRepository struct {
	db *sqlx.DB
}

// NewTaxonomyRepository constructs a TaxonomyRepository.
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// EnsureQualification returns the id of the named qualification, creating it when absent.
func (r *TaxonomyRepository) EnsureQualification(ctx context.Context, name string) (string, bool, error) {
	return r.ensure(ctx, "qualification",
		`SELECT id FROM qualifications WHERE LOWER(name) = LOWER($1) LIMIT 1`, []interface{}{name},
		`INSERT INTO qualifications (id, name, created_at) VALUES ($1, $2, $3)`, []interface{}{name})
}

// EnsureExamBoard returns the id of the exam board under a qualification, creating it when absent.
func (r *TaxonomyRepository) EnsureExamBoard(ctx context.Context, qualificationID, name string) (string, bool, error) {
	return r.ensure(ctx, "exam board",
		`SELECT id FROM exam_boards WHERE qualification_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`, []interface{}{qualificationID, name},
		`INSERT INTO exam_boards (id, qualification_id, name, created_at) VALUES ($1, $2, $3, $4)`, []interface{}{qualificationID, name})
}

// EnsureSubject returns the id of the subject under an exam board, creating it when absent.
func (r *TaxonomyRepository) EnsureSubject(ctx context.Context, qualificationID, examBoardID, name string) (string, bool, error) {
	return r.ensure(ctx, "subject",
		`SELECT id FROM subjects WHERE exam_board_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`, []interface{}{examBoardID, name},
		`INSERT INTO subjects (id, qualification_id, exam_board_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`, []interface{}{qualificationID, examBoardID, name})
}

// EnsureTopic returns the id of the topic under a subject, creating it when absent.
func (r *TaxonomyRepository) EnsureTopic(ctx context.Context, subjectID, name string) (string, bool, error) {
	return r.ensure(ctx, "topic",
		`SELECT id FROM topics WHERE subject_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`, []interface{}{subjectID, name},
		`INSERT INTO topics (id, subject_id, name, created_at) VALUES ($1, $2, $3, $4)`, []interface{}{subjectID, name})
}

// EnsureSubtopic returns the id of the subtopic under a topic, creating it when absent.
func (r *TaxonomyRepository) EnsureSubtopic(ctx context.Context, topicID, name string) (string, bool, error) {
	return r.ensure(ctx, "subtopic",
		`SELECT id FROM subtopics WHERE topic_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`, []interface{}{topicID, name},
		`INSERT INTO subtopics (id, topic_id, name, created_at) VALUES ($1, $2, $3, $4)`, []interface{}{topicID, name})
}

// ensure runs selectQuery and, on no rows, insertQuery with (newID, insertArgs..., now).
// The boolean result reports whether a row was created.
func (r *TaxonomyRepository) ensure(ctx context.Context, label, selectQuery string, selectArgs []interface{}, insertQuery string, insertArgs []interface{}) (string, bool, error) {
	var id string
	err := r.db.GetContext(ctx, &id, selectQuery, selectArgs...)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("find %s: %w", label, err)
	}

	id = uuid.NewString()
	args := make([]interface{}, 0, len(insertArgs)+2)
	args = append(args, id)
	args = append(args, insertArgs...)
	args = append(args, time.Now().UTC())
	if _, err := r.db.ExecContext(ctx, insertQuery, args...); err != nil {
		return "", false, fmt.Errorf("create %s: %w", label, err)
	}
	return id, true, nil
}
