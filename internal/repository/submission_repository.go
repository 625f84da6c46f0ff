package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eone-api/internal/models"
)

// SubmissionRepository handles persistence of assignment submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists a new submission row.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	const query = `INSERT INTO submissions (id, assignment_id, user_id, file_ref, marks, grade, created_at, updated_at)
VALUES (:id, :assignment_id, :user_id, :file_ref, :marks, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns a submission by its ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, user_id, file_ref, marks, grade, created_at, updated_at
FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByStudent returns all submissions made by a student, newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, userID string) ([]models.SubmissionDetail, error) {
	const query = `SELECT s.id, s.assignment_id, s.user_id, s.file_ref, s.marks, s.grade, s.created_at, s.updated_at,
a.title AS assignment_title
FROM submissions s
JOIN assignments a ON a.id = s.assignment_id
WHERE s.user_id = $1
ORDER BY s.created_at DESC`
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, userID); err != nil {
		return nil, fmt.Errorf("list submissions by student: %w", err)
	}
	return submissions, nil
}

// ListByAssignment returns all submissions for an assignment with student
// names, for teacher review and grading reports.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error) {
	const query = `SELECT s.id, s.assignment_id, s.user_id, s.file_ref, s.marks, s.grade, s.created_at, s.updated_at,
u.full_name AS student_name
FROM submissions s
JOIN users u ON u.id = s.user_id
WHERE s.assignment_id = $1
ORDER BY u.full_name ASC`
	var submissions []models.SubmissionRow
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions by assignment: %w", err)
	}
	return submissions, nil
}

// ExistsForAssignment reports whether any submission references the assignment.
func (r *SubmissionRepository) ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	const query = `SELECT 1 FROM submissions WHERE assignment_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check submissions: %w", err)
	}
	return true, nil
}

// ExistsGradedForAssignment reports whether any graded submission exists for
// the assignment.
func (r *SubmissionRepository) ExistsGradedForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	const query = `SELECT 1 FROM submissions
WHERE assignment_id = $1 AND (marks IS NOT NULL OR COALESCE(grade, '') <> '') LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check graded submissions: %w", err)
	}
	return true, nil
}

// ReplaceFile swaps the stored file reference, but only while the submission
// is still ungraded. The guard lives in the statement so a concurrent grade
// cannot be silently overwritten; false means the guard rejected the write.
func (r *SubmissionRepository) ReplaceFile(ctx context.Context, id, fileRef string, updatedAt time.Time) (bool, error) {
	const query = `UPDATE submissions SET file_ref = $2, updated_at = $3
WHERE id = $1 AND marks IS NULL AND COALESCE(grade, '') = ''`
	res, err := r.db.ExecContext(ctx, query, id, fileRef, updatedAt)
	if err != nil {
		return false, fmt.Errorf("replace submission file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace submission file: %w", err)
	}
	return affected > 0, nil
}

// UpdateGrade records marks and grade for a submission.
func (r *SubmissionRepository) UpdateGrade(ctx context.Context, id string, marks *int, grade *string, updatedAt time.Time) error {
	const query = `UPDATE submissions SET marks = $2, grade = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, marks, grade, updatedAt); err != nil {
		return fmt.Errorf("update submission grade: %w", err)
	}
	return nil
}
