package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eone-api/internal/models"
)

const assignmentColumns = `id, title, description, due_date, file_ref, subject_id, teacher_id, created_at, updated_at`

// AssignmentRepository handles persistence of assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create persists a new assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	const query = `INSERT INTO assignments (id, title, description, due_date, file_ref, subject_id, teacher_id, created_at, updated_at)
VALUES (:id, :title, :description, :due_date, :file_ref, :subject_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by its ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByTeacher returns all assignments owned by a teacher.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE teacher_id = $1 ORDER BY created_at DESC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments by teacher: %w", err)
	}
	return assignments, nil
}

// ListBySubjectIDs returns all assignments belonging to any of the subjects.
func (r *AssignmentRepository) ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Assignment, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(subjectIDs))
	args := make([]interface{}, len(subjectIDs))
	for i, id := range subjectIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE subject_id IN (%s) ORDER BY created_at DESC`,
		assignmentColumns, strings.Join(placeholders, ","))
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments by subjects: %w", err)
	}
	return assignments, nil
}

// Update persists the full assignment row. The statement refuses rows that
// gained a graded submission since the caller's gate check; false means the
// guard rejected the write.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) (bool, error) {
	const query = `UPDATE assignments SET title = $2, description = $3, due_date = $4, file_ref = $5, updated_at = $6
WHERE id = $1 AND NOT EXISTS (
    SELECT 1 FROM submissions s
    WHERE s.assignment_id = $1 AND (s.marks IS NOT NULL OR COALESCE(s.grade, '') <> '')
)`
	res, err := r.db.ExecContext(ctx, query,
		assignment.ID, assignment.Title, assignment.Description, assignment.DueDate, assignment.FileRef, assignment.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update assignment: %w", err)
	}
	return affected > 0, nil
}

// Delete removes an assignment unless any submission references it; false
// means the guard rejected the delete.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM assignments
WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = $1)`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	return affected > 0, nil
}
