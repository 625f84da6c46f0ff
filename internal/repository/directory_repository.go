package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eone-api/internal/models"
)

// DirectoryRepository resolves users, subjects and classrooms. The directory
// is read-only from the core's point of view; account and roster management
// happen elsewhere.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindUser returns a user by ID.
func (r *DirectoryRepository) FindUser(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, status, classroom_id, last_login, created_at, updated_at
FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSubject returns a subject by ID.
func (r *DirectoryRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, classroom_id, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindClassroom returns a classroom by ID.
func (r *DirectoryRepository) FindClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, name, batch, year, created_at, updated_at FROM classrooms WHERE id = $1`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// ListSubjectIDs returns the IDs of all subjects taught to a classroom.
func (r *DirectoryRepository) ListSubjectIDs(ctx context.Context, classroomID string) ([]string, error) {
	const query = `SELECT id FROM subjects WHERE classroom_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom subjects: %w", err)
	}
	return ids, nil
}
