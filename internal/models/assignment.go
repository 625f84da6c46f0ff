package models

import "time"

// Assignment represents a task issued by a teacher to a subject's students.
// DueDate is a calendar date; nil means the assignment never closes.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	FileRef     string     `db:"file_ref" json:"file_ref"`
	SubjectID   string     `db:"subject_id" json:"subject_id"`
	TeacherID   string     `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter selects assignments either by owning teacher or by the
// classroom subjects visible to a student. Exactly one side must be set.
type AssignmentFilter struct {
	TeacherID string
	StudentID string
}
