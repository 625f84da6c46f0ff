package models

import "time"

// Submission is a student's uploaded response to an assignment. Marks and
// Grade stay null until a teacher grades the submission.
type Submission struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FileRef      string    `db:"file_ref" json:"file_ref"`
	Marks        *int      `db:"marks" json:"marks,omitempty"`
	Grade        *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Graded reports whether the submission has been graded: either marks were
// recorded or a non-empty letter grade was assigned. Once true, the student
// may no longer replace the uploaded file.
func (s Submission) Graded() bool {
	if s.Marks != nil {
		return true
	}
	return s.Grade != nil && *s.Grade != ""
}

// SubmissionDetail joins contextual assignment info for list responses.
type SubmissionDetail struct {
	Submission
	AssignmentTitle string `db:"assignment_title" json:"assignment_title"`
}

// SubmissionRow joins the student's name for teacher review and grading
// report exports.
type SubmissionRow struct {
	Submission
	StudentName string `db:"student_name" json:"student_name"`
}
