package models

import "time"

// RecipientKind distinguishes who a notification is addressed to.
type RecipientKind string

const (
	RecipientTeacher RecipientKind = "TEACHER"
	RecipientStudent RecipientKind = "STUDENT"
)

// Recipient addresses a notification to exactly one user acting in one role.
// Modelling the recipient as a tagged pair keeps the "both set" and "neither
// set" states unrepresentable; the repository maps it onto the legacy
// teacher_id/user_id column pair.
type Recipient struct {
	Kind   RecipientKind `json:"kind"`
	UserID string        `json:"user_id"`
}

// TeacherRecipient addresses a teacher.
func TeacherRecipient(id string) Recipient {
	return Recipient{Kind: RecipientTeacher, UserID: id}
}

// StudentRecipient addresses a student.
func StudentRecipient(id string) Recipient {
	return Recipient{Kind: RecipientStudent, UserID: id}
}

// Notification is an immutable record describing a state change, surfaced
// through the per-user feed. Records are only created or bulk-deleted.
type Notification struct {
	ID           string     `db:"id" json:"id"`
	Message      string     `db:"message" json:"message"`
	Recipient    Recipient  `json:"recipient"`
	AssignmentID *string    `db:"assignment_id" json:"assignment_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// NotificationType classifies feed entries for clients.
const (
	NotificationTypeAssignment = "assignment"
	NotificationTypeGeneral    = "general"
)

// NotificationView is the feed projection returned to clients.
type NotificationView struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"type"`
}

// View projects a notification into its feed representation.
func (n Notification) View() NotificationView {
	typ := NotificationTypeGeneral
	if n.AssignmentID != nil && *n.AssignmentID != "" {
		typ = NotificationTypeAssignment
	}
	return NotificationView{Message: n.Message, CreatedAt: n.CreatedAt, Type: typ}
}
