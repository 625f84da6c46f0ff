package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eone-api/internal/models"
)

// notificationRow mirrors the legacy two-column recipient layout. Exactly one
// of teacher_id/user_id is non-null per row; the tagged Recipient on the model
// keeps that invariant out of the rest of the codebase.
type notificationRow struct {
	ID           string    `db:"id"`
	Message      string    `db:"message"`
	TeacherID    *string   `db:"teacher_id"`
	UserID       *string   `db:"user_id"`
	AssignmentID *string   `db:"assignment_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row notificationRow) toModel() models.Notification {
	n := models.Notification{
		ID:           row.ID,
		Message:      row.Message,
		AssignmentID: row.AssignmentID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.UserID != nil {
		n.Recipient = models.StudentRecipient(*row.UserID)
	} else if row.TeacherID != nil {
		n.Recipient = models.TeacherRecipient(*row.TeacherID)
	}
	return n
}

// NotificationRepository handles persistence of notification records.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a new notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	row := notificationRow{
		ID:           notification.ID,
		Message:      notification.Message,
		AssignmentID: notification.AssignmentID,
		CreatedAt:    notification.CreatedAt,
		UpdatedAt:    notification.UpdatedAt,
	}
	switch notification.Recipient.Kind {
	case models.RecipientTeacher:
		row.TeacherID = &notification.Recipient.UserID
	case models.RecipientStudent:
		row.UserID = &notification.Recipient.UserID
	default:
		return fmt.Errorf("create notification: recipient kind %q", notification.Recipient.Kind)
	}
	const query = `INSERT INTO notifications (id, message, teacher_id, user_id, assignment_id, created_at, updated_at)
VALUES (:id, :message, :teacher_id, :user_id, :assignment_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

const notificationColumns = `id, message, teacher_id, user_id, assignment_id, created_at, updated_at`

// ListByStudent returns notifications addressed to a student, newest first.
func (r *NotificationRepository) ListByStudent(ctx context.Context, userID string) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, notificationColumns)
	return r.list(ctx, query, userID)
}

// ListByTeacher returns notifications addressed to a teacher, newest first.
func (r *NotificationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE teacher_id = $1 ORDER BY created_at DESC`, notificationColumns)
	return r.list(ctx, query, teacherID)
}

// ListAssignmentBroadcasts returns teacher-authored upload notices for the
// given assignments. Used only by the classroom-scoped feed variant.
func (r *NotificationRepository) ListAssignmentBroadcasts(ctx context.Context, assignmentIDs []string) ([]models.Notification, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(assignmentIDs))
	args := make([]interface{}, len(assignmentIDs))
	for i, id := range assignmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM notifications
WHERE assignment_id IN (%s) AND user_id IS NULL AND teacher_id IS NOT NULL
ORDER BY created_at DESC`, notificationColumns, strings.Join(placeholders, ","))
	return r.list(ctx, query, args...)
}

// DeleteAll removes every notification row. Administrative reset only.
func (r *NotificationRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Notification, error) {
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toModel())
	}
	return notifications, nil
}
