package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eone-api/internal/models"
)

func newNotificationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryCreateStudentRecipient(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "New assignment uploaded: Math HW", nil, "student-1", "a-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignmentID := "a-1"
	notification := &models.Notification{
		Message:      "New assignment uploaded: Math HW",
		Recipient:    models.StudentRecipient("student-1"),
		AssignmentID: &assignmentID,
	}
	err := repo.Create(context.Background(), notification)
	require.NoError(t, err)
	assert.NotEmpty(t, notification.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateTeacherRecipient(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "Alice submitted Math HW", "teacher-1", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		Message:   "Alice submitted Math HW",
		Recipient: models.TeacherRecipient("teacher-1"),
	}
	err := repo.Create(context.Background(), notification)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateUnknownRecipient(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	err := repo.Create(context.Background(), &models.Notification{Message: "orphan"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "message", "teacher_id", "user_id", "assignment_id", "created_at", "updated_at"}).
		AddRow("n-1", "Your assignment 'Math HW' has been graded. Marks: 85, Grade: B+", nil, "student-1", "a-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs("student-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.RecipientStudent, notifications[0].Recipient.Kind)
	assert.Equal(t, "student-1", notifications[0].Recipient.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "message", "teacher_id", "user_id", "assignment_id", "created_at", "updated_at"}).
		AddRow("n-2", "Alice submitted Math HW", "teacher-1", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM notifications WHERE teacher_id = $1 ORDER BY created_at DESC`)).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.RecipientTeacher, notifications[0].Recipient.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListAssignmentBroadcasts(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "message", "teacher_id", "user_id", "assignment_id", "created_at", "updated_at"}).
		AddRow("n-3", "New assignment uploaded: Math HW", "teacher-1", nil, "a-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`assignment_id IN ($1,$2) AND user_id IS NULL AND teacher_id IS NOT NULL`)).
		WithArgs("a-1", "a-2").
		WillReturnRows(rows)

	notifications, err := repo.ListAssignmentBroadcasts(context.Background(), []string{"a-1", "a-2"})
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("DELETE FROM notifications").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
