package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]models.Submission
	replaceOK   bool
	byStudent   []models.SubmissionDetail
	byAssign    []models.SubmissionRow
}

func (m *mockSubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	if m.submissions == nil {
		m.submissions = make(map[string]models.Submission)
	}
	if s.ID == "" {
		s.ID = "generated"
	}
	m.submissions[s.ID] = *s
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) ListByStudent(ctx context.Context, userID string) ([]models.SubmissionDetail, error) {
	return m.byStudent, nil
}

func (m *mockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error) {
	return m.byAssign, nil
}

func (m *mockSubmissionRepo) ReplaceFile(ctx context.Context, id, fileRef string, updatedAt time.Time) (bool, error) {
	if m.replaceOK {
		s := m.submissions[id]
		s.FileRef = fileRef
		s.UpdatedAt = updatedAt
		m.submissions[id] = s
	}
	return m.replaceOK, nil
}

func (m *mockSubmissionRepo) UpdateGrade(ctx context.Context, id string, marks *int, grade *string, updatedAt time.Time) error {
	s := m.submissions[id]
	s.Marks = marks
	s.Grade = grade
	s.UpdatedAt = updatedAt
	m.submissions[id] = s
	return nil
}

func newSubmissionService(repo *mockSubmissionRepo, assignments *mockAssignmentRepo, notes *mockNotificationSink, clock Clock) *SubmissionService {
	return NewSubmissionService(repo, assignments, testDirectory(), notes, &mockBlobs{}, clock, validator.New(), zap.NewNop())
}

func TestSubmissionServiceCreateNotifiesTeacher(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-7": {ID: "a-7", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{}
	notes := &mockNotificationSink{}
	svc := newSubmissionService(repo, assignments, notes, fixedClock{t: time.Now()})

	submission, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssignmentID: "a-7",
		UserID:       "student-1",
		FileName:     "answer.pdf",
		FileData:     []byte("pdf"),
	})
	require.NoError(t, err)
	assert.Nil(t, submission.Marks)
	assert.Nil(t, submission.Grade)

	require.Len(t, notes.created, 1)
	notice := notes.created[0]
	assert.Equal(t, "Alice has completed an assignment: Math HW. Please review it.", notice.Message)
	assert.Equal(t, models.RecipientTeacher, notice.Recipient.Kind)
	assert.Equal(t, "teacher-1", notice.Recipient.UserID)
	require.NotNil(t, notice.AssignmentID)
	assert.Equal(t, "a-7", *notice.AssignmentID)
}

func TestSubmissionServiceCreateUnknownAssignment(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{}, &mockNotificationSink{}, fixedClock{t: time.Now()})

	_, err := svc.Create(context.Background(), CreateSubmissionRequest{
		AssignmentID: "missing",
		UserID:       "student-1",
		FileName:     "answer.pdf",
		FileData:     []byte("pdf"),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmissionServiceReuploadAlreadyGraded(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1", Marks: intPtr(70)},
	}, replaceOK: true}
	svc := newSubmissionService(repo, assignments, &mockNotificationSink{}, fixedClock{t: time.Now()})

	_, err := svc.Reupload(context.Background(), "s-1", "v2.pdf", []byte("pdf"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmissionServiceReuploadGradeOnlyBlocks(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1", Grade: strPtr("B")},
	}, replaceOK: true}
	svc := newSubmissionService(repo, assignments, &mockNotificationSink{}, fixedClock{t: time.Now()})

	_, err := svc.Reupload(context.Background(), "s-1", "v2.pdf", []byte("pdf"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmissionServiceReuploadPastDue(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -1)
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", DueDate: &due, TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1"},
	}, replaceOK: true}
	svc := newSubmissionService(repo, assignments, &mockNotificationSink{}, fixedClock{t: now})

	_, err := svc.Reupload(context.Background(), "s-1", "v2.pdf", []byte("pdf"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmissionServiceReuploadGuardRejected(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1"},
	}, replaceOK: false}
	svc := newSubmissionService(repo, assignments, &mockNotificationSink{}, fixedClock{t: time.Now()})

	_, err := svc.Reupload(context.Background(), "s-1", "v2.pdf", []byte("pdf"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmissionServiceReuploadReplacesFile(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1", FileRef: "1_v1.pdf"},
	}, replaceOK: true}
	svc := newSubmissionService(repo, assignments, &mockNotificationSink{}, fixedClock{t: now})

	updated, err := svc.Reupload(context.Background(), "s-1", "v2.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000_v2.pdf", updated.FileRef)
	assert.Equal(t, now, updated.UpdatedAt)
}

func TestSubmissionServiceGradeMessage(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1"},
	}}
	notes := &mockNotificationSink{}
	svc := newSubmissionService(repo, assignments, notes, fixedClock{t: time.Now()})

	graded, err := svc.Grade(context.Background(), "s-1", GradeSubmissionRequest{Marks: intPtr(85), Grade: strPtr("B+")})
	require.NoError(t, err)
	assert.True(t, graded.Graded())

	require.Len(t, notes.created, 1)
	notice := notes.created[0]
	assert.Equal(t, "Your assignment 'Math HW' has been graded. Marks: 85, Grade: B+", notice.Message)
	assert.Equal(t, models.RecipientStudent, notice.Recipient.Kind)
	assert.Equal(t, "student-1", notice.Recipient.UserID)
}

func TestSubmissionServiceGradeClearingMessage(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1", Marks: intPtr(85), Grade: strPtr("B+")},
	}}
	notes := &mockNotificationSink{}
	svc := newSubmissionService(repo, assignments, notes, fixedClock{t: time.Now()})

	_, err := svc.Grade(context.Background(), "s-1", GradeSubmissionRequest{})
	require.NoError(t, err)

	require.Len(t, notes.created, 1)
	assert.Equal(t, "Your assignment 'Math HW' has been graded. Marks: N/A", notes.created[0].Message)
}

func TestSubmissionServiceGradeEmptyGradeOmitsClause(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]models.Assignment{
		"a-1": {ID: "a-1", Title: "Math HW", TeacherID: "teacher-1"},
	}}
	repo := &mockSubmissionRepo{submissions: map[string]models.Submission{
		"s-1": {ID: "s-1", AssignmentID: "a-1", UserID: "student-1"},
	}}
	notes := &mockNotificationSink{}
	svc := newSubmissionService(repo, assignments, notes, fixedClock{t: time.Now()})

	_, err := svc.Grade(context.Background(), "s-1", GradeSubmissionRequest{Marks: intPtr(90), Grade: strPtr("")})
	require.NoError(t, err)

	require.Len(t, notes.created, 1)
	assert.Equal(t, "Your assignment 'Math HW' has been graded. Marks: 90", notes.created[0].Message)
}

func TestSubmissionServiceListByStudentUnknown(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{}, &mockNotificationSink{}, fixedClock{t: time.Now()})

	_, err := svc.ListByStudent(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
