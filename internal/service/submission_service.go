package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByStudent(ctx context.Context, userID string) ([]models.SubmissionDetail, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error)
	ReplaceFile(ctx context.Context, id, fileRef string, updatedAt time.Time) (bool, error)
	UpdateGrade(ctx context.Context, id string, marks *int, grade *string, updatedAt time.Time) error
}

type assignmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type userLookup interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// CreateSubmissionRequest holds payload for submitting an assignment answer.
type CreateSubmissionRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	FileName     string `json:"-" validate:"required"`
	FileData     []byte `json:"-" validate:"required"`
}

// GradeSubmissionRequest carries the grading payload. Either field may be
// supplied independently.
type GradeSubmissionRequest struct {
	Marks *int    `json:"marks"`
	Grade *string `json:"grade"`
}

// SubmissionService owns the submission lifecycle: hand-in, re-upload before
// grading, and grading itself, each with its notification side effect.
type SubmissionService struct {
	repo          submissionRepository
	assignments   assignmentFinder
	directory     userLookup
	notifications notificationWriter
	blobs         blobStore
	clock         Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	repo submissionRepository,
	assignments assignmentFinder,
	directory userLookup,
	notifications notificationWriter,
	blobs blobStore,
	clock Clock,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if clock == nil {
		clock = NewClock()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:          repo,
		assignments:   assignments,
		directory:     directory,
		notifications: notifications,
		blobs:         blobs,
		clock:         clock,
		validator:     validate,
		logger:        logger,
	}
}

// Create stores the answer file and persists the submission, then notifies
// the assignment's teacher. Blob write happens before the metadata write.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignment")
	}
	student, err := s.directory.FindUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}

	fileRef, err := s.blobs.Put(req.FileData, req.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store submission file")
	}

	now := s.clock.Now()
	submission := &models.Submission{
		AssignmentID: req.AssignmentID,
		UserID:       req.UserID,
		FileRef:      fileRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	assignmentID := assignment.ID
	notice := &models.Notification{
		Message:      fmt.Sprintf("%s has completed an assignment: %s. Please review it.", student.FullName, assignment.Title),
		Recipient:    models.TeacherRecipient(assignment.TeacherID),
		AssignmentID: &assignmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.notifications.Create(ctx, notice); err != nil {
		s.logger.Warn("failed to record submission notice",
			zap.String("submission_id", submission.ID), zap.Error(err))
	}

	return submission, nil
}

// Reupload replaces the answer file on an ungraded submission whose
// assignment is not yet past due. The repository guard re-checks the graded
// state inside the update statement, so a concurrent grade wins the race.
func (s *SubmissionService) Reupload(ctx context.Context, id, fileName string, fileData []byte) (*models.Submission, error) {
	if len(fileData) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission.Graded() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission has already been graded")
	}

	assignment, err := s.assignments.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if pastDue(assignment.DueDate, s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment due date has passed")
	}

	fileRef, err := s.blobs.Put(fileData, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store submission file")
	}

	updatedAt := s.clock.Now()
	ok, err := s.repo.ReplaceFile(ctx, id, fileRef, updatedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace submission file")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission has already been graded")
	}

	submission.FileRef = fileRef
	submission.UpdatedAt = updatedAt
	return submission, nil
}

// Grade records marks and grade on a submission and notifies the student.
// Either field may be nil; grading with both nil clears the scores.
func (s *SubmissionService) Grade(ctx context.Context, id string, req GradeSubmissionRequest) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	assignment, err := s.assignments.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	updatedAt := s.clock.Now()
	if err := s.repo.UpdateGrade(ctx, id, req.Marks, req.Grade, updatedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	submission.Marks = req.Marks
	submission.Grade = req.Grade
	submission.UpdatedAt = updatedAt

	assignmentID := assignment.ID
	notice := &models.Notification{
		Message:      gradingMessage(assignment.Title, req.Marks, req.Grade),
		Recipient:    models.StudentRecipient(submission.UserID),
		AssignmentID: &assignmentID,
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
	}
	if err := s.notifications.Create(ctx, notice); err != nil {
		s.logger.Warn("failed to record grading notice",
			zap.String("submission_id", submission.ID), zap.Error(err))
	}

	return submission, nil
}

// ListByStudent returns the student's submissions with assignment titles,
// newest first.
func (s *SubmissionService) ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	if _, err := s.directory.FindUser(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	submissions, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// ListByAssignment returns all submissions for an assignment with student
// names, for teacher review.
func (s *SubmissionService) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error) {
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignment")
	}
	submissions, err := s.repo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// gradingMessage renders the student-facing grading notice. Absent marks show
// as N/A; the grade clause appears only when a non-empty grade was recorded.
func gradingMessage(title string, marks *int, grade *string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your assignment '%s' has been graded. Marks: ", title)
	if marks != nil {
		fmt.Fprintf(&b, "%d", *marks)
	} else {
		b.WriteString("N/A")
	}
	if grade != nil && *grade != "" {
		fmt.Fprintf(&b, ", Grade: %s", *grade)
	}
	return b.String()
}
