package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error)
	ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type submissionGates interface {
	ExistsForAssignment(ctx context.Context, assignmentID string) (bool, error)
	ExistsGradedForAssignment(ctx context.Context, assignmentID string) (bool, error)
}

type directoryLookup interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindClassroom(ctx context.Context, id string) (*models.Classroom, error)
	ListSubjectIDs(ctx context.Context, classroomID string) ([]string, error)
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type blobStore interface {
	Put(data []byte, originalName string) (string, error)
}

// CreationNoticePolicy decides what notification, if any, announces a freshly
// created assignment. Nil return means no notice.
type CreationNoticePolicy interface {
	CreationNotice(teacher *models.User, assignment *models.Assignment) *models.Notification
}

// SelfNoticePolicy addresses the creation notice to the authoring teacher.
type SelfNoticePolicy struct{}

// CreationNotice builds the teacher-addressed upload announcement.
func (SelfNoticePolicy) CreationNotice(teacher *models.User, assignment *models.Assignment) *models.Notification {
	assignmentID := assignment.ID
	return &models.Notification{
		Message:      fmt.Sprintf("%s has submitted a new assignment: %s", teacher.FullName, assignment.Title),
		Recipient:    models.TeacherRecipient(teacher.ID),
		AssignmentID: &assignmentID,
		CreatedAt:    assignment.CreatedAt,
		UpdatedAt:    assignment.CreatedAt,
	}
}

// NoNoticePolicy suppresses the creation announcement.
type NoNoticePolicy struct{}

// CreationNotice always returns nil.
func (NoNoticePolicy) CreationNotice(*models.User, *models.Assignment) *models.Notification {
	return nil
}

// CreateAssignmentRequest holds payload for creating assignments.
type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	SubjectID   string     `json:"subject_id" validate:"required"`
	TeacherID   string     `json:"teacher_id" validate:"required"`
	FileName    string     `json:"-" validate:"required"`
	FileData    []byte     `json:"-" validate:"required"`
}

// UpdateAssignmentRequest holds the optional fields for editing assignments.
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	FileName    string     `json:"-"`
	FileData    []byte     `json:"-"`
}

// AssignmentService owns the assignment lifecycle: creation, gated edits and
// deletes, and the listings teachers and students see.
type AssignmentService struct {
	repo          assignmentRepository
	submissions   submissionGates
	directory     directoryLookup
	notifications notificationWriter
	blobs         blobStore
	noticePolicy  CreationNoticePolicy
	clock         Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	repo assignmentRepository,
	submissions submissionGates,
	directory directoryLookup,
	notifications notificationWriter,
	blobs blobStore,
	noticePolicy CreationNoticePolicy,
	clock Clock,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if noticePolicy == nil {
		noticePolicy = SelfNoticePolicy{}
	}
	if clock == nil {
		clock = NewClock()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:          repo,
		submissions:   submissions,
		directory:     directory,
		notifications: notifications,
		blobs:         blobs,
		noticePolicy:  noticePolicy,
		clock:         clock,
		validator:     validate,
		logger:        logger,
	}
}

// Create stores the attached file, persists the assignment, and emits the
// creation notice per the configured policy. The blob is written before the
// metadata on purpose: a failed metadata write may orphan a file, but
// committed metadata never points at a missing one.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.directory.FindSubject(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject")
	}
	teacher, err := s.directory.FindUser(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher")
	}

	fileRef, err := s.blobs.Put(req.FileData, req.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store assignment file")
	}

	now := s.clock.Now()
	assignment := &models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		FileRef:     fileRef,
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	if notice := s.noticePolicy.CreationNotice(teacher, assignment); notice != nil {
		if err := s.notifications.Create(ctx, notice); err != nil {
			s.logger.Warn("failed to record assignment creation notice",
				zap.String("assignment_id", assignment.ID), zap.Error(err))
		}
	}

	return assignment, nil
}

// Get returns a single assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Update applies the provided fields to an assignment. Edits are refused once
// the due date has passed or any submission has been graded; the repository
// re-checks the graded gate inside the update statement so a concurrent grade
// cannot slip between check and write.
func (s *AssignmentService) Update(ctx context.Context, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if pastDue(assignment.DueDate, s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment due date has passed")
	}
	graded, err := s.submissions.ExistsGradedForAssignment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check graded submissions")
	}
	if graded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grading has already started for this assignment")
	}

	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if len(req.FileData) > 0 {
		fileRef, err := s.blobs.Put(req.FileData, req.FileName)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store assignment file")
		}
		assignment.FileRef = fileRef
	}
	assignment.UpdatedAt = s.clock.Now()

	ok, err := s.repo.Update(ctx, assignment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grading has already started for this assignment")
	}
	return assignment, nil
}

// Delete removes an assignment. Deletes are refused once the due date has
// passed or any submission exists; the repository re-checks the submission
// gate inside the delete statement.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if pastDue(assignment.DueDate, s.clock.Now()) {
		return appErrors.Clone(appErrors.ErrConflict, "assignment due date has passed")
	}
	exists, err := s.submissions.ExistsForAssignment(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submissions")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "assignment already has submissions")
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrConflict, "assignment already has submissions")
	}
	return nil
}

// List returns assignments for a teacher or for a student's classroom
// subjects. Exactly one filter must be provided. A student without a
// classroom sees an empty list.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	switch {
	case filter.TeacherID != "":
		assignments, err := s.repo.ListByTeacher(ctx, filter.TeacherID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
		}
		return assignments, nil
	case filter.StudentID != "":
		student, err := s.directory.FindUser(ctx, filter.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
		}
		if student.ClassroomID == nil {
			return nil, nil
		}
		subjectIDs, err := s.directory.ListSubjectIDs(ctx, *student.ClassroomID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classroom subjects")
		}
		assignments, err := s.repo.ListBySubjectIDs(ctx, subjectIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
		}
		return assignments, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id or student_id filter is required")
	}
}
