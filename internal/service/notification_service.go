package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
)

type notificationRepository interface {
	ListByStudent(ctx context.Context, userID string) ([]models.Notification, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Notification, error)
	ListAssignmentBroadcasts(ctx context.Context, assignmentIDs []string) ([]models.Notification, error)
	DeleteAll(ctx context.Context) error
}

type classroomAssignmentLister interface {
	ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Assignment, error)
}

// NotificationService projects the per-user notification feed. Records are
// never mutated or marked read; the feed is recomputed on every call.
type NotificationService struct {
	repo        notificationRepository
	directory   directoryLookup
	assignments classroomAssignmentLister
	// classroomFeed widens the student feed with the teacher upload
	// broadcasts for the student's classroom subjects.
	classroomFeed bool
	logger        *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(
	repo notificationRepository,
	directory directoryLookup,
	assignments classroomAssignmentLister,
	classroomFeed bool,
	logger *zap.Logger,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:          repo,
		directory:     directory,
		assignments:   assignments,
		classroomFeed: classroomFeed,
		logger:        logger,
	}
}

// Feed returns the viewer's notifications, newest first, truncated to limit
// when positive. Students see records addressed to them as students; every
// other role sees records addressed to them as teachers.
func (s *NotificationService) Feed(ctx context.Context, userID string, limit int) ([]models.NotificationView, error) {
	user, err := s.directory.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}

	var notifications []models.Notification
	if user.Role == models.RoleStudent {
		notifications, err = s.studentFeed(ctx, user)
	} else {
		notifications, err = s.repo.ListByTeacher(ctx, userID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, n.View())
	}
	return views, nil
}

func (s *NotificationService) studentFeed(ctx context.Context, user *models.User) ([]models.Notification, error) {
	direct, err := s.repo.ListByStudent(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !s.classroomFeed || user.ClassroomID == nil {
		return direct, nil
	}

	// A stale classroom reference yields the direct feed only.
	classroom, err := s.directory.FindClassroom(ctx, *user.ClassroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return direct, nil
		}
		return nil, err
	}

	subjectIDs, err := s.directory.ListSubjectIDs(ctx, classroom.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySubjectIDs(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}
	assignmentIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}
	broadcasts, err := s.repo.ListAssignmentBroadcasts(ctx, assignmentIDs)
	if err != nil {
		return nil, err
	}
	return append(direct, broadcasts...), nil
}

// Reset wipes every notification record. Administrative use only.
func (s *NotificationService) Reset(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset notifications")
	}
	s.logger.Info("notification store reset")
	return nil
}
