package service

import (
	"context"

	"github.com/noah-isme/eone-api/internal/models"
)

// MeteredNotifications decorates a notification store with emission counters.
type MeteredNotifications struct {
	next    notificationWriter
	metrics *MetricsService
}

// NewMeteredNotifications wraps next; metrics may be nil.
func NewMeteredNotifications(next notificationWriter, metrics *MetricsService) *MeteredNotifications {
	return &MeteredNotifications{next: next, metrics: metrics}
}

// Create persists the notification and counts it on success.
func (m *MeteredNotifications) Create(ctx context.Context, notification *models.Notification) error {
	if err := m.next.Create(ctx, notification); err != nil {
		return err
	}
	m.metrics.RecordNotification(string(notification.Recipient.Kind))
	return nil
}

// MeteredUploads decorates a blob store with stored-file counters.
type MeteredUploads struct {
	next    blobStore
	kind    string
	metrics *MetricsService
}

// NewMeteredUploads wraps next, labelling counts with kind.
func NewMeteredUploads(next blobStore, kind string, metrics *MetricsService) *MeteredUploads {
	return &MeteredUploads{next: next, kind: kind, metrics: metrics}
}

// Put stores the blob and counts it on success.
func (m *MeteredUploads) Put(data []byte, originalName string) (string, error) {
	ref, err := m.next.Put(data, originalName)
	if err != nil {
		return "", err
	}
	m.metrics.RecordUpload(m.kind, len(data))
	return ref, nil
}
