package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
)

// Directory is the lookup contract consumed by the services.
type Directory interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindClassroom(ctx context.Context, id string) (*models.Classroom, error)
	ListSubjectIDs(ctx context.Context, classroomID string) ([]string, error)
}

// CacheMetrics observes directory cache lookups.
type CacheMetrics interface {
	RecordCacheLookup(hit bool)
}

// CachedDirectory is a redis read-through decorator over a Directory. Users,
// subjects and classrooms change rarely, so short-TTL caching keeps the hot
// feed and gating paths off the database. Cache failures fall through to the
// underlying directory.
type CachedDirectory struct {
	next    Directory
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics CacheMetrics
}

// NewCachedDirectory decorates next with a redis cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// WithMetrics attaches a lookup observer and returns the directory.
func (d *CachedDirectory) WithMetrics(metrics CacheMetrics) *CachedDirectory {
	d.metrics = metrics
	return d
}

func (d *CachedDirectory) enabled() bool {
	return d.client != nil && d.ttl > 0
}

// FindUser resolves a user, preferring the cache.
func (d *CachedDirectory) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if d.hit(ctx, "dir:user:"+id, &user) {
		return &user, nil
	}
	found, err := d.next.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, "dir:user:"+id, found)
	return found, nil
}

// FindSubject resolves a subject, preferring the cache.
func (d *CachedDirectory) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if d.hit(ctx, "dir:subject:"+id, &subject) {
		return &subject, nil
	}
	found, err := d.next.FindSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, "dir:subject:"+id, found)
	return found, nil
}

// FindClassroom resolves a classroom, preferring the cache.
func (d *CachedDirectory) FindClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	var classroom models.Classroom
	if d.hit(ctx, "dir:classroom:"+id, &classroom) {
		return &classroom, nil
	}
	found, err := d.next.FindClassroom(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, "dir:classroom:"+id, found)
	return found, nil
}

// ListSubjectIDs resolves a classroom's subject IDs, preferring the cache.
func (d *CachedDirectory) ListSubjectIDs(ctx context.Context, classroomID string) ([]string, error) {
	var ids []string
	if d.hit(ctx, "dir:classroom-subjects:"+classroomID, &ids) {
		return ids, nil
	}
	found, err := d.next.ListSubjectIDs(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	d.store(ctx, "dir:classroom-subjects:"+classroomID, found)
	return found, nil
}

func (d *CachedDirectory) hit(ctx context.Context, key string, out interface{}) bool {
	if !d.enabled() {
		return false
	}
	raw, err := d.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			d.logger.Debug("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
		d.observe(false)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		d.logger.Debug("directory cache decode failed", zap.String("key", key), zap.Error(err))
		d.observe(false)
		return false
	}
	d.observe(true)
	return true
}

func (d *CachedDirectory) observe(hit bool) {
	if d.metrics != nil {
		d.metrics.RecordCacheLookup(hit)
	}
}

func (d *CachedDirectory) store(ctx context.Context, key string, value interface{}) {
	if !d.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, key, raw, d.ttl).Err(); err != nil {
		d.logger.Debug("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}
