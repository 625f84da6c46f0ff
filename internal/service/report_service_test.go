package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/dto"
	"github.com/noah-isme/eone-api/internal/models"
	"github.com/noah-isme/eone-api/internal/repository"
	appErrors "github.com/noah-isme/eone-api/pkg/errors"
	"github.com/noah-isme/eone-api/pkg/export"
	"github.com/noah-isme/eone-api/pkg/jobs"
	"github.com/noah-isme/eone-api/pkg/storage"
)

type mockReportJobStore struct {
	jobs    map[string]*models.ReportJob
	updates []repository.UpdateReportJobParams
}

func newMockReportJobStore() *mockReportJobStore {
	return &mockReportJobStore{jobs: map[string]*models.ReportJob{}}
}

func (m *mockReportJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

func (m *mockReportJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *mockReportJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	m.updates = append(m.updates, params)
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	out := make([]models.ReportJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type reportAssignmentStub struct {
	teacherID string
	missing   bool
}

func (s reportAssignmentStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Assignment{ID: id, Title: "Algebra Homework", TeacherID: s.teacherID}, nil
}

func newReportServiceForTest(t *testing.T, store *mockReportJobStore, dispatcher *mockDispatcher, owner string) (*ReportService, *ExportService) {
	t.Helper()
	localStore, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	exporter := NewExportService(
		exportSubmissionsStub{},
		reportAssignmentStub{teacherID: owner},
		localStore,
		signer,
		ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour},
		zap.NewNop(),
		export.NewCSVExporter(),
		export.NewPDFExporter(),
	)
	svc := NewReportService(store, reportAssignmentStub{teacherID: owner}, dispatcher, exporter, zap.NewNop(),
		ReportServiceConfig{ResultTTL: time.Hour, MaxRetries: 3})
	return svc, exporter
}

func TestReportServiceCreateJobQueues(t *testing.T) {
	store := newMockReportJobStore()
	dispatcher := &mockDispatcher{}
	svc, _ := newReportServiceForTest(t, store, dispatcher, "teacher-1")

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:         models.ReportTypeGrading,
		AssignmentID: "a-1",
		Format:       models.ReportFormatCSV,
	}, "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	require.Equal(t, resp.ID, dispatcher.enqueued[0].ID)
}

func TestReportServiceCreateJobForbiddenForOtherTeacher(t *testing.T) {
	store := newMockReportJobStore()
	svc, _ := newReportServiceForTest(t, store, &mockDispatcher{}, "teacher-2")

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:         models.ReportTypeGrading,
		AssignmentID: "a-1",
		Format:       models.ReportFormatCSV,
	}, "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportServiceCreateJobRejectsUnknownFormat(t *testing.T) {
	store := newMockReportJobStore()
	svc, _ := newReportServiceForTest(t, store, &mockDispatcher{}, "teacher-1")

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:         models.ReportTypeGrading,
		AssignmentID: "a-1",
		Format:       models.ReportFormat("xlsx"),
	}, "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockReportJobStore()
	dispatcher := &mockDispatcher{err: errors.New("queue full")}
	svc, _ := newReportServiceForTest(t, store, dispatcher, "teacher-1")

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:         models.ReportTypeGrading,
		AssignmentID: "a-1",
		Format:       models.ReportFormatCSV,
	}, "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	require.Equal(t, models.ReportStatusFailed, store.jobs["job-1"].Status)
}

func TestReportServiceGetStatusEnforcesOwnership(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued, CreatedBy: "teacher-2"}
	svc, _ := newReportServiceForTest(t, store, &mockDispatcher{}, "teacher-2")

	_, err := svc.GetStatus(context.Background(), "job-1", "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	status, err := svc.GetStatus(context.Background(), "job-1", "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusQueued, status.Status)
}

func TestReportServiceGetStatusNotFound(t *testing.T) {
	svc, _ := newReportServiceForTest(t, newMockReportJobStore(), &mockDispatcher{}, "teacher-1")

	_, err := svc.GetStatus(context.Background(), "missing", "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportWorkerHandleFinishesJob(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeGrading,
		Params: models.ReportJobParams{AssignmentID: "a-1", Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	_, exporter := newReportServiceForTest(t, store, &mockDispatcher{}, "teacher-1")
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	require.Equal(t, models.ReportStatusFinished, job.Status)
	require.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	require.Contains(t, *job.ResultURL, "/api/v1/export/")
	require.NotNil(t, job.FinishedAt)
}

type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return nil, errors.New("render failed")
}

func TestReportWorkerHandleRequeuesBeforeMaxRetries(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeGrading, Status: models.ReportStatusQueued}
	worker := NewReportWorker(store, failingGenerator{}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	require.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status)
}

func TestReportWorkerHandleFailsAfterMaxRetries(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeGrading, Status: models.ReportStatusQueued}
	worker := NewReportWorker(store, failingGenerator{}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)
	job := store.jobs["job-1"]
	require.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
}

func TestReportServiceDownloadRoundTrip(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeGrading,
		Params: models.ReportJobParams{AssignmentID: "a-1", Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	svc, exporter := newReportServiceForTest(t, store, &mockDispatcher{}, "teacher-1")
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))

	token := extractToken(*store.jobs["job-1"].ResultURL)
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	require.Equal(t, models.ReportFormatCSV, download.Format)
	require.NotEmpty(t, download.Filename)
}

func TestReportServiceDownloadRejectsBadToken(t *testing.T) {
	svc, _ := newReportServiceForTest(t, newMockReportJobStore(), &mockDispatcher{}, "teacher-1")

	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
