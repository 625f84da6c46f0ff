package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	"github.com/noah-isme/eone-api/pkg/export"
	"github.com/noah-isme/eone-api/pkg/storage"
)

type exportAssignmentStub struct{}

func (exportAssignmentStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	return &models.Assignment{ID: id, Title: "Algebra Homework", SubjectID: "subject-1", TeacherID: "teacher-1"}, nil
}

type exportSubmissionsStub struct{}

func (exportSubmissionsStub) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error) {
	return []models.SubmissionRow{
		{
			Submission: models.Submission{
				ID:           "sub-1",
				AssignmentID: assignmentID,
				UserID:       "student-1",
				Marks:        intPtr(85),
				Grade:        strPtr("B+"),
				CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			},
			StudentName: "Alice",
		},
		{
			Submission: models.Submission{
				ID:           "sub-2",
				AssignmentID: assignmentID,
				UserID:       "student-2",
				CreatedAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			},
			StudentName: "Bob",
		},
	}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(exportSubmissionsStub{}, exportAssignmentStub{}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeGrading,
		Params:    models.ReportJobParams{AssignmentID: "a-1", Format: models.ReportFormatCSV},
		CreatedBy: "teacher-1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/api/v1/export/")

	data, err := os.ReadFile(store.Path(result.RelativePath))
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "Alice")
	require.Contains(t, content, "85")
	require.Contains(t, content, "Graded")
	require.Contains(t, content, "N/A")
	require.Contains(t, content, "Submitted")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeGrading,
		Params:    models.ReportJobParams{AssignmentID: "a-1", Format: models.ReportFormatPDF},
		CreatedBy: "teacher-1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceRejectsUnknownType(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportType("attendance"),
		Params: models.ReportJobParams{AssignmentID: "a-1", Format: models.ReportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
