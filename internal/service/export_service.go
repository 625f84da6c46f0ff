package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eone-api/internal/models"
	"github.com/noah-isme/eone-api/pkg/export"
	"github.com/noah-isme/eone-api/pkg/storage"
)

type gradingDataSource interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders grading sheets and persists the resulting files.
type ExportService struct {
	submissions gradingDataSource
	assignments assignmentFinder
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(submissions gradingDataSource, assignments assignmentFinder, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		submissions: submissions,
		assignments: assignments,
		storage:     store,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if job.Type != models.ReportTypeGrading {
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}
	dataset, title, err := s.buildGradingDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildGradingDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	assignment, err := s.assignments.FindByID(ctx, params.AssignmentID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("resolve assignment: %w", err)
	}
	rows, err := s.submissions.ListByAssignment(ctx, params.AssignmentID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		marks := "N/A"
		if row.Marks != nil {
			marks = fmt.Sprintf("%d", *row.Marks)
		}
		grade := ""
		if row.Grade != nil {
			grade = *row.Grade
		}
		status := "Submitted"
		if row.Graded() {
			status = "Graded"
		}
		dataRows = append(dataRows, map[string]string{
			"Student":      row.StudentName,
			"Submitted At": row.CreatedAt.UTC().Format(time.RFC3339),
			"Marks":        marks,
			"Grade":        grade,
			"Status":       status,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Submitted At", "Marks", "Grade", "Status"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Grading Report - %s", assignment.Title)
	return dataset, title, nil
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	assignmentPart := sanitizeFilename(job.Params.AssignmentID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), assignmentPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
