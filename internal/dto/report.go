package dto

import "github.com/noah-isme/eone-api/internal/models"

// ReportRequest asks for an asynchronous grading export.
type ReportRequest struct {
	Type         models.ReportType   `json:"type"`
	AssignmentID string              `json:"assignment_id"`
	Format       models.ReportFormat `json:"format"`
}

// ReportJobResponse acknowledges a queued report job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress to clients.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
