package models

import "time"

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportJobStatus tracks asynchronous roster export progress.
type ExportJobStatus string

const (
	ExportStatusQueued     ExportJobStatus = "QUEUED"
	ExportStatusProcessing ExportJobStatus = "PROCESSING"
	ExportStatusFinished   ExportJobStatus = "FINISHED"
	ExportStatusFailed     ExportJobStatus = "FAILED"
)

// ExportJobParams scopes what a roster export job renders.
type ExportJobParams struct {
	PublicityID string       `json:"publicity_id"`
	Format      ExportFormat `json:"format"`
}

// ExportRosterRequest queues an asynchronous roster export.
type ExportRosterRequest struct {
	PublicityID string       `json:"publicity_id" validate:"required"`
	Format      ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJob is a persisted roster export request processed by the worker
// queue. The result is fetched through a signed, expiring download token.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	PublicityID  string          `db:"publicity_id" json:"publicity_id"`
	Format       ExportFormat    `db:"format" json:"format"`
	Status       ExportJobStatus `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}
