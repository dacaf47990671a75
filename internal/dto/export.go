package dto

import "github.com/noah-isme/sistema-ministerial-api/internal/models"

// ExportRequest captures POST /weeks/:week/exports payload.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job state and the signed download link.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Week        string              `json:"week"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
