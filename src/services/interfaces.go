package services

import (
	"context"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
)

// ImportResult is what the upload endpoint reports back for one file.
type ImportResult struct {
	Batch         models.ImportBatch  `json:"batch"`
	Totals        models.ParseTotals  `json:"totals"`
	Skipped       []models.SkippedRow `json:"skipped"`
	Warnings      []string            `json:"warnings"`
	ReplacedBatch string              `json:"replaced_batch,omitempty"`
}

// ImportService runs one uploaded file through detection, parsing and persistence.
type ImportService interface {
	ProcessUpload(ctx context.Context, filename string, data []byte) (*ImportResult, error)
}

// BatchService manages imported batches and the records attached to them.
type BatchService interface {
	ListBatches(ctx context.Context) ([]models.ImportBatch, error)
	GetBatch(ctx context.Context, id string) (*models.ImportBatch, error)
	DeleteBatch(ctx context.Context, id string) error
	ListRejections(ctx context.Context, batchID string) ([]models.RejectionRecord, error)
	UpdateRejectionStatus(ctx context.Context, id int64, status models.RejectionStatus) error
}

// ReportQuery selects and shapes a report.
type ReportQuery struct {
	GroupBy processors.GroupBy
	SortBy  processors.SortBy // empty keeps time groupings chronological
	Limit   int
	Source  models.Source
	Period  string
}

// ReportService serves the rollups behind the reporting views.
type ReportService interface {
	InterventionRollups(ctx context.Context, q ReportQuery) ([]models.Rollup, error)
	TrackingRollups(ctx context.Context, q ReportQuery) ([]models.TrackingRollup, error)
	Summary(ctx context.Context, q ReportQuery) (models.Summary, error)
	ExportInterventions(ctx context.Context, q ReportQuery) ([]byte, error)
	Invalidate()
}

// PriceGridService owns the price grid: built-in defaults plus persisted overrides.
type PriceGridService interface {
	Grid(ctx context.Context) (*processors.PriceGrid, error)
	Entries(ctx context.Context) ([]models.PriceGridEntry, error)
	SetOverride(ctx context.Context, entry models.PriceGridEntry) (models.PriceGridEntry, error)
	DeleteOverride(ctx context.Context, code string) error
}

// NotificationService tells the office that an import went through.
type NotificationService interface {
	SendImportReport(ctx context.Context, batch models.ImportBatch, outcome *models.ParseOutcome) error
}
