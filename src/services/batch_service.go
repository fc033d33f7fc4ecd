package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/model"
	"github.com/gset/fibertrack/backend/src/models"
)

type batchServiceImpl struct {
	db      *sql.DB
	reports ReportService
}

func NewBatchService(db *sql.DB, reports ReportService) BatchService {
	return &batchServiceImpl{db: db, reports: reports}
}

func (s *batchServiceImpl) ListBatches(ctx context.Context) ([]models.ImportBatch, error) {
	return model.ListBatches(ctx, s.db)
}

func (s *batchServiceImpl) GetBatch(ctx context.Context, id string) (*models.ImportBatch, error) {
	b, err := model.GetBatch(ctx, s.db, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return b, err
}

// DeleteBatch removes a batch with its interventions, tracking entries and rejections.
func (s *batchServiceImpl) DeleteBatch(ctx context.Context, id string) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := model.DeleteBatch(ctx, dbTx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
		}
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing batch deletion: %w", err)
	}

	if s.reports != nil {
		s.reports.Invalidate()
	}
	logger.L.Info("Import batch deleted", "batchID", id)
	return nil
}

func (s *batchServiceImpl) ListRejections(ctx context.Context, batchID string) ([]models.RejectionRecord, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return model.ListRejections(ctx, s.db, model.RecordFilter{BatchID: batchID})
}

func (s *batchServiceImpl) UpdateRejectionStatus(ctx context.Context, id int64, status models.RejectionStatus) error {
	err := model.UpdateRejectionStatus(ctx, s.db, id, status)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrRejectionNotFound, id)
	}
	return err
}
