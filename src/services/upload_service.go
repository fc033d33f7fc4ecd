package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gset/fibertrack/backend/src/config"
	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/model"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/parsers"
	"github.com/gset/fibertrack/backend/src/processors"
	"golang.org/x/crypto/blake2b"
)

// ImportOptions tunes the import pipeline. Zero values fall back to the defaults.
type ImportOptions struct {
	DuplicatePolicy string
	TechShareRatio  float64
	DefaultSource   models.Source
	Now             func() time.Time
}

type importServiceImpl struct {
	db       *sql.DB
	prices   PriceGridService
	reports  ReportService
	notifier NotificationService
	opts     ImportOptions

	// Imports are serialized: a second upload while one runs is refused, not queued.
	busy sync.Mutex
}

func NewImportService(db *sql.DB, prices PriceGridService, reports ReportService, notifier NotificationService, opts ImportOptions) ImportService {
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = config.DuplicatePolicyReject
	}
	if opts.TechShareRatio <= 0 {
		opts.TechShareRatio = processors.DefaultTechShareRatio
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &importServiceImpl{db: db, prices: prices, reports: reports, notifier: notifier, opts: opts}
}

// ContentHash identifies a file by its bytes, so re-uploading the same export is detected
// whatever its filename.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *importServiceImpl) ProcessUpload(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	if !s.busy.TryLock() {
		return nil, ErrImportInProgress
	}
	defer s.busy.Unlock()

	startTime := time.Now()
	batchID := uuid.NewString()
	ctx = logger.WithImportID(ctx, batchID)
	log := logger.FromContext(ctx)
	log.Info("ProcessUpload START", "filename", filename, "size", len(data))

	hash := ContentHash(data)
	existing, err := model.GetBatchByHash(ctx, s.db, hash)
	switch {
	case err == nil:
		if s.opts.DuplicatePolicy != config.DuplicatePolicyReplace {
			return nil, fmt.Errorf("%w: %s matches batch %s (%s)", ErrDuplicateImport, filename, existing.ID, existing.Period)
		}
		log.Info("Same content already imported, replacing batch", "previousBatchID", existing.ID)
	case errors.Is(err, model.ErrNotFound):
		existing = nil
	default:
		return nil, fmt.Errorf("%w: checking for duplicate import: %v", ErrPersistenceFailed, err)
	}

	wb, err := parsers.OpenWorkbook(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	grid, err := s.prices.Grid(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading price grid: %v", ErrPersistenceFailed, err)
	}
	resolver := processors.NewResolver(grid, s.opts.TechShareRatio)

	outcome, err := parsers.ParseWorkbook(wb, resolver, parsers.Options{Now: s.opts.Now, DefaultSource: s.opts.DefaultSource})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}
	if outcome.RecordCount() == 0 {
		return nil, fmt.Errorf("%w: %s: no usable rows (%d skipped)", ErrParsingFailed, outcome.Format, len(outcome.Skipped))
	}

	batch := models.ImportBatch{
		ID:             batchID,
		Filename:       filename,
		Format:         outcome.Format,
		Source:         outcome.Source,
		Period:         outcome.Period,
		ContentHash:    hash,
		TotalRecords:   outcome.RecordCount(),
		SkippedRecords: len(outcome.Skipped),
		TotalAmount:    outcome.Totals.AmountGset,
		TotalTech:      outcome.Totals.AmountTech,
		CreatedAt:      s.opts.Now().UTC(),
	}

	if err := s.persist(ctx, batch, outcome, existing); err != nil {
		log.Error("Import could not be persisted", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if s.reports != nil {
		s.reports.Invalidate()
	}
	if s.notifier != nil {
		if err := s.notifier.SendImportReport(ctx, batch, outcome); err != nil {
			log.Warn("Import notification failed", "error", err)
		}
	}

	result := &ImportResult{
		Batch:    batch,
		Totals:   outcome.Totals,
		Skipped:  outcome.Skipped,
		Warnings: outcome.Warnings,
	}
	if existing != nil {
		result.ReplacedBatch = existing.ID
	}
	log.Info("ProcessUpload END",
		"format", batch.Format,
		"period", batch.Period,
		"records", batch.TotalRecords,
		"skipped", batch.SkippedRecords,
		"duration", time.Since(startTime))
	return result, nil
}

// persist writes the batch and all of its records in one transaction, replacing a previous
// import of the same content when one is given.
func (s *importServiceImpl) persist(ctx context.Context, batch models.ImportBatch, outcome *models.ParseOutcome, replaced *models.ImportBatch) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if replaced != nil {
		if err := model.DeleteBatch(ctx, dbTx, replaced.ID); err != nil {
			return fmt.Errorf("removing replaced batch %s: %w", replaced.ID, err)
		}
	}
	if err := model.InsertBatch(ctx, dbTx, batch); err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}
	if err := model.InsertInterventions(ctx, dbTx, batch.ID, outcome.Interventions); err != nil {
		return err
	}
	if err := model.InsertTrackingEntries(ctx, dbTx, batch.ID, outcome.Tracking); err != nil {
		return err
	}
	if err := model.InsertRejections(ctx, dbTx, batch.ID, outcome.Rejections); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing import: %w", err)
	}
	return nil
}
