package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/model"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/security/validation"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/patrickmn/go-cache"
	"github.com/xuri/excelize/v2"
)

const (
	ckInterventionRollups = "rep_interventions_%s"
	ckTrackingRollups     = "rep_tracking_%s"
	ckSummary             = "rep_summary_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	db          *sql.DB
	aggregator  processors.Aggregator
	reportCache *cache.Cache
	ttl         time.Duration
}

func NewReportService(db *sql.DB, aggregator processors.Aggregator, reportCache *cache.Cache, ttl time.Duration) ReportService {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &reportServiceImpl{db: db, aggregator: aggregator, reportCache: reportCache, ttl: ttl}
}

func (q ReportQuery) key() string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", q.GroupBy, q.SortBy, q.Limit, q.Source, q.Period)
}

func (q ReportQuery) filter() model.RecordFilter {
	return model.RecordFilter{Source: q.Source, Period: q.Period}
}

func isTimeGrouping(g processors.GroupBy) bool {
	return g == processors.GroupByDate || g == processors.GroupByWeek || g == processors.GroupByMonth
}

func (s *reportServiceImpl) InterventionRollups(ctx context.Context, q ReportQuery) ([]models.Rollup, error) {
	cacheKey := fmt.Sprintf(ckInterventionRollups, q.key())
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for intervention rollups", "query", q.key())
		return cached.([]models.Rollup), nil
	}

	records, err := model.ListInterventions(ctx, s.db, q.filter())
	if err != nil {
		return nil, fmt.Errorf("loading interventions: %w", err)
	}
	rollups := s.aggregator.AggregateInterventions(records, q.GroupBy)
	if q.SortBy != "" || !isTimeGrouping(q.GroupBy) {
		processors.SortRollups(rollups, q.SortBy)
	}
	rollups = processors.TopN(rollups, q.Limit)

	s.reportCache.Set(cacheKey, rollups, s.ttl)
	return rollups, nil
}

func (s *reportServiceImpl) TrackingRollups(ctx context.Context, q ReportQuery) ([]models.TrackingRollup, error) {
	cacheKey := fmt.Sprintf(ckTrackingRollups, q.key())
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for tracking rollups", "query", q.key())
		return cached.([]models.TrackingRollup), nil
	}

	entries, err := model.ListTrackingEntries(ctx, s.db, q.filter())
	if err != nil {
		return nil, fmt.Errorf("loading tracking entries: %w", err)
	}
	rollups := s.aggregator.AggregateTracking(entries, q.GroupBy)
	if q.SortBy != "" || !isTimeGrouping(q.GroupBy) {
		processors.SortTrackingRollups(rollups, q.SortBy)
	}
	rollups = processors.TopN(rollups, q.Limit)

	s.reportCache.Set(cacheKey, rollups, s.ttl)
	return rollups, nil
}

func (s *reportServiceImpl) Summary(ctx context.Context, q ReportQuery) (models.Summary, error) {
	cacheKey := fmt.Sprintf(ckSummary, q.key())
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(models.Summary), nil
	}
	records, err := model.ListInterventions(ctx, s.db, q.filter())
	if err != nil {
		return models.Summary{}, fmt.Errorf("loading interventions: %w", err)
	}
	summary := s.aggregator.Summarize(records)
	s.reportCache.Set(cacheKey, summary, s.ttl)
	return summary, nil
}

// ExportInterventions renders the rollups of a query as an .xlsx workbook.
func (s *reportServiceImpl) ExportInterventions(ctx context.Context, q ReportQuery) ([]byte, error) {
	rollups, err := s.InterventionRollups(ctx, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Rapport"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, fmt.Errorf("creating export sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheet); err == nil {
		f.SetActiveSheet(idx)
	}

	header := []interface{}{string(q.GroupBy), "Interventions", "Montant GSET", "Montant technicien", "Marge"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing export header: %w", err)
	}
	for i, r := range rollups {
		gset, _ := r.AmountGset.Float64()
		tech, _ := r.AmountTech.Float64()
		margin, _ := r.Margin.Float64()
		row := []interface{}{
			validation.SanitizeForFormulaInjection(validation.StripUnprintable(r.Key)),
			r.Count,
			utils.RoundFloat(gset, 2),
			utils.RoundFloat(tech, 2),
			utils.RoundFloat(margin, 2),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing export row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return buf.Bytes(), nil
}

// Invalidate drops every cached report. Called after anything changes the stored records.
func (s *reportServiceImpl) Invalidate() {
	for key := range s.reportCache.Items() {
		if strings.HasPrefix(key, "rep_") {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Info("Invalidated report caches")
}
