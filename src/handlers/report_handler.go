package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// parseReportQuery reads groupBy, sortBy, limit, source and period from the query string.
// sortBy stays empty when absent so time groupings keep their chronological order.
func parseReportQuery(r *http.Request) (services.ReportQuery, error) {
	values := r.URL.Query()
	var q services.ReportQuery

	groupBy, err := processors.ParseGroupBy(values.Get("groupBy"))
	if err != nil {
		return q, err
	}
	q.GroupBy = groupBy

	if raw := values.Get("sortBy"); raw != "" {
		sortBy, err := processors.ParseSortBy(raw)
		if err != nil {
			return q, err
		}
		q.SortBy = sortBy
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return q, fmt.Errorf("limit must be a non-negative integer, got %q", raw)
		}
		q.Limit = limit
	}

	if raw := values.Get("source"); raw != "" {
		source, ok := models.ParseSource(raw)
		if !ok {
			return q, fmt.Errorf("unknown source %q", raw)
		}
		q.Source = source
	}
	q.Period = values.Get("period")
	return q, nil
}

func (h *ReportHandler) HandleGetInterventionRollups(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	rollups, err := h.reportService.InterventionRollups(r.Context(), q)
	if err != nil {
		sendServiceError(w, err, "building the intervention report")
		return
	}
	if rollups == nil {
		rollups = []models.Rollup{}
	}
	writeJSONWithETag(w, r, rollups)
}

func (h *ReportHandler) HandleGetTrackingRollups(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	rollups, err := h.reportService.TrackingRollups(r.Context(), q)
	if err != nil {
		sendServiceError(w, err, "building the tracking report")
		return
	}
	if rollups == nil {
		rollups = []models.TrackingRollup{}
	}
	writeJSONWithETag(w, r, rollups)
}

func (h *ReportHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	summary, err := h.reportService.Summary(r.Context(), q)
	if err != nil {
		sendServiceError(w, err, "building the summary")
		return
	}
	writeJSONWithETag(w, r, summary)
}

// HandleExportInterventions streams the intervention rollups as an xlsx attachment.
func (h *ReportHandler) HandleExportInterventions(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	data, err := h.reportService.ExportInterventions(r.Context(), q)
	if err != nil {
		sendServiceError(w, err, "exporting the report")
		return
	}

	filename := fmt.Sprintf("rapport_%s_%s.xlsx", q.GroupBy, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.L.Error("Failed to write export response", "error", err)
	}
}
