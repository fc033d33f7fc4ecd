package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/parsers"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/security"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImportService struct {
	result   *services.ImportResult
	err      error
	received []byte
}

func (f *fakeImportService) ProcessUpload(ctx context.Context, filename string, data []byte) (*services.ImportResult, error) {
	f.received = data
	return f.result, f.err
}

type fakeBatchService struct {
	batches  []models.ImportBatch
	updated  map[int64]models.RejectionStatus
	notFound bool
}

func (f *fakeBatchService) ListBatches(ctx context.Context) ([]models.ImportBatch, error) {
	return f.batches, nil
}

func (f *fakeBatchService) GetBatch(ctx context.Context, id string) (*models.ImportBatch, error) {
	for _, b := range f.batches {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", services.ErrBatchNotFound, id)
}

func (f *fakeBatchService) DeleteBatch(ctx context.Context, id string) error {
	_, err := f.GetBatch(ctx, id)
	return err
}

func (f *fakeBatchService) ListRejections(ctx context.Context, batchID string) ([]models.RejectionRecord, error) {
	if _, err := f.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return []models.RejectionRecord{{ID: 1, BatchID: batchID, ReferenceID: "OT-1", Status: models.RejectionPlanned}}, nil
}

func (f *fakeBatchService) UpdateRejectionStatus(ctx context.Context, id int64, status models.RejectionStatus) error {
	if f.notFound {
		return fmt.Errorf("%w: %d", services.ErrRejectionNotFound, id)
	}
	if f.updated == nil {
		f.updated = make(map[int64]models.RejectionStatus)
	}
	f.updated[id] = status
	return nil
}

type fakeReportService struct {
	lastQuery services.ReportQuery
	rollups   []models.Rollup
}

func (f *fakeReportService) InterventionRollups(ctx context.Context, q services.ReportQuery) ([]models.Rollup, error) {
	f.lastQuery = q
	return f.rollups, nil
}

func (f *fakeReportService) TrackingRollups(ctx context.Context, q services.ReportQuery) ([]models.TrackingRollup, error) {
	f.lastQuery = q
	return nil, nil
}

func (f *fakeReportService) Summary(ctx context.Context, q services.ReportQuery) (models.Summary, error) {
	f.lastQuery = q
	return models.Summary{Interventions: len(f.rollups)}, nil
}

func (f *fakeReportService) ExportInterventions(ctx context.Context, q services.ReportQuery) ([]byte, error) {
	f.lastQuery = q
	return []byte("PK\x03\x04export"), nil
}

func (f *fakeReportService) Invalidate() {}

type fakePriceService struct {
	saved models.PriceGridEntry
}

func (f *fakePriceService) Grid(ctx context.Context) (*processors.PriceGrid, error) {
	return processors.NewPriceGrid(), nil
}

func (f *fakePriceService) Entries(ctx context.Context) ([]models.PriceGridEntry, error) {
	return nil, nil
}

func (f *fakePriceService) SetOverride(ctx context.Context, e models.PriceGridEntry) (models.PriceGridEntry, error) {
	if e.GsetPrice.IsNegative() {
		return models.PriceGridEntry{}, fmt.Errorf("%w: negative", services.ErrInvalidPrice)
	}
	e.Overridden = true
	f.saved = e
	return e, nil
}

func (f *fakePriceService) DeleteOverride(ctx context.Context, code string) error {
	return fmt.Errorf("%w: %s", services.ErrPriceNotFound, code)
}

func newTestMux(imports services.ImportService, batches services.BatchService, reports services.ReportService, prices services.PriceGridService) *http.ServeMux {
	ih := NewImportHandler(imports, batches, 1024*1024)
	rh := NewReportHandler(reports)
	ph := NewPriceHandler(prices)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/imports", ih.HandleUpload)
	mux.HandleFunc("GET /api/imports", ih.HandleListImports)
	mux.HandleFunc("GET /api/imports/{id}", ih.HandleGetImport)
	mux.HandleFunc("DELETE /api/imports/{id}", ih.HandleDeleteImport)
	mux.HandleFunc("GET /api/imports/{id}/rejections", ih.HandleListRejections)
	mux.HandleFunc("PATCH /api/rejections/{id}", ih.HandleUpdateRejection)
	mux.HandleFunc("GET /api/reports/interventions", rh.HandleGetInterventionRollups)
	mux.HandleFunc("GET /api/reports/interventions/export", rh.HandleExportInterventions)
	mux.HandleFunc("GET /api/reports/summary", rh.HandleGetSummary)
	mux.HandleFunc("PUT /api/price-grid/{code}", ph.HandlePutPrice)
	mux.HandleFunc("DELETE /api/price-grid/{code}", ph.HandleDeletePrice)
	return mux
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var xlsxContent = append([]byte("PK\x03\x04"), make([]byte, 128)...)

func TestHandleUpload(t *testing.T) {
	imports := &fakeImportService{result: &services.ImportResult{
		Batch:  models.ImportBatch{ID: "b1", Format: models.FormatOrangeRCC, Period: "2025_03 RCC", TotalAmount: decimal.NewFromInt(100)},
		Totals: models.ParseTotals{InputRows: 2, ParsedRows: 1, SkippedRows: 1},
	}}
	mux := newTestMux(imports, &fakeBatchService{}, &fakeReportService{}, &fakePriceService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "rcc.xlsx", xlsxContent))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res services.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "b1", res.Batch.ID)
	assert.NotNil(t, res.Skipped, "skipped is always a list")
	assert.Equal(t, xlsxContent, imports.received)
}

func TestHandleUploadRejectsBadFiles(t *testing.T) {
	mux := newTestMux(&fakeImportService{}, &fakeBatchService{}, &fakeReportService{}, &fakePriceService{})

	for name, req := range map[string]*http.Request{
		"csv extension": uploadRequest(t, "rcc.csv", xlsxContent),
		"legacy xls":    uploadRequest(t, "rcc.xls", xlsxContent),
		"not a zip":     uploadRequest(t, "rcc.xlsx", []byte("ND;TECH\n")),
		"no file field": httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("")),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, codeInvalidUpload, decodeError(t, rec).Code)
		})
	}
}

func TestHandleUploadMapsServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: rcc.xlsx matches batch b1", services.ErrDuplicateImport), http.StatusConflict, services.CodeDuplicateImport},
		{services.ErrImportInProgress, http.StatusConflict, services.CodeImportInProgress},
		{fmt.Errorf("%w: %w", services.ErrParsingFailed, parsers.ErrUnrecognizedFormat), http.StatusUnprocessableEntity, parsers.CodeUnrecognizedFormat},
		{fmt.Errorf("%w: %w", services.ErrParsingFailed, parsers.ErrMissingRequiredSheet), http.StatusUnprocessableEntity, parsers.CodeMissingRequiredSheet},
		{fmt.Errorf("%w: disk full", services.ErrPersistenceFailed), http.StatusInternalServerError, services.CodePersistenceFailed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mux := newTestMux(&fakeImportService{err: tt.err}, &fakeBatchService{}, &fakeReportService{}, &fakePriceService{})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, uploadRequest(t, "rcc.xlsx", xlsxContent))
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "disk full", "internal details stay in the logs")
			}
		})
	}
}

func TestImportRoutes(t *testing.T) {
	batches := &fakeBatchService{batches: []models.ImportBatch{{ID: "b1", Format: models.FormatRejection, CreatedAt: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)}}}
	mux := newTestMux(&fakeImportService{}, batches, &fakeReportService{}, &fakePriceService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/b1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/zz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, services.CodeNotFound, decodeError(t, rec).Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/imports/b1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/b1/rejections", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rejections []models.RejectionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejections))
	assert.Len(t, rejections, 1)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/rejections/1", strings.NewReader(`{"status":"OK"}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.RejectionOK, batches.updated[1])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/rejections/1", strings.NewReader(`{"status":"MAYBE"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/rejections/abc", strings.NewReader(`{"status":"OK"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	batches.notFound = true
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/rejections/7", strings.NewReader(`{"status":"CLOSED_NOK"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListImportsETag(t *testing.T) {
	batches := &fakeBatchService{batches: []models.ImportBatch{{ID: "b1"}}}
	mux := newTestMux(&fakeImportService{}, batches, &fakeReportService{}, &fakePriceService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestReportQueryParsing(t *testing.T) {
	reports := &fakeReportService{rollups: []models.Rollup{{Key: "Alice", Count: 2}}}
	mux := newTestMux(&fakeImportService{}, &fakeBatchService{}, reports, &fakePriceService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/interventions?groupBy=week&limit=5&source=canal&period=2025_03%20RCC", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, processors.GroupByWeek, reports.lastQuery.GroupBy)
	assert.Empty(t, reports.lastQuery.SortBy, "no sortBy keeps time order")
	assert.Equal(t, 5, reports.lastQuery.Limit)
	assert.Equal(t, models.SourceCanal, reports.lastQuery.Source)
	assert.Equal(t, "2025_03 RCC", reports.lastQuery.Period)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/summary?sortBy=count", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, processors.GroupByTechnician, reports.lastQuery.GroupBy)
	assert.Equal(t, processors.SortByCount, reports.lastQuery.SortBy)

	for _, bad := range []string{"groupBy=agency", "sortBy=margin", "limit=-1", "limit=ten", "source=sfr"} {
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/interventions?"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestExportInterventions(t *testing.T) {
	mux := newTestMux(&fakeImportService{}, &fakeBatchService{}, &fakeReportService{}, &fakePriceService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/interventions/export?groupBy=month", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rapport_month_")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestPriceRoutes(t *testing.T) {
	prices := &fakePriceService{}
	mux := newTestMux(&fakeImportService{}, &fakeBatchService{}, &fakeReportService{}, prices)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/price-grid/PBEA", strings.NewReader(`{"gset_price":"50.00","tech_price":28}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PBEA", prices.saved.Code)
	assert.True(t, prices.saved.GsetPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, prices.saved.TechPrice.Equal(decimal.NewFromInt(28)))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/price-grid/PBEA", strings.NewReader(`{"gset_price":-1,"tech_price":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.CodeInvalidPrice, decodeError(t, rec).Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/price-grid/PBEA", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/price-grid/PBEA", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	auth := security.NewAuthService("0123456789abcdef0123456789abcdef")
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	protected := AuthMiddleware(auth, false)(next)

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateToken("bureau", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bureau", seen)

	rec = httptest.NewRecorder()
	AuthMiddleware(auth, true)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", seen)
}

func TestRateLimitAndCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := CORSMiddleware([]string{"http://localhost:5173"})(RateLimitMiddleware(0.0001, 1)(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/imports", nil)
	preflight.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
