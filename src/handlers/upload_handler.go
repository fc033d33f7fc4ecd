package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/security/validation"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
)

const codeInvalidUpload = "INVALID_UPLOAD"

type ImportHandler struct {
	importService services.ImportService
	batchService  services.BatchService
	maxUploadSize int64
}

func NewImportHandler(importService services.ImportService, batchService services.BatchService, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		batchService:  batchService,
		maxUploadSize: maxUploadSize,
	}
}

// HandleUpload imports one workbook sent as the multipart field "file".
func (h *ImportHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	subject, _ := GetSubjectFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "subject", subject, "error", err, "limit", h.maxUploadSize)
		utils.SendJSONError(w, codeInvalidUpload, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "subject", subject, "error", err)
		utils.SendJSONError(w, codeInvalidUpload, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSize {
		logger.L.Warn("Uploaded file header reports size too large", "subject", subject, "fileSize", fileHeader.Size, "limit", h.maxUploadSize)
		utils.SendJSONError(w, codeInvalidUpload, fmt.Sprintf("File too large, max %d MB", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	filename := validation.SanitizeFilename(fileHeader.Filename)
	if err := validation.ValidateFileName(filename); err != nil {
		utils.SendJSONError(w, codeInvalidUpload, err.Error(), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "subject", subject, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, codeInvalidUpload, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "subject", subject, "filename", filename, "error", err)
		utils.SendJSONError(w, codeInvalidUpload, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated by magic bytes", "subject", subject, "filename", filename, "clientType", clientContentType, "detectedType", detectedContentType)

	data, err := io.ReadAll(file)
	if err != nil {
		logger.L.Error("Failed to read uploaded file", "subject", subject, "filename", filename, "error", err)
		utils.SendJSONError(w, codeInvalidUpload, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "subject", subject, "filename", filename)
	result, err := h.importService.ProcessUpload(r.Context(), filename, data)
	if err != nil {
		logger.L.Warn("Upload processing failed", "subject", subject, "filename", filename, "error", err)
		sendServiceError(w, err, "processing the file")
		return
	}

	if result.Skipped == nil {
		result.Skipped = []models.SkippedRow{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	utils.SendJSON(w, result, http.StatusCreated)
}

func (h *ImportHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batchService.ListBatches(r.Context())
	if err != nil {
		sendServiceError(w, err, "listing imports")
		return
	}
	writeJSONWithETag(w, r, batches)
}

func (h *ImportHandler) HandleGetImport(w http.ResponseWriter, r *http.Request) {
	batch, err := h.batchService.GetBatch(r.Context(), r.PathValue("id"))
	if err != nil {
		sendServiceError(w, err, "loading the import")
		return
	}
	utils.SendJSON(w, batch, http.StatusOK)
}

func (h *ImportHandler) HandleDeleteImport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.batchService.DeleteBatch(r.Context(), id); err != nil {
		sendServiceError(w, err, "deleting the import")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImportHandler) HandleListRejections(w http.ResponseWriter, r *http.Request) {
	rejections, err := h.batchService.ListRejections(r.Context(), r.PathValue("id"))
	if err != nil {
		sendServiceError(w, err, "listing rejections")
		return
	}
	writeJSONWithETag(w, r, rejections)
}

type rejectionStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateRejection records the review outcome of one rejection.
func (h *ImportHandler) HandleUpdateRejection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", "rejection id must be a number", http.StatusBadRequest)
		return
	}
	var req rejectionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", "invalid JSON body", http.StatusBadRequest)
		return
	}
	status := models.RejectionStatus(req.Status)
	switch status {
	case models.RejectionPlanned, models.RejectionOK, models.RejectionClosedNOK:
	default:
		utils.SendJSONError(w, "INVALID_REQUEST", fmt.Sprintf("status must be one of %s, %s, %s",
			models.RejectionPlanned, models.RejectionOK, models.RejectionClosedNOK), http.StatusBadRequest)
		return
	}
	if err := h.batchService.UpdateRejectionStatus(r.Context(), id, status); err != nil {
		sendServiceError(w, err, "updating the rejection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
