package handlers

import (
	"errors"
	"net/http"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/parsers"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
)

// sendServiceError maps a service error to its HTTP status and code. Unknown errors are
// logged and hidden behind a generic message.
func sendServiceError(w http.ResponseWriter, err error, action string) {
	code := services.ErrorCode(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrImportInProgress), errors.Is(err, services.ErrDuplicateImport):
		status = http.StatusConflict
	case errors.Is(err, services.ErrBatchNotFound), errors.Is(err, services.ErrRejectionNotFound), errors.Is(err, services.ErrPriceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPrice):
		status = http.StatusBadRequest
	case errors.Is(err, parsers.ErrUnrecognizedFormat), errors.Is(err, parsers.ErrMissingRequiredSheet),
		errors.Is(err, parsers.ErrHeaderNotFound), errors.Is(err, parsers.ErrUnreadableWorkbook),
		errors.Is(err, parsers.ErrEmptyWorkbook), errors.Is(err, services.ErrParsingFailed):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		logger.L.Error("Internal error", "action", action, "error", err)
		if code == "" {
			code = "INTERNAL"
		}
		utils.SendJSONError(w, code, "An internal error occurred while "+action+". Please try again later.", status)
		return
	}
	utils.SendJSONError(w, code, err.Error(), status)
}
