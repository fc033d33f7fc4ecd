package services

import (
	"errors"

	"github.com/gset/fibertrack/backend/src/parsers"
)

var (
	ErrParsingFailed     = errors.New("failed to parse workbook")
	ErrDuplicateImport   = errors.New("file already imported")
	ErrImportInProgress  = errors.New("another import is in progress")
	ErrPersistenceFailed = errors.New("failed to persist import")
	ErrBatchNotFound     = errors.New("import batch not found")
	ErrRejectionNotFound = errors.New("rejection not found")
	ErrPriceNotFound     = errors.New("price override not found")
	ErrInvalidPrice      = errors.New("invalid price grid entry")
)

const (
	CodeParsingFailed     = "PARSING_FAILED"
	CodeDuplicateImport   = "DUPLICATE_IMPORT"
	CodeImportInProgress  = "IMPORT_IN_PROGRESS"
	CodePersistenceFailed = "PERSISTENCE_FAILURE"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidPrice      = "INVALID_PRICE"
)

// ErrorCode maps a service error chain to the code sent to API clients. Parse errors keep
// their own, more specific code.
func ErrorCode(err error) string {
	if code := parsers.ErrorCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, ErrDuplicateImport):
		return CodeDuplicateImport
	case errors.Is(err, ErrImportInProgress):
		return CodeImportInProgress
	case errors.Is(err, ErrPersistenceFailed):
		return CodePersistenceFailed
	case errors.Is(err, ErrParsingFailed):
		return CodeParsingFailed
	case errors.Is(err, ErrBatchNotFound), errors.Is(err, ErrRejectionNotFound), errors.Is(err, ErrPriceNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidPrice):
		return CodeInvalidPrice
	}
	return ""
}
