package parsers

import "errors"

var (
	ErrUnrecognizedFormat   = errors.New("unrecognized workbook format")
	ErrMissingRequiredSheet = errors.New("required sheet not found")
	ErrHeaderNotFound       = errors.New("header row not found")
	ErrUnreadableWorkbook   = errors.New("unreadable workbook")
	ErrEmptyWorkbook        = errors.New("workbook contains no data")
)

// Error codes surfaced to API clients.
const (
	CodeUnrecognizedFormat   = "UNRECOGNIZED_FORMAT"
	CodeMissingRequiredSheet = "MISSING_REQUIRED_SHEET"
	CodeHeaderNotFound       = "HEADER_NOT_FOUND"
	CodeUnreadableWorkbook   = "UNREADABLE_WORKBOOK"
	CodeEmptyWorkbook        = "EMPTY_WORKBOOK"
)

// ErrorCode maps a parse error chain to its code, or "" when err is not a parse error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnrecognizedFormat):
		return CodeUnrecognizedFormat
	case errors.Is(err, ErrMissingRequiredSheet):
		return CodeMissingRequiredSheet
	case errors.Is(err, ErrHeaderNotFound):
		return CodeHeaderNotFound
	case errors.Is(err, ErrUnreadableWorkbook):
		return CodeUnreadableWorkbook
	case errors.Is(err, ErrEmptyWorkbook):
		return CodeEmptyWorkbook
	}
	return ""
}
