package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gset/fibertrack/backend/src/logger"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrLegacyWorkbook is returned for BIFF .xls files, which are not decoded.
	ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/zip":          true,
	"application/octet-stream": true, // browsers send this when they do not know the extension
	"application/vnd.ms-excel": true, // some clients label .xlsx this way; content is checked below
}

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ValidateFileName accepts .xlsx and .xlsm uploads.
func ValidateFileName(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return nil
	case ".xls":
		return ErrLegacyWorkbook
	default:
		logger.L.Warn("Disallowed upload extension", "filename", name)
		return fmt.Errorf("%w: %q, expected an .xlsx workbook", ErrUnsupportedFileType, filepath.Ext(name))
	}
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct == "" {
		return nil
	}
	if allowed, exists := AllowedClientContentTypes[ct]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared type '%s'", ErrUnsupportedFileType, contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature (magic bytes).
// It returns the detected content type and an error if validation fails.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the workbook decoder reads the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	head := buffer[:n]
	if bytes.HasPrefix(head, ole2Magic) {
		logger.L.Warn("Legacy OLE2 workbook uploaded")
		return "application/vnd.ms-excel", ErrLegacyWorkbook
	}

	detectedContentType := http.DetectContentType(head)
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	// .xlsx is a zip container; DetectContentType reports it as application/zip.
	if !bytes.HasPrefix(head, zipMagic) {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("%w: detected content type '%s' is not an .xlsx workbook", ErrUnsupportedFileType, detectedContentType)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
