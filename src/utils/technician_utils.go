package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gset/fibertrack/backend/src/logger"
)

// TechnicianInfo maps a short roster code, as printed in PowerBI exports, to a display name.
type TechnicianInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Built-in roster used by Canal+ PowerBI exports ("GSE 02" -> name).
var defaultTechnicians = []TechnicianInfo{
	{Code: "GSE 01", Name: "Karim Benali"},
	{Code: "GSE 02", Name: "Julien Moreau"},
	{Code: "GSE 03", Name: "Mehdi Haddad"},
	{Code: "GSE 04", Name: "Thomas Lefèvre"},
	{Code: "GSE 05", Name: "Yacine Boudjema"},
	{Code: "GSE 06", Name: "Nicolas Girard"},
	{Code: "GSE 07", Name: "Sofiane Amrani"},
	{Code: "GSE 08", Name: "Anthony Roux"},
}

var (
	technicianMu  sync.RWMutex
	technicianMap = buildTechnicianMap(defaultTechnicians)
)

// InitTechnicianDirectory overlays the built-in roster with entries from a JSON file.
// An empty path keeps the built-in roster.
func InitTechnicianDirectory(filePath string) error {
	if filePath == "" {
		logger.L.Info("No technician directory file configured, using built-in roster", "count", len(defaultTechnicians))
		return nil
	}
	logger.L.Info("Initializing technician directory", "path", filePath)
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read technician directory '%s': %w", filePath, err)
	}

	var entries []TechnicianInfo
	if err := json.Unmarshal(fileData, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal technician directory from '%s': %w", filePath, err)
	}

	technicianMu.Lock()
	defer technicianMu.Unlock()
	merged := buildTechnicianMap(defaultTechnicians)
	for k, v := range buildTechnicianMap(entries) {
		merged[k] = v
	}
	technicianMap = merged
	logger.L.Info("Technician directory loaded successfully.", "path", filePath, "technicianCount", len(technicianMap))
	return nil
}

// LookupTechnician resolves a roster code such as "GSE 02", "gse02" or "GSE-2".
func LookupTechnician(code string) (string, bool) {
	key := technicianKey(code)
	if key == "" {
		return "", false
	}
	technicianMu.RLock()
	defer technicianMu.RUnlock()
	name, ok := technicianMap[key]
	return name, ok
}

func buildTechnicianMap(entries []TechnicianInfo) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if k := technicianKey(e.Code); k != "" && strings.TrimSpace(e.Name) != "" {
			m[k] = strings.TrimSpace(e.Name)
		}
	}
	return m
}

// technicianKey drops separators and zero-padding so "GSE 02", "GSE02" and "gse-2" collide.
func technicianKey(code string) string {
	var letters, digits strings.Builder
	for _, r := range strings.ToUpper(code) {
		switch {
		case r >= 'A' && r <= 'Z':
			if digits.Len() > 0 {
				return ""
			}
			letters.WriteRune(r)
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
		default:
			return ""
		}
	}
	if letters.Len() == 0 || digits.Len() == 0 {
		return ""
	}
	d := strings.TrimLeft(digits.String(), "0")
	if d == "" {
		d = "0"
	}
	return letters.String() + d
}
