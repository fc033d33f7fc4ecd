package parsers

import (
	"strings"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/utils"
)

// DetectFormat classifies a workbook by its sheet names and header rows. Rules are applied
// in order and the first match wins; CANAL_GST and CANAL_POWERBI share most headers and are
// told apart by the "total facture" column.
func DetectFormat(wb *Workbook) models.FormatTag {
	if wb == nil || len(wb.Sheets) == 0 {
		return models.FormatUnknown
	}

	if wb.FindSheet("recap") != nil {
		if detail := wb.FindSheet("detail"); detail != nil {
			if anyHeaderRow(detail, func(h []string) bool {
				return headerHas(h, "date debut travaux") || headerHas(h, "date fin travaux")
			}) {
				return models.FormatOrangeRCC
			}
		}
	}

	first := wb.FirstSheet()
	if anyHeaderRow(first, func(h []string) bool {
		return headerHas(h, "technicien") && headerHas(h, "facturation") && !headerHas(h, "total facture")
	}) {
		return models.FormatCanalPowerBI
	}
	if anyHeaderRow(first, func(h []string) bool {
		return headerHas(h, "nom technicien") && headerHas(h, "total facture")
	}) {
		return models.FormatCanalGST
	}

	if anyHeaderRow(first, func(h []string) bool {
		return headerHas(h, "technicien") && headerHas(h, "ok") && headerHas(h, "nok")
	}) || sheetNamed(wb, "suivi") {
		return models.FormatDailyTracking
	}
	if sheetNamed(wb, "rejet") || anyHeaderRow(first, func(h []string) bool {
		return headerHas(h, "motif") && containsWord(h, "rejet")
	}) {
		return models.FormatRejection
	}

	return models.FormatUnknown
}

func anyHeaderRow(s *Sheet, match func(headers []string) bool) bool {
	if s == nil {
		return false
	}
	for i := 0; i < len(s.Rows) && i < headerScanRows; i++ {
		if match(s.NormalizedRow(i)) {
			return true
		}
	}
	return false
}

func sheetNamed(wb *Workbook, prefix string) bool {
	for _, s := range wb.Sheets {
		if strings.HasPrefix(utils.NormalizeHeader(s.Name), prefix) {
			return true
		}
	}
	return false
}

// containsWord matches word prefixes, so "rejet" finds "rejets" and "date rejet".
func containsWord(headers []string, prefix string) bool {
	for _, h := range headers {
		for _, w := range strings.Fields(h) {
			if strings.HasPrefix(w, prefix) {
				return true
			}
		}
	}
	return false
}
