package services

import (
	"testing"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/stretchr/testify/assert"
)

func TestImportReportBody(t *testing.T) {
	batch := models.ImportBatch{
		Filename:       "rcc_mars.xlsx",
		Format:         models.FormatOrangeRCC,
		Period:         "2025_03 RCC",
		TotalRecords:   3,
		SkippedRecords: 1,
	}
	outcome := &models.ParseOutcome{
		Interventions: []models.CanonicalIntervention{{}},
		Warnings:      []string{`code "ZZZZ" not in price grid, technician share estimated`},
		Totals: models.ParseTotals{
			AmountGset: decimalOf("315.5"),
			AmountTech: decimalOf("173.5"),
			Margin:     decimalOf("142"),
		},
	}

	body := importReportBody(batch, outcome)
	assert.Contains(t, body, "Fichier : rcc_mars.xlsx")
	assert.Contains(t, body, "Lignes ignorées : 1")
	assert.Contains(t, body, "Montant GSET : 315.50 €")
	assert.Contains(t, body, "Marge : 142.00 €")
	assert.Contains(t, body, "ZZZZ")
	assert.Equal(t, "Import 2025_03 RCC : rcc_mars.xlsx", importReportSubject(batch))

	tracking := importReportBody(batch, &models.ParseOutcome{})
	assert.NotContains(t, tracking, "Montant")
}
