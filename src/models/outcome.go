package models

import "github.com/shopspring/decimal"

type SkipReason string

const (
	SkipBlankRow          SkipReason = "blank_row"
	SkipMissingTechnician SkipReason = "missing_technician"
	SkipMissingAmount     SkipReason = "missing_amount"
	SkipInvalidAmount     SkipReason = "invalid_amount"
	SkipMissingDate       SkipReason = "missing_date"
	SkipMissingReference  SkipReason = "missing_reference"
)

// SkippedRow records a source row that produced no output record.
type SkippedRow struct {
	Sheet  string     `json:"sheet"`
	Row    int        `json:"row"` // 1-based row number in the sheet
	Reason SkipReason `json:"reason"`
}

type ParseTotals struct {
	InputRows   int             `json:"input_rows"`
	ParsedRows  int             `json:"parsed_rows"`
	SkippedRows int             `json:"skipped_rows"`
	AmountGset  decimal.Decimal `json:"amount_gset"`
	AmountTech  decimal.Decimal `json:"amount_tech"`
	Margin      decimal.Decimal `json:"margin"`
}

// ParseOutcome is everything a dialect parser extracted from one workbook.
// Only one of the record slices is populated, depending on Format.
type ParseOutcome struct {
	Format        FormatTag               `json:"format"`
	Source        Source                  `json:"source,omitempty"`
	Period        string                  `json:"period"`
	Interventions []CanonicalIntervention `json:"interventions,omitempty"`
	Tracking      []DailyTrackingEntry    `json:"tracking,omitempty"`
	Rejections    []RejectionRecord       `json:"rejections,omitempty"`
	Skipped       []SkippedRow            `json:"skipped"`
	Warnings      []string                `json:"warnings"`
	Totals        ParseTotals             `json:"totals"`
}

// RecordCount is the number of records of whichever kind the outcome holds.
func (o *ParseOutcome) RecordCount() int {
	return len(o.Interventions) + len(o.Tracking) + len(o.Rejections)
}
