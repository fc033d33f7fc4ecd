package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceGridEntry prices one billing code: what GSET bills and what the technician is paid.
type PriceGridEntry struct {
	Code       string          `json:"code"`
	GsetPrice  decimal.Decimal `json:"gset_price"`
	TechPrice  decimal.Decimal `json:"tech_price"`
	Overridden bool            `json:"overridden"`
}

// ImportBatch is the metadata row written once per successful import.
// Deleting it removes every record that references its ID.
type ImportBatch struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	Format         FormatTag       `json:"format"`
	Source         Source          `json:"source,omitempty"`
	Period         string          `json:"period"`
	ContentHash    string          `json:"content_hash"`
	TotalRecords   int             `json:"total_records"`
	SkippedRecords int             `json:"skipped_records"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalTech      decimal.Decimal `json:"total_tech"`
	CreatedAt      time.Time       `json:"created_at"`
}
