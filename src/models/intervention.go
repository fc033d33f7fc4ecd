package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalIntervention is one billable unit of work, whatever export it came from.
type CanonicalIntervention struct {
	ID               int64           `json:"id,omitempty"`
	BatchID          string          `json:"batch_id,omitempty"`
	Source           Source          `json:"source"`
	TechnicianID     string          `json:"technician_id"`
	BillingCode      string          `json:"billing_code"`
	ReferenceID      string          `json:"reference_id"`
	Agency           string          `json:"agency,omitempty"`
	AmountGset       decimal.Decimal `json:"amount_gset"`
	AmountTech       decimal.Decimal `json:"amount_tech"`
	InterventionDate *time.Time      `json:"intervention_date"`
	WeekNumber       *int            `json:"week_number"`
	Month            *int            `json:"month"`
	Year             *int            `json:"year"`
	Period           string          `json:"period"`
	PriceFallback    bool            `json:"price_fallback"` // technician amount came from the flat ratio
	SourceRow        int             `json:"source_row,omitempty"`
}

func (c CanonicalIntervention) Margin() decimal.Decimal {
	return c.AmountGset.Sub(c.AmountTech)
}
