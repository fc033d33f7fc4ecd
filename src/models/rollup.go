package models

import "github.com/shopspring/decimal"

// Rollup aggregates interventions sharing a group key (technician, day, week, month, code).
type Rollup struct {
	Key        string          `json:"key"`
	Count      int             `json:"count"`
	AmountGset decimal.Decimal `json:"amount_gset"`
	AmountTech decimal.Decimal `json:"amount_tech"`
	Margin     decimal.Decimal `json:"margin"`
}

// TrackingRollup aggregates daily tracking counters sharing a group key.
type TrackingRollup struct {
	Key         string  `json:"key"`
	Entries     int     `json:"entries"`
	Planned     int     `json:"planned"`
	Completed   int     `json:"completed"`
	OK          int     `json:"ok"`
	NOK         int     `json:"nok"`
	Deferred    int     `json:"deferred"`
	SuccessRate float64 `json:"success_rate"`
}

type Summary struct {
	Interventions int             `json:"interventions"`
	Technicians   int             `json:"technicians"`
	AmountGset    decimal.Decimal `json:"amount_gset"`
	AmountTech    decimal.Decimal `json:"amount_tech"`
	Margin        decimal.Decimal `json:"margin"`
	MarginRate    float64         `json:"margin_rate"`
}
