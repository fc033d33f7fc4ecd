package models

import "time"

type RejectionStatus string

const (
	RejectionPlanned   RejectionStatus = "PLANNED"
	RejectionOK        RejectionStatus = "OK"
	RejectionClosedNOK RejectionStatus = "CLOSED_NOK"
)

// ParseRejectionStatus maps the labels used in rejection reports; anything unknown stays planned.
func ParseRejectionStatus(s string) RejectionStatus {
	switch {
	case containsFold(s, "nok"), containsFold(s, "clos"):
		return RejectionClosedNOK
	case containsFold(s, "ok"), containsFold(s, "resolu"), containsFold(s, "résolu"):
		return RejectionOK
	default:
		return RejectionPlanned
	}
}

// RejectionRecord is an intervention returned by the operator for rework.
type RejectionRecord struct {
	ID           int64           `json:"id,omitempty"`
	BatchID      string          `json:"batch_id,omitempty"`
	Source       Source          `json:"source"`
	TechnicianID string          `json:"technician_id"`
	ReferenceID  string          `json:"reference_id"`
	BillingCode  string          `json:"billing_code"`
	Reason       string          `json:"reason"`
	RejectedAt   *time.Time      `json:"rejected_at"`
	Status       RejectionStatus `json:"status"`
	Period       string          `json:"period"`
	SourceRow    int             `json:"source_row,omitempty"`
}
