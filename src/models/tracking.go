package models

import "time"

// DailyTrackingEntry holds the daily counters of one technician for one source.
// The counters are independent: ok+nok may exceed completed in source data.
type DailyTrackingEntry struct {
	ID           int64     `json:"id,omitempty"`
	BatchID      string    `json:"batch_id,omitempty"`
	Source       Source    `json:"source"`
	TechnicianID string    `json:"technician_id"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	Planned      int       `json:"planned"`
	Completed    int       `json:"completed"`
	OK           int       `json:"ok"`
	NOK          int       `json:"nok"`
	Deferred     int       `json:"deferred"`
	Period       string    `json:"period"`
	SourceRow    int       `json:"source_row,omitempty"`
}

// SuccessRate returns ok/(ok+nok), or 0 when nothing was closed.
func (e DailyTrackingEntry) SuccessRate() float64 {
	return SuccessRate(e.OK, e.NOK)
}

func SuccessRate(ok, nok int) float64 {
	if ok+nok <= 0 {
		return 0
	}
	return float64(ok) / float64(ok+nok)
}
