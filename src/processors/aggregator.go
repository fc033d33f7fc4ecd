package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
)

type GroupBy string

const (
	GroupByTechnician  GroupBy = "technician"
	GroupByDate        GroupBy = "date"
	GroupByWeek        GroupBy = "week"
	GroupByMonth       GroupBy = "month"
	GroupByBillingCode GroupBy = "billing_code"
)

type SortBy string

const (
	SortByAmount SortBy = "amount"
	SortByCount  SortBy = "count"
)

// UndatedKey groups records without a resolvable date when grouping by time.
const UndatedKey = "undated"

// ParseGroupBy accepts the query-string spelling of a grouping, defaulting to technician.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "":
		return GroupByTechnician, nil
	case GroupByTechnician, GroupByDate, GroupByWeek, GroupByMonth, GroupByBillingCode:
		return GroupBy(s), nil
	case "code", "billingCode":
		return GroupByBillingCode, nil
	}
	return "", fmt.Errorf("unknown groupBy %q", s)
}

func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(s) {
	case "", SortByAmount:
		return SortByAmount, nil
	case SortByCount:
		return SortByCount, nil
	}
	return "", fmt.Errorf("unknown sortBy %q", s)
}

// aggregatorImpl implements the Aggregator interface.
type aggregatorImpl struct{}

// NewAggregator creates a new instance of Aggregator.
func NewAggregator() Aggregator {
	return &aggregatorImpl{}
}

// AggregateInterventions groups records and sums their amounts. The result is ordered by key;
// use SortRollups for a ranking.
func (a *aggregatorImpl) AggregateInterventions(records []models.CanonicalIntervention, groupBy GroupBy) []models.Rollup {
	byKey := make(map[string]*models.Rollup)
	for _, rec := range records {
		key := interventionKey(rec, groupBy)
		r, ok := byKey[key]
		if !ok {
			r = &models.Rollup{Key: key, AmountGset: decimal.Zero, AmountTech: decimal.Zero}
			byKey[key] = r
		}
		r.Count++
		r.AmountGset = r.AmountGset.Add(rec.AmountGset)
		r.AmountTech = r.AmountTech.Add(rec.AmountTech)
	}

	out := make([]models.Rollup, 0, len(byKey))
	for _, r := range byKey {
		r.Margin = Margin(r.AmountGset, r.AmountTech)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AggregateTracking sums the daily counters per group. Billing-code grouping does not apply
// to tracking entries and falls back to technician.
func (a *aggregatorImpl) AggregateTracking(entries []models.DailyTrackingEntry, groupBy GroupBy) []models.TrackingRollup {
	byKey := make(map[string]*models.TrackingRollup)
	for _, e := range entries {
		key := trackingKey(e, groupBy)
		r, ok := byKey[key]
		if !ok {
			r = &models.TrackingRollup{Key: key}
			byKey[key] = r
		}
		r.Entries++
		r.Planned += e.Planned
		r.Completed += e.Completed
		r.OK += e.OK
		r.NOK += e.NOK
		r.Deferred += e.Deferred
	}

	out := make([]models.TrackingRollup, 0, len(byKey))
	for _, r := range byKey {
		r.SuccessRate = utils.RoundFloat(models.SuccessRate(r.OK, r.NOK), 4)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Summarize computes the overall totals shown above the reports.
func (a *aggregatorImpl) Summarize(records []models.CanonicalIntervention) models.Summary {
	s := models.Summary{AmountGset: decimal.Zero, AmountTech: decimal.Zero}
	techs := make(map[string]struct{})
	for _, rec := range records {
		s.Interventions++
		s.AmountGset = s.AmountGset.Add(rec.AmountGset)
		s.AmountTech = s.AmountTech.Add(rec.AmountTech)
		techs[rec.TechnicianID] = struct{}{}
	}
	s.Technicians = len(techs)
	s.Margin = Margin(s.AmountGset, s.AmountTech)
	if s.AmountGset.IsPositive() {
		rate, _ := s.Margin.Div(s.AmountGset).Float64()
		s.MarginRate = utils.RoundFloat(rate, 4)
	}
	return s
}

// SortRollups ranks rollups descending by amount or count. Ties are broken by key so that
// identical inputs always produce the same order.
func SortRollups(rollups []models.Rollup, by SortBy) {
	sort.SliceStable(rollups, func(i, j int) bool {
		a, b := rollups[i], rollups[j]
		switch by {
		case SortByCount:
			if a.Count != b.Count {
				return a.Count > b.Count
			}
		default:
			if c := a.AmountGset.Cmp(b.AmountGset); c != 0 {
				return c > 0
			}
		}
		return a.Key < b.Key
	})
}

// SortTrackingRollups ranks by completed interventions, or by entry count.
func SortTrackingRollups(rollups []models.TrackingRollup, by SortBy) {
	sort.SliceStable(rollups, func(i, j int) bool {
		a, b := rollups[i], rollups[j]
		switch by {
		case SortByCount:
			if a.Entries != b.Entries {
				return a.Entries > b.Entries
			}
		default:
			if a.Completed != b.Completed {
				return a.Completed > b.Completed
			}
		}
		return a.Key < b.Key
	})
}

// TopN keeps the first n rollups in their current order. n <= 0 keeps everything.
func TopN[T any](rollups []T, n int) []T {
	if n <= 0 || n >= len(rollups) {
		return rollups
	}
	return rollups[:n]
}

func interventionKey(rec models.CanonicalIntervention, groupBy GroupBy) string {
	switch groupBy {
	case GroupByDate, GroupByWeek, GroupByMonth:
		if rec.InterventionDate == nil {
			return UndatedKey
		}
		return timeKey(*rec.InterventionDate, groupBy)
	case GroupByBillingCode:
		return rec.BillingCode
	default:
		return rec.TechnicianID
	}
}

func trackingKey(e models.DailyTrackingEntry, groupBy GroupBy) string {
	switch groupBy {
	case GroupByDate, GroupByWeek, GroupByMonth:
		if e.Date.IsZero() {
			return UndatedKey
		}
		return timeKey(e.Date, groupBy)
	default:
		return e.TechnicianID
	}
}

func timeKey(t time.Time, groupBy GroupBy) string {
	switch groupBy {
	case GroupByWeek:
		return utils.WeekKey(t)
	case GroupByMonth:
		return utils.MonthKey(t)
	default:
		return utils.DayKey(t)
	}
}
