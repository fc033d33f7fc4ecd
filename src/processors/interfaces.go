package processors

import (
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/shopspring/decimal"
)

// PriceResolver prices billing codes for the dialect parsers. Implementations are read-only.
type PriceResolver interface {
	ResolvePrice(code string, rawAmount decimal.Decimal) PriceResolution
	ResolveCodes(codes []string, rawAmount decimal.Decimal) CompositeResolution
	Lookup(code string) (models.PriceGridEntry, bool)
	FallbackTechPrice(rawAmount decimal.Decimal) decimal.Decimal
}

// Aggregator builds the rollups consumed by the reporting views.
type Aggregator interface {
	AggregateInterventions(records []models.CanonicalIntervention, groupBy GroupBy) []models.Rollup
	AggregateTracking(entries []models.DailyTrackingEntry, groupBy GroupBy) []models.TrackingRollup
	Summarize(records []models.CanonicalIntervention) models.Summary
}
