package parsers

import (
	"fmt"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
)

func (p *dialectParser) interventionRow(rec Record, state *rowState) {
	f := p.spec.Fields

	tech := p.technician(rec)
	if tech == "" {
		state.skip(rec, models.SkipMissingTechnician)
		return
	}

	stated, hasStated := ResolveAmount(rec, f.Amount...)
	if hasStated && stated.IsNegative() {
		state.skip(rec, models.SkipInvalidAmount)
		return
	}

	mainText := ResolveText(rec, f.BillingCode...)
	codes := billingCodes(p.spec, mainText, ResolveText(rec, f.Supplemental...))

	gset, techAmount, fallback, ok := p.price(codes, stated, hasStated)
	if !ok {
		state.skip(rec, models.SkipMissingAmount)
		return
	}

	billingCode := JoinCodes(codes)
	if billingCode == "" {
		billingCode = processors.NormalizeCode(mainText)
	}
	if fallback && len(codes) > 0 {
		state.warnOnce("fallback:"+billingCode, fmt.Sprintf("code %q not in price grid, technician share estimated", billingCode))
	}

	out := models.CanonicalIntervention{
		Source:        p.spec.Source,
		TechnicianID:  tech,
		BillingCode:   billingCode,
		ReferenceID:   ResolveText(rec, f.Reference...),
		Agency:        ResolveText(rec, f.Agency...),
		AmountGset:    gset.Round(2),
		AmountTech:    techAmount.Round(2),
		PriceFallback: fallback,
		SourceRow:     rec.Row,
	}
	if d, ok := ResolveDate(rec, f.Dates...); ok {
		out.InterventionDate = &d
		out.WeekNumber, out.Month, out.Year = dateParts(d)
		state.dates = append(state.dates, d)
	}
	state.outcome.Interventions = append(state.outcome.Interventions, out)
}

// technician resolves the technician identity, mapping roster codes such as "GSE 02"
// to names for dialects that print codes.
func (p *dialectParser) technician(rec Record) string {
	raw := ResolveText(rec, p.spec.Fields.Technician...)
	if raw == "" || !p.spec.TechnicianLookup {
		return raw
	}
	if name, ok := utils.LookupTechnician(raw); ok {
		return name
	}
	return raw
}

// price returns the GSET and technician amounts of a row and whether the technician
// amount came from the fallback ratio. ok is false when no amount can be determined.
func (p *dialectParser) price(codes []string, stated decimal.Decimal, hasStated bool) (gset, tech decimal.Decimal, fallback, ok bool) {
	switch p.spec.Pricing {
	case PriceGridFirst:
		res := p.resolver.ResolveCodes(codes, stated)
		if !res.Fallback {
			return res.GsetPrice, res.TechPrice, false, true
		}
		if !hasStated {
			return decimal.Zero, decimal.Zero, false, false
		}
		return stated, p.resolver.FallbackTechPrice(stated), true, true
	default:
		if !hasStated {
			return decimal.Zero, decimal.Zero, false, false
		}
		res := p.resolver.ResolveCodes(codes, stated)
		if res.AllMatched() {
			return stated, res.TechPrice, false, true
		}
		return stated, p.resolver.FallbackTechPrice(stated), true, true
	}
}
