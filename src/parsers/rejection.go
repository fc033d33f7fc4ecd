package parsers

import (
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
)

func (p *dialectParser) rejectionRow(rec Record, sheet *Sheet, state *rowState) {
	f := p.spec.Fields

	tech := ResolveText(rec, f.Technician...)
	ref := ResolveText(rec, f.Reference...)
	if tech == "" && ref == "" {
		state.skip(rec, models.SkipMissingReference)
		return
	}

	out := models.RejectionRecord{
		Source:       p.rowSource(rec, sheet, state),
		TechnicianID: tech,
		ReferenceID:  ref,
		BillingCode:  processors.NormalizeCode(ResolveText(rec, f.BillingCode...)),
		Reason:       ResolveText(rec, f.Reason...),
		Status:       models.ParseRejectionStatus(ResolveText(rec, f.Status...)),
		SourceRow:    rec.Row,
	}
	if d, ok := ResolveDate(rec, f.Dates...); ok {
		out.RejectedAt = &d
		state.dates = append(state.dates, d)
	}
	state.outcome.Rejections = append(state.outcome.Rejections, out)
}
