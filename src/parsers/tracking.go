package parsers

import (
	"fmt"
	"strings"

	"github.com/gset/fibertrack/backend/src/models"
)

func (p *dialectParser) trackingRow(rec Record, sheet *Sheet, state *rowState) {
	f := p.spec.Fields

	tech := ResolveText(rec, f.Technician...)
	if tech == "" {
		state.skip(rec, models.SkipMissingTechnician)
		return
	}
	date, ok := ResolveDate(rec, f.Dates...)
	if !ok {
		state.skip(rec, models.SkipMissingDate)
		return
	}

	entry := models.DailyTrackingEntry{
		Source:       p.rowSource(rec, sheet, state),
		TechnicianID: tech,
		Date:         date,
		Status:       ResolveText(rec, f.Status...),
		SourceRow:    rec.Row,
	}
	entry.Planned = p.counter(rec, state, "planned", f.Planned)
	entry.Completed = p.counter(rec, state, "completed", f.Completed)
	entry.OK = p.counter(rec, state, "ok", f.OK)
	entry.NOK = p.counter(rec, state, "nok", f.NOK)
	entry.Deferred = p.counter(rec, state, "deferred", f.Deferred)

	key := string(entry.Source) + "|" + tech + "|" + date.Format("2006-01-02")
	if first, seen := state.trackingRows[key]; seen {
		state.warnOnce("duplicate:"+key, fmt.Sprintf("%s row %d: %s already has %s counters for %s on row %d",
			rec.Sheet, rec.Row, tech, entry.Source, date.Format("02/01/2006"), first))
	} else {
		state.trackingRows[key] = rec.Row
	}

	state.dates = append(state.dates, date)
	state.outcome.Tracking = append(state.outcome.Tracking, entry)
}

// counter reads a daily counter. Absent columns count as 0; negative or unreadable
// values are clamped to 0 with a warning. Counters are not checked against each other.
func (p *dialectParser) counter(rec Record, state *rowState, name string, candidates []string) int {
	n, present, valid := ResolveInt(rec, candidates...)
	if !present {
		return 0
	}
	if !valid {
		state.warn(fmt.Sprintf("%s row %d: unreadable %s counter %q, using 0",
			rec.Sheet, rec.Row, name, strings.TrimSpace(ResolveText(rec, candidates...))))
		return 0
	}
	if n < 0 {
		state.warn(fmt.Sprintf("%s row %d: negative %s counter %d, using 0", rec.Sheet, rec.Row, name, n))
		return 0
	}
	return n
}
