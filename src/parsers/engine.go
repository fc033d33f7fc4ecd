package parsers

import (
	"fmt"
	"time"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
)

// dialectParser is the single parser behind every DialectSpec.
type dialectParser struct {
	spec     DialectSpec
	resolver processors.PriceResolver
	opts     Options
}

func newDialectParser(spec DialectSpec, resolver processors.PriceResolver, opts Options) *dialectParser {
	return &dialectParser{spec: spec, resolver: resolver, opts: opts}
}

// rowState accumulates the outcome while the rows of one sheet are walked.
type rowState struct {
	outcome      *models.ParseOutcome
	dates        []time.Time
	warned       map[string]bool
	trackingRows map[string]int // first row per (source, technician, day)
}

func (s *rowState) skip(rec Record, reason models.SkipReason) {
	s.outcome.Skipped = append(s.outcome.Skipped, models.SkippedRow{Sheet: rec.Sheet, Row: rec.Row, Reason: reason})
	logger.L.Debug("Skipping row", "sheet", rec.Sheet, "row", rec.Row, "reason", reason)
}

// warnOnce records a warning the first time a given key is seen.
func (s *rowState) warnOnce(key, msg string) {
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.outcome.Warnings = append(s.outcome.Warnings, msg)
}

func (s *rowState) warn(msg string) {
	s.outcome.Warnings = append(s.outcome.Warnings, msg)
}

// Parse implements the Parser interface.
func (p *dialectParser) Parse(wb *Workbook) (*models.ParseOutcome, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet, err := p.locateSheet(wb)
	if err != nil {
		return nil, err
	}
	headerRow, ok := sheet.FindHeaderRow(p.spec.HeaderMarkers, p.spec.MinHeaderMatches)
	if !ok {
		return nil, fmt.Errorf("%w: sheet %q has no %s header row", ErrHeaderNotFound, sheet.Name, p.spec.Format)
	}

	state := &rowState{
		outcome: &models.ParseOutcome{
			Format:   p.spec.Format,
			Source:   p.spec.Source,
			Skipped:  []models.SkippedRow{},
			Warnings: []string{},
		},
		warned:       make(map[string]bool),
		trackingRows: make(map[string]int),
	}

	records := sheet.Records(headerRow)
	for _, rec := range records {
		if rec.IsBlank() {
			state.skip(rec, models.SkipBlankRow)
			continue
		}
		switch p.spec.Kind {
		case KindTracking:
			p.trackingRow(rec, sheet, state)
		case KindRejections:
			p.rejectionRow(rec, sheet, state)
		default:
			p.interventionRow(rec, state)
		}
	}

	out := state.outcome
	out.Period = derivePeriod(wb, p.spec, state.dates, p.opts.now())
	p.stampPeriod(out)
	p.computeTotals(out, len(records))

	logger.L.Info("Workbook parsed",
		"format", p.spec.Format,
		"sheet", sheet.Name,
		"period", out.Period,
		"inputRows", out.Totals.InputRows,
		"parsedRows", out.Totals.ParsedRows,
		"skippedRows", out.Totals.SkippedRows,
		"warnings", len(out.Warnings))
	return out, nil
}

func (p *dialectParser) locateSheet(wb *Workbook) (*Sheet, error) {
	if len(p.spec.SheetPatterns) > 0 {
		if s := wb.FindSheet(p.spec.SheetPatterns...); s != nil {
			return s, nil
		}
		if p.spec.SheetRequired {
			return nil, fmt.Errorf("%w: %s export needs a sheet matching %v, found %v",
				ErrMissingRequiredSheet, p.spec.Format, p.spec.SheetPatterns, wb.SheetNames())
		}
	}
	return wb.FirstSheet(), nil
}

func (p *dialectParser) stampPeriod(out *models.ParseOutcome) {
	for i := range out.Interventions {
		out.Interventions[i].Period = out.Period
	}
	for i := range out.Tracking {
		out.Tracking[i].Period = out.Period
	}
	for i := range out.Rejections {
		out.Rejections[i].Period = out.Period
	}
}

// computeTotals keeps InputRows == ParsedRows + SkippedRows.
func (p *dialectParser) computeTotals(out *models.ParseOutcome, inputRows int) {
	t := models.ParseTotals{
		InputRows:   inputRows,
		ParsedRows:  out.RecordCount(),
		SkippedRows: len(out.Skipped),
		AmountGset:  decimal.Zero,
		AmountTech:  decimal.Zero,
	}
	for _, rec := range out.Interventions {
		t.AmountGset = t.AmountGset.Add(rec.AmountGset)
		t.AmountTech = t.AmountTech.Add(rec.AmountTech)
	}
	t.Margin = processors.Margin(t.AmountGset, t.AmountTech)
	out.Totals = t
}

// rowSource resolves the operator of a tracking or rejection row: its own column, then the
// sheet name, then the configured default, then Orange.
func (p *dialectParser) rowSource(rec Record, sheet *Sheet, state *rowState) models.Source {
	if src, ok := models.ParseSource(ResolveText(rec, p.spec.Fields.Source...)); ok {
		return src
	}
	if src, ok := models.ParseSource(sheet.Name); ok {
		return src
	}
	if p.opts.DefaultSource != "" {
		return p.opts.DefaultSource
	}
	state.warnOnce("source", fmt.Sprintf("no operator column or sheet name found, rows assigned to %s", models.SourceOrange))
	return models.SourceOrange
}

func dateParts(t time.Time) (week, month, year *int) {
	w := utils.WeekOfYear(t)
	m := int(t.Month())
	y := t.Year()
	return &w, &m, &y
}
