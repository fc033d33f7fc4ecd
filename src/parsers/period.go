package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/utils"
)

const periodScanRows = 30

// Serials below this are counts or amounts rather than dates (20000 is 1954-10-03).
const minPeriodSerial = 20000

var (
	monthYearRe = regexp.MustCompile(`^(\d{1,2})[/\-. ](\d{4})$`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})[/\-_ ](\d{1,2})$`)
	monthNameRe = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{4})$`)
)

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"janv":      time.January,
	"jan":       time.January,
	"fevrier":   time.February,
	"fevr":      time.February,
	"fev":       time.February,
	"mars":      time.March,
	"avril":     time.April,
	"avr":       time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"juil":      time.July,
	"aout":      time.August,
	"septembre": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"octobre":   time.October,
	"oct":       time.October,
	"novembre":  time.November,
	"nov":       time.November,
	"decembre":  time.December,
	"dec":       time.December,
}

// derivePeriod labels the batch: an explicit period cell wins, then the earliest record
// date, then a timestamp so the label is never empty.
func derivePeriod(wb *Workbook, spec DialectSpec, dates []time.Time, now time.Time) string {
	if label, ok := explicitPeriod(wb, spec); ok {
		return label
	}
	if earliest, ok := earliestDate(dates); ok {
		return utils.PeriodLabel(earliest, spec.Label)
	}
	return "IMPORT_" + now.Format("20060102_150405") + " " + spec.Label
}

func explicitPeriod(wb *Workbook, spec DialectSpec) (string, bool) {
	if len(spec.PeriodSheetPatterns) == 0 || len(spec.PeriodLabels) == 0 {
		return "", false
	}
	sheet := wb.FindSheet(spec.PeriodSheetPatterns...)
	if sheet == nil {
		return "", false
	}
	for r := 0; r < len(sheet.Rows) && r < periodScanRows; r++ {
		for c, cell := range sheet.Rows[r] {
			if cell.Kind != models.CellText {
				continue
			}
			inline, isLabel := matchPeriodLabel(cell.Text, spec.PeriodLabels)
			if !isLabel {
				continue
			}
			if inline != "" {
				if label, ok := periodValue(models.TextCell(inline), spec.Label); ok {
					return label, true
				}
			}
			if v := nextValueRight(sheet, r, c); !v.IsEmpty() {
				if label, ok := periodValue(v, spec.Label); ok {
					return label, true
				}
			}
			if v := sheet.Cell(r+1, c); !v.IsEmpty() {
				if label, ok := periodValue(v, spec.Label); ok {
					return label, true
				}
			}
		}
	}
	return "", false
}

// matchPeriodLabel recognizes "Période", "Période :" and "Période : 03/2025". The second
// result is the inline value, if any.
func matchPeriodLabel(text string, labels []string) (string, bool) {
	head, tail, hasColon := strings.Cut(text, ":")
	norm := utils.NormalizeHeader(head)
	for _, l := range labels {
		if norm == utils.NormalizeHeader(l) {
			if hasColon {
				return strings.TrimSpace(tail), true
			}
			return "", true
		}
	}
	return "", false
}

func nextValueRight(s *Sheet, row, col int) models.Cell {
	if row >= len(s.Rows) {
		return models.Cell{}
	}
	for c := col + 1; c < len(s.Rows[row]); c++ {
		if cell := s.Rows[row][c]; !cell.IsEmpty() {
			return cell
		}
	}
	return models.Cell{}
}

// periodValue turns a period cell into a batch label. Dates and month expressions become
// "YYYY_MM <label>"; any other text is kept as written.
func periodValue(c models.Cell, label string) (string, bool) {
	switch c.Kind {
	case models.CellDate:
		return utils.PeriodLabel(c.Date, label), true
	case models.CellNumber:
		if c.Number < minPeriodSerial {
			return "", false
		}
		if t, ok := utils.SerialToDate(c.Number); ok {
			return utils.PeriodLabel(t, label), true
		}
		return "", false
	case models.CellText:
		text := strings.TrimSpace(c.Text)
		if t, ok := parseMonthText(text); ok {
			return utils.PeriodLabel(t, label), true
		}
		if t, ok := utils.ParseDateText(text); ok {
			return utils.PeriodLabel(t, label), true
		}
		return text, text != ""
	}
	return "", false
}

func parseMonthText(text string) (time.Time, bool) {
	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		return monthOf(m[2], m[1])
	}
	if m := yearMonthRe.FindStringSubmatch(text); m != nil {
		return monthOf(m[1], m[2])
	}
	if m := monthNameRe.FindStringSubmatch(utils.NormalizeHeader(text)); m != nil {
		if month, ok := frenchMonths[m[1]]; ok {
			year, _ := strconv.Atoi(m[2])
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func monthOf(yearStr, monthStr string) (time.Time, bool) {
	year, err1 := strconv.Atoi(yearStr)
	month, err2 := strconv.Atoi(monthStr)
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

func earliestDate(dates []time.Time) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if !found || d.Before(earliest) {
			earliest, found = d, true
		}
	}
	return earliest, found
}
