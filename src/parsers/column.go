package parsers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
)

// Record is one data row keyed by normalized header text.
type Record struct {
	Sheet string
	Row   int // 1-based row number in the sheet
	cells map[string]models.Cell
	blank bool
}

func newRecord(sheet string, row int, headers []string, cells []models.Cell) Record {
	rec := Record{Sheet: sheet, Row: row, cells: make(map[string]models.Cell, len(headers)), blank: true}
	for _, c := range cells {
		if !c.IsEmpty() {
			rec.blank = false
			break
		}
	}
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := rec.cells[h]; dup {
			continue
		}
		if i < len(cells) {
			rec.cells[h] = cells[i]
		} else {
			rec.cells[h] = models.Cell{}
		}
	}
	return rec
}

// NewRecord builds a record from a header -> cell mapping. Header keys are normalized.
func NewRecord(values map[string]models.Cell) Record {
	headers := make([]string, 0, len(values))
	cells := make([]models.Cell, 0, len(values))
	for h, c := range values {
		headers = append(headers, utils.NormalizeHeader(h))
		cells = append(cells, c)
	}
	return newRecord("", 0, headers, cells)
}

// IsBlank reports whether every cell of the source row was empty.
func (r Record) IsBlank() bool {
	return r.blank
}

// Has reports whether the row has a column for the header, empty or not.
func (r Record) Has(header string) bool {
	_, ok := r.cells[utils.NormalizeHeader(header)]
	return ok
}

// ResolveColumn returns the cell of the first candidate header present in the row with a
// non-empty value. Matching ignores case and diacritics.
func ResolveColumn(rec Record, candidates ...string) (models.Cell, bool) {
	for _, name := range candidates {
		c, ok := rec.cells[utils.NormalizeHeader(name)]
		if ok && !c.IsEmpty() {
			return c, true
		}
	}
	return models.Cell{}, false
}

// ResolveText returns the trimmed text of the first matching column, or "".
func ResolveText(rec Record, candidates ...string) string {
	c, ok := ResolveColumn(rec, candidates...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

// ResolveAmount reads a monetary amount. A column holding text that is not a number
// counts as unresolved.
func ResolveAmount(rec Record, candidates ...string) (decimal.Decimal, bool) {
	c, ok := ResolveColumn(rec, candidates...)
	if !ok {
		return decimal.Zero, false
	}
	switch c.Kind {
	case models.CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(c.Number), true
	case models.CellText:
		return utils.ParseAmount(c.Text)
	}
	return decimal.Zero, false
}

// ResolveInt reads a whole count. The second result is false when the column is absent or
// empty; the third is false when a value is present but not a number.
func ResolveInt(rec Record, candidates ...string) (int, bool, bool) {
	c, ok := ResolveColumn(rec, candidates...)
	if !ok {
		return 0, false, true
	}
	switch c.Kind {
	case models.CellNumber:
		return int(math.Round(c.Number)), true, true
	case models.CellText:
		if n, err := strconv.Atoi(strings.TrimSpace(c.Text)); err == nil {
			return n, true, true
		}
		if d, ok := utils.ParseAmount(c.Text); ok {
			return int(d.Round(0).IntPart()), true, true
		}
	}
	return 0, true, false
}

// ResolveDate tries the candidates in order and returns the first that holds a valid date,
// so an unparsable preferred column falls through to the next one.
func ResolveDate(rec Record, candidates ...string) (time.Time, bool) {
	for _, name := range candidates {
		c, ok := rec.cells[utils.NormalizeHeader(name)]
		if !ok || c.IsEmpty() {
			continue
		}
		if t, ok := utils.NormalizeDate(c); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
