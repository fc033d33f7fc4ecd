package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds how far below the top of a sheet a header row may sit.
const headerScanRows = 20

// Sheet is a decoded worksheet: its name and a raw 2-D view of its cells.
type Sheet struct {
	Name string
	Rows [][]models.Cell
}

// Workbook is the in-memory form of an uploaded spreadsheet.
type Workbook struct {
	Sheets []*Sheet
}

func NewWorkbook(sheets ...*Sheet) *Workbook {
	return &Workbook{Sheets: sheets}
}

// NewSheet builds a sheet from raw cell strings, classifying every cell.
func NewSheet(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: name, Rows: make([][]models.Cell, len(rows))}
	for i, row := range rows {
		cells := make([]models.Cell, len(row))
		for j, raw := range row {
			cells[j] = models.ParseCell(raw)
		}
		s.Rows[i] = cells
	}
	return s
}

// OpenWorkbook decodes an .xlsx file. Cells are read unformatted so that dates come
// through as spreadsheet serials and amounts keep their full precision.
func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	wb := &Workbook{}
	hasData := false
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, name, err)
		}
		sheet := NewSheet(name, rows)
		if !hasData {
			hasData = sheet.hasData()
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	if !hasData {
		return nil, ErrEmptyWorkbook
	}
	return wb, nil
}

func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

func (w *Workbook) FirstSheet() *Sheet {
	if len(w.Sheets) == 0 {
		return nil
	}
	return w.Sheets[0]
}

// FindSheet returns the first sheet whose normalized name contains one of the patterns.
// Patterns are tried in order, so the most specific should come first.
func (w *Workbook) FindSheet(patterns ...string) *Sheet {
	for _, p := range patterns {
		p = utils.NormalizeHeader(p)
		for _, s := range w.Sheets {
			if strings.Contains(utils.NormalizeHeader(s.Name), p) {
				return s
			}
		}
	}
	return nil
}

// Cell returns the cell at a 0-based position, or an empty cell when out of range.
func (s *Sheet) Cell(row, col int) models.Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return models.Cell{}
	}
	return s.Rows[row][col]
}

// NormalizedRow returns the header-normalized text of every cell of a row.
func (s *Sheet) NormalizedRow(row int) []string {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	out := make([]string, len(s.Rows[row]))
	for i, c := range s.Rows[row] {
		out[i] = utils.NormalizeHeader(c.Text)
	}
	return out
}

// FindHeaderRow scans the top of the sheet for the row matching the most markers.
// At least minMatches markers must be present.
func (s *Sheet) FindHeaderRow(markers []string, minMatches int) (int, bool) {
	if minMatches < 1 {
		minMatches = 1
	}
	best, bestScore := -1, 0
	for i := 0; i < len(s.Rows) && i < headerScanRows; i++ {
		score := countMarkers(s.NormalizedRow(i), markers)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < minMatches {
		return 0, false
	}
	return best, true
}

// Records converts every row below headerRow into a header-keyed record.
func (s *Sheet) Records(headerRow int) []Record {
	headers := s.NormalizedRow(headerRow)
	var out []Record
	for i := headerRow + 1; i < len(s.Rows); i++ {
		out = append(out, newRecord(s.Name, i+1, headers, s.Rows[i]))
	}
	return out
}

func (s *Sheet) hasData() bool {
	for _, row := range s.Rows {
		for _, c := range row {
			if !c.IsEmpty() {
				return true
			}
		}
	}
	return false
}

// headerHas reports whether a header cell holds marker as whole words, so "tech" never
// matches "technicien".
func headerHas(headers []string, marker string) bool {
	marker = utils.NormalizeHeader(marker)
	if marker == "" {
		return false
	}
	for _, h := range headers {
		if h == marker || strings.Contains(" "+h+" ", " "+marker+" ") {
			return true
		}
	}
	return false
}

func countMarkers(headers []string, markers []string) int {
	n := 0
	for _, m := range markers {
		if headerHas(headers, m) {
			n++
		}
	}
	return n
}
