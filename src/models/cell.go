package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is one spreadsheet value. Text always carries the raw trimmed text, so a
// reference such as "00123" keeps its leading zeros even when classified as a number.
type Cell struct {
	Kind   CellKind  `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Date   time.Time `json:"date,omitempty"`
}

var numericCellRe = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// ParseCell classifies a raw cell value as read from a workbook.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(strings.ReplaceAll(raw, " ", " "))
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	if numericCellRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Cell{Kind: CellNumber, Text: s, Number: f}
		}
	}
	return Cell{Kind: CellText, Text: s}
}

func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f}
}

func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Text: t.Format("2006-01-02"), Date: t}
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

func (c Cell) String() string {
	return c.Text
}
