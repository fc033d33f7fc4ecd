package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
)

const (
	DefaultDateFormat = "2006-01-02"

	// Days between the spreadsheet epoch (1899-12-30) and the Unix epoch.
	spreadsheetEpochOffset = 25569
	secondsPerDay          = 86400
)

var isoDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

var dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2}|\d{4})(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?$`)

// NormalizeDate converts a spreadsheet cell to a calendar date (UTC midnight).
// Numbers are spreadsheet serials, text is tried as ISO then DD/MM/YYYY or DD-MM-YYYY.
func NormalizeDate(c models.Cell) (time.Time, bool) {
	switch c.Kind {
	case models.CellDate:
		return c.Date, true
	case models.CellNumber:
		return SerialToDate(c.Number)
	case models.CellText:
		return ParseDateText(c.Text)
	default:
		return time.Time{}, false
	}
}

// SerialToDate decodes a 1900-based spreadsheet serial number.
func SerialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	secs := (serial - spreadsheetEpochOffset) * secondsPerDay
	if math.Abs(secs) > 1e13 {
		return time.Time{}, false
	}
	t := time.Unix(int64(math.Floor(secs)), 0).UTC()
	return truncateDay(t), true
}

// DateToSerial is the inverse of SerialToDate.
func DateToSerial(t time.Time) float64 {
	return float64(t.UTC().Unix())/secondsPerDay + spreadsheetEpochOffset
}

// ParseDateText parses the textual date encodings found in exports.
func ParseDateText(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t.UTC()), true
		}
	}

	m := dayMonthYearRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		// time.Date normalizes 31/02 into March
		return time.Time{}, false
	}
	return t, true
}

// WeekOfYear returns the ISO-8601 week number.
func WeekOfYear(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// WeekOfMonth buckets a date into weeks 1..4 of its month. Weeks start on Monday,
// not Sunday, so the offset of the 1st is its Monday-based weekday index. A fifth or sixth
// calendar week folds into week 4.
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	offset := (int(first.Weekday()) + 6) % 7
	week := (t.Day() + offset + 6) / 7
	if week > 4 {
		return 4
	}
	if week < 1 {
		return 1
	}
	return week
}

func DayKey(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// WeekKey labels an ISO week, e.g. "2025-W03".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// PeriodLabel formats an import batch label such as "2025_03 RCC".
func PeriodLabel(t time.Time, label string) string {
	return t.Format("2006_01") + " " + label
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
