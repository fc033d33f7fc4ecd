package utils

import (
	"testing"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		cell models.Cell
		want time.Time
		ok   bool
	}{
		{"serial", models.NumberCell(45658), date(2025, time.January, 1), true},
		{"serial with time fraction", models.NumberCell(45658.75), date(2025, time.January, 1), true},
		{"iso", models.TextCell("2025-03-14"), date(2025, time.March, 14), true},
		{"iso datetime", models.TextCell("2025-03-14 08:30:00"), date(2025, time.March, 14), true},
		{"day first slash", models.TextCell("14/03/2025"), date(2025, time.March, 14), true},
		{"day first dash", models.TextCell("04-03-2025"), date(2025, time.March, 4), true},
		{"two digit year", models.TextCell("04/03/25"), date(2025, time.March, 4), true},
		{"with time", models.TextCell("14/03/2025 17:45"), date(2025, time.March, 14), true},
		{"impossible day", models.TextCell("31/02/2025"), time.Time{}, false},
		{"impossible month", models.TextCell("12/13/2025"), time.Time{}, false},
		{"garbage", models.TextCell("demain"), time.Time{}, false},
		{"empty", models.Cell{}, time.Time{}, false},
		{"date cell", models.DateCell(date(2024, time.June, 30)), date(2024, time.June, 30), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSerialRoundTrip(t *testing.T) {
	for _, d := range []time.Time{date(2024, time.February, 29), date(2025, time.December, 31), date(1999, time.January, 1)} {
		got, ok := SerialToDate(DateToSerial(d))
		require.True(t, ok)
		assert.True(t, d.Equal(got), "round trip of %s gave %s", d, got)
	}
}

func TestSerialToDateToSerial(t *testing.T) {
	for _, n := range []float64{1, 60, 25569, 45658, 45675, 2958465} {
		d, ok := SerialToDate(n)
		require.True(t, ok, "serial %v", n)
		assert.Equal(t, n, DateToSerial(d), "serial %v decoded as %s", n, d)
	}
	d, _ := SerialToDate(45675)
	assert.True(t, date(2025, time.January, 18).Equal(d))
}

func TestWeekOfYearAcrossYearBoundary(t *testing.T) {
	tests := []struct {
		day  time.Time
		want int
	}{
		{date(2021, time.January, 1), 53},
		{date(2021, time.January, 4), 1},
		{date(2024, time.December, 29), 52},
		{date(2024, time.December, 30), 1},
		{date(2026, time.January, 1), 1},
		{date(2020, time.December, 31), 53},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekOfYear(tt.day), tt.day.Format("2006-01-02"))
	}
	assert.Equal(t, "2025-W01", WeekKey(date(2024, time.December, 30)))
}

func TestWeekOfMonth(t *testing.T) {
	// March 2025 starts on a Saturday.
	assert.Equal(t, 1, WeekOfMonth(date(2025, time.March, 1)))
	assert.Equal(t, 1, WeekOfMonth(date(2025, time.March, 2)))
	assert.Equal(t, 2, WeekOfMonth(date(2025, time.March, 3)))
	assert.Equal(t, 4, WeekOfMonth(date(2025, time.March, 17)))
	assert.Equal(t, 4, WeekOfMonth(date(2025, time.March, 31)))

	// June 2025 starts on a Sunday: the following Monday opens week 2.
	assert.Equal(t, 1, WeekOfMonth(date(2025, time.June, 1)))
	assert.Equal(t, 2, WeekOfMonth(date(2025, time.June, 2)))
	assert.Equal(t, 2, WeekOfMonth(date(2025, time.June, 8)))
	assert.Equal(t, 3, WeekOfMonth(date(2025, time.June, 9)))
}

func TestTimeKeys(t *testing.T) {
	d := date(2025, time.January, 15)
	assert.Equal(t, "2025-01-15", DayKey(d))
	assert.Equal(t, "2025-W03", WeekKey(d))
	assert.Equal(t, "2025-01", MonthKey(d))
	assert.Equal(t, 3, WeekOfYear(d))
	assert.Equal(t, "2025_01 RCC", PeriodLabel(d, "RCC"))
}
