package parsers

import (
	"testing"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/stretchr/testify/assert"
)

func orangeSpec(t *testing.T) DialectSpec {
	t.Helper()
	spec, ok := Dialect(models.FormatOrangeRCC)
	if !ok {
		t.Fatal("orange dialect not registered")
	}
	return spec
}

func TestPeriodLabelsNeedASummarySheet(t *testing.T) {
	for format, spec := range dialects {
		if len(spec.PeriodLabels) > 0 {
			assert.NotEmpty(t, spec.PeriodSheetPatterns, "%s has period labels but no sheet to read them from", format)
		}
	}
}

func TestDerivePeriodFromRecapSheet(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"value to the right", [][]string{{"Période", "", "03/2025"}}, "2025_03 RCC"},
		{"inline value", [][]string{{"Période : mars 2025"}}, "2025_03 RCC"},
		{"value below", [][]string{{"Mois"}, {"2025-02"}}, "2025_02 RCC"},
		{"serial date", [][]string{{"PERIODE", "45717"}}, "2025_03 RCC"},
		{"full date", [][]string{{"Période", "15/01/2025"}}, "2025_01 RCC"},
		{"free text kept", [][]string{{"Période", "S1 2025"}}, "S1 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWorkbook(NewSheet("Récap", tt.rows))
			got := derivePeriod(wb, orangeSpec(t), nil, fixedNow())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDerivePeriodFallbacks(t *testing.T) {
	spec := orangeSpec(t)
	wb := NewWorkbook(NewSheet("Récap", [][]string{{"Période", "12"}}))

	dates := []time.Time{utcDate(2025, 5, 20), {}, utcDate(2025, 4, 30)}
	assert.Equal(t, "2025_04 RCC", derivePeriod(wb, spec, dates, fixedNow()), "small numbers are not serials")
	assert.Equal(t, "IMPORT_20250402_093000 RCC", derivePeriod(wb, spec, nil, fixedNow()))
}

func TestParseMonthText(t *testing.T) {
	for in, want := range map[string]time.Time{
		"03/2025":       utcDate(2025, 3, 1),
		"3.2025":        utcDate(2025, 3, 1),
		"2025_11":       utcDate(2025, 11, 1),
		"Février 2025":  utcDate(2025, 2, 1),
		"janv. 2024":    utcDate(2024, 1, 1),
		"Décembre 2024": utcDate(2024, 12, 1),
	} {
		got, ok := parseMonthText(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseMonthText("13/2025")
	assert.False(t, ok)
	_, ok = parseMonthText("brumaire 2025")
	assert.False(t, ok)
}
