package parsers

import (
	"bytes"
	"testing"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, sheets map[string][][]interface{}, order ...string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range order {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestOpenWorkbookReadsRawValues(t *testing.T) {
	buf := buildXLSX(t, map[string][][]interface{}{
		"Récap": {
			{"Période", "03/2025"},
		},
		"Détails": {
			{"ND", "TECH", "ARTICLES", "MONTANT ST", "DATE FIN TRAVAUX"},
			{"0123456789", "Alice", "PBEA", 45.5, 45701},
		},
	}, "Récap", "Détails")

	wb, err := OpenWorkbook(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Récap", "Détails"}, wb.SheetNames())
	assert.Equal(t, models.FormatOrangeRCC, DetectFormat(wb))

	details := wb.FindSheet("detail")
	require.NotNil(t, details)
	assert.Equal(t, "0123456789", details.Cell(1, 0).Text, "leading zeros survive the raw read")
	assert.Equal(t, models.CellNumber, details.Cell(1, 3).Kind)
	assert.InDelta(t, 45.5, details.Cell(1, 3).Number, 1e-9)
	assert.InDelta(t, 45701, details.Cell(1, 4).Number, 1e-9)

	out, err := ParseWorkbook(wb, testResolver(), testOptions())
	require.NoError(t, err)
	require.Len(t, out.Interventions, 1)
	assert.Equal(t, "2025_03 RCC", out.Period)
}

func TestOpenWorkbookErrors(t *testing.T) {
	_, err := OpenWorkbook(bytes.NewReader([]byte("ND;TECH\n1;Alice\n")))
	require.ErrorIs(t, err, ErrUnreadableWorkbook)
	assert.Equal(t, CodeUnreadableWorkbook, ErrorCode(err))

	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = OpenWorkbook(buf)
	assert.ErrorIs(t, err, ErrEmptyWorkbook)
}

func TestFindHeaderRowPicksBestRow(t *testing.T) {
	s := NewSheet("Détails", [][]string{
		{"Rapport TECH"},
		{"ND", "TECH", "ARTICLES", "MONTANT ST"},
		{"ND", "TECH"},
	})
	row, ok := s.FindHeaderRow([]string{"nd", "tech", "articles", "montant st"}, 2)
	require.True(t, ok)
	assert.Equal(t, 1, row)

	_, ok = s.FindHeaderRow([]string{"date rejet", "motif"}, 1)
	assert.False(t, ok)
}

func TestFindHeaderRowOnlyScansTopOfSheet(t *testing.T) {
	rows := make([][]string, headerScanRows+1)
	for i := range rows {
		rows[i] = []string{"..."}
	}
	rows[headerScanRows] = []string{"ND", "TECH", "ARTICLES"}
	_, ok := NewSheet("Détails", rows).FindHeaderRow([]string{"nd", "tech", "articles"}, 2)
	assert.False(t, ok)
}

func TestHeaderHasMatchesWholeWords(t *testing.T) {
	headers := []string{"nom technicien", "date de reglement"}
	assert.True(t, headerHas(headers, "technicien"))
	assert.True(t, headerHas(headers, "Date de règlement"))
	assert.False(t, headerHas(headers, "tech"))
	assert.False(t, headerHas(headers, ""))
}
