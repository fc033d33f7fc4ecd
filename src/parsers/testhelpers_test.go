package parsers

import (
	"time"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/shopspring/decimal"
)

var fixedNow = func() time.Time { return time.Date(2025, time.April, 2, 9, 30, 0, 0, time.UTC) }

func testResolver() *processors.Resolver {
	p := func(code, gset, tech string) models.PriceGridEntry {
		return models.PriceGridEntry{Code: code, GsetPrice: decimal.RequireFromString(gset), TechPrice: decimal.RequireFromString(tech)}
	}
	grid := processors.NewPriceGrid([]models.PriceGridEntry{
		p("PBEA", "45.50", "25"),
		p("PLV", "120", "66"),
		p("RAC", "150", "82.50"),
		p("PRO", "35", "19"),
		p("RACC", "140", "77"),
		p("SAV", "55", "30"),
	})
	return processors.NewResolver(grid, processors.DefaultTechShareRatio)
}

func testOptions() Options {
	return Options{Now: fixedNow}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func orangeWorkbook() *Workbook {
	recap := NewSheet("Récap", [][]string{
		{"RECAPITULATIF RCC"},
		{"Période", "03/2025"},
		{"Total", "445.5"},
	})
	details := NewSheet("Détails", [][]string{
		{"Détail des interventions"},
		{"ND", "TECH", "ARTICLES", "Travaux supplémentaires", "UI", "MONTANT ST", "DATE DEBUT TRAVAUX", "DATE FIN TRAVAUX"},
		{"0123456789", "Alice", "PBEA", "", "UI NORD", "45.50", "45700", "45701"},
		{"0987654321", "Bob", "PLV2 RAC", "PRO", "", "300", "", "14/03/2025"},
		{"0111111111", "", "PBEA", "", "", "45.50", "", ""},
		{"", "", "", "", "", "", "", ""},
		{"0222222222", "Chloe", "ZZZZ", "", "", "100", "", ""},
		{"0333333333", "Dan", "PBEA", "", "", "-10", "", ""},
		{"0444444444", "Eve", "PBEA", "", "", "", "", ""},
	})
	return NewWorkbook(recap, details)
}
