package parsers

import "github.com/gset/fibertrack/backend/src/models"

// RecordKind is the record type a dialect produces.
type RecordKind int

const (
	KindInterventions RecordKind = iota
	KindTracking
	KindRejections
)

// PricingStrategy selects where the amounts of an intervention come from.
type PricingStrategy int

const (
	// PriceStatedAmount bills the row's stated amount; the technician share comes from the
	// grid when every code matches, else from the fallback ratio.
	PriceStatedAmount PricingStrategy = iota
	// PriceGridFirst bills the grid prices of the matched codes and only falls back to the
	// row's stated amount when no code matches.
	PriceGridFirst
)

// FieldSet lists, per logical field, the header names a dialect accepts, most specific first.
type FieldSet struct {
	Technician   []string
	Reference    []string
	BillingCode  []string
	Supplemental []string
	Agency       []string
	Amount       []string
	Dates        []string // preference order

	Source    []string
	Status    []string
	Planned   []string
	Completed []string
	OK        []string
	NOK       []string
	Deferred  []string
	Reason    []string
}

// DialectSpec describes one export layout. Supporting a new export is a new DialectSpec.
type DialectSpec struct {
	Format models.FormatTag
	Kind   RecordKind
	Source models.Source // empty when resolved per row
	Label  string        // suffix of the batch period label

	SheetPatterns    []string
	SheetRequired    bool
	HeaderMarkers    []string
	MinHeaderMatches int

	Fields  FieldSet
	Pricing PricingStrategy
	// CodesFromText extracts price codes from free text with CodePattern instead of
	// taking the billing-code cell as the code.
	CodesFromText    bool
	TechnicianLookup bool

	// Explicit period cell on a summary sheet. Single-sheet dialects leave both empty.
	PeriodSheetPatterns []string
	PeriodLabels        []string
}

var periodLabels = []string{"periode", "mois", "period"}

var canalTechnician = []string{"nom technicien", "technicien", "code technicien", "tech"}
var canalReference = []string{"ref pxo", "reference pxo", "pxo", "reference", "ref"}
var canalDates = []string{"date de reglement", "date reglement", "date de validation", "date validation"}

var dialects = map[models.FormatTag]DialectSpec{
	models.FormatOrangeRCC: {
		Format:           models.FormatOrangeRCC,
		Kind:             KindInterventions,
		Source:           models.SourceOrange,
		Label:            "RCC",
		SheetPatterns:    []string{"details", "detail"},
		SheetRequired:    true,
		HeaderMarkers:    []string{"nd", "tech", "articles", "montant st", "date debut travaux", "date fin travaux"},
		MinHeaderMatches: 2,
		Fields: FieldSet{
			Technician:   []string{"tech", "technicien"},
			Reference:    []string{"nd"},
			BillingCode:  []string{"articles", "article"},
			Supplemental: []string{"travaux supplementaires", "articles supplementaires"},
			Agency:       []string{"ui", "agence", "secteur"},
			Amount:       []string{"montant st", "montant"},
			Dates:        []string{"date fin travaux", "date debut travaux"},
		},
		Pricing:             PriceStatedAmount,
		CodesFromText:       true,
		PeriodSheetPatterns: []string{"recap"},
		PeriodLabels:        periodLabels,
	},
	models.FormatCanalPowerBI: {
		Format:           models.FormatCanalPowerBI,
		Kind:             KindInterventions,
		Source:           models.SourceCanal,
		Label:            "CANAL POWERBI",
		HeaderMarkers:    []string{"technicien", "code facturation", "ref pxo", "date de reglement", "date de validation", "agence"},
		MinHeaderMatches: 2,
		Fields: FieldSet{
			Technician:   canalTechnician,
			Reference:    canalReference,
			BillingCode:  []string{"code facturation", "facturation", "code"},
			Supplemental: []string{"prestations complementaires", "prestation complementaire", "travaux supplementaires", "supplements"},
			Agency:       []string{"agence", "agency", "secteur"},
			Amount:       []string{"montant", "montant ht", "prix"},
			Dates:        canalDates,
		},
		Pricing:          PriceGridFirst,
		TechnicianLookup: true,
	},
	models.FormatCanalGST: {
		Format:           models.FormatCanalGST,
		Kind:             KindInterventions,
		Source:           models.SourceCanal,
		Label:            "CANAL GST",
		HeaderMarkers:    []string{"nom technicien", "total facture", "ref pxo", "code facturation", "date de reglement", "agence"},
		MinHeaderMatches: 2,
		Fields: FieldSet{
			Technician:   canalTechnician,
			Reference:    canalReference,
			BillingCode:  []string{"code facturation", "facturation", "code prestation", "prestation"},
			Supplemental: []string{"prestations complementaires", "prestation complementaire", "travaux supplementaires", "supplements"},
			Agency:       []string{"agence", "agency", "secteur"},
			Amount:       []string{"total facture", "montant", "total"},
			Dates:        canalDates,
		},
		Pricing: PriceGridFirst,
	},
	models.FormatDailyTracking: {
		Format:           models.FormatDailyTracking,
		Kind:             KindTracking,
		Label:            "SUIVI",
		SheetPatterns:    []string{"suivi"},
		HeaderMarkers:    []string{"technicien", "date", "ok", "nok", "planifie", "realise", "reporte"},
		MinHeaderMatches: 3,
		Fields: FieldSet{
			Technician: []string{"technicien", "nom technicien", "tech"},
			Dates:      []string{"date", "jour", "date intervention"},
			Source:     []string{"source", "operateur", "client"},
			Status:     []string{"statut", "etat", "status"},
			Planned:    []string{"planifie", "planifies", "planifiees", "prevu", "prevus"},
			Completed:  []string{"realise", "realises", "realisees", "termine", "termines"},
			OK:         []string{"ok"},
			NOK:        []string{"nok"},
			Deferred:   []string{"reporte", "reportes", "reportees", "report", "reports"},
		},
	},
	models.FormatRejection: {
		Format:           models.FormatRejection,
		Kind:             KindRejections,
		Label:            "REJETS",
		SheetPatterns:    []string{"rejet"},
		HeaderMarkers:    []string{"motif", "rejet", "technicien", "reference", "date rejet", "statut"},
		MinHeaderMatches: 2,
		Fields: FieldSet{
			Technician:  []string{"technicien", "nom technicien", "tech"},
			Reference:   []string{"reference", "ref", "nd", "ref pxo", "numero ot", "ot"},
			BillingCode: []string{"code facturation", "code", "prestation", "articles"},
			Reason:      []string{"motif rejet", "motif du rejet", "motif", "commentaire"},
			Dates:       []string{"date rejet", "date du rejet", "date"},
			Source:      []string{"source", "operateur", "client"},
			Status:      []string{"statut", "etat", "status"},
		},
	},
}

// Dialect returns the DialectSpec registered for a format.
func Dialect(format models.FormatTag) (DialectSpec, bool) {
	spec, ok := dialects[format]
	return spec, ok
}
