package models

// FormatTag identifies the export dialect of an uploaded workbook.
type FormatTag string

const (
	FormatOrangeRCC     FormatTag = "ORANGE_RCC"
	FormatCanalPowerBI  FormatTag = "CANAL_POWERBI"
	FormatCanalGST      FormatTag = "CANAL_GST"
	FormatDailyTracking FormatTag = "DAILY_TRACKING"
	FormatRejection     FormatTag = "REJECTION"
	FormatUnknown       FormatTag = "UNKNOWN"
)

// Source is the telecom operator an intervention was performed for.
type Source string

const (
	SourceOrange Source = "ORANGE"
	SourceCanal  Source = "CANAL"
)

// ParseSource accepts the operator names found in exports ("Orange", "CANAL+", "canal plus").
func ParseSource(s string) (Source, bool) {
	switch {
	case containsFold(s, "orange"):
		return SourceOrange, true
	case containsFold(s, "canal"):
		return SourceCanal, true
	}
	return "", false
}
