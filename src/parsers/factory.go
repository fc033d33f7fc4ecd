package parsers

import (
	"fmt"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
)

// GetParser returns the parser for a detected format.
func GetParser(format models.FormatTag, resolver processors.PriceResolver, opts Options) (Parser, error) {
	spec, ok := Dialect(format)
	if !ok {
		return nil, fmt.Errorf("%w: no parser available for format %s", ErrUnrecognizedFormat, format)
	}
	if resolver == nil {
		resolver = processors.NewResolver(nil, processors.DefaultTechShareRatio)
	}
	return newDialectParser(spec, resolver, opts), nil
}

// ParseWorkbook detects the format of a workbook and parses it.
func ParseWorkbook(wb *Workbook, resolver processors.PriceResolver, opts Options) (*models.ParseOutcome, error) {
	format := DetectFormat(wb)
	if format == models.FormatUnknown {
		return nil, fmt.Errorf("%w: sheets %v match no known export", ErrUnrecognizedFormat, wb.SheetNames())
	}
	p, err := GetParser(format, resolver, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(wb)
}
