package parsers

import (
	"time"

	"github.com/gset/fibertrack/backend/src/models"
)

// Parser turns a decoded workbook into canonical records.
type Parser interface {
	Parse(wb *Workbook) (*models.ParseOutcome, error)
}

// Options carries the per-import inputs a parser may not read from globals.
type Options struct {
	// Now stamps synthetic period labels. Defaults to time.Now.
	Now func() time.Time
	// DefaultSource applies to tracking and rejection rows that name no operator.
	DefaultSource models.Source
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
