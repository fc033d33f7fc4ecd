package processors

import (
	"sort"
	"strings"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/shopspring/decimal"
)

// DefaultTechShareRatio is the technician share of the gross amount for codes missing from the grid.
const DefaultTechShareRatio = 0.55

// PriceGrid is an immutable snapshot of the code -> price table.
type PriceGrid struct {
	entries map[string]models.PriceGridEntry
}

// NewPriceGrid builds a grid; later entries win over earlier ones with the same code,
// so overrides are passed after defaults.
func NewPriceGrid(entries ...[]models.PriceGridEntry) *PriceGrid {
	g := &PriceGrid{entries: make(map[string]models.PriceGridEntry)}
	for _, list := range entries {
		for _, e := range list {
			code := NormalizeCode(e.Code)
			if code == "" {
				continue
			}
			e.Code = code
			g.entries[code] = e
		}
	}
	return g
}

// NormalizeCode uppercases and trims a billing code, collapsing inner whitespace.
func NormalizeCode(code string) string {
	return strings.Join(strings.Fields(strings.ToUpper(code)), " ")
}

// Entries returns the grid sorted by code.
func (g *PriceGrid) Entries() []models.PriceGridEntry {
	if g == nil {
		return nil
	}
	out := make([]models.PriceGridEntry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (g *PriceGrid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Lookup finds the grid entry for a code: exact match first, then, for codes carrying
// a numeric suffix (PBEA2, PLV12), the longest grid code that the suffixed code extends.
func (g *PriceGrid) Lookup(code string) (models.PriceGridEntry, bool) {
	if g == nil {
		return models.PriceGridEntry{}, false
	}
	code = NormalizeCode(code)
	if code == "" {
		return models.PriceGridEntry{}, false
	}
	if e, ok := g.entries[code]; ok {
		return e, true
	}

	stem := strings.TrimRight(code, "0123456789")
	if stem == code || stem == "" {
		return models.PriceGridEntry{}, false
	}
	var best models.PriceGridEntry
	found := false
	for gridCode, e := range g.entries {
		if len(gridCode) < len(stem) || !strings.HasPrefix(code, gridCode) {
			continue
		}
		if !found || len(gridCode) > len(best.Code) || (len(gridCode) == len(best.Code) && gridCode < best.Code) {
			best, found = e, true
		}
	}
	return best, found
}

// PriceResolution is the outcome of pricing one billing code.
type PriceResolution struct {
	Code        string          `json:"code"`
	MatchedCode string          `json:"matched_code,omitempty"`
	GsetPrice   decimal.Decimal `json:"gset_price"`
	TechPrice   decimal.Decimal `json:"tech_price"`
	Fallback    bool            `json:"fallback"`
}

// Resolver prices codes against a grid and falls back to a flat technician share.
type Resolver struct {
	grid      *PriceGrid
	techShare decimal.Decimal
}

func NewResolver(grid *PriceGrid, techShareRatio float64) *Resolver {
	if grid == nil {
		grid = NewPriceGrid()
	}
	return &Resolver{grid: grid, techShare: decimal.NewFromFloat(techShareRatio)}
}

func (r *Resolver) Grid() *PriceGrid {
	return r.grid
}

func (r *Resolver) Lookup(code string) (models.PriceGridEntry, bool) {
	return r.grid.Lookup(code)
}

// ResolvePrice never fails: unknown codes bill the raw amount and pay the technician
// the configured share of it.
func (r *Resolver) ResolvePrice(code string, rawAmount decimal.Decimal) PriceResolution {
	res := PriceResolution{Code: NormalizeCode(code)}
	if e, ok := r.grid.Lookup(code); ok {
		res.MatchedCode = e.Code
		res.GsetPrice = e.GsetPrice
		res.TechPrice = e.TechPrice
		return res
	}
	res.GsetPrice = rawAmount
	res.TechPrice = r.FallbackTechPrice(rawAmount)
	res.Fallback = true
	return res
}

// FallbackTechPrice is the configured share of the raw amount, unrounded. Records round to cents.
func (r *Resolver) FallbackTechPrice(rawAmount decimal.Decimal) decimal.Decimal {
	return rawAmount.Mul(r.techShare)
}

// Margin is what GSET keeps once the technician is paid.
func Margin(gset, tech decimal.Decimal) decimal.Decimal {
	return gset.Sub(tech)
}

// CompositeResolution prices a main code plus its supplemental codes.
type CompositeResolution struct {
	Codes     []string        `json:"codes"`
	Matched   []string        `json:"matched"`
	Unmatched []string        `json:"unmatched,omitempty"`
	GsetPrice decimal.Decimal `json:"gset_price"`
	TechPrice decimal.Decimal `json:"tech_price"`
	Fallback  bool            `json:"fallback"`
}

// AllMatched reports whether every code had a grid entry.
func (c CompositeResolution) AllMatched() bool {
	return len(c.Codes) > 0 && len(c.Unmatched) == 0
}

// ResolveCodes sums the grid prices of every code that resolves. When none resolves,
// the raw amount is used with the fallback technician share.
func (r *Resolver) ResolveCodes(codes []string, rawAmount decimal.Decimal) CompositeResolution {
	res := CompositeResolution{GsetPrice: decimal.Zero, TechPrice: decimal.Zero}
	for _, code := range codes {
		code = NormalizeCode(code)
		if code == "" {
			continue
		}
		res.Codes = append(res.Codes, code)
		e, ok := r.grid.Lookup(code)
		if !ok {
			res.Unmatched = append(res.Unmatched, code)
			continue
		}
		res.Matched = append(res.Matched, e.Code)
		res.GsetPrice = res.GsetPrice.Add(e.GsetPrice)
		res.TechPrice = res.TechPrice.Add(e.TechPrice)
	}
	if len(res.Matched) == 0 {
		res.GsetPrice = rawAmount
		res.TechPrice = r.FallbackTechPrice(rawAmount)
		res.Fallback = true
	}
	return res
}
