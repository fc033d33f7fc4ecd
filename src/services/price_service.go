package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/model"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/processors"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const ckPriceGrid = "price_grid"

// defaultPriceGrid is the contractual grid used until the office edits prices.
var defaultPriceGrid = []models.PriceGridEntry{
	// Orange RCC
	{Code: "PBEA", GsetPrice: decimal.RequireFromString("45.50"), TechPrice: decimal.RequireFromString("25.00")},
	{Code: "PBEB", GsetPrice: decimal.RequireFromString("62.00"), TechPrice: decimal.RequireFromString("34.00")},
	{Code: "PLV", GsetPrice: decimal.RequireFromString("120.00"), TechPrice: decimal.RequireFromString("66.00")},
	{Code: "RAC", GsetPrice: decimal.RequireFromString("150.00"), TechPrice: decimal.RequireFromString("82.50")},
	{Code: "RACIMB", GsetPrice: decimal.RequireFromString("185.00"), TechPrice: decimal.RequireFromString("100.00")},
	{Code: "PRO", GsetPrice: decimal.RequireFromString("35.00"), TechPrice: decimal.RequireFromString("19.00")},
	{Code: "DEPL", GsetPrice: decimal.RequireFromString("20.00"), TechPrice: decimal.RequireFromString("11.00")},
	// Canal+
	{Code: "RACC", GsetPrice: decimal.RequireFromString("140.00"), TechPrice: decimal.RequireFromString("77.00")},
	{Code: "SAV", GsetPrice: decimal.RequireFromString("55.00"), TechPrice: decimal.RequireFromString("30.00")},
	{Code: "PAV", GsetPrice: decimal.RequireFromString("95.00"), TechPrice: decimal.RequireFromString("52.00")},
	{Code: "MES", GsetPrice: decimal.RequireFromString("40.00"), TechPrice: decimal.RequireFromString("22.00")},
	{Code: "PTO", GsetPrice: decimal.RequireFromString("30.00"), TechPrice: decimal.RequireFromString("16.50")},
}

type priceGridServiceImpl struct {
	db       *sql.DB
	defaults []models.PriceGridEntry
	cache    *cache.Cache
}

// NewPriceGridService builds the service over a defaults table. A nil defaults slice uses
// the built-in grid.
func NewPriceGridService(db *sql.DB, defaults []models.PriceGridEntry, c *cache.Cache) PriceGridService {
	if defaults == nil {
		defaults = DefaultPriceGrid()
	}
	return &priceGridServiceImpl{db: db, defaults: defaults, cache: c}
}

// DefaultPriceGrid returns a copy of the built-in grid.
func DefaultPriceGrid() []models.PriceGridEntry {
	out := make([]models.PriceGridEntry, len(defaultPriceGrid))
	copy(out, defaultPriceGrid)
	return out
}

// LoadPriceGridFile reads a JSON array of {code, gset_price, tech_price} that replaces the
// built-in grid. An empty path returns the built-in grid.
func LoadPriceGridFile(filePath string) ([]models.PriceGridEntry, error) {
	if filePath == "" {
		return DefaultPriceGrid(), nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read price grid '%s': %w", filePath, err)
	}
	var entries []models.PriceGridEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price grid from '%s': %w", filePath, err)
	}
	for i := range entries {
		if err := validatePriceEntry(&entries[i]); err != nil {
			return nil, fmt.Errorf("price grid '%s' entry %d: %w", filePath, i, err)
		}
		entries[i].Overridden = false
	}
	logger.L.Info("Price grid loaded from file", "path", filePath, "entries", len(entries))
	return entries, nil
}

// Grid returns the current immutable snapshot, rebuilt only after an override changes.
func (s *priceGridServiceImpl) Grid(ctx context.Context) (*processors.PriceGrid, error) {
	if cached, found := s.cache.Get(ckPriceGrid); found {
		return cached.(*processors.PriceGrid), nil
	}
	overrides, err := model.ListPriceOverrides(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("loading price overrides: %w", err)
	}
	grid := processors.NewPriceGrid(s.defaults, overrides)
	s.cache.Set(ckPriceGrid, grid, cache.NoExpiration)
	logger.L.Debug("Price grid snapshot rebuilt", "entries", grid.Len(), "overrides", len(overrides))
	return grid, nil
}

func (s *priceGridServiceImpl) Entries(ctx context.Context) ([]models.PriceGridEntry, error) {
	grid, err := s.Grid(ctx)
	if err != nil {
		return nil, err
	}
	return grid.Entries(), nil
}

func (s *priceGridServiceImpl) SetOverride(ctx context.Context, entry models.PriceGridEntry) (models.PriceGridEntry, error) {
	if err := validatePriceEntry(&entry); err != nil {
		return models.PriceGridEntry{}, err
	}
	entry.Overridden = true
	if err := model.UpsertPriceOverride(ctx, s.db, entry); err != nil {
		return models.PriceGridEntry{}, fmt.Errorf("saving price override %s: %w", entry.Code, err)
	}
	s.cache.Delete(ckPriceGrid)
	logger.L.Info("Price override saved", "code", entry.Code, "gsetPrice", entry.GsetPrice.String(), "techPrice", entry.TechPrice.String())
	return entry, nil
}

func (s *priceGridServiceImpl) DeleteOverride(ctx context.Context, code string) error {
	code = processors.NormalizeCode(code)
	if err := model.DeletePriceOverride(ctx, s.db, code); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPriceNotFound, code)
		}
		return fmt.Errorf("deleting price override %s: %w", code, err)
	}
	s.cache.Delete(ckPriceGrid)
	logger.L.Info("Price override removed", "code", code)
	return nil
}

func validatePriceEntry(e *models.PriceGridEntry) error {
	e.Code = processors.NormalizeCode(e.Code)
	if e.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidPrice)
	}
	if e.GsetPrice.IsNegative() || e.TechPrice.IsNegative() {
		return fmt.Errorf("%w: prices of %s must not be negative", ErrInvalidPrice, e.Code)
	}
	return nil
}
