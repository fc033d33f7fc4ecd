package model

import (
	"context"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
)

// ListPriceOverrides returns the user-edited grid entries, ordered by code.
func ListPriceOverrides(ctx context.Context, db DBTX) ([]models.PriceGridEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT code, gset_price, tech_price FROM price_overrides ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PriceGridEntry
	for rows.Next() {
		var code, gset, tech string
		if err := rows.Scan(&code, &gset, &tech); err != nil {
			return nil, err
		}
		out = append(out, models.PriceGridEntry{
			Code:       code,
			GsetPrice:  parseDecimal(gset),
			TechPrice:  parseDecimal(tech),
			Overridden: true,
		})
	}
	return out, rows.Err()
}

// UpsertPriceOverride inserts or replaces the override of one code.
func UpsertPriceOverride(ctx context.Context, db DBTX, e models.PriceGridEntry) error {
	query := `
		INSERT INTO price_overrides (code, gset_price, tech_price, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET gset_price = excluded.gset_price, tech_price = excluded.tech_price, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, e.Code, e.GsetPrice.String(), e.TechPrice.String(), time.Now().UTC())
	return err
}

func DeletePriceOverride(ctx context.Context, db DBTX, code string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM price_overrides WHERE code = ?`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
