package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
)

const batchColumns = `id, filename, format, source, period, content_hash, total_records, skipped_records, total_amount, total_tech, created_at`

func InsertBatch(ctx context.Context, db DBTX, b models.ImportBatch) error {
	query := `
		INSERT INTO import_batches (` + batchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		b.ID, b.Filename, string(b.Format), string(b.Source), b.Period, b.ContentHash,
		b.TotalRecords, b.SkippedRecords, b.TotalAmount.String(), b.TotalTech.String(), b.CreatedAt.UTC())
	return err
}

func GetBatch(ctx context.Context, db DBTX, id string) (*models.ImportBatch, error) {
	row := db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE id = ?`, id)
	return scanBatch(row)
}

// GetBatchByHash finds the batch imported from identical file content, if any.
func GetBatchByHash(ctx context.Context, db DBTX, hash string) (*models.ImportBatch, error) {
	row := db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE content_hash = ?`, hash)
	return scanBatch(row)
}

// ListBatches returns every batch, newest first.
func ListBatches(ctx context.Context, db DBTX) ([]models.ImportBatch, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+batchColumns+` FROM import_batches ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []models.ImportBatch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

// DeleteBatch removes a batch and every record imported with it.
func DeleteBatch(ctx context.Context, db DBTX, id string) error {
	for _, table := range []string{"interventions", "daily_tracking", "rejections"} {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE batch_id = ?", table), id); err != nil {
			return fmt.Errorf("deleting %s of batch %s: %w", table, id, err)
		}
	}
	res, err := db.ExecContext(ctx, `DELETE FROM import_batches WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row rowScanner) (*models.ImportBatch, error) {
	var b models.ImportBatch
	var format, source, total, tech string
	var createdAt time.Time
	err := row.Scan(&b.ID, &b.Filename, &format, &source, &b.Period, &b.ContentHash,
		&b.TotalRecords, &b.SkippedRecords, &total, &tech, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Format = models.FormatTag(format)
	b.Source = models.Source(source)
	b.TotalAmount = parseDecimal(total)
	b.TotalTech = parseDecimal(tech)
	b.CreatedAt = createdAt
	return &b, nil
}
