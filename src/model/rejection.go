package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gset/fibertrack/backend/src/models"
)

func InsertRejections(ctx context.Context, db DBTX, batchID string, records []models.RejectionRecord) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO rejections (batch_id, source, technician_id, reference_id, billing_code, reason, rejected_at, status, period, source_row)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing rejection insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx, batchID, string(r.Source), r.TechnicianID, r.ReferenceID, r.BillingCode,
			r.Reason, nullDate(r.RejectedAt), string(r.Status), r.Period, r.SourceRow)
		if err != nil {
			return fmt.Errorf("inserting rejection %d (row %d): %w", i, r.SourceRow, err)
		}
	}
	return nil
}

func ListRejections(ctx context.Context, db DBTX, filter RecordFilter) ([]models.RejectionRecord, error) {
	where, args := filter.where()
	rows, err := db.QueryContext(ctx, `
		SELECT id, batch_id, source, technician_id, reference_id, billing_code, reason, rejected_at, status, period, source_row
		FROM rejections`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RejectionRecord{}
	for rows.Next() {
		var r models.RejectionRecord
		var source, status string
		var tech, ref, code, reason, rejectedAt sql.NullString
		var sourceRow sql.NullInt64
		if err := rows.Scan(&r.ID, &r.BatchID, &source, &tech, &ref, &code, &reason, &rejectedAt,
			&status, &r.Period, &sourceRow); err != nil {
			return nil, err
		}
		r.Source = models.Source(source)
		r.TechnicianID = tech.String
		r.ReferenceID = ref.String
		r.BillingCode = code.String
		r.Reason = reason.String
		r.RejectedAt = scanDate(rejectedAt)
		r.Status = models.RejectionStatus(status)
		r.SourceRow = int(sourceRow.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRejectionStatus records the review outcome of a rejected intervention.
func UpdateRejectionStatus(ctx context.Context, db DBTX, id int64, status models.RejectionStatus) error {
	res, err := db.ExecContext(ctx, `UPDATE rejections SET status = ? WHERE id = ?`, string(status), id)
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
