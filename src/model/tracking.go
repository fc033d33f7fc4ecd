package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gset/fibertrack/backend/src/models"
)

func InsertTrackingEntries(ctx context.Context, db DBTX, batchID string, entries []models.DailyTrackingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO daily_tracking (batch_id, source, technician_id, date, status, planned, completed, ok, nok, deferred, period, source_row)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing tracking insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		_, err := stmt.ExecContext(ctx, batchID, string(e.Source), e.TechnicianID, e.Date.Format(dateLayout), e.Status,
			e.Planned, e.Completed, e.OK, e.NOK, e.Deferred, e.Period, e.SourceRow)
		if err != nil {
			return fmt.Errorf("inserting tracking entry %d (row %d): %w", i, e.SourceRow, err)
		}
	}
	return nil
}

func ListTrackingEntries(ctx context.Context, db DBTX, filter RecordFilter) ([]models.DailyTrackingEntry, error) {
	where, args := filter.where()
	rows, err := db.QueryContext(ctx, `
		SELECT id, batch_id, source, technician_id, date, status, planned, completed, ok, nok, deferred, period, source_row
		FROM daily_tracking`+where+` ORDER BY date, technician_id, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyTrackingEntry{}
	for rows.Next() {
		var e models.DailyTrackingEntry
		var source, date string
		var status sql.NullString
		var sourceRow sql.NullInt64
		if err := rows.Scan(&e.ID, &e.BatchID, &source, &e.TechnicianID, &date, &status,
			&e.Planned, &e.Completed, &e.OK, &e.NOK, &e.Deferred, &e.Period, &sourceRow); err != nil {
			return nil, err
		}
		e.Source = models.Source(source)
		e.Status = status.String
		if t, err := time.Parse(dateLayout, date); err == nil {
			e.Date = t
		}
		e.SourceRow = int(sourceRow.Int64)
		out = append(out, e)
	}
	return out, rows.Err()
}
