package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gset/fibertrack/backend/src/models"
)

// RecordFilter narrows the records read back for reporting. Empty fields match everything.
type RecordFilter struct {
	BatchID string
	Source  models.Source
	Period  string
}

func (f RecordFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.BatchID != "" {
		clauses = append(clauses, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.Period != "" {
		clauses = append(clauses, "period = ?")
		args = append(args, f.Period)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// InsertInterventions writes all records of one batch with a single prepared statement.
func InsertInterventions(ctx context.Context, db DBTX, batchID string, records []models.CanonicalIntervention) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO interventions (batch_id, source, technician_id, billing_code, reference_id, agency,
			amount_gset, amount_tech, intervention_date, week_number, month, year, period, price_fallback, source_row)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing intervention insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx, batchID, string(r.Source), r.TechnicianID, r.BillingCode, r.ReferenceID, r.Agency,
			r.AmountGset.String(), r.AmountTech.String(), nullDate(r.InterventionDate),
			nullInt(r.WeekNumber), nullInt(r.Month), nullInt(r.Year), r.Period, r.PriceFallback, r.SourceRow)
		if err != nil {
			return fmt.Errorf("inserting intervention %d (row %d): %w", i, r.SourceRow, err)
		}
	}
	return nil
}

func ListInterventions(ctx context.Context, db DBTX, filter RecordFilter) ([]models.CanonicalIntervention, error) {
	where, args := filter.where()
	rows, err := db.QueryContext(ctx, `
		SELECT id, batch_id, source, technician_id, billing_code, reference_id, agency, amount_gset, amount_tech,
			intervention_date, week_number, month, year, period, price_fallback, source_row
		FROM interventions`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CanonicalIntervention{}
	for rows.Next() {
		var r models.CanonicalIntervention
		var source, gset, tech string
		var billing, ref, agency sql.NullString
		var date sql.NullString
		var week, month, year, sourceRow sql.NullInt64
		if err := rows.Scan(&r.ID, &r.BatchID, &source, &r.TechnicianID, &billing, &ref, &agency, &gset, &tech,
			&date, &week, &month, &year, &r.Period, &r.PriceFallback, &sourceRow); err != nil {
			return nil, err
		}
		r.Source = models.Source(source)
		r.BillingCode = billing.String
		r.ReferenceID = ref.String
		r.Agency = agency.String
		r.AmountGset = parseDecimal(gset)
		r.AmountTech = parseDecimal(tech)
		r.InterventionDate = scanDate(date)
		r.WeekNumber = scanInt(week)
		r.Month = scanInt(month)
		r.Year = scanInt(year)
		r.SourceRow = int(sourceRow.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}
