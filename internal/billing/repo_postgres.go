package billing

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// PostgresRepo persists call records.
//
// Assumed table (append-only):
//
//	call_records(id, campaign_id, buyer_id, seller_id, did_number, caller,
//	             called, duration_seconds, billable_threshold, billable,
//	             recording_url, disposition, created_at)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `id, campaign_id, buyer_id, seller_id, did_number, caller, called,
duration_seconds, billable_threshold, billable, recording_url, disposition, created_at`

func (r *PostgresRepo) Insert(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.CampaignID,
		rec.BuyerID,
		rec.SellerID,
		rec.DIDNumber,
		rec.Caller,
		rec.Called,
		rec.DurationSeconds,
		rec.BillableThreshold,
		rec.Billable,
		rec.RecordingURL,
		rec.Disposition,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter, limit int) ([]CallRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.CampaignID != "" {
		args = append(args, f.CampaignID)
		where = append(where, "campaign_id = $"+strconv.Itoa(len(args)))
	}
	if f.BuyerID != "" {
		args = append(args, f.BuyerID)
		where = append(where, "buyer_id = $"+strconv.Itoa(len(args)))
	}
	if f.SellerID != "" {
		args = append(args, f.SellerID)
		where = append(where, "seller_id = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + callColumns + ` FROM call_records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CampaignID,
			&rec.BuyerID,
			&rec.SellerID,
			&rec.DIDNumber,
			&rec.Caller,
			&rec.Called,
			&rec.DurationSeconds,
			&rec.BillableThreshold,
			&rec.Billable,
			&rec.RecordingURL,
			&rec.Disposition,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
