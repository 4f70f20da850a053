package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"transfers-exchange/pkg/utils"
)

// PostgresRepo persists campaigns, acceptances and routing assignments.
//
// Assumed tables:
//
//	campaigns(id, buyer_id, vertical, price_per_call NUMERIC, daily_cap,
//	          states JSONB, time_start, time_end, transfer_number, status,
//	          created_at, updated_at)
//	seller_acceptances(id, campaign_id, seller_id, status, created_at, updated_at)
//	  UNIQUE (campaign_id, seller_id)
//	routing_assignments(id, campaign_id, seller_ids JSONB, did_number,
//	          created_at, updated_at)
//	  UNIQUE (campaign_id)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) InsertCampaign(ctx context.Context, c Campaign) error {
	states, err := json.Marshal(c.States)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO campaigns (
  id, buyer_id, vertical, price_per_call, daily_cap, states,
  time_start, time_end, transfer_number, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err = r.db.ExecContext(ctx, q,
		c.ID,
		c.BuyerID,
		c.Vertical,
		c.PricePerCall,
		c.DailyCap,
		states,
		c.TimeStart,
		c.TimeEnd,
		c.TransferNumber,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

const campaignColumns = `
id, buyer_id, vertical, price_per_call, daily_cap, states,
time_start, time_end, transfer_number, status, created_at, updated_at`

func (r *PostgresRepo) FindCampaign(ctx context.Context, id string) (Campaign, bool, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	row := r.db.QueryRowContext(ctx, q, id)

	c, err := scanCampaign(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, false, nil
		}
		return Campaign{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) ListCampaigns(ctx context.Context, f Filter, limit int) ([]Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.BuyerID != "" {
		args = append(args, f.BuyerID)
		q += ` AND buyer_id = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	q += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (bool, error) {
	const q = `UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, q, status, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) SetTransferNumber(ctx context.Context, id, number string, status Status, now time.Time) (bool, error) {
	const q = `
UPDATE campaigns
SET transfer_number = $1, status = $2, updated_at = $3
WHERE id = $4
`
	res, err := r.db.ExecContext(ctx, q, number, status, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) UpsertAcceptance(ctx context.Context, a SellerAcceptance) error {
	const q = `
INSERT INTO seller_acceptances (id, campaign_id, seller_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (campaign_id, seller_id)
DO UPDATE SET status = EXCLUDED.status,
              updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.CampaignID, a.SellerID, a.Status, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *PostgresRepo) ListAcceptances(ctx context.Context, campaignID string) ([]SellerAcceptance, error) {
	const q = `
SELECT id, campaign_id, seller_id, status, created_at, updated_at
FROM seller_acceptances
WHERE campaign_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SellerAcceptance
	for rows.Next() {
		var a SellerAcceptance
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.SellerID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AssignRouting commits the routing upsert and the campaign status change in
// one transaction, so a half-routed campaign can never be observed.
func (r *PostgresRepo) AssignRouting(ctx context.Context, ra RoutingAssignment, status Status, now time.Time) error {
	sellerIDs, err := json.Marshal(ra.SellerIDs)
	if err != nil {
		return err
	}

	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const upsert = `
INSERT INTO routing_assignments (id, campaign_id, seller_ids, did_number, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (campaign_id)
DO UPDATE SET seller_ids = EXCLUDED.seller_ids,
              did_number = EXCLUDED.did_number,
              updated_at = EXCLUDED.updated_at
`
		if _, err := tx.ExecContext(ctx, upsert, ra.ID, ra.CampaignID, sellerIDs, ra.DIDNumber, ra.CreatedAt, ra.UpdatedAt); err != nil {
			return err
		}

		const patch = `UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`
		_, err := tx.ExecContext(ctx, patch, status, now, ra.CampaignID)
		return err
	})
}

func (r *PostgresRepo) FindRouting(ctx context.Context, campaignID string) (RoutingAssignment, bool, error) {
	const q = `
SELECT id, campaign_id, seller_ids, did_number, created_at, updated_at
FROM routing_assignments
WHERE campaign_id = $1
`
	var ra RoutingAssignment
	var sellerIDs []byte
	err := r.db.QueryRowContext(ctx, q, campaignID).Scan(
		&ra.ID,
		&ra.CampaignID,
		&sellerIDs,
		&ra.DIDNumber,
		&ra.CreatedAt,
		&ra.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoutingAssignment{}, false, nil
		}
		return RoutingAssignment{}, false, err
	}
	if err := json.Unmarshal(sellerIDs, &ra.SellerIDs); err != nil {
		return RoutingAssignment{}, false, err
	}
	return ra, true, nil
}

func scanCampaign(scan func(dest ...any) error) (Campaign, error) {
	var c Campaign
	var states []byte
	if err := scan(
		&c.ID,
		&c.BuyerID,
		&c.Vertical,
		&c.PricePerCall,
		&c.DailyCap,
		&states,
		&c.TimeStart,
		&c.TimeEnd,
		&c.TransferNumber,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Campaign{}, err
	}
	if err := json.Unmarshal(states, &c.States); err != nil {
		return Campaign{}, err
	}
	return c, nil
}
