package wallet

import (
	"context"
	"database/sql"
)

// PostgresRepo persists ledger entries.
//
// Assumed table (append-only; no UPDATE or DELETE is ever issued):
//
//	wallet_ledger(id, user_id, kind, amount NUMERIC, memo, campaign_id, call_id, created_at)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO wallet_ledger (id, user_id, kind, amount, memo, campaign_id, call_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		e.Kind,
		e.Amount,
		e.Memo,
		e.CampaignID,
		e.CallID,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	const q = `
SELECT id, user_id, kind, amount, memo, campaign_id, call_id, created_at
FROM wallet_ledger
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Amount, &e.Memo, &e.CampaignID, &e.CallID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
