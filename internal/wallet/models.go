package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is an immutable, append-only ledger record. Balance is never stored:
// it is always the fold of a user's entries, so there is no counter to drift.
//
// Money invariants:
// - Amount is strictly positive; the effect on balance comes from Kind alone.
// - Entries are appended, never updated or deleted.
type Entry struct {
	ID     string          `json:"id" db:"id"`
	UserID string          `json:"user_id" db:"user_id"`
	Kind   Kind            `json:"type" db:"kind"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
	Memo   string          `json:"memo,omitempty" db:"memo"`

	// Optional references tying a debit to the campaign and call it paid for.
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`
	CallID     string `json:"call_id,omitempty" db:"call_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Kind string

const (
	KindCredit Kind = "credit" // top-up, adjustment
	KindDebit  Kind = "debit"  // billable call charge
)

func (k Kind) Valid() bool { return k == KindCredit || k == KindDebit }

// Policy amounts. Keep these stable; they are part of the marketplace contract.
var (
	// MinTopUp is the smallest accepted wallet funding amount.
	MinTopUp = decimal.NewFromInt(50)

	// LowBalanceThreshold is the balance under which campaigns cannot run.
	LowBalanceThreshold = decimal.NewFromInt(50)
)
