package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a buyer's standing offer to pay a fixed price per qualifying
// live-transfer call. Campaigns are never deleted; archival is a status.
type Campaign struct {
	ID       string   `json:"id" db:"id"`
	BuyerID  string   `json:"buyer_id" db:"buyer_id"`
	Vertical Vertical `json:"vertical" db:"vertical"`

	// PricePerCall is the bid per qualified call; floor is $35.
	PricePerCall decimal.Decimal `json:"price_per_call" db:"price_per_call"`

	// DailyCap limits billable calls per day.
	DailyCap int `json:"daily_cap" db:"daily_cap"`

	// States are target US states (2-letter).
	States []string `json:"states" db:"states"`

	// TimeStart/TimeEnd are HH:MM 24h bounds in the buyer's timezone.
	TimeStart string `json:"time_start" db:"time_start"`
	TimeEnd   string `json:"time_end" db:"time_end"`

	// TransferNumber is the buyer's destination number for live transfers.
	TransferNumber string `json:"transfer_number,omitempty" db:"transfer_number"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	// StatusDraft is defined for storage compatibility; no flow produces it.
	StatusDraft             Status = "draft"
	StatusPendingAcceptance Status = "pending_acceptance"
	StatusAwaitingAdmin     Status = "awaiting_admin"
	StatusActive            Status = "active"
	StatusPaused            Status = "paused"
	StatusDepleted          Status = "depleted"
	StatusArchived          Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingAcceptance, StatusAwaitingAdmin,
		StatusActive, StatusPaused, StatusDepleted, StatusArchived:
		return true
	default:
		return false
	}
}

type Vertical string

const (
	VerticalMortgage     Vertical = "Mortgage"
	VerticalMedicare     Vertical = "Medicare"
	VerticalACAHealth    Vertical = "ACA Health Insurance"
	VerticalFinalExpense Vertical = "Final Expense Insurance"
	VerticalDebt         Vertical = "Debt"
	VerticalSolar        Vertical = "Solar"
	VerticalBizLoans     Vertical = "Business Loans"
	VerticalHomeServices Vertical = "Home Services"
)

func (v Vertical) Valid() bool {
	switch v {
	case VerticalMortgage, VerticalMedicare, VerticalACAHealth, VerticalFinalExpense,
		VerticalDebt, VerticalSolar, VerticalBizLoans, VerticalHomeServices:
		return true
	default:
		return false
	}
}

// SellerAcceptance records a seller's response to a campaign.
// At most one live record per (campaign, seller); resubmission overwrites.
type SellerAcceptance struct {
	ID         string           `json:"id" db:"id"`
	CampaignID string           `json:"campaign_id" db:"campaign_id"`
	SellerID   string           `json:"seller_id" db:"seller_id"`
	Status     AcceptanceStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AcceptanceStatus string

const (
	AcceptanceAccepted AcceptanceStatus = "accepted"
	AcceptanceRejected AcceptanceStatus = "rejected"
)

func (s AcceptanceStatus) Valid() bool {
	return s == AcceptanceAccepted || s == AcceptanceRejected
}

// RoutingAssignment is the admin-configured mapping of a campaign to sellers
// and an inbound DID. At most one per campaign; reassignment overwrites.
type RoutingAssignment struct {
	ID         string   `json:"id" db:"id"`
	CampaignID string   `json:"campaign_id" db:"campaign_id"`
	SellerIDs  []string `json:"seller_ids" db:"seller_ids"`
	DIDNumber  string   `json:"did_number" db:"did_number"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PriceFloor is the minimum accepted price per call.
var PriceFloor = decimal.NewFromInt(35)
