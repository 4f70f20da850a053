package reporting

import (
	"context"
	"strings"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/billing"
	"transfers-exchange/internal/wallet"

	"github.com/shopspring/decimal"
)

// CallSource reads immutable call records. Satisfied by the billing
// repositories.
type CallSource interface {
	List(ctx context.Context, f billing.Filter, limit int) ([]billing.CallRecord, error)
}

// LedgerSource reads immutable wallet entries. Satisfied by the wallet
// repositories.
type LedgerSource interface {
	ListByUser(ctx context.Context, userID string) ([]wallet.Entry, error)
}

// CallsSummary aggregates one campaign's call traffic.
type CallsSummary struct {
	CampaignID string `json:"campaign_id"`

	TotalCalls    int `json:"total_calls"`
	BillableCalls int `json:"billable_calls"`
	ShortCalls    int `json:"short_calls"`
	FailedCalls   int `json:"failed_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

// SpendSummary aggregates one user's ledger activity.
type SpendSummary struct {
	UserID string `json:"user_id"`

	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Net         decimal.Decimal `json:"net"`

	CallCharges int `json:"call_charges"`
}

const sourceLimit = 10000

// Service derives summaries on demand from the append-only call and ledger
// records. Nothing is precomputed; the sources are the single truth.
type Service struct {
	calls  CallSource
	ledger LedgerSource
}

func NewService(calls CallSource, ledger LedgerSource) *Service {
	return &Service{calls: calls, ledger: ledger}
}

func (s *Service) CallsSummary(ctx context.Context, campaignID string) (CallsSummary, error) {
	if strings.TrimSpace(campaignID) == "" {
		return CallsSummary{}, apperr.Validationf("campaign id is required")
	}
	recs, err := s.calls.List(ctx, billing.Filter{CampaignID: campaignID}, sourceLimit)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{CampaignID: campaignID}
	for _, r := range recs {
		out.TotalCalls++
		out.TotalDurationSeconds += r.DurationSeconds
		if r.Billable {
			out.BillableCalls++
		}
		switch r.Disposition {
		case billing.DispositionShort:
			out.ShortCalls++
		case billing.DispositionFailed:
			out.FailedCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) SpendSummary(ctx context.Context, userID string) (SpendSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return SpendSummary{}, apperr.Validationf("user id is required")
	}
	entries, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return SpendSummary{}, err
	}

	out := SpendSummary{
		UserID:      userID,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}
	for _, e := range entries {
		switch e.Kind {
		case wallet.KindCredit:
			out.TotalCredit = out.TotalCredit.Add(e.Amount)
		case wallet.KindDebit:
			out.TotalDebit = out.TotalDebit.Add(e.Amount)
			if e.CallID != "" {
				out.CallCharges++
			}
		}
	}
	out.TotalCredit = out.TotalCredit.Round(2)
	out.TotalDebit = out.TotalDebit.Round(2)
	out.Net = out.TotalCredit.Sub(out.TotalDebit).Round(2)
	return out, nil
}
