package reporting

import (
	"context"
	"testing"
	"time"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/billing"
	"transfers-exchange/internal/wallet"

	"github.com/shopspring/decimal"
)

func seedCall(t *testing.T, repo *billing.MemoryRepo, campaignID string, dur int, billable bool, disp billing.Disposition) {
	t.Helper()
	err := repo.Insert(context.Background(), billing.CallRecord{
		ID:              campaignID + "-" + string(disp) + "-" + time.Now().String(),
		CampaignID:      campaignID,
		BuyerID:         "b1",
		DurationSeconds: dur,
		Billable:        billable,
		Disposition:     disp,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed call: %v", err)
	}
}

func TestCallsSummary(t *testing.T) {
	calls := billing.NewMemoryRepo()
	svc := NewService(calls, wallet.NewMemoryRepo())
	ctx := context.Background()

	seedCall(t, calls, "c1", 120, true, billing.DispositionCompleted)
	seedCall(t, calls, "c1", 95, true, billing.DispositionCompleted)
	seedCall(t, calls, "c1", 40, false, billing.DispositionShort)
	seedCall(t, calls, "c1", 0, false, billing.DispositionFailed)
	seedCall(t, calls, "other", 300, true, billing.DispositionCompleted)

	got, err := svc.CallsSummary(ctx, "c1")
	if err != nil {
		t.Fatalf("calls summary: %v", err)
	}
	if got.TotalCalls != 4 || got.BillableCalls != 2 || got.ShortCalls != 1 || got.FailedCalls != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.TotalDurationSeconds != 255 {
		t.Fatalf("expected 255 total seconds, got %d", got.TotalDurationSeconds)
	}
	if got.AverageDurationSeconds != 63 {
		t.Fatalf("expected 63s average, got %d", got.AverageDurationSeconds)
	}

	if _, err := svc.CallsSummary(ctx, " "); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpendSummary(t *testing.T) {
	ledger := wallet.NewMemoryRepo()
	svc := NewService(billing.NewMemoryRepo(), ledger)
	ctx := context.Background()

	entries := []wallet.Entry{
		{ID: "e1", UserID: "u1", Kind: wallet.KindCredit, Amount: decimal.NewFromInt(200), Memo: "Account funding"},
		{ID: "e2", UserID: "u1", Kind: wallet.KindDebit, Amount: decimal.NewFromInt(40), Memo: "Billable call", CampaignID: "c1", CallID: "call-1"},
		{ID: "e3", UserID: "u1", Kind: wallet.KindDebit, Amount: decimal.NewFromInt(40), Memo: "Billable call", CampaignID: "c1", CallID: "call-2"},
		{ID: "e4", UserID: "u2", Kind: wallet.KindCredit, Amount: decimal.NewFromInt(999)},
	}
	for _, e := range entries {
		if err := ledger.Append(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	got, err := svc.SpendSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("spend summary: %v", err)
	}
	if !got.TotalCredit.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected 200 credit, got %s", got.TotalCredit)
	}
	if !got.TotalDebit.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected 80 debit, got %s", got.TotalDebit)
	}
	if !got.Net.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected 120 net, got %s", got.Net)
	}
	if got.CallCharges != 2 {
		t.Fatalf("expected 2 call charges, got %d", got.CallCharges)
	}
}
