package billing

import (
	"context"
	"strings"
	"testing"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/campaign"
	"transfers-exchange/internal/identity"
	"transfers-exchange/internal/notify"
	"transfers-exchange/internal/wallet"

	"github.com/shopspring/decimal"
)

type fixture struct {
	svc       *Service
	campaigns *campaign.MemoryRepo
	wallet    *wallet.Service
	inbox     *notify.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := identity.NewMemoryRepo()
	if err := users.Insert(context.Background(), identity.User{
		ID: "b1", Name: "Buyer", Email: "b1@x.test", Role: identity.RoleBuyer, Active: true,
	}); err != nil {
		t.Fatalf("seed buyer: %v", err)
	}

	campaigns := campaign.NewMemoryRepo()
	w := wallet.NewService(wallet.NewMemoryRepo(), users)
	inbox := notify.NewMemoryRepo()
	return &fixture{
		svc:       NewService(NewMemoryRepo(), campaigns, w, notify.NewSink(inbox), nil, nil, nil),
		campaigns: campaigns,
		wallet:    w,
		inbox:     inbox,
	}
}

func (f *fixture) seedCampaign(t *testing.T, price string, dailyCap int) campaign.Campaign {
	t.Helper()
	p, _ := decimal.NewFromString(price)
	c := campaign.Campaign{
		ID:           "c1",
		BuyerID:      "b1",
		Vertical:     campaign.VerticalSolar,
		PricePerCall: p,
		DailyCap:     dailyCap,
		States:       []string{"FL"},
		TimeStart:    "09:00",
		TimeEnd:      "17:00",
		Status:       campaign.StatusActive,
	}
	if err := f.campaigns.InsertCampaign(context.Background(), c); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

func (f *fixture) fund(t *testing.T, amount string) {
	t.Helper()
	v, _ := decimal.NewFromString(amount)
	if _, _, err := f.wallet.TopUp(context.Background(), "b1", v); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	bal, err := f.wallet.Balance(context.Background(), "b1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func (f *fixture) lowBalanceNotices() int {
	var n int
	for _, m := range f.inbox.All() {
		if m.UserID == "b1" && strings.Contains(m.Message, "Balance low") {
			n++
		}
	}
	return n
}

func TestLogCall_UnknownCampaignIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.LogCall(context.Background(), LogCallRequest{CampaignID: "nope", DurationSeconds: 120})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		duration  int
		threshold int
		billable  bool
		disp      Disposition
	}{
		{"at threshold bills", 90, 90, true, DispositionCompleted},
		{"one second under is short", 89, 90, false, DispositionShort},
		{"zero duration fails", 0, 90, false, DispositionFailed},
		{"floor beats a low threshold", 45, 30, false, DispositionShort},
		{"floor exactly", 60, 30, true, DispositionCompleted},
		{"high threshold wins", 100, 120, false, DispositionShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			billable, disp := classify(tc.duration, tc.threshold)
			if billable != tc.billable || disp != tc.disp {
				t.Fatalf("classify(%d, %d) = (%v, %s), want (%v, %s)",
					tc.duration, tc.threshold, billable, disp, tc.billable, tc.disp)
			}
		})
	}
}

func TestLogCall_ShortCallDoesNotDebit(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "200")
	f.seedCampaign(t, "40", 100)

	res, err := f.svc.LogCall(context.Background(), LogCallRequest{
		CampaignID: "c1", DurationSeconds: 59, Threshold: 90,
	})
	if err != nil {
		t.Fatalf("log call: %v", err)
	}
	if res.Billable {
		t.Fatal("expected non-billable call")
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("balance changed on short call: %s", got)
	}

	recs, err := f.svc.ListCalls(context.Background(), Filter{CampaignID: "c1"})
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}
	if len(recs) != 1 || recs[0].Disposition != DispositionShort {
		t.Fatalf("expected one short record, got %+v", recs)
	}
}

func TestLogCall_BillableDebitsPricePerCall(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "200")
	f.seedCampaign(t, "40", 100)

	res, err := f.svc.LogCall(context.Background(), LogCallRequest{
		CampaignID: "c1", DurationSeconds: 90, Threshold: 90, SellerID: "s1",
	})
	if err != nil {
		t.Fatalf("log call: %v", err)
	}
	if !res.Billable {
		t.Fatal("expected billable call")
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected balance 160, got %s", got)
	}

	hist, err := f.wallet.History(context.Background(), "b1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	debit := hist[0]
	if debit.Kind != wallet.KindDebit || debit.Memo != "Billable call" {
		t.Fatalf("unexpected debit entry: %+v", debit)
	}
	if debit.CampaignID != "c1" || debit.CallID != res.ID {
		t.Fatalf("debit not tagged with campaign and call: %+v", debit)
	}
}

func TestLogCall_DefaultThresholdIs90(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "200")
	f.seedCampaign(t, "40", 100)

	res, err := f.svc.LogCall(context.Background(), LogCallRequest{
		CampaignID: "c1", DurationSeconds: 75,
	})
	if err != nil {
		t.Fatalf("log call: %v", err)
	}
	if res.Billable {
		t.Fatal("75s call should not bill against the default 90s threshold")
	}
}

func TestLogCall_DepletesWhenBalanceFallsUnder50(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "80")
	f.seedCampaign(t, "40", 100)
	ctx := context.Background()

	// 80 - 40 = 40 < 50: depleted after the first billable call.
	if _, err := f.svc.LogCall(ctx, LogCallRequest{CampaignID: "c1", DurationSeconds: 120}); err != nil {
		t.Fatalf("log call: %v", err)
	}

	c, _, _ := f.campaigns.FindCampaign(ctx, "c1")
	if c.Status != campaign.StatusDepleted {
		t.Fatalf("expected depleted, got %s", c.Status)
	}
	if n := f.lowBalanceNotices(); n != 1 {
		t.Fatalf("expected exactly 1 low-balance notification, got %d", n)
	}
}

func TestLogCall_ExactlyAt50StaysActive(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "90")
	f.seedCampaign(t, "40", 100)
	ctx := context.Background()

	if _, err := f.svc.LogCall(ctx, LogCallRequest{CampaignID: "c1", DurationSeconds: 120}); err != nil {
		t.Fatalf("log call: %v", err)
	}

	c, _, _ := f.campaigns.FindCampaign(ctx, "c1")
	if c.Status != campaign.StatusActive {
		t.Fatalf("balance of exactly 50 should stay active, got %s", c.Status)
	}
	if n := f.lowBalanceNotices(); n != 0 {
		t.Fatalf("expected no low-balance notification, got %d", n)
	}
}

func TestLogCall_DailyCapPausesCampaign(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "1000")
	f.seedCampaign(t, "40", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.LogCall(ctx, LogCallRequest{CampaignID: "c1", DurationSeconds: 120}); err != nil {
			t.Fatalf("log call %d: %v", i, err)
		}
	}

	c, _, _ := f.campaigns.FindCampaign(ctx, "c1")
	if c.Status != campaign.StatusPaused {
		t.Fatalf("expected paused after hitting daily cap, got %s", c.Status)
	}

	var capNotices int
	for _, m := range f.inbox.All() {
		if m.UserID == "b1" && strings.Contains(m.Message, "Daily cap reached") {
			capNotices++
		}
	}
	if capNotices != 1 {
		t.Fatalf("expected 1 daily cap notification, got %d", capNotices)
	}
}

func TestLogCall_RejectsNegativeDuration(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, "40", 100)
	_, err := f.svc.LogCall(context.Background(), LogCallRequest{CampaignID: "c1", DurationSeconds: -1})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListCalls_FiltersBySeller(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "1000")
	f.seedCampaign(t, "40", 100)
	ctx := context.Background()

	if _, err := f.svc.LogCall(ctx, LogCallRequest{CampaignID: "c1", SellerID: "s1", DurationSeconds: 120}); err != nil {
		t.Fatalf("log call: %v", err)
	}
	if _, err := f.svc.LogCall(ctx, LogCallRequest{CampaignID: "c1", SellerID: "s2", DurationSeconds: 30}); err != nil {
		t.Fatalf("log call: %v", err)
	}

	recs, err := f.svc.ListCalls(ctx, Filter{SellerID: "s2"})
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}
	if len(recs) != 1 || recs[0].SellerID != "s2" {
		t.Fatalf("expected only s2's record, got %+v", recs)
	}
}
