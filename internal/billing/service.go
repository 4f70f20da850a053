package billing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/campaign"
	"transfers-exchange/internal/wallet"
	"transfers-exchange/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows call listings.
type Filter struct {
	CampaignID string
	BuyerID    string
	SellerID   string
}

// Repository abstracts call record persistence. Records are append-only.
type Repository interface {
	Insert(ctx context.Context, r CallRecord) error
	List(ctx context.Context, f Filter, limit int) ([]CallRecord, error)
}

// CampaignStore is the slice of campaign persistence billing needs.
// Satisfied by the campaign repositories.
type CampaignStore interface {
	FindCampaign(ctx context.Context, id string) (campaign.Campaign, bool, error)
	UpdateStatus(ctx context.Context, id string, status campaign.Status, now time.Time) (bool, error)
}

// Ledger is the wallet surface billing debits against. Satisfied by
// wallet.Service.
type Ledger interface {
	Append(ctx context.Context, req wallet.AppendRequest) (wallet.Entry, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}

// Notifier is satisfied by notify.Sink.
type Notifier interface {
	Append(ctx context.Context, userID, message string) error
}

// Service logs calls and bills buyers.
//
// Billing order for a billable call: record first, then debit, then status
// re-evaluation, then notifications. The call happened whether or not the
// debit lands, so the record is never held hostage to the charge.
type Service struct {
	repo      Repository
	campaigns CampaignStore
	ledger    Ledger
	notifier  Notifier
	locker    BuyerLocker
	caps      CapCounter
	log       *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, campaigns CampaignStore, ledger Ledger, notifier Notifier, locker BuyerLocker, caps CapCounter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if locker == nil || caps == nil {
		mem := NewMemoryLimiter()
		if locker == nil {
			locker = mem
		}
		if caps == nil {
			caps = mem
		}
	}
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		ledger:    ledger,
		notifier:  notifier,
		locker:    locker,
		caps:      caps,
		log:       log,
		clock:     time.Now,
	}
}

type LogCallRequest struct {
	CampaignID      string `json:"campaign_id"`
	SellerID        string `json:"seller_id"`
	DIDNumber       string `json:"did_number"`
	Caller          string `json:"caller"`
	Called          string `json:"called"`
	DurationSeconds int    `json:"duration_seconds"`
	RecordingURL    string `json:"recording_url"`
	// Threshold defaults to 90 seconds when omitted.
	Threshold int `json:"threshold"`
}

// LogResult is what carriers get back for a logged call.
type LogResult struct {
	ID       string `json:"id"`
	Billable bool   `json:"billable"`
}

// LogCall records a call and, when billable, debits the campaign's current
// price_per_call from the buyer's wallet. A post-debit balance under $50
// marks the campaign depleted; hitting the daily cap pauses an active one.
func (s *Service) LogCall(ctx context.Context, req LogCallRequest) (LogResult, error) {
	if strings.TrimSpace(req.CampaignID) == "" {
		return LogResult{}, apperr.Validationf("campaign id is required")
	}
	if req.DurationSeconds < 0 {
		return LogResult{}, apperr.Validationf("duration must be >= 0, got %d", req.DurationSeconds)
	}
	if req.Threshold < 0 {
		return LogResult{}, apperr.Validationf("threshold must be >= 0, got %d", req.Threshold)
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	c, ok, err := s.campaigns.FindCampaign(ctx, req.CampaignID)
	if err != nil {
		return LogResult{}, err
	}
	if !ok {
		return LogResult{}, apperr.NotFoundf("campaign %s", req.CampaignID)
	}

	// One buyer's billable calls settle one at a time, so the balance each
	// debit re-evaluates is never mid-flight.
	release, err := s.locker.Lock(ctx, c.BuyerID)
	if err != nil {
		return LogResult{}, err
	}
	defer release()

	billable, disposition := classify(req.DurationSeconds, threshold)
	now := s.clock().UTC()
	rec := CallRecord{
		ID:                uuid.NewString(),
		CampaignID:        c.ID,
		BuyerID:           c.BuyerID,
		SellerID:          req.SellerID,
		DIDNumber:         req.DIDNumber,
		Caller:            req.Caller,
		Called:            req.Called,
		DurationSeconds:   req.DurationSeconds,
		BillableThreshold: threshold,
		Billable:          billable,
		RecordingURL:      req.RecordingURL,
		Disposition:       disposition,
		CreatedAt:         now,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return LogResult{}, err
	}
	metrics.CallsLogged.WithLabelValues(string(disposition)).Inc()

	if !billable {
		return LogResult{ID: rec.ID, Billable: false}, nil
	}

	if _, err := s.ledger.Append(ctx, wallet.AppendRequest{
		UserID:     c.BuyerID,
		Kind:       wallet.KindDebit,
		Amount:     c.PricePerCall,
		Memo:       "Billable call",
		CampaignID: c.ID,
		CallID:     rec.ID,
	}); err != nil {
		return LogResult{}, err
	}

	status, err := s.reEvaluate(ctx, c, now)
	if err != nil {
		return LogResult{}, err
	}
	s.enforceDailyCap(ctx, c, status, now)

	return LogResult{ID: rec.ID, Billable: true}, nil
}

// reEvaluate recomputes the buyer's balance after a debit and marks the
// campaign depleted when it falls under the low-balance threshold. Returns
// the campaign's status after evaluation.
func (s *Service) reEvaluate(ctx context.Context, c campaign.Campaign, now time.Time) (campaign.Status, error) {
	bal, err := s.ledger.Balance(ctx, c.BuyerID)
	if err != nil {
		return "", err
	}
	if bal.GreaterThanOrEqual(wallet.LowBalanceThreshold) {
		return c.Status, nil
	}

	if _, err := s.campaigns.UpdateStatus(ctx, c.ID, campaign.StatusDepleted, now); err != nil {
		return "", err
	}
	metrics.CampaignTransitions.WithLabelValues(string(campaign.StatusDepleted)).Inc()
	s.notify(ctx, c.BuyerID, "Balance low: campaign paused. Please add funds.")
	return campaign.StatusDepleted, nil
}

// enforceDailyCap counts the billable call and pauses an active campaign
// once the cap is reached. Counter failures degrade to no enforcement.
func (s *Service) enforceDailyCap(ctx context.Context, c campaign.Campaign, status campaign.Status, now time.Time) {
	if c.DailyCap < 1 {
		return
	}
	count, err := s.caps.Incr(ctx, c.ID, now)
	if err != nil {
		s.log.Warn("daily cap counter failed", "campaign_id", c.ID, "err", err)
		return
	}
	if count < int64(c.DailyCap) || status != campaign.StatusActive {
		return
	}

	if _, err := s.campaigns.UpdateStatus(ctx, c.ID, campaign.StatusPaused, now); err != nil {
		s.log.Warn("daily cap pause failed", "campaign_id", c.ID, "err", err)
		return
	}
	metrics.CampaignTransitions.WithLabelValues(string(campaign.StatusPaused)).Inc()
	s.notify(ctx, c.BuyerID, "Daily cap reached: campaign paused for today.")
}

// ListCalls returns call records, newest first.
func (s *Service) ListCalls(ctx context.Context, f Filter) ([]CallRecord, error) {
	return s.repo.List(ctx, f, 100)
}

func (s *Service) notify(ctx context.Context, userID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Append(ctx, userID, message); err != nil {
		s.log.Warn("notification append failed", "user_id", userID, "err", err)
	}
}
