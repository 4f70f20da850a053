package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/identity"
	"transfers-exchange/internal/wallet"
	"transfers-exchange/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows campaign listings.
type Filter struct {
	Status  Status
	BuyerID string
}

// Repository abstracts campaign persistence. The store enforces no relational
// integrity; referential and business invariants live in the Lifecycle.
type Repository interface {
	InsertCampaign(ctx context.Context, c Campaign) error
	FindCampaign(ctx context.Context, id string) (Campaign, bool, error)
	ListCampaigns(ctx context.Context, f Filter, limit int) ([]Campaign, error)

	// UpdateStatus patches only the status; returns false when id is unknown.
	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (bool, error)

	// SetTransferNumber patches transfer_number and status together.
	SetTransferNumber(ctx context.Context, id, number string, status Status, now time.Time) (bool, error)

	// UpsertAcceptance keeps at most one record per (campaign, seller),
	// overwriting the prior status on resubmission.
	UpsertAcceptance(ctx context.Context, a SellerAcceptance) error
	ListAcceptances(ctx context.Context, campaignID string) ([]SellerAcceptance, error)

	// AssignRouting upserts the campaign's single routing assignment and sets
	// the campaign status in the same transaction.
	AssignRouting(ctx context.Context, ra RoutingAssignment, status Status, now time.Time) error
	FindRouting(ctx context.Context, campaignID string) (RoutingAssignment, bool, error)
}

// UserDirectory resolves user references and powers notification fan-outs.
// Satisfied by the identity repositories.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (identity.User, bool, error)
	List(ctx context.Context, role identity.Role, limit int) ([]identity.User, error)
}

// BalanceReader reads a buyer's derived wallet balance. Satisfied by
// wallet.Service; the balance is recomputed on every call, never cached.
type BalanceReader interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}

// Notifier is the append-only inbox transitions write to. Satisfied by
// notify.Sink.
type Notifier interface {
	Append(ctx context.Context, userID, message string) error
}

const fanoutLimit = 500

// Lifecycle drives the campaign state machine.
//
// Transition rule: every status change is accompanied by at least one
// notification; status changes are never silent. Writes are ordered with the
// least-reversible action last, so a failed notification leaves valid state
// behind rather than rolling anything back.
type Lifecycle struct {
	repo     Repository
	users    UserDirectory
	balances BalanceReader
	notifier Notifier
	log      *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewLifecycle(repo Repository, users UserDirectory, balances BalanceReader, notifier Notifier, log *slog.Logger) *Lifecycle {
	if log == nil {
		log = slog.Default()
	}
	return &Lifecycle{
		repo:     repo,
		users:    users,
		balances: balances,
		notifier: notifier,
		log:      log,
		clock:    time.Now,
	}
}

type CreateRequest struct {
	BuyerID      string          `json:"buyer_id"`
	Vertical     Vertical        `json:"vertical"`
	PricePerCall decimal.Decimal `json:"price_per_call"`
	DailyCap     int             `json:"daily_cap"`
	States       []string        `json:"states"`
	TimeStart    string          `json:"time_start"`
	TimeEnd      string          `json:"time_end"`
}

// Create opens a campaign in pending_acceptance and notifies every seller.
// The buyer must resolve to an existing user with role=buyer.
func (lc *Lifecycle) Create(ctx context.Context, req CreateRequest) (Campaign, error) {
	buyer, ok, err := lc.users.FindByID(ctx, req.BuyerID)
	if err != nil {
		return Campaign{}, err
	}
	if !ok || buyer.Role != identity.RoleBuyer {
		return Campaign{}, apperr.Validationf("invalid buyer %q", req.BuyerID)
	}
	if !req.Vertical.Valid() {
		return Campaign{}, apperr.Validationf("unknown vertical %q", req.Vertical)
	}
	if req.PricePerCall.LessThan(PriceFloor) {
		return Campaign{}, apperr.Validationf("minimum price per call is $%s", PriceFloor)
	}
	if req.DailyCap < 1 {
		return Campaign{}, apperr.Validationf("daily cap must be >= 1, got %d", req.DailyCap)
	}
	if len(req.States) == 0 {
		return Campaign{}, apperr.Validationf("at least one target state is required")
	}
	if strings.TrimSpace(req.TimeStart) == "" || strings.TrimSpace(req.TimeEnd) == "" {
		return Campaign{}, apperr.Validationf("time window is required")
	}

	now := lc.clock().UTC()
	c := Campaign{
		ID:           uuid.NewString(),
		BuyerID:      req.BuyerID,
		Vertical:     req.Vertical,
		PricePerCall: req.PricePerCall,
		DailyCap:     req.DailyCap,
		States:       req.States,
		TimeStart:    req.TimeStart,
		TimeEnd:      req.TimeEnd,
		Status:       StatusPendingAcceptance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := lc.repo.InsertCampaign(ctx, c); err != nil {
		return Campaign{}, err
	}
	metrics.CampaignTransitions.WithLabelValues(string(StatusPendingAcceptance)).Inc()

	// Let sellers know a new campaign is on the board.
	sellers, err := lc.users.List(ctx, identity.RoleSeller, fanoutLimit)
	if err != nil {
		lc.log.Warn("seller fan-out listing failed", "campaign_id", c.ID, "err", err)
		return c, nil
	}
	for _, s := range sellers {
		lc.notify(ctx, s.ID, fmt.Sprintf("New campaign available: %s", c.Vertical))
	}

	return c, nil
}

// Detail is a campaign with its acceptances and routing attached.
type Detail struct {
	Campaign
	Acceptances []SellerAcceptance `json:"acceptances"`
	Routing     *RoutingAssignment `json:"routing"`
}

func (lc *Lifecycle) Get(ctx context.Context, id string) (Detail, error) {
	c, ok, err := lc.repo.FindCampaign(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if !ok {
		return Detail{}, apperr.NotFoundf("campaign %s", id)
	}

	accs, err := lc.repo.ListAcceptances(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	out := Detail{Campaign: c, Acceptances: accs}

	if ra, ok, err := lc.repo.FindRouting(ctx, id); err != nil {
		return Detail{}, err
	} else if ok {
		out.Routing = &ra
	}
	return out, nil
}

// List returns campaigns, newest first. When role is buyer, userID narrows
// the listing to that buyer's campaigns.
func (lc *Lifecycle) List(ctx context.Context, role, userID string, status Status) ([]Campaign, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validationf("unknown status %q", status)
	}
	f := Filter{Status: status}
	if role == string(identity.RoleBuyer) && userID != "" {
		f.BuyerID = userID
	}
	return lc.repo.ListCampaigns(ctx, f, 100)
}

// Accept records a seller's response. The campaign status does not change,
// but the buyer is always notified, including on resubmissions.
func (lc *Lifecycle) Accept(ctx context.Context, campaignID, sellerID string, status AcceptanceStatus) error {
	c, ok, err := lc.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("campaign %s", campaignID)
	}

	seller, ok, err := lc.users.FindByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if !ok || seller.Role != identity.RoleSeller {
		return apperr.Validationf("invalid seller %q", sellerID)
	}
	if !status.Valid() {
		return apperr.Validationf("acceptance status must be accepted or rejected, got %q", status)
	}

	now := lc.clock().UTC()
	if err := lc.repo.UpsertAcceptance(ctx, SellerAcceptance{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		SellerID:   sellerID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return err
	}

	lc.notify(ctx, c.BuyerID, "A seller responded to your campaign.")
	return nil
}

// SetTransferNumber stores the buyer's destination number and hands the
// campaign to admin routing. Every admin user is notified; there is no magic
// admin id.
func (lc *Lifecycle) SetTransferNumber(ctx context.Context, campaignID, number string) error {
	if strings.TrimSpace(number) == "" {
		return apperr.Validationf("transfer number is required")
	}
	if _, ok, err := lc.repo.FindCampaign(ctx, campaignID); err != nil {
		return err
	} else if !ok {
		return apperr.NotFoundf("campaign %s", campaignID)
	}

	ok, err := lc.repo.SetTransferNumber(ctx, campaignID, number, StatusAwaitingAdmin, lc.clock().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("campaign %s", campaignID)
	}
	metrics.CampaignTransitions.WithLabelValues(string(StatusAwaitingAdmin)).Inc()

	admins, err := lc.users.List(ctx, identity.RoleAdmin, fanoutLimit)
	if err != nil {
		lc.log.Warn("admin fan-out listing failed", "campaign_id", campaignID, "err", err)
		return nil
	}
	for _, a := range admins {
		lc.notify(ctx, a.ID, fmt.Sprintf("Campaign %s ready for routing", campaignID))
	}
	return nil
}

// AssignRouting upserts the campaign's routing and activates it when the
// buyer's balance clears the $50 threshold, otherwise marks it depleted.
// Routing upsert and status change commit together. Returns the new status.
func (lc *Lifecycle) AssignRouting(ctx context.Context, campaignID string, sellerIDs []string, didNumber string) (Status, error) {
	c, ok, err := lc.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.NotFoundf("campaign %s", campaignID)
	}
	if len(sellerIDs) == 0 {
		return "", apperr.Validationf("at least one seller is required")
	}
	if strings.TrimSpace(didNumber) == "" {
		return "", apperr.Validationf("did number is required")
	}

	bal, err := lc.balances.Balance(ctx, c.BuyerID)
	if err != nil {
		return "", err
	}
	status := StatusDepleted
	if bal.GreaterThanOrEqual(wallet.LowBalanceThreshold) {
		status = StatusActive
	}

	now := lc.clock().UTC()
	if err := lc.repo.AssignRouting(ctx, RoutingAssignment{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		SellerIDs:  sellerIDs,
		DIDNumber:  didNumber,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, status, now); err != nil {
		return "", err
	}
	metrics.CampaignTransitions.WithLabelValues(string(status)).Inc()

	lc.notify(ctx, c.BuyerID, "Your campaign routing is configured.")
	for _, sid := range sellerIDs {
		lc.notify(ctx, sid, "You have been assigned to a campaign.")
	}
	return status, nil
}

// Archive is the explicit admin action that retires a campaign.
func (lc *Lifecycle) Archive(ctx context.Context, campaignID string) error {
	c, ok, err := lc.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("campaign %s", campaignID)
	}

	ok, err = lc.repo.UpdateStatus(ctx, campaignID, StatusArchived, lc.clock().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("campaign %s", campaignID)
	}
	metrics.CampaignTransitions.WithLabelValues(string(StatusArchived)).Inc()

	lc.notify(ctx, c.BuyerID, "Your campaign has been archived.")
	return nil
}

// notify appends best-effort: inbox failures are logged, never propagated,
// since the state change they describe has already committed.
func (lc *Lifecycle) notify(ctx context.Context, userID, message string) {
	if lc.notifier == nil {
		return
	}
	if err := lc.notifier.Append(ctx, userID, message); err != nil {
		lc.log.Warn("notification append failed", "user_id", userID, "err", err)
	}
}
