package wallet

import (
	"context"
	"strings"
	"time"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/identity"
	"transfers-exchange/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository abstracts ledger persistence.
// Implementations expose append and per-user reads only; there is no update.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
}

// UserFinder resolves user references for top-ups. Satisfied by the identity
// repositories.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (identity.User, bool, error)
}

// Service provides ledger operations.
//
// Balance strategy: recomputed from the immutable entries on every read.
// O(n) per user is acceptable at target scale; a cached counter would be a
// second source of truth that can drift.
type Service struct {
	repo  Repository
	users UserFinder
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, users UserFinder) *Service {
	return &Service{repo: repo, users: users, clock: time.Now}
}

type AppendRequest struct {
	UserID     string
	Kind       Kind
	Amount     decimal.Decimal
	Memo       string
	CampaignID string
	CallID     string
}

// Append writes one ledger entry. It enforces only the ledger's own
// invariants (amount > 0, known kind); policy minimums like the $50 top-up
// floor belong to the callers.
func (s *Service) Append(ctx context.Context, req AppendRequest) (Entry, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return Entry{}, apperr.Validationf("ledger user id is required")
	}
	if !req.Kind.Valid() {
		return Entry{}, apperr.Validationf("ledger kind must be credit or debit, got %q", req.Kind)
	}
	if !req.Amount.IsPositive() {
		return Entry{}, apperr.Validationf("ledger amount must be > 0, got %s", req.Amount)
	}

	e := Entry{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Kind:       req.Kind,
		Amount:     req.Amount,
		Memo:       req.Memo,
		CampaignID: req.CampaignID,
		CallID:     req.CallID,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	metrics.LedgerEntries.WithLabelValues(string(req.Kind)).Inc()
	return e, nil
}

// Balance returns credits minus debits for a user, rounded to 2 decimal
// places. Entries store exact input amounts; rounding happens only here.
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if strings.TrimSpace(userID) == "" {
		return decimal.Zero, apperr.Validationf("user id is required")
	}
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	bal := decimal.Zero
	for _, e := range entries {
		if e.Kind == KindCredit {
			bal = bal.Add(e.Amount)
		} else {
			bal = bal.Sub(e.Amount)
		}
	}
	return bal.Round(2), nil
}

// TopUp funds a user's wallet. Minimum top-up is $50; the user must exist.
func (s *Service) TopUp(ctx context.Context, userID string, amount decimal.Decimal) (Entry, decimal.Decimal, error) {
	if amount.LessThan(MinTopUp) {
		return Entry{}, decimal.Zero, apperr.Validationf("minimum top-up is $%s", MinTopUp)
	}
	if _, ok, err := s.users.FindByID(ctx, userID); err != nil {
		return Entry{}, decimal.Zero, err
	} else if !ok {
		return Entry{}, decimal.Zero, apperr.NotFoundf("user %s", userID)
	}

	e, err := s.Append(ctx, AppendRequest{
		UserID: userID,
		Kind:   KindCredit,
		Amount: amount,
		Memo:   "Account funding",
	})
	if err != nil {
		return Entry{}, decimal.Zero, err
	}

	bal, err := s.Balance(ctx, userID)
	if err != nil {
		return Entry{}, decimal.Zero, err
	}
	return e, bal, nil
}

// History returns a user's ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validationf("user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}
