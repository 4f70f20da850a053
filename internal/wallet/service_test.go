package wallet

import (
	"context"
	"testing"

	"transfers-exchange/internal/apperr"
	"transfers-exchange/internal/identity"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) (*Service, *identity.MemoryRepo) {
	t.Helper()
	users := identity.NewMemoryRepo()
	return NewService(NewMemoryRepo(), users), users
}

func seedUser(t *testing.T, users *identity.MemoryRepo, id string, role identity.Role) {
	t.Helper()
	if err := users.Insert(context.Background(), identity.User{ID: id, Name: "u", Email: id + "@x.test", Role: role, Active: true}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAppend_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Append(context.Background(), AppendRequest{UserID: "u1", Kind: KindCredit, Amount: decimal.Zero})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Append(context.Background(), AppendRequest{UserID: "u1", Kind: KindDebit, Amount: d("-5")})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAppend_RejectsUnknownKind(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Append(context.Background(), AppendRequest{UserID: "u1", Kind: Kind("hold"), Amount: d("10")})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBalance_IsCreditsMinusDebitsRounded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appends := []AppendRequest{
		{UserID: "u1", Kind: KindCredit, Amount: d("100.005")},
		{UserID: "u1", Kind: KindDebit, Amount: d("35")},
		{UserID: "u1", Kind: KindDebit, Amount: d("0.01")},
		{UserID: "u2", Kind: KindCredit, Amount: d("500")},
	}
	for _, a := range appends {
		if _, err := svc.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	bal, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// 100.005 - 35 - 0.01 = 64.995 -> 65.00 after rounding; exact amounts stay
	// in the ledger, only the derived balance is rounded.
	if !bal.Equal(d("65")) {
		t.Fatalf("expected 65, got %s", bal)
	}

	bal2, err := svc.Balance(ctx, "u2")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal2.Equal(d("500")) {
		t.Fatalf("expected 500, got %s", bal2)
	}
}

func TestBalance_EmptyLedgerIsZero(t *testing.T) {
	svc, _ := newTestService(t)
	bal, err := svc.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.IsZero() {
		t.Fatalf("expected 0, got %s", bal)
	}
}

func TestTopUp_RejectsBelowMinimum(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "b1", identity.RoleBuyer)

	_, _, err := svc.TopUp(context.Background(), "b1", d("49.99"))
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTopUp_UnknownUserIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.TopUp(context.Background(), "ghost", d("50"))
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTopUp_IncreasesBalanceByExactAmount(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "b1", identity.RoleBuyer)
	ctx := context.Background()

	e, bal, err := svc.TopUp(ctx, "b1", d("50"))
	if err != nil {
		t.Fatalf("topup: %v", err)
	}
	if e.Kind != KindCredit || !e.Amount.Equal(d("50")) {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Memo != "Account funding" {
		t.Fatalf("unexpected memo: %q", e.Memo)
	}
	if !bal.Equal(d("50")) {
		t.Fatalf("expected balance 50, got %s", bal)
	}

	_, bal, err = svc.TopUp(ctx, "b1", d("120.25"))
	if err != nil {
		t.Fatalf("topup: %v", err)
	}
	if !bal.Equal(d("170.25")) {
		t.Fatalf("expected balance 170.25, got %s", bal)
	}
}
