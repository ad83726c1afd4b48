// internal/bank/report_test.go
package bank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func TestStatement(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBank(t)
	open(t, b, "alice", "Alice")
	for i := 1; i <= 12; i++ {
		if _, err := b.Deposit(ctx, "alice", d("1"), ""); err != nil {
			t.Fatal(err)
		}
	}

	mini, err := b.Statement(ctx, "alice", MiniStatementSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(mini) != MiniStatementSize {
		t.Fatalf("mini len=%d want %d", len(mini), MiniStatementSize)
	}
	// 新到舊
	if !mini[0].BalanceAfter.Equal(d("12")) || !mini[9].BalanceAfter.Equal(d("3")) {
		t.Fatalf("mini order wrong: first=%s last=%s", mini[0].BalanceAfter, mini[9].BalanceAfter)
	}

	full, err := b.Statement(ctx, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 12 || !full[0].BalanceAfter.Equal(d("1")) {
		t.Fatalf("full statement unexpected: len=%d", len(full))
	}

	if _, err := b.Statement(ctx, "ghost", 0); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	b := NewBank(Options{BcryptCost: bcrypt.MinCost, Now: func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}})
	open(t, b, "alice", "Alice")
	bob := open(t, b, "bob", "Bob")

	empty, err := b.Summary(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Transactions != 0 || !empty.LastActivity.IsZero() || !empty.TotalIn.IsZero() {
		t.Fatalf("empty summary unexpected: %+v", empty)
	}

	_, _ = b.Deposit(ctx, "alice", d("100"), "")
	_, _ = b.Withdraw(ctx, "alice", d("30"), "")
	_, _ = b.Transfer(ctx, "alice", bob.AccountNumber, d("20"), "")
	_, _ = b.Transfer(ctx, "bob", "ACC000001", d("5.50"), "")
	_, _ = b.BalanceInquiry(ctx, "alice")

	s, err := b.Summary(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if s.Transactions != 5 || !s.Balance.Equal(d("55.50")) {
		t.Fatalf("summary=%+v", s)
	}
	if !s.TotalIn.Equal(d("105.50")) || !s.TotalOut.Equal(d("50")) {
		t.Fatalf("in=%s out=%s want 105.50/50", s.TotalIn, s.TotalOut)
	}
	if !s.LastActivity.Equal(clock) {
		t.Fatalf("last activity=%s want %s", s.LastActivity, clock)
	}
	if s.AccountNumber != "ACC000001" || s.FullName != "Alice" || s.CreatedAt.IsZero() {
		t.Fatalf("identity fields wrong: %+v", s)
	}
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBank(t)
	open(t, b, "alice", "Alice")
	bob := open(t, b, "bob", "Bob")
	_, _ = b.Deposit(ctx, "alice", d("10"), "")
	_, _ = b.Transfer(ctx, "alice", bob.AccountNumber, d("4"), "")

	if v := b.Audit(); len(v) != 0 {
		t.Fatalf("clean ledger reported %+v", v)
	}

	// 直接破壞內部狀態，模擬資料損毀
	e := b.ledger.accounts["bob"]
	e.acct.Balance = d("3")
	e.acct.History[0].Amount = d("3")
	e.acct.History[0].BalanceAfter = d("3")

	v := b.Audit()
	if len(v) != 2 {
		t.Fatalf("violations=%+v want both transfer legs", v)
	}
	var mismatch *TransferMismatchError
	if v[0].Username != "alice" || !errors.As(v[0].Err, &mismatch) {
		t.Fatalf("first violation=%+v", v[0])
	}
	if mismatch.Reference == "" {
		t.Fatal("mismatch should carry the reference")
	}

	e.acct.Balance = d("99")
	v = b.Audit()
	if len(v) != 3 {
		t.Fatalf("violations=%+v want replay failure plus both legs", v)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{"100", "100", false},
		{" 12.50 ", "12.5", false},
		{"0.01", "0.01", false},
		{"0", "", true},
		{"-3", "", true},
		{"1.005", "", true},
		{"abc", "", true},
		{"1e-900000000", "", true},
		{"1e900000000", "", true},
		{"1234567890123456789012345678901234567890", "", true},
		{"1e3", "1000", false},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if c.err {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("ParseAmount(%q): want ErrInvalidAmount, got %v", c.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(d(c.want)) {
			t.Fatalf("ParseAmount(%q)=%s,%v want %s", c.in, got, err, c.want)
		}
	}
}

// TestExtremeExponentRejected 驗證極端指數的金額在換算前即被拒收。
func TestExtremeExponentRejected(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBank(t)
	open(t, b, "alice", "Alice")

	for _, amt := range []decimal.Decimal{decimal.New(1, -900000000), decimal.New(1, 900000000)} {
		if _, err := b.Deposit(ctx, "alice", amt, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit exp=%d: want ErrInvalidAmount, got %v", amt.Exponent(), err)
		}
	}
	if a := get(t, b, "alice"); len(a.History) != 0 {
		t.Fatal("rejected deposits must not be recorded")
	}
}

func TestReconcile(t *testing.T) {
	now := time.Now()
	a := Account{
		Balance: d("7"),
		History: []Transaction{
			{Timestamp: now, Kind: KindDeposit, Amount: d("10"), BalanceAfter: d("10")},
			{Timestamp: now, Kind: KindWithdrawal, Amount: d("-3"), BalanceAfter: d("7")},
			{Timestamp: now, Kind: KindBalanceInquiry, Amount: d("0"), BalanceAfter: d("7")},
		},
	}
	if err := a.Reconcile(); err != nil {
		t.Fatalf("valid history: %v", err)
	}

	bad := a.clone()
	bad.History[1].Kind = KindDeposit
	if bad.Reconcile() == nil {
		t.Fatal("deposit with negative amount should fail")
	}
	bad = a.clone()
	bad.History[2].BalanceAfter = d("8")
	if bad.Reconcile() == nil {
		t.Fatal("wrong balance_after should fail")
	}
	bad = a.clone()
	bad.Balance = d("6")
	if bad.Reconcile() == nil {
		t.Fatal("wrong balance should fail")
	}
}
