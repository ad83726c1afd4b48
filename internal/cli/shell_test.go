// internal/cli/shell_test.go
//
// 以腳本化的 stdin 驅動整個 Shell，驗證選單流程、錯誤訊息與 bank 狀態。
package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ledgerbank/internal/bank"
)

// script 將多行輸入串成一份 stdin 內容。
func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func runShell(t *testing.T, b *bank.Bank, dir, input string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(b, strings.NewReader(input), &out, Options{
		ExportDir: dir,
		Now:       func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run err=%v\noutput:\n%s", err, out.String())
	}
	return out.String()
}

func newBank() *bank.Bank {
	return bank.NewBank(bank.Options{BcryptCost: bcrypt.MinCost})
}

func balanceOf(t *testing.T, b *bank.Bank, username string) decimal.Decimal {
	t.Helper()
	a, err := b.Account(context.Background(), username)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance
}

func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q\noutput:\n%s", w, out)
		}
	}
}

// TestShellEndToEnd 走完開戶、登入、存提款、轉帳、查詢、摘要、匯出與登出。
func TestShellEndToEnd(t *testing.T) {
	b := newBank()
	dir := t.TempDir()
	out := runShell(t, b, dir, script(
		"2", "alice", "Alice", "abcdef", "abcdef",
		"2", "bob", "Bob", "bobpass", "bobpass",
		"1", "alice", "abcdef",
		"3", "100",
		"2", "30",
		"4", "ACC000002", "20", "rent", "y",
		"1",
		"5",
		"7",
		"8",
		"0", "y",
		"3", "y",
	))

	mustContain(t, out,
		"Account Number: ACC000001",
		"Account Number: ACC000002",
		"Welcome back, Alice!",
		"Deposit successful!",
		"Withdrawal successful!",
		"Transfer successful!",
		"To: Bob",
		"Current Balance: 50.00",
		"MINI STATEMENT",
		"Description: Transfer to Bob (ACC000002) - rent",
		"Total Deposits: 100.00",
		"Total Withdrawals: 50.00",
		"Transactions exported successfully!",
		"Goodbye, Alice!",
		"Thank you for using LedgerBank.",
	)

	if got := balanceOf(t, b, "alice"); !got.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("alice=%s want 50", got)
	}
	if got := balanceOf(t, b, "bob"); !got.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("bob=%s want 20", got)
	}
	if _, err := os.Stat(dir + "/ACC000001_transactions_20250506_070809.csv"); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
}

// TestShellLoginTerminatesAfterThreeFailures 驗證連續三次失敗後結束登入流程。
func TestShellLoginTerminatesAfterThreeFailures(t *testing.T) {
	b := newBank()
	if _, err := b.CreateAccount(context.Background(), "alice", "Alice", "abcdef"); err != nil {
		t.Fatal(err)
	}
	out := runShell(t, b, t.TempDir(), script(
		"1",
		"alice", "wrong1",
		"nobody", "abcdef",
		"alice", "wrong3",
	))
	mustContain(t, out,
		"Invalid username or password! 2 attempts remaining.",
		"Invalid username or password! 1 attempts remaining.",
		"Login blocked due to multiple failed attempts!",
	)
	if strings.Contains(out, "Welcome back") {
		t.Fatal("terminated session must not log in")
	}
}

// TestShellRejections 驗證各種錯誤輸入只顯示訊息且不改動狀態。
func TestShellRejections(t *testing.T) {
	ctx := context.Background()
	b := newBank()
	for _, u := range []string{"alice", "bob"} {
		if _, err := b.CreateAccount(ctx, u, strings.ToUpper(u), "abcdef"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := b.Deposit(ctx, "alice", decimal.RequireFromString("50"), ""); err != nil {
		t.Fatal(err)
	}

	out := runShell(t, b, t.TempDir(), script(
		"1", "alice", "abcdef",
		"2", "1000",
		"3", "abc",
		"3", "0.001",
		"4", "ACC000001",
		"4", "ACC999999",
		"4", "ACC000002", "10", "", "n",
		"42",
		"8",
	))
	mustContain(t, out,
		"Error: Insufficient funds!",
		"Error: Invalid amount!",
		"Error: Cannot transfer to your own account!",
		"Error: Recipient account not found!",
		"Transfer cancelled.",
		"Error: Invalid choice!",
	)
	if got := balanceOf(t, b, "alice"); !got.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("alice=%s want 50", got)
	}
	if got := balanceOf(t, b, "bob"); !got.IsZero() {
		t.Fatalf("bob=%s want 0", got)
	}
}

// TestShellCreateAccountValidation 驗證空白或重複的名稱、短密碼與確認不一致時會重新詢問，
// 且已選定的使用者名稱不會因姓名空白而遺失。
func TestShellCreateAccountValidation(t *testing.T) {
	b := newBank()
	if _, err := b.CreateAccount(context.Background(), "alice", "Alice", "abcdef"); err != nil {
		t.Fatal(err)
	}
	out := runShell(t, b, t.TempDir(), script(
		"2", "", "alice", "carol", "", "Carol",
		"short",
		"longenough", "different",
		"longenough", "longenough",
	))
	mustContain(t, out,
		"Error: Username cannot be empty!",
		"Error: Username already exists!",
		"Error: Name cannot be empty!",
		"Error: Password must be at least 6 characters!",
		"Error: Passwords don't match!",
		"Account Number: ACC000002",
	)
	if !b.Verify("carol", "longenough") {
		t.Fatal("carol should be able to log in")
	}
	a, err := b.Account(context.Background(), "carol")
	if err != nil || a.FullName != "Carol" {
		t.Fatalf("carol=%+v err=%v", a, err)
	}
}

// TestShellChangePassword 驗證變更密碼後只能以新密碼登入。
func TestShellChangePassword(t *testing.T) {
	b := newBank()
	if _, err := b.CreateAccount(context.Background(), "alice", "Alice", "abcdef"); err != nil {
		t.Fatal(err)
	}
	out := runShell(t, b, t.TempDir(), script(
		"1", "alice", "abcdef",
		"9", "nope!!",
		"9", "abcdef", "newsecret", "newsecret",
		"0", "y",
		"1", "alice", "newsecret",
	))
	mustContain(t, out,
		"Error: Incorrect password!",
		"Password changed successfully!",
	)
	if strings.Count(out, "Welcome back, Alice!") != 2 {
		t.Fatalf("expected two successful logins\n%s", out)
	}
	if b.Verify("alice", "abcdef") {
		t.Fatal("old password should no longer verify")
	}
}

// TestShellExportEmptyHistory 驗證無紀錄時不產生檔案。
func TestShellExportEmptyHistory(t *testing.T) {
	b := newBank()
	if _, err := b.CreateAccount(context.Background(), "alice", "Alice", "abcdef"); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	out := runShell(t, b, dir, script("1", "alice", "abcdef", "8", "6"))
	mustContain(t, out, "Error: No transactions to export!", "No transactions yet.")
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("unexpected files: %d", len(entries))
	}
}

func TestShellStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := New(newBank(), strings.NewReader("1\n"), &out, Options{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
