// internal/cli/output.go
//
// 本檔負責統一終端機輸出格式：成功訊息、錯誤訊息與金額格式。
// 所有領域錯誤都在 errMessage 集中轉成使用者看得懂的文字。
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbank/internal/auth"
	"ledgerbank/internal/bank"
	"ledgerbank/internal/export"
)

const (
	wideRule   = "=================================="
	narrowRule = "----------------------------------------"
)

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(args ...any) {
	_, _ = fmt.Fprintln(s.out, args...)
}

// title 印出區塊標題與底線。
func (s *Shell) title(t string) {
	s.printf("\n%s\n%s\n", t, strings.Repeat("=", len(t)))
}

// writeErr 輸出錯誤訊息。
func (s *Shell) writeErr(err error) {
	s.printf("Error: %s\n", errMessage(err))
}

// errMessage 將領域錯誤對應到畫面文字；未知錯誤直接輸出原訊息。
func errMessage(err error) string {
	switch {
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "Insufficient funds!"
	case errors.Is(err, bank.ErrInvalidAmount):
		return "Invalid amount! Enter a positive number with at most 2 decimal places."
	case errors.Is(err, bank.ErrRecipientNotFound):
		return "Recipient account not found!"
	case errors.Is(err, bank.ErrSelfTransfer):
		return "Cannot transfer to your own account!"
	case errors.Is(err, bank.ErrWeakSecret):
		return fmt.Sprintf("Password must be at least %d characters!", bank.MinSecretLength)
	case errors.Is(err, bank.ErrDuplicateUsername):
		return "Username already exists!"
	case errors.Is(err, bank.ErrAuthenticationFailed):
		return "Incorrect password!"
	case errors.Is(err, auth.ErrBadCredentials):
		return "Invalid username or password!"
	case errors.Is(err, auth.ErrSessionTerminated):
		return "Login blocked due to multiple failed attempts!"
	case errors.Is(err, bank.ErrLockTimeout):
		return "Account is busy, please try again."
	case errors.Is(err, export.ErrNothingToExport):
		return "No transactions to export!"
	case errors.Is(err, bank.ErrPersistence):
		return "The change was applied but could not be saved to disk."
	}
	return err.Error()
}

// applied 回報操作是否已生效：nil 或僅保存失敗都算生效（後者另外警告）。
func (s *Shell) applied(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, bank.ErrPersistence) {
		s.printf("Warning: %s\n", errMessage(err))
		return true
	}
	s.writeErr(err)
	return false
}

func money(d decimal.Decimal) string {
	return d.StringFixed(bank.CurrencyPlaces)
}

// signedMoney 入帳加 +、出帳加 -，零不加符號。
func signedMoney(d decimal.Decimal) string {
	switch {
	case d.IsPositive():
		return "+" + money(d)
	case d.IsNegative():
		return "-" + money(d.Abs())
	}
	return money(d)
}

// printEntries 依序輸出交易紀錄；layout 控制時間格式。
func (s *Shell) printEntries(txs []bank.Transaction, layout string) {
	for i, tx := range txs {
		s.printf("%3d. %s\n", i+1, tx.Timestamp.Format(layout))
		s.printf("     Type: %s\n", tx.Kind)
		s.printf("     Amount: %s\n", signedMoney(tx.Amount))
		s.printf("     Description: %s\n", tx.Description)
		s.printf("     Balance: %s\n", money(tx.BalanceAfter))
		s.println(narrowRule)
	}
}
