// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 與 Transaction 結構，不含任何 I/O 或儲存細節。

package bank

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 為交易種類，是封閉列舉。
type Kind string

const (
	KindDeposit        Kind = "DEPOSIT"
	KindWithdrawal     Kind = "WITHDRAWAL"
	KindTransferIn     Kind = "TRANSFER_IN"
	KindTransferOut    Kind = "TRANSFER_OUT"
	KindBalanceInquiry Kind = "BALANCE_INQUIRY"
)

// Valid 回報 k 是否為已知種類。
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferIn, KindTransferOut, KindBalanceInquiry:
		return true
	}
	return false
}

// ParseKind 將字串轉為 Kind；未知值回傳錯誤。
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// Inflow 回報此種類是否為入帳（存款、轉入）。
func (k Kind) Inflow() bool { return k == KindDeposit || k == KindTransferIn }

// Outflow 回報此種類是否為出帳（提款、轉出）。
func (k Kind) Outflow() bool { return k == KindWithdrawal || k == KindTransferOut }

// Account represents a bank account. 憑證摘要由 auth.Store 保管，不在此結構中。
type Account struct {
	Username      string
	AccountNumber string
	FullName      string
	Balance       decimal.Decimal
	CreatedAt     time.Time
	History       []Transaction
}

// Transaction represents one ledger entry.
// Amount 帶正負號：入帳為正、出帳為負、查詢為零。
type Transaction struct {
	ID           string
	Timestamp    time.Time
	Kind         Kind
	Amount       decimal.Decimal
	Description  string
	BalanceAfter decimal.Decimal
	// Reference 連結同一筆轉帳的兩端紀錄；其他種類為空字串。
	Reference string
}

// clone 回傳深拷貝，避免外部修改內部切片。
func (a *Account) clone() Account {
	cp := *a
	cp.History = make([]Transaction, len(a.History))
	copy(cp.History, a.History)
	return cp
}

// Reconcile 由零開始依序累加交易金額，檢查：
//   - 每筆 BalanceAfter 等於當下累計值
//   - 累計總和等於 Balance
//   - 種類合法，且金額正負號與種類相符
func (a Account) Reconcile() error {
	running := decimal.Zero
	for i, tx := range a.History {
		if !tx.Kind.Valid() {
			return fmt.Errorf("entry %d: unknown kind %q", i, tx.Kind)
		}
		switch {
		case tx.Kind.Inflow() && !tx.Amount.IsPositive(),
			tx.Kind.Outflow() && !tx.Amount.IsNegative(),
			tx.Kind == KindBalanceInquiry && !tx.Amount.IsZero():
			return fmt.Errorf("entry %d: %s with amount %s", i, tx.Kind, tx.Amount)
		}
		running = running.Add(tx.Amount)
		if !tx.BalanceAfter.Equal(running) {
			return fmt.Errorf("entry %d: balance_after %s, replay gives %s", i, tx.BalanceAfter, running)
		}
	}
	if !running.Equal(a.Balance) {
		return fmt.Errorf("balance %s, replay gives %s", a.Balance, running)
	}
	return nil
}
