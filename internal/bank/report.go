// internal/bank/report.go
//
// 唯讀報表：對帳單、帳戶摘要與全帳本稽核。這些操作不產生交易紀錄。
package bank

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MiniStatementSize 為迷你對帳單的筆數。
const MiniStatementSize = 10

// Summary 為帳戶摘要。
type Summary struct {
	Username      string
	FullName      string
	AccountNumber string
	CreatedAt     time.Time
	Balance       decimal.Decimal
	Transactions  int
	// TotalIn 為存款與轉入總和；TotalOut 為提款與轉出總和（正值）。
	TotalIn      decimal.Decimal
	TotalOut     decimal.Decimal
	LastActivity time.Time
}

// Violation 為稽核發現的不一致帳戶。
type Violation struct {
	Username string
	Err      error
}

// Statement 回傳交易紀錄。limit > 0 時回傳最近 limit 筆（新到舊）；
// limit <= 0 時回傳完整紀錄（舊到新）。
func (b *Bank) Statement(ctx context.Context, username string, limit int) ([]Transaction, error) {
	a, err := b.ledger.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return a.History, nil
	}
	h := a.History
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]Transaction, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

// Summary 統計帳戶的入帳、出帳與最後活動時間。
func (b *Bank) Summary(ctx context.Context, username string) (Summary, error) {
	a, err := b.ledger.Get(ctx, username)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Username:      a.Username,
		FullName:      a.FullName,
		AccountNumber: a.AccountNumber,
		CreatedAt:     a.CreatedAt,
		Balance:       a.Balance,
		Transactions:  len(a.History),
		TotalIn:       decimal.Zero,
		TotalOut:      decimal.Zero,
	}
	for _, tx := range a.History {
		switch {
		case tx.Kind.Inflow():
			s.TotalIn = s.TotalIn.Add(tx.Amount)
		case tx.Kind.Outflow():
			s.TotalOut = s.TotalOut.Add(tx.Amount.Abs())
		}
	}
	if n := len(a.History); n > 0 {
		s.LastActivity = a.History[n-1].Timestamp
	}
	return s, nil
}

// Audit 在 ledger 寫鎖下逐一 replay 所有帳戶，回傳不一致者（依使用者名稱排序）。
// 另外檢查每個轉帳 Reference 恰好連結一筆轉出與一筆轉入，且金額相抵。
func (b *Bank) Audit() []Violation {
	l := b.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	type leg struct {
		out, in int
		sum     decimal.Decimal
		users   []string
	}
	legs := make(map[string]*leg)
	var out []Violation

	for username, e := range l.accounts {
		a := e.acct
		if err := a.Reconcile(); err != nil {
			out = append(out, Violation{Username: username, Err: err})
		}
		for _, tx := range a.History {
			if tx.Reference == "" {
				continue
			}
			lg, ok := legs[tx.Reference]
			if !ok {
				lg = &leg{sum: decimal.Zero}
				legs[tx.Reference] = lg
			}
			switch tx.Kind {
			case KindTransferOut:
				lg.out++
			case KindTransferIn:
				lg.in++
			}
			lg.sum = lg.sum.Add(tx.Amount)
			lg.users = append(lg.users, username)
		}
	}
	for ref, lg := range legs {
		if lg.out != 1 || lg.in != 1 || !lg.sum.IsZero() {
			for _, u := range lg.users {
				out = append(out, Violation{Username: u, Err: &TransferMismatchError{Reference: ref}})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// TransferMismatchError 代表某個轉帳 Reference 的兩端紀錄不成對或金額不相抵。
type TransferMismatchError struct {
	Reference string
}

func (e *TransferMismatchError) Error() string {
	return "unbalanced transfer legs for reference " + e.Reference
}

// Usernames 回傳所有使用者名稱（已排序）。
func (b *Bank) Usernames() []string {
	return b.ledger.Usernames()
}
