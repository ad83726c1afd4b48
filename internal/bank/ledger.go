// internal/bank/ledger.go
//
// Ledger 同時是帳本儲存區（餘額 + 只可追加的交易紀錄）與帳戶目錄（帳號 → 使用者）。
//
// 鎖定規則：
//   - mu 讀鎖：所有單一帳戶的讀寫操作；必須先取得 mu 讀鎖，再取帳戶鎖。
//   - mu 寫鎖：建立帳戶、還原、快照；持有時不會有任何操作進行到一半。
//   - 每個帳戶一個權重 1 的 semaphore；需要兩個帳戶時依帳號排序取得，避免死結。
package bank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// accountEntry 為單一帳戶與其鎖。
type accountEntry struct {
	sem  *semaphore.Weighted
	acct *Account
}

func newEntry(a *Account) *accountEntry {
	return &accountEntry{sem: semaphore.NewWeighted(1), acct: a}
}

// Ledger 擁有所有 Account 記錄；對外只回傳拷貝。
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry // username → entry
	byNumber map[string]string        // account number → username
	// seq 為最後配發的帳號序號，只增不減，與帳戶數量無關。
	seq         int64
	lockTimeout time.Duration
}

// NewLedger 建立空帳本；lockTimeout <= 0 時使用 5 秒。
func NewLedger(lockTimeout time.Duration) *Ledger {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Ledger{
		accounts:    make(map[string]*accountEntry),
		byNumber:    make(map[string]string),
		lockTimeout: lockTimeout,
	}
}

// FormatAccountNumber 回傳 ACC + 6 位補零序號。
func FormatAccountNumber(seq int64) string {
	return fmt.Sprintf("ACC%06d", seq)
}

// CreateAccount 配發下一個帳號並建立餘額為零、無交易紀錄的帳戶。
func (l *Ledger) CreateAccount(username, fullName string, createdAt time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[username]; ok {
		return "", ErrDuplicateUsername
	}
	l.seq++
	number := FormatAccountNumber(l.seq)
	l.accounts[username] = newEntry(&Account{
		Username:      username,
		AccountNumber: number,
		FullName:      fullName,
		CreatedAt:     createdAt,
	})
	l.byNumber[number] = username
	return number, nil
}

// Get 回傳 username 帳戶的拷貝。
func (l *Ledger) Get(ctx context.Context, username string) (Account, error) {
	var out Account
	err := l.withAccounts(ctx, []string{username}, func(a []*Account) error {
		out = a[0].clone()
		return nil
	})
	return out, err
}

// FindByAccountNumber 以帳號查找帳戶；不存在回傳 ErrAccountNotFound。
func (l *Ledger) FindByAccountNumber(ctx context.Context, number string) (Account, error) {
	username, ok := l.usernameFor(number)
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, number)
	}
	return l.Get(ctx, username)
}

// AppendTransaction 在帳戶鎖保護下追加一筆交易，回傳蓋上 BalanceAfter 後的紀錄。
func (l *Ledger) AppendTransaction(ctx context.Context, username string, tx Transaction) (Transaction, error) {
	var out Transaction
	err := l.withAccounts(ctx, []string{username}, func(a []*Account) error {
		out = appendTransaction(a[0], tx)
		return nil
	})
	return out, err
}

// Usernames 回傳所有使用者名稱（已排序）。
func (l *Ledger) Usernames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.accounts))
	for u := range l.accounts {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// appendTransaction 是交易紀錄與餘額唯一的變更點：
// 套用金額、記錄變更後餘額、追加到紀錄尾端。呼叫端必須持有該帳戶的鎖。
func appendTransaction(a *Account, tx Transaction) Transaction {
	a.Balance = a.Balance.Add(tx.Amount)
	tx.BalanceAfter = a.Balance
	a.History = append(a.History, tx)
	return tx
}

func (l *Ledger) usernameFor(number string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.byNumber[number]
	return u, ok
}

// withAccounts 取得 mu 讀鎖與 usernames 對應的帳戶鎖後執行 fn。
// fn 收到的 *Account 與 usernames 順序一致，只能在 fn 內使用。
func (l *Ledger) withAccounts(ctx context.Context, usernames []string, fn func([]*Account) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]*accountEntry, len(usernames))
	for i, u := range usernames {
		e, ok := l.accounts[u]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, u)
		}
		entries[i] = e
	}

	release, err := l.lock(ctx, entries)
	if err != nil {
		return err
	}
	defer release()

	accts := make([]*Account, len(entries))
	for i, e := range entries {
		accts[i] = e.acct
	}
	return fn(accts)
}

// lock 依帳號排序取得各帳戶鎖，最長等待 lockTimeout。
// 逾時回傳 ErrLockTimeout；呼叫端 context 取消則回傳其錯誤。
func (l *Ledger) lock(ctx context.Context, entries []*accountEntry) (func(), error) {
	ordered := make([]*accountEntry, 0, len(entries))
	seen := make(map[*accountEntry]bool, len(entries))
	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			ordered = append(ordered, e)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].acct.AccountNumber < ordered[j].acct.AccountNumber
	})

	tctx, cancel := context.WithTimeout(ctx, l.lockTimeout)
	defer cancel()

	held := make([]*accountEntry, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].sem.Release(1)
		}
	}
	for _, e := range ordered {
		if err := e.sem.Acquire(tctx, 1); err != nil {
			release()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, e.acct.AccountNumber)
			}
			return nil, err
		}
		held = append(held, e)
	}
	return release, nil
}
