// internal/bank/snapshot.go
//
// Bank 與 storage.Snapshot 之間的轉換。Restore 是載入時的驗證邊界：
// 每個帳戶都必須通過 Reconcile（replay 檢查），否則整份快照拒收、狀態不變。
package bank

import (
	"fmt"
	"strconv"
	"strings"

	"ledgerbank/internal/storage"
)

// Snapshot 在 ledger 寫鎖下匯出一致的快照，不會看到進行到一半的操作。
func (b *Bank) Snapshot() storage.Snapshot {
	l := b.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	digests := b.creds.Snapshot()
	s := storage.Snapshot{
		Meta:           storage.Meta{Storage: "json_snapshot", Version: storage.SchemaVersion},
		NextAccountSeq: l.seq,
		Accounts:       make(map[string]storage.PersistAccount, len(l.accounts)),
	}
	for username, e := range l.accounts {
		a := e.acct
		pa := storage.PersistAccount{
			FullName:         a.FullName,
			CredentialDigest: digests[username],
			AccountNumber:    a.AccountNumber,
			Balance:          a.Balance,
			CreatedAt:        a.CreatedAt,
			Transactions:     make([]storage.PersistTransaction, len(a.History)),
		}
		for i, tx := range a.History {
			pa.Transactions[i] = storage.PersistTransaction{
				ID:           tx.ID,
				Timestamp:    tx.Timestamp,
				Type:         string(tx.Kind),
				Amount:       tx.Amount,
				Description:  tx.Description,
				BalanceAfter: tx.BalanceAfter,
				Reference:    tx.Reference,
			}
		}
		s.Accounts[username] = pa
	}
	return s
}

// Restore 以快照取代全部狀態。任何帳戶驗證失敗即回傳錯誤，原狀態保持不變。
// 若快照中的序號小於既有最大帳號，序號會被推進，避免配發重複帳號。
func (b *Bank) Restore(s storage.Snapshot) error {
	accounts := make(map[string]*accountEntry, len(s.Accounts))
	byNumber := make(map[string]string, len(s.Accounts))
	digests := make(map[string]string, len(s.Accounts))
	seq := s.NextAccountSeq

	for username, pa := range s.Accounts {
		a, err := fromPersist(username, pa)
		if err != nil {
			return err
		}
		if other, dup := byNumber[a.AccountNumber]; dup {
			return fmt.Errorf("account %s shared by %q and %q", a.AccountNumber, other, username)
		}
		if pa.CredentialDigest == "" {
			return fmt.Errorf("account %q: missing credential digest", username)
		}
		accounts[username] = newEntry(a)
		byNumber[a.AccountNumber] = username
		digests[username] = pa.CredentialDigest
		if n := numberSeq(a.AccountNumber); n > seq {
			b.log.Warn().Int64("stored", s.NextAccountSeq).Int64("highest", n).Msg("account sequence behind existing numbers, advancing")
			seq = n
		}
	}

	l := b.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = accounts
	l.byNumber = byNumber
	l.seq = seq
	b.creds.Restore(digests)
	return nil
}

func fromPersist(username string, pa storage.PersistAccount) (*Account, error) {
	if !storage.ValidAccountNumber(pa.AccountNumber) {
		return nil, fmt.Errorf("account %q: invalid account number %q", username, pa.AccountNumber)
	}
	a := &Account{
		Username:      username,
		AccountNumber: pa.AccountNumber,
		FullName:      pa.FullName,
		Balance:       pa.Balance,
		CreatedAt:     pa.CreatedAt,
		History:       make([]Transaction, len(pa.Transactions)),
	}
	for i, pt := range pa.Transactions {
		kind, err := ParseKind(pt.Type)
		if err != nil {
			return nil, fmt.Errorf("account %q entry %d: %w", username, i, err)
		}
		a.History[i] = Transaction{
			ID:           pt.ID,
			Timestamp:    pt.Timestamp,
			Kind:         kind,
			Amount:       pt.Amount,
			Description:  pt.Description,
			BalanceAfter: pt.BalanceAfter,
			Reference:    pt.Reference,
		}
	}
	if err := a.Reconcile(); err != nil {
		return nil, fmt.Errorf("account %q: %w", username, err)
	}
	return a, nil
}

func numberSeq(number string) int64 {
	n, _ := strconv.ParseInt(strings.TrimPrefix(number, "ACC"), 10, 64)
	return n
}
