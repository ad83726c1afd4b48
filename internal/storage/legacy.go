// internal/storage/legacy.go
//
// 匯入舊版扁平資料檔：
//
//	{ "<username>": { "full_name", "password_hash", "account_number",
//	                  "balance", "transactions": [...], "created_date" } }
//
// 舊版以浮點數保存金額，匯入時四捨五入到分，並依交易紀錄重算 balance_after。
package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const centPlaces = 2

type legacyAccount struct {
	FullName      string              `json:"full_name"`
	PasswordHash  string              `json:"password_hash"`
	AccountNumber string              `json:"account_number"`
	Balance       decimal.Decimal     `json:"balance"`
	Transactions  []legacyTransaction `json:"transactions"`
	CreatedDate   string              `json:"created_date"`
}

type legacyTransaction struct {
	Timestamp    string          `json:"timestamp"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// 舊版以 Python isoformat() 寫出時間，不含時區。
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseLegacyTime(s string) (time.Time, error) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func decodeLegacy(raw []byte) (Snapshot, error) {
	var users map[string]legacyAccount
	if err := json.Unmarshal(raw, &users); err != nil {
		return Snapshot{}, fmt.Errorf("%w: legacy format: %v", ErrMalformed, err)
	}

	snap := Snapshot{
		Meta:     Meta{Storage: "json_legacy", Version: 1, Note: "imported from flat username map"},
		Accounts: make(map[string]PersistAccount, len(users)),
	}
	for username, la := range users {
		pa, err := convertLegacy(la)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: legacy account %q: %v", ErrMalformed, username, err)
		}
		snap.Accounts[username] = pa
		if seq := accountSeq(pa.AccountNumber); seq > snap.NextAccountSeq {
			snap.NextAccountSeq = seq
		}
	}
	return snap, nil
}

func convertLegacy(la legacyAccount) (PersistAccount, error) {
	created, err := parseLegacyTime(la.CreatedDate)
	if err != nil {
		return PersistAccount{}, err
	}
	pa := PersistAccount{
		FullName:         la.FullName,
		CredentialDigest: strings.ToLower(la.PasswordHash),
		AccountNumber:    la.AccountNumber,
		CreatedAt:        created,
		Transactions:     make([]PersistTransaction, 0, len(la.Transactions)),
	}

	// 以四捨五入後的金額重新累加，確保匯入後 replay 一致
	running := decimal.Zero
	for i, lt := range la.Transactions {
		ts, err := parseLegacyTime(lt.Timestamp)
		if err != nil {
			return PersistAccount{}, fmt.Errorf("transaction %d: %v", i, err)
		}
		if !moneyInRange(lt.Amount) {
			return PersistAccount{}, fmt.Errorf("transaction %d: amount out of range", i)
		}
		amt := lt.Amount.Round(centPlaces)
		running = running.Add(amt)
		pa.Transactions = append(pa.Transactions, PersistTransaction{
			ID:           uuid.NewString(),
			Timestamp:    ts,
			Type:         lt.Type,
			Amount:       amt,
			Description:  lt.Description,
			BalanceAfter: running,
		})
	}
	if !moneyInRange(la.Balance) {
		return PersistAccount{}, fmt.Errorf("balance out of range")
	}
	if !running.Equal(la.Balance.Round(centPlaces)) {
		return PersistAccount{}, fmt.Errorf("balance %s does not match transaction history total %s", la.Balance, running)
	}
	pa.Balance = running
	return pa, nil
}

// accountSeq 取出 ACC000123 的數字部分；格式不符時回傳 0。
func accountSeq(number string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(number, "ACC"), 10, 64)
	if err != nil || !strings.HasPrefix(number, "ACC") {
		return 0
	}
	return n
}
