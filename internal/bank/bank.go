// internal/bank/bank.go

// Package bank 定義核心商業邏輯：開戶、登入驗證、存款、提款、轉帳、餘額查詢與交易紀錄。
// 每個操作在記憶體中是原子的；成功後立即將一致的快照寫入 Persister，才算完成。
// 金額以 decimal.Decimal 表示，避免浮點誤差。
package bank

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledgerbank/internal/auth"
	"ledgerbank/internal/storage"
)

// MinSecretLength 為密碼最短長度。
const MinSecretLength = 6

// Persister 為 Persistence Gateway；storage.FileStore 即為其實作。
type Persister interface {
	Save(ctx context.Context, snap storage.Snapshot) error
}

// Options 為建立 Bank 的參數；零值可用（純記憶體、不保存）。
type Options struct {
	Persister   Persister
	LockTimeout time.Duration
	BcryptCost  int
	Logger      *zerolog.Logger
	// Now 供測試固定時間；預設 time.Now。
	Now func() time.Time
}

// Bank 為聚合根 (Aggregate Root)：組合憑證儲存區與帳本，對外提供所有操作。
// - flushMu：序列化保存；快照在臨界區內取得，後寫入者一定包含較新的狀態。
type Bank struct {
	ledger  *Ledger
	creds   *auth.Store
	persist Persister
	flushMu sync.Mutex
	log     zerolog.Logger
	now     func() time.Time
}

// NewBank 建立空白銀行實例。
func NewBank(opts Options) *Bank {
	b := &Bank{
		ledger:  NewLedger(opts.LockTimeout),
		creds:   auth.NewStore(opts.BcryptCost),
		persist: opts.Persister,
		log:     zerolog.Nop(),
		now:     opts.Now,
	}
	if opts.Logger != nil {
		b.log = opts.Logger.With().Str("component", "bank").Logger()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// TransferResult 為一筆轉帳的兩端紀錄。
type TransferResult struct {
	Out       Transaction
	In        Transaction
	Recipient string // 收款人姓名
}

// CreateAccount 開戶：檢查輸入與密碼長度後註冊憑證並配發帳號。
func (b *Bank) CreateAccount(ctx context.Context, username, fullName, secret string) (Account, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	if username == "" {
		return Account{}, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}
	if fullName == "" {
		return Account{}, fmt.Errorf("%w: full name cannot be empty", ErrInvalidInput)
	}
	if len(secret) < MinSecretLength {
		return Account{}, ErrWeakSecret
	}

	if err := b.creds.Register(username, secret); err != nil {
		return Account{}, err
	}
	number, err := b.ledger.CreateAccount(username, fullName, b.now())
	if err != nil {
		b.creds.Remove(username)
		return Account{}, err
	}
	b.log.Info().Str("user", username).Str("account", number).Msg("account created")

	acct, err := b.ledger.Get(ctx, username)
	if err != nil {
		return Account{}, err
	}
	return acct, b.flush(ctx)
}

// Verify 滿足 auth.Verifier，供登入工作階段使用。
func (b *Bank) Verify(username, secret string) bool {
	return b.creds.Verify(username, secret)
}

// Authenticate 驗證帳密；失敗回傳 ErrAuthenticationFailed。
func (b *Bank) Authenticate(username, secret string) error {
	if !b.creds.Verify(username, secret) {
		return ErrAuthenticationFailed
	}
	return nil
}

// Deposit 存款：金額需 > 0。
func (b *Bank) Deposit(ctx context.Context, username string, amount decimal.Decimal, description string) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, b.reject("deposit", username, err)
	}
	if description == "" {
		description = "Cash deposit"
	}
	tx, err := b.ledger.AppendTransaction(ctx, username, b.newTransaction(KindDeposit, amount, description, ""))
	if err != nil {
		return Transaction{}, b.reject("deposit", username, err)
	}
	b.applied("deposit", username, tx)
	return tx, b.flush(ctx)
}

// Withdraw 提款：金額需 > 0 且不得超過餘額。
func (b *Bank) Withdraw(ctx context.Context, username string, amount decimal.Decimal, description string) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, b.reject("withdraw", username, err)
	}
	if description == "" {
		description = "Cash withdrawal"
	}
	var tx Transaction
	err := b.ledger.withAccounts(ctx, []string{username}, func(a []*Account) error {
		if amount.GreaterThan(a[0].Balance) {
			return fmt.Errorf("%w: available %s", ErrInsufficientFunds, a[0].Balance.StringFixed(CurrencyPlaces))
		}
		tx = appendTransaction(a[0], b.newTransaction(KindWithdrawal, amount.Neg(), description, ""))
		return nil
	})
	if err != nil {
		return Transaction{}, b.reject("withdraw", username, err)
	}
	b.applied("withdraw", username, tx)
	return tx, b.flush(ctx)
}

// Transfer 轉帳為單一臨界區內的原子操作：
// 檢核順序為收款帳號 → 自我轉帳 → 金額 → 餘額，任一步失敗兩端皆不變。
// 成功時兩端各追加一筆紀錄，共用同一個 Reference。
func (b *Bank) Transfer(ctx context.Context, sender, recipientNumber string, amount decimal.Decimal, description string) (TransferResult, error) {
	recipient, ok := b.ledger.usernameFor(strings.TrimSpace(recipientNumber))
	if !ok {
		return TransferResult{}, b.reject("transfer", sender, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipientNumber))
	}
	if recipient == sender {
		return TransferResult{}, b.reject("transfer", sender, ErrSelfTransfer)
	}
	if err := checkAmount(amount); err != nil {
		return TransferResult{}, b.reject("transfer", sender, err)
	}

	var res TransferResult
	err := b.ledger.withAccounts(ctx, []string{sender, recipient}, func(a []*Account) error {
		from, to := a[0], a[1]
		if amount.GreaterThan(from.Balance) {
			return fmt.Errorf("%w: available %s", ErrInsufficientFunds, from.Balance.StringFixed(CurrencyPlaces))
		}

		outDesc := fmt.Sprintf("Transfer to %s (%s)", to.FullName, to.AccountNumber)
		inDesc := fmt.Sprintf("Transfer from %s (%s)", from.FullName, from.AccountNumber)
		if d := strings.TrimSpace(description); d != "" {
			outDesc += " - " + d
			inDesc += " - " + d
		}

		ref := uuid.NewString()
		now := b.now()
		out := b.newTransaction(KindTransferOut, amount.Neg(), outDesc, ref)
		in := b.newTransaction(KindTransferIn, amount, inDesc, ref)
		out.Timestamp, in.Timestamp = now, now

		res.Out = appendTransaction(from, out)
		res.In = appendTransaction(to, in)
		res.Recipient = to.FullName
		return nil
	})
	if err != nil {
		return TransferResult{}, b.reject("transfer", sender, err)
	}
	b.log.Debug().
		Str("op", "transfer").
		Str("user", sender).
		Str("recipient", recipient).
		Str("amount", amount.String()).
		Str("reference", res.Out.Reference).
		Msg("applied")
	return res, b.flush(ctx)
}

// BalanceInquiry 回傳帳戶目前狀態，並追加一筆金額為零的查詢紀錄（稽核用途）。
func (b *Bank) BalanceInquiry(ctx context.Context, username string) (Account, error) {
	var out Account
	err := b.ledger.withAccounts(ctx, []string{username}, func(a []*Account) error {
		appendTransaction(a[0], b.newTransaction(KindBalanceInquiry, decimal.Zero, "Balance inquiry", ""))
		out = a[0].clone()
		return nil
	})
	if err != nil {
		return Account{}, b.reject("inquiry", username, err)
	}
	return out, b.flush(ctx)
}

// ChangeSecret 變更密碼；不會產生交易紀錄。
func (b *Bank) ChangeSecret(ctx context.Context, username, oldSecret, newSecret string) error {
	err := b.ledger.withAccounts(ctx, []string{username}, func([]*Account) error {
		if !b.creds.Verify(username, oldSecret) {
			return ErrAuthenticationFailed
		}
		if len(newSecret) < MinSecretLength {
			return ErrWeakSecret
		}
		return b.creds.Replace(username, newSecret)
	})
	if err != nil {
		return b.reject("change_secret", username, err)
	}
	b.log.Info().Str("user", username).Msg("secret changed")
	return b.flush(ctx)
}

// Account 回傳帳戶拷貝，不記錄查詢。
func (b *Bank) Account(ctx context.Context, username string) (Account, error) {
	return b.ledger.Get(ctx, username)
}

// FindByAccountNumber 以帳號查找帳戶。
func (b *Bank) FindByAccountNumber(ctx context.Context, number string) (Account, error) {
	return b.ledger.FindByAccountNumber(ctx, number)
}

// Flush 立即保存目前狀態。
func (b *Bank) Flush(ctx context.Context) error {
	return b.flush(ctx)
}

// flush 在 flushMu 內取得快照並保存。
// 保存失敗時記憶體中的變更已套用、不回滾，錯誤包裝為 ErrPersistence 回傳。
func (b *Bank) flush(ctx context.Context) error {
	if b.persist == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	// 變更已經套用，呼叫端取消也要把它寫出去
	if err := b.persist.Save(context.WithoutCancel(ctx), b.Snapshot()); err != nil {
		b.log.Error().Err(err).Msg("failed to persist snapshot")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (b *Bank) newTransaction(kind Kind, amount decimal.Decimal, description, ref string) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		Timestamp:   b.now(),
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Reference:   ref,
	}
}

func (b *Bank) applied(op, username string, tx Transaction) {
	b.log.Debug().
		Str("op", op).
		Str("user", username).
		Str("amount", tx.Amount.String()).
		Str("balance_after", tx.BalanceAfter.String()).
		Msg("applied")
}

func (b *Bank) reject(op, username string, err error) error {
	b.log.Info().Str("op", op).Str("user", username).Err(err).Msg("rejected")
	return err
}
