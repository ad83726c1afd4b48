// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 呼叫端一律以 errors.Is 判斷種類；驗證類錯誤發生時不會改動任何狀態。

package bank

import (
	"errors"

	"ledgerbank/internal/auth"
)

var (
	// ErrDuplicateUsername 代表使用者名稱已存在。
	ErrDuplicateUsername = auth.ErrDuplicateUsername

	// ErrAuthenticationFailed 代表密碼驗證失敗。
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidAmount 代表金額非法（<= 0、非數字或超過兩位小數）。
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds 代表餘額不足，提款或轉帳失敗。
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRecipientNotFound 代表轉帳目標帳號不存在。
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrSelfTransfer 代表轉帳目標為自己的帳戶。
	ErrSelfTransfer = errors.New("cannot transfer to own account")

	// ErrWeakSecret 代表密碼長度不足。
	ErrWeakSecret = errors.New("secret must be at least 6 characters")

	// ErrPersistence 代表讀寫資料檔失敗。
	// 保存失敗時記憶體中的變更不會回滾。
	ErrPersistence = errors.New("persistence failure")

	// ErrAccountNotFound 代表以使用者名稱查無帳戶。
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidInput 代表建立帳戶時的必填欄位缺漏。
	ErrInvalidInput = errors.New("invalid input")

	// ErrLockTimeout 代表等待帳戶鎖逾時；可稍後重試。
	ErrLockTimeout = errors.New("account busy, try again")
)
