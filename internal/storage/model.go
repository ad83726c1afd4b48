// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的文件格式。
// 整份狀態是一份 JSON 文件：username → 帳戶（含憑證摘要與交易紀錄），
// 外加單調遞增的帳號序號與中繼資訊。本層不含任何商業邏輯。
package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion 為目前寫出的文件版本；舊版扁平格式視為版本 1。
const SchemaVersion = 2

// Meta 為快照的中繼資料 (metadata)。
type Meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Snapshot 為整個帳本的完整快照，用於整體載入與保存。
type Snapshot struct {
	Meta Meta `json:"_meta"`
	// NextAccountSeq 為最後一個已配發的帳號序號；新帳號取 NextAccountSeq+1。
	NextAccountSeq int64                     `json:"next_account_seq" validate:"gte=0"`
	Accounts       map[string]PersistAccount `json:"accounts" validate:"dive"`
}

// PersistAccount 為帳戶在儲存層的序列化格式。
type PersistAccount struct {
	FullName         string               `json:"full_name" validate:"required"`
	CredentialDigest string               `json:"credential_digest" validate:"required"`
	AccountNumber    string               `json:"account_number" validate:"required,account_number"`
	Balance          decimal.Decimal      `json:"balance"`
	CreatedAt        time.Time            `json:"created_at" validate:"required"`
	Transactions     []PersistTransaction `json:"transactions" validate:"dive"`
}

// PersistTransaction 為單筆交易紀錄的序列化格式。
type PersistTransaction struct {
	ID           string          `json:"id" validate:"required,uuid"`
	Timestamp    time.Time       `json:"timestamp" validate:"required"`
	Type         string          `json:"type" validate:"oneof=DEPOSIT WITHDRAWAL TRANSFER_IN TRANSFER_OUT BALANCE_INQUIRY"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reference    string          `json:"reference,omitempty" validate:"omitempty,uuid"`
}
