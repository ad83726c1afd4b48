// internal/export/csv.go
//
// Package export 將帳戶交易紀錄匯出為 CSV 檔。
// 檔案開頭為 # 註解行（戶名、帳號、匯出時間、筆數），接著是欄位列與資料列。
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ledgerbank/internal/bank"
)

// ErrNothingToExport 代表帳戶尚無任何交易紀錄。
var ErrNothingToExport = errors.New("no transactions to export")

// Columns 為 CSV 欄位列。
var Columns = []string{"Date", "Time", "Type", "Amount", "Description", "Balance After"}

// FileName 回傳 <帳號>_transactions_<YYYYMMDD_HHMMSS>.csv。
func FileName(accountNumber string, now time.Time) string {
	return fmt.Sprintf("%s_transactions_%s.csv", accountNumber, now.Format("20060102_150405"))
}

// WriteCSV 將 acct 的完整交易紀錄（舊到新）寫入 w。
func WriteCSV(w io.Writer, acct bank.Account, now time.Time) error {
	if len(acct.History) == 0 {
		return ErrNothingToExport
	}

	header := fmt.Sprintf("# Account Holder: %s\n# Account Number: %s\n# Export Date: %s\n# Total Transactions: %d\n",
		acct.FullName, acct.AccountNumber, now.Format("2006-01-02 15:04:05"), len(acct.History))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, tx := range acct.History {
		err := cw.Write([]string{
			tx.Timestamp.Format("2006-01-02"),
			tx.Timestamp.Format("15:04:05"),
			string(tx.Kind),
			tx.Amount.StringFixed(bank.CurrencyPlaces),
			tx.Description,
			tx.BalanceAfter.StringFixed(bank.CurrencyPlaces),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToFile 在 dir 下建立匯出檔並回傳其路徑。寫入失敗時不留下不完整的檔案。
func ToFile(dir string, acct bank.Account, now time.Time) (string, error) {
	if len(acct.History) == 0 {
		return "", ErrNothingToExport
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(acct.AccountNumber, now))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, acct, now); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
