// internal/bank/amount.go
package bank

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces 為金額允許的最多小數位數（分）。
const CurrencyPlaces = 2

// 金額輸入的長度與指數上下限；超出即拒收，不進行任何換算。
const (
	maxAmountLen = 32
	minExponent  = -maxAmountLen
	maxExponent  = 15
)

// ParseAmount 解析使用者輸入的金額。
// 非數字、<= 0 或超過兩位小數皆回傳 ErrInvalidAmount。
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, fmt.Errorf("%w: input too long", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if err := checkAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// checkAmount 是引擎邊界的金額檢查，所有變更餘額的操作都會呼叫。
func checkAmount(d decimal.Decimal) error {
	// Round 會以 10^|exp| 換算，極端指數必須在此之前擋下
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidAmount, d)
	}
	if !d.Equal(d.Round(CurrencyPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d, CurrencyPlaces)
	}
	return nil
}
