// internal/storage/validate.go
package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var accountNumberRe = regexp.MustCompile(`^ACC[0-9]{6,}$`)

// 金額指數上下限；超出者視為格式錯誤，後續的加總與四捨五入不會碰到它。
const (
	minMoneyExp = -32
	maxMoneyExp = 15
)

func moneyInRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= minMoneyExp && e <= maxMoneyExp
}

// newValidator 建立含自訂規則 account_number 的 validator。
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("account_number", func(fl validator.FieldLevel) bool {
		return accountNumberRe.MatchString(fl.Field().String())
	})
	return v
}

// ValidAccountNumber 回報 s 是否符合 ACC + 至少 6 位數字的格式。
func ValidAccountNumber(s string) bool {
	return accountNumberRe.MatchString(s)
}

// validateSnapshot 做結構層面的檢查：欄位、格式、帳號唯一。
// 餘額與交易紀錄是否一致（replay）由 bank 於 Restore 時檢查。
func validateSnapshot(v *validator.Validate, snap Snapshot) error {
	if err := v.Struct(snap); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	seen := make(map[string]string, len(snap.Accounts))
	for username, pa := range snap.Accounts {
		if strings.TrimSpace(username) == "" {
			return fmt.Errorf("%w: empty username key", ErrMalformed)
		}
		if other, dup := seen[pa.AccountNumber]; dup {
			return fmt.Errorf("%w: account number %s shared by %q and %q", ErrMalformed, pa.AccountNumber, other, username)
		}
		seen[pa.AccountNumber] = username

		if !moneyInRange(pa.Balance) {
			return fmt.Errorf("%w: account %q: balance out of range", ErrMalformed, username)
		}
		for i, pt := range pa.Transactions {
			if !moneyInRange(pt.Amount) || !moneyInRange(pt.BalanceAfter) {
				return fmt.Errorf("%w: account %q entry %d: amount out of range", ErrMalformed, username, i)
			}
		}
	}
	return nil
}

// fieldError 將單一 FieldError 轉為可讀訊息。
func fieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "account_number":
		return fmt.Sprintf("%s has invalid account number %q", field, fe.Value())
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
