// internal/cli/actions.go
//
// 登入後的各項動作。領域錯誤只輸出訊息、不中斷選單；
// 只有輸入錯誤（例如 EOF）會往上回傳。
package cli

import (
	"context"

	"github.com/shopspring/decimal"

	"ledgerbank/internal/bank"
	"ledgerbank/internal/export"
)

// balance 顯示餘額；每次查詢都會在紀錄中留下一筆零金額的查詢紀錄。
func (s *Shell) balance(ctx context.Context) error {
	acct, err := s.bank.BalanceInquiry(ctx, s.user)
	if !s.applied(err) {
		return nil
	}
	s.title("ACCOUNT BALANCE")
	s.printf("Account Holder: %s\n", acct.FullName)
	s.printf("Account Number: %s\n", acct.AccountNumber)
	s.printf("Current Balance: %s\n", money(acct.Balance))
	return nil
}

func (s *Shell) withdraw(ctx context.Context) error {
	amount, ok, err := s.readAmount("Enter amount to withdraw: ")
	if err != nil || !ok {
		return err
	}
	tx, err := s.bank.Withdraw(ctx, s.user, amount, "")
	if !s.applied(err) {
		return nil
	}
	s.println("Withdrawal successful!")
	s.printf("Amount withdrawn: %s\n", money(amount))
	s.printf("New balance: %s\n", money(tx.BalanceAfter))
	return nil
}

func (s *Shell) deposit(ctx context.Context) error {
	amount, ok, err := s.readAmount("Enter amount to deposit: ")
	if err != nil || !ok {
		return err
	}
	tx, err := s.bank.Deposit(ctx, s.user, amount, "")
	if !s.applied(err) {
		return nil
	}
	s.println("Deposit successful!")
	s.printf("Amount deposited: %s\n", money(amount))
	s.printf("New balance: %s\n", money(tx.BalanceAfter))
	return nil
}

// transfer 先確認收款帳號存在且不是自己，再詢問金額、附註並請使用者確認。
func (s *Shell) transfer(ctx context.Context) error {
	s.title("TRANSFER MONEY")
	number, err := s.in.line("Recipient account number: ")
	if err != nil {
		return err
	}
	recipient, err := s.bank.FindByAccountNumber(ctx, number)
	if err != nil {
		s.writeErr(bank.ErrRecipientNotFound)
		return nil
	}
	if recipient.Username == s.user {
		s.writeErr(bank.ErrSelfTransfer)
		return nil
	}

	amount, ok, err := s.readAmount("Enter amount to transfer: ")
	if err != nil || !ok {
		return err
	}
	note, err := s.in.line("Description (optional): ")
	if err != nil {
		return err
	}
	yes, err := s.in.confirm("Transfer " + money(amount) + " to " + recipient.FullName + " (" + recipient.AccountNumber + ")?")
	if err != nil {
		return err
	}
	if !yes {
		s.println("Transfer cancelled.")
		return nil
	}

	res, err := s.bank.Transfer(ctx, s.user, number, amount, note)
	if !s.applied(err) {
		return nil
	}
	s.println("Transfer successful!")
	s.printf("Amount transferred: %s\n", money(amount))
	s.printf("To: %s\n", res.Recipient)
	s.printf("Account: %s\n", recipient.AccountNumber)
	s.printf("Your new balance: %s\n", money(res.Out.BalanceAfter))
	return nil
}

func (s *Shell) miniStatement(ctx context.Context) error {
	txs, err := s.bank.Statement(ctx, s.user, bank.MiniStatementSize)
	if !s.applied(err) {
		return nil
	}
	s.title("MINI STATEMENT (Last 10 Transactions)")
	if len(txs) == 0 {
		s.println("No transactions yet.")
		return nil
	}
	s.printEntries(txs, "02-01-2006 15:04")
	return nil
}

func (s *Shell) fullStatement(ctx context.Context) error {
	txs, err := s.bank.Statement(ctx, s.user, 0)
	if !s.applied(err) {
		return nil
	}
	s.title("FULL TRANSACTION HISTORY")
	if len(txs) == 0 {
		s.println("No transactions yet.")
		return nil
	}
	s.printf("Total transactions: %d\n", len(txs))
	s.println(narrowRule)
	s.printEntries(txs, "02-01-2006 15:04:05")
	return nil
}

func (s *Shell) summary(ctx context.Context) error {
	sum, err := s.bank.Summary(ctx, s.user)
	if !s.applied(err) {
		return nil
	}
	s.title("ACCOUNT SUMMARY")
	s.printf("Name: %s\n", sum.FullName)
	s.printf("Account Number: %s\n", sum.AccountNumber)
	s.printf("Account Created: %s\n", sum.CreatedAt.Format("02-01-2006"))
	s.printf("Current Balance: %s\n", money(sum.Balance))
	s.printf("Total Transactions: %d\n", sum.Transactions)
	if sum.Transactions > 0 {
		s.printf("Total Deposits: %s\n", money(sum.TotalIn))
		s.printf("Total Withdrawals: %s\n", money(sum.TotalOut))
		s.printf("Last Transaction: %s\n", sum.LastActivity.Format("02-01-2006 15:04"))
	}
	return nil
}

func (s *Shell) exportHistory(ctx context.Context) error {
	acct, err := s.bank.Account(ctx, s.user)
	if !s.applied(err) {
		return nil
	}
	path, err := export.ToFile(s.opts.ExportDir, acct, s.opts.Now())
	if err != nil {
		s.log.Warn().Err(err).Str("user", s.user).Msg("export failed")
		s.writeErr(err)
		return nil
	}
	s.println("Transactions exported successfully!")
	s.printf("File: %s\n", path)
	s.printf("Total transactions: %d\n", len(acct.History))
	return nil
}

// changePassword 先驗證目前密碼再詢問新密碼；不會產生交易紀錄。
func (s *Shell) changePassword(ctx context.Context) error {
	s.title("CHANGE PASSWORD")
	current, err := s.in.secret("Enter current password: ")
	if err != nil {
		return err
	}
	if !s.bank.Verify(s.user, current) {
		s.writeErr(bank.ErrAuthenticationFailed)
		return nil
	}
	next, err := s.newSecret("Enter new password: ")
	if err != nil {
		return err
	}
	if !s.applied(s.bank.ChangeSecret(ctx, s.user, current, next)) {
		return nil
	}
	s.println("Password changed successfully!")
	return nil
}

// readAmount 讀取並解析金額；格式錯誤時輸出訊息並回傳 ok=false。
func (s *Shell) readAmount(prompt string) (decimal.Decimal, bool, error) {
	raw, err := s.in.line(prompt)
	if err != nil {
		return decimal.Zero, false, err
	}
	amount, err := bank.ParseAmount(raw)
	if err != nil {
		s.writeErr(err)
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}
