// internal/cli/menu.go
//
// 本檔負責選單註冊與分派，與 actions.go 分離：
//   - actions.go 定義「每個動作如何執行」
//   - menu.go 定義「選項如何被導向」
package cli

import (
	"context"
	"errors"
)

// errLogout 代表使用者確認登出。
var errLogout = errors.New("logout")

type menuItem struct {
	key   string
	label string
	run   func(ctx context.Context) error
}

func (s *Shell) mainMenu() []menuItem {
	return []menuItem{
		{"1", "Login", s.login},
		{"2", "Create New Account", s.createAccount},
		{"3", "Exit", s.exit},
	}
}

func (s *Shell) accountMenu() []menuItem {
	return []menuItem{
		{"1", "Display Balance", s.balance},
		{"2", "Withdraw Money", s.withdraw},
		{"3", "Deposit Money", s.deposit},
		{"4", "Transfer Money", s.transfer},
		{"5", "Mini Statement", s.miniStatement},
		{"6", "Full Transaction History", s.fullStatement},
		{"7", "Account Summary", s.summary},
		{"8", "Export Transactions", s.exportHistory},
		{"9", "Change Password", s.changePassword},
		{"0", "Logout", s.logout},
	}
}

// dispatch 印出選單、讀取選項並執行對應動作。無效選項只提示、不回傳錯誤。
func (s *Shell) dispatch(ctx context.Context, name string, items []menuItem) error {
	s.printf("\n%s\n%s\n", name, wideRule)
	for _, it := range items {
		s.printf("%s. %s\n", it.key, it.label)
	}
	s.println(wideRule)

	choice, err := s.in.line("Enter your choice: ")
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.key == choice {
			return it.run(ctx)
		}
	}
	s.println("Error: Invalid choice! Please try again.")
	return nil
}

func (s *Shell) exit(context.Context) error {
	ok, err := s.in.confirm("Are you sure you want to exit?")
	if err != nil {
		return err
	}
	if ok {
		return errExit
	}
	return nil
}

func (s *Shell) logout(ctx context.Context) error {
	ok, err := s.in.confirm("Are you sure you want to logout?")
	if err != nil || !ok {
		return err
	}
	if acct, err := s.bank.Account(ctx, s.user); err == nil {
		s.printf("Goodbye, %s!\n", acct.FullName)
	}
	s.log.Info().Str("user", s.user).Msg("logout")
	return errLogout
}
