// internal/cli/shell.go
//
// Package cli
// ─────────────────────────────────────────────
// 提供互動式終端機介面，作為 bank 模組的應用層。
// 每個動作僅負責：
//  1. 讀取並初步檢查使用者輸入
//  2. 呼叫 bank 層執行商業邏輯（保存由 bank 層在操作完成前處理）
//  3. 將結果或錯誤轉成畫面文字
//
// bank 不依賴終端機；cli 依賴 bank。
package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"ledgerbank/internal/auth"
	"ledgerbank/internal/bank"
)

// Options 為 Shell 的可選設定。
type Options struct {
	// ExportDir 為 CSV 匯出目錄，預設為目前目錄。
	ExportDir string
	// MaxLoginAttempts 為單次登入流程允許的失敗次數，預設 3。
	MaxLoginAttempts int
	Logger           *zerolog.Logger
	Now              func() time.Time
}

// Shell 為終端機介面的核心結構。
type Shell struct {
	bank *bank.Bank
	in   *prompter
	out  io.Writer
	opts Options
	log  zerolog.Logger

	user string // 目前登入的使用者；空字串代表未登入
}

// errExit 代表使用者選擇離開程式。
var errExit = errors.New("exit")

// New 建立 Shell；in 為 *os.File 且是終端機時，密碼輸入不回顯。
func New(b *bank.Bank, in io.Reader, out io.Writer, opts Options) *Shell {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Shell{bank: b, in: newPrompter(in, out), out: out, opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "cli").Logger()
	}
	return s
}

// Run 執行主選單迴圈，直到使用者離開、輸入結束或 ctx 取消。
// 輸入結束 (EOF) 視為正常離開。
func (s *Shell) Run(ctx context.Context) error {
	s.println(wideRule)
	s.println("      Welcome to LedgerBank")
	s.println(wideRule)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.dispatch(ctx, "MAIN MENU", s.mainMenu())
		switch {
		case errors.Is(err, errExit):
			s.println("Thank you for using LedgerBank. Goodbye!")
			return nil
		case errors.Is(err, io.EOF):
			s.println()
			return nil
		case err != nil:
			return err
		}
	}
}

// login 執行登入流程；連續失敗達上限則結束本次流程、回到主選單。
func (s *Shell) login(ctx context.Context) error {
	s.title("LOGIN")
	session := auth.NewLoginSession(s.bank, s.opts.MaxLoginAttempts)
	for {
		username, err := s.in.line("Username: ")
		if err != nil {
			return err
		}
		secret, err := s.in.secret("Password: ")
		if err != nil {
			return err
		}

		err = session.Attempt(username, secret)
		switch {
		case err == nil:
			s.user = username
			s.log.Info().Str("user", username).Msg("login")
			acct, aerr := s.bank.Account(ctx, username)
			if aerr != nil {
				s.user = ""
				s.writeErr(aerr)
				return nil
			}
			s.printf("Welcome back, %s!\n", acct.FullName)
			return s.accountLoop(ctx)
		case errors.Is(err, auth.ErrSessionTerminated):
			s.log.Warn().Str("user", username).Msg("login session terminated")
			s.writeErr(err)
			return nil
		default:
			s.log.Info().Str("user", username).Msg("login failed")
			s.printf("Error: %s %d attempts remaining.\n", errMessage(err), session.Remaining())
		}
	}
}

// accountLoop 為登入後的帳戶選單，登出後回到主選單。
func (s *Shell) accountLoop(ctx context.Context) error {
	defer func() { s.user = "" }()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.dispatch(ctx, "ACCOUNT MENU", s.accountMenu())
		if errors.Is(err, errLogout) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// createAccount 開戶流程：使用者名稱與姓名不可為空，密碼需輸入兩次且長度足夠。
func (s *Shell) createAccount(ctx context.Context) error {
	s.title("CREATE NEW ACCOUNT")

	var username string
	for {
		u, err := s.in.line("Choose a username: ")
		if err != nil {
			return err
		}
		if u == "" {
			s.println("Error: Username cannot be empty!")
			continue
		}
		if _, err := s.bank.Account(ctx, u); err == nil {
			s.writeErr(bank.ErrDuplicateUsername)
			continue
		}
		username = u
		break
	}

	var fullName string
	for fullName == "" {
		n, err := s.in.line("Full name: ")
		if err != nil {
			return err
		}
		if n == "" {
			s.println("Error: Name cannot be empty!")
		}
		fullName = n
	}

	secret, err := s.newSecret("Choose a password: ")
	if err != nil {
		return err
	}

	acct, err := s.bank.CreateAccount(ctx, username, fullName, secret)
	if !s.applied(err) {
		return nil
	}
	s.println("Account created successfully!")
	s.printf("Name: %s\n", acct.FullName)
	s.printf("Account Number: %s\n", acct.AccountNumber)
	s.printf("Username: %s\n", acct.Username)
	return nil
}

// newSecret 重複詢問直到密碼長度足夠且兩次輸入一致。
func (s *Shell) newSecret(prompt string) (string, error) {
	for {
		secret, err := s.in.secret(prompt)
		if err != nil {
			return "", err
		}
		if len(secret) < bank.MinSecretLength {
			s.writeErr(bank.ErrWeakSecret)
			continue
		}
		again, err := s.in.secret("Confirm password: ")
		if err != nil {
			return "", err
		}
		if again != secret {
			s.println("Error: Passwords don't match!")
			continue
		}
		return secret, nil
	}
}
