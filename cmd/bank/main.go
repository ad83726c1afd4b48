// cmd/bank/main.go

// 本程式為本機銀行帳本的命令列入口。
// 子命令：
//   - shell（預設）：互動式終端機介面
//   - audit：載入資料檔並 replay 所有帳戶，回報不一致
//
// 啟動時載入 JSON 快照；每個成功的變更操作都會在回傳前寫回資料檔。

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ledgerbank/internal/bank"
	"ledgerbank/internal/cli"
	"ledgerbank/internal/config"
	"ledgerbank/internal/logger"
	"ledgerbank/internal/storage"
)

// rename 於測試中可替換，用來模擬無法搬移資料檔的情況。
var rename = os.Rename

func main() {
	cmd, args := "shell", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx, ".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	ctx = logger.WithContext(ctx, log)

	switch cmd {
	case "shell":
		os.Exit(runShell(ctx, cfg, args))
	case "audit":
		os.Exit(runAudit(ctx, cfg, args, os.Stdout))
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "LedgerBank")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  bank [command] [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  shell     Start the interactive banking shell (default)")
	fmt.Fprintln(w, "  audit     Verify every account in the data file")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nConfiguration is read from the environment and an optional .env file:")
	fmt.Fprintln(w, "  BANK_DATA_FILE, BANK_EXPORT_DIR, BANK_LOCK_TIMEOUT, BANK_BCRYPT_COST,")
	fmt.Fprintln(w, "  BANK_MAX_LOGIN_ATTEMPTS, LOG_LEVEL, LOG_PRETTY")
}

func runShell(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	dataFile := fs.String("data", cfg.DataFile, "path of the JSON data file")
	exportDir := fs.String("export-dir", cfg.ExportDir, "directory for CSV exports")
	_ = fs.Parse(args)

	log := logger.FromContext(ctx)
	store := storage.NewFileStore(*dataFile, log)
	b := bank.NewBank(bank.Options{
		Persister:   store,
		LockTimeout: cfg.LockTimeout,
		BcryptCost:  cfg.BcryptCost,
		Logger:      &log,
	})
	if err := loadLenient(ctx, store, b, log); err != nil {
		log.Error().Err(err).Str("file", store.Path()).Msg("refusing to start over an unreadable data file")
		return 1
	}

	// 收到 SIGINT/SIGTERM 時先保存再結束；互動中的讀取無法被中斷，因此直接退出
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		if err := b.Flush(ctx); err != nil {
			log.Error().Err(err).Msg("final save failed")
		}
		fmt.Fprintln(os.Stdout, "\nGoodbye!")
		os.Exit(130)
	}()

	sh := cli.New(b, os.Stdin, os.Stdout, cli.Options{
		ExportDir:        *exportDir,
		MaxLoginAttempts: cfg.MaxLoginAttempts,
		Logger:           &log,
	})
	if err := sh.Run(ctx); err != nil {
		log.Error().Err(err).Msg("shell stopped")
		return 1
	}
	return 0
}

// loadLenient 載入資料檔。檔案不存在則以空帳本啟動；
// 無法讀取或驗證失敗時先將原檔改名保留，再以空帳本啟動，避免下次保存覆蓋掉它。
// 原檔無法移開時回傳錯誤，呼叫端不可啟動。
func loadLenient(ctx context.Context, store *storage.FileStore, b *bank.Bank, log zerolog.Logger) error {
	snap, err := store.Load(ctx)
	if err == nil {
		err = b.Restore(snap)
	}
	switch {
	case err == nil:
		log.Info().Str("file", store.Path()).Int("accounts", len(snap.Accounts)).Msg("data loaded")
	case errors.Is(err, storage.ErrNotFound):
		log.Info().Str("file", store.Path()).Msg("no existing data, starting fresh")
	default:
		aside := fmt.Sprintf("%s.unreadable-%s", store.Path(), time.Now().Format("20060102_150405"))
		if rerr := rename(store.Path(), aside); rerr != nil {
			return fmt.Errorf("load %s: %v; move aside: %w", store.Path(), err, rerr)
		}
		log.Error().Err(err).Str("file", store.Path()).Str("moved_to", aside).Msg("could not load data, starting empty")
	}
	return nil
}

// runAudit 以唯讀方式載入資料檔並檢查每個帳戶；有任何不一致時回傳 1。
func runAudit(ctx context.Context, cfg *config.Config, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataFile := fs.String("data", cfg.DataFile, "path of the JSON data file")
	verbose := fs.Bool("v", false, "list every account with its balance")
	_ = fs.Parse(args)

	log := logger.FromContext(ctx)
	snap, err := storage.NewFileStore(*dataFile, log).Load(ctx)
	if err != nil {
		fmt.Fprintf(out, "FAIL: %v\n", err)
		return 1
	}
	b := bank.NewBank(bank.Options{Logger: &log})
	if err := b.Restore(snap); err != nil {
		fmt.Fprintf(out, "FAIL: %v\n", err)
		return 1
	}

	if *verbose {
		for _, u := range b.Usernames() {
			a, err := b.Account(ctx, u)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "%-12s %-20s %12s %4d entries\n",
				a.AccountNumber, u, a.Balance.StringFixed(bank.CurrencyPlaces), len(a.History))
		}
	}

	violations := b.Audit()
	for _, v := range violations {
		fmt.Fprintf(out, "VIOLATION %s: %v\n", v.Username, v.Err)
	}
	if len(violations) > 0 {
		return 1
	}
	fmt.Fprintf(out, "OK: %d accounts verified\n", len(snap.Accounts))
	return 0
}
