// internal/config/config.go
//
// 集中管理執行期設定：全部由環境變數讀取（可選擇性地由 .env 檔補上）。
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config 為 CLI 執行所需的全部設定。
type Config struct {
	DataFile  string `env:"BANK_DATA_FILE,  default=bank_data.json"`
	ExportDir string `env:"BANK_EXPORT_DIR, default=."`

	// LockTimeout 為單一帳戶鎖的最長等待時間，逾時回傳可重試的錯誤。
	LockTimeout time.Duration `env:"BANK_LOCK_TIMEOUT, default=5s"`
	BcryptCost  int           `env:"BANK_BCRYPT_COST,  default=10"`

	MaxLoginAttempts int `env:"BANK_MAX_LOGIN_ATTEMPTS, default=3"`

	Log LogConfig
}

// LogConfig 控制 zerolog 的輸出等級與格式。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL,  default=warn"`
	Pretty bool   `env:"LOG_PRETTY, default=true"`
}

// Load 先嘗試載入 envFiles（不存在則略過），再以 go-envconfig 解析環境變數。
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		// .env 僅供本機開發，缺少時不視為錯誤
		_ = godotenv.Load(f)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom 以指定的 Lookuper 解析設定，方便測試注入假環境。
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.LockTimeout <= 0 {
		return nil, fmt.Errorf("config: BANK_LOCK_TIMEOUT must be > 0, got %s", cfg.LockTimeout)
	}
	if cfg.MaxLoginAttempts <= 0 {
		return nil, fmt.Errorf("config: BANK_MAX_LOGIN_ATTEMPTS must be > 0, got %d", cfg.MaxLoginAttempts)
	}
	return &cfg, nil
}
