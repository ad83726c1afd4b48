package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadFrom err=%v", err)
	}
	if cfg.DataFile != "bank_data.json" {
		t.Fatalf("DataFile=%q want bank_data.json", cfg.DataFile)
	}
	if cfg.LockTimeout != 5*time.Second {
		t.Fatalf("LockTimeout=%s want 5s", cfg.LockTimeout)
	}
	if cfg.MaxLoginAttempts != 3 || cfg.BcryptCost != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.Pretty {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"BANK_DATA_FILE":    "/tmp/x.json",
		"BANK_LOCK_TIMEOUT": "250ms",
		"LOG_LEVEL":         "debug",
		"LOG_PRETTY":        "false",
	}))
	if err != nil {
		t.Fatalf("LoadFrom err=%v", err)
	}
	if cfg.DataFile != "/tmp/x.json" || cfg.LockTimeout != 250*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Pretty {
		t.Fatalf("log overrides not applied: %+v", cfg.Log)
	}
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"zero timeout":  {"BANK_LOCK_TIMEOUT": "0s"},
		"zero attempts": {"BANK_MAX_LOGIN_ATTEMPTS": "0"},
		"not a number":  {"BANK_BCRYPT_COST": "ten"},
	}
	for name, env := range cases {
		if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}
