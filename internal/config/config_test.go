package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "scan"

[telegram]
poll_timeout = "45s"

[fees]
transfer_fee = 0.2

[scan]
min_profit_percent = 7.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "scan" {
		t.Errorf("Mode = %q, want scan", cfg.Mode)
	}
	if cfg.Telegram.PollTimeout.Duration != 45*time.Second {
		t.Errorf("PollTimeout = %v, want 45s", cfg.Telegram.PollTimeout.Duration)
	}
	if cfg.Fees.TransferFee != 0.2 {
		t.Errorf("TransferFee = %v, want 0.2", cfg.Fees.TransferFee)
	}
	if cfg.Scan.MinProfitPercent != 7.5 {
		t.Errorf("MinProfitPercent = %v, want 7.5", cfg.Scan.MinProfitPercent)
	}
	// Untouched fields keep their defaults.
	if cfg.Fees.TonnelCommission != 0.06 {
		t.Errorf("TonnelCommission = %v, want default 0.06", cfg.Fees.TonnelCommission)
	}
	if cfg.Scan.PageLimit != 30 {
		t.Errorf("PageLimit = %d, want default 30", cfg.Scan.PageLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[tonnel]
auth_data = "from-file"
`)

	t.Setenv("GIFTARB_TONNEL_AUTH_DATA", "from-env")
	t.Setenv("GIFTARB_TELEGRAM_ALLOWED_CHATS", "42, 77")
	t.Setenv("GIFTARB_SCAN_PRICE_MAX", "500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tonnel.AuthData != "from-env" {
		t.Errorf("AuthData = %q, want env value", cfg.Tonnel.AuthData)
	}
	if len(cfg.Telegram.AllowedChats) != 2 || cfg.Telegram.AllowedChats[0] != 42 || cfg.Telegram.AllowedChats[1] != 77 {
		t.Errorf("AllowedChats = %v, want [42 77]", cfg.Telegram.AllowedChats)
	}
	if cfg.Scan.PriceMax != 500 {
		t.Errorf("PriceMax = %v, want 500", cfg.Scan.PriceMax)
	}
}

func validConfig() Config {
	cfg := Defaults()
	cfg.Mode = "scan"
	cfg.Tonnel.AuthData = "tok"
	cfg.Portals.AuthData = "tma tok"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "turbo" }, "unknown mode"},
		{"bot needs token", func(c *Config) { c.Mode = "bot" }, "telegram: token is required"},
		{"missing tonnel auth", func(c *Config) { c.Tonnel.AuthData = "" }, "tonnel: auth_data"},
		{"commission out of range", func(c *Config) { c.Fees.TonnelCommission = 1.5 }, "tonnel_commission"},
		{"inverted price band", func(c *Config) { c.Scan.PriceMax = c.Scan.PriceMin }, "price_max"},
		{"archive without stores", func(c *Config) { c.Archive.Enabled = true }, "archive: requires postgres and s3"},
		{"rate limit without redis", func(c *Config) { c.Server.RateLimit = 10 }, "rate_limit requires redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "123:abc"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "secret"

	red := RedactedConfig(&cfg)

	if red.Telegram.Token != "***" || red.Tonnel.AuthData != "***" || red.Redis.Password != "***" || red.S3.SecretKey != "***" {
		t.Error("expected secrets to be redacted")
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Error("original config mutated")
	}
	if red.Tonnel.BaseURL != cfg.Tonnel.BaseURL {
		t.Error("non-secret fields should survive redaction")
	}
}
