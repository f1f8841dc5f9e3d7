// Package config defines the top-level configuration for the gift arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by GIFTARB_* environment variables.
type Config struct {
	Telegram TelegramConfig `toml:"telegram"`
	Tonnel   TonnelConfig   `toml:"tonnel"`
	Portals  PortalsConfig  `toml:"portals"`
	Fees     FeesConfig     `toml:"fees"`
	Scan     ScanConfig     `toml:"scan"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// TelegramConfig holds the command bot credentials and limits.
type TelegramConfig struct {
	Token string `toml:"token"`
	// AllowedChats restricts who may command the bot. Empty allows all.
	AllowedChats []int64  `toml:"allowed_chats"`
	PollTimeout  duration `toml:"poll_timeout"`
	// ScanLimit scans per ScanWindow are allowed per chat. Zero disables
	// the throttle.
	ScanLimit  int      `toml:"scan_limit"`
	ScanWindow duration `toml:"scan_window"`
}

// TonnelConfig holds the Tonnel marketplace endpoints and session token.
type TonnelConfig struct {
	BaseURL     string `toml:"base_url"`
	StatsURL    string `toml:"stats_url"`
	AuthData    string `toml:"auth_data"`
	CFClearance string `toml:"cf_clearance"`
	ProxyURL    string `toml:"proxy_url"`
}

// PortalsConfig holds the Portals marketplace endpoint and session token.
type PortalsConfig struct {
	BaseURL  string `toml:"base_url"`
	AuthData string `toml:"auth_data"`
}

// FeesConfig holds the per-market commission schedule and the fixed cost of
// moving a gift between markets.
type FeesConfig struct {
	TonnelCommission  float64 `toml:"tonnel_commission"`
	PortalsCommission float64 `toml:"portals_commission"`
	TransferFee       float64 `toml:"transfer_fee"`
}

// ScanConfig holds the default scan request parameters and pagination caps.
type ScanConfig struct {
	PriceMin         float64  `toml:"price_min"`
	PriceMax         float64  `toml:"price_max"`
	MinProfitPercent float64  `toml:"min_profit_percent"`
	PageLimit        int      `toml:"page_limit"`
	MaxListingPages  int      `toml:"max_listing_pages"`
	MaxAuctionPages  int      `toml:"max_auction_pages"`
	FloorCacheTTL    duration `toml:"floor_cache_ttl"`
	// Strategies selects which detectors run. Empty enables all registered
	// strategies.
	Strategies []string `toml:"strategies"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the scan audit
// store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	Cron          string `toml:"cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit requests per RateWindow are allowed per client IP. Zero
	// disables the throttle.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Telegram: TelegramConfig{
			PollTimeout: duration{30 * time.Second},
			ScanLimit:   3,
			ScanWindow:  duration{time.Minute},
		},
		Tonnel: TonnelConfig{
			BaseURL:  "https://gifts2.tonnel.network",
			StatsURL: "https://gifts3.tonnel.network",
		},
		Portals: PortalsConfig{
			BaseURL: "https://portals-market.com",
		},
		Fees: FeesConfig{
			TonnelCommission:  0.06,
			PortalsCommission: 0.05,
			TransferFee:       0.15,
		},
		Scan: ScanConfig{
			PriceMin:         0,
			PriceMax:         10_000,
			MinProfitPercent: 5.0,
			PageLimit:        30,
			MaxListingPages:  20,
			MaxAuctionPages:  5,
			FloorCacheTTL:    duration{2 * time.Minute},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "giftarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "giftarb-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Cron:          "0 3 1 * *",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"scan_complete", "scan_failed", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"bot":   true,
	"scan":  true,
	"serve": true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: bot, scan, serve, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Telegram. The bot cannot start without a token.
	if mode == "bot" || mode == "full" {
		if c.Telegram.Token == "" {
			errs = append(errs, "telegram: token is required for mode "+c.Mode)
		}
	}
	if c.Telegram.ScanLimit < 0 {
		errs = append(errs, "telegram: scan_limit must be >= 0")
	}
	if c.Telegram.ScanLimit > 0 && c.Telegram.ScanWindow.Duration <= 0 {
		errs = append(errs, "telegram: scan_window must be positive when scan_limit is set")
	}

	// Marketplace endpoints
	if c.Tonnel.BaseURL == "" {
		errs = append(errs, "tonnel: base_url must not be empty")
	}
	if c.Tonnel.AuthData == "" {
		errs = append(errs, "tonnel: auth_data must not be empty")
	}
	if c.Portals.BaseURL == "" {
		errs = append(errs, "portals: base_url must not be empty")
	}
	if c.Portals.AuthData == "" {
		errs = append(errs, "portals: auth_data must not be empty")
	}

	// Fees
	if c.Fees.TonnelCommission < 0 || c.Fees.TonnelCommission >= 1 {
		errs = append(errs, fmt.Sprintf("fees: tonnel_commission must be in [0, 1), got %v", c.Fees.TonnelCommission))
	}
	if c.Fees.PortalsCommission < 0 || c.Fees.PortalsCommission >= 1 {
		errs = append(errs, fmt.Sprintf("fees: portals_commission must be in [0, 1), got %v", c.Fees.PortalsCommission))
	}
	if c.Fees.TransferFee < 0 {
		errs = append(errs, "fees: transfer_fee must be >= 0")
	}

	// Scan
	if c.Scan.PriceMin < 0 {
		errs = append(errs, "scan: price_min must be >= 0")
	}
	if c.Scan.PriceMax <= c.Scan.PriceMin {
		errs = append(errs, "scan: price_max must exceed price_min")
	}
	if c.Scan.MinProfitPercent < 0 {
		errs = append(errs, "scan: min_profit_percent must be >= 0")
	}
	if c.Scan.PageLimit < 1 {
		errs = append(errs, "scan: page_limit must be >= 1")
	}
	if c.Scan.MaxListingPages < 1 {
		errs = append(errs, "scan: max_listing_pages must be >= 1")
	}
	if c.Scan.MaxAuctionPages < 1 {
		errs = append(errs, "scan: max_auction_pages must be >= 1")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Archive needs both the database and cold storage.
	if c.Archive.Enabled {
		if !c.Postgres.Enabled || !c.S3.Enabled {
			errs = append(errs, "archive: requires postgres and s3 to be enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if strings.TrimSpace(c.Archive.Cron) == "" {
			errs = append(errs, "archive: cron must not be empty")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && !c.Redis.Enabled {
			errs = append(errs, "server: rate_limit requires redis to be enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
