package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GIFTARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GIFTARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Telegram ──
	setStr(&cfg.Telegram.Token, "GIFTARB_TELEGRAM_TOKEN")
	setInt64Slice(&cfg.Telegram.AllowedChats, "GIFTARB_TELEGRAM_ALLOWED_CHATS")
	setDuration(&cfg.Telegram.PollTimeout, "GIFTARB_TELEGRAM_POLL_TIMEOUT")
	setInt(&cfg.Telegram.ScanLimit, "GIFTARB_TELEGRAM_SCAN_LIMIT")
	setDuration(&cfg.Telegram.ScanWindow, "GIFTARB_TELEGRAM_SCAN_WINDOW")

	// ── Tonnel ──
	setStr(&cfg.Tonnel.BaseURL, "GIFTARB_TONNEL_BASE_URL")
	setStr(&cfg.Tonnel.StatsURL, "GIFTARB_TONNEL_STATS_URL")
	setStr(&cfg.Tonnel.AuthData, "GIFTARB_TONNEL_AUTH_DATA")
	setStr(&cfg.Tonnel.CFClearance, "GIFTARB_TONNEL_CF_CLEARANCE")
	setStr(&cfg.Tonnel.ProxyURL, "GIFTARB_TONNEL_PROXY_URL")

	// ── Portals ──
	setStr(&cfg.Portals.BaseURL, "GIFTARB_PORTALS_BASE_URL")
	setStr(&cfg.Portals.AuthData, "GIFTARB_PORTALS_AUTH_DATA")

	// ── Fees ──
	setFloat64(&cfg.Fees.TonnelCommission, "GIFTARB_FEES_TONNEL_COMMISSION")
	setFloat64(&cfg.Fees.PortalsCommission, "GIFTARB_FEES_PORTALS_COMMISSION")
	setFloat64(&cfg.Fees.TransferFee, "GIFTARB_FEES_TRANSFER_FEE")

	// ── Scan ──
	setFloat64(&cfg.Scan.PriceMin, "GIFTARB_SCAN_PRICE_MIN")
	setFloat64(&cfg.Scan.PriceMax, "GIFTARB_SCAN_PRICE_MAX")
	setFloat64(&cfg.Scan.MinProfitPercent, "GIFTARB_SCAN_MIN_PROFIT_PERCENT")
	setInt(&cfg.Scan.PageLimit, "GIFTARB_SCAN_PAGE_LIMIT")
	setInt(&cfg.Scan.MaxListingPages, "GIFTARB_SCAN_MAX_LISTING_PAGES")
	setInt(&cfg.Scan.MaxAuctionPages, "GIFTARB_SCAN_MAX_AUCTION_PAGES")
	setDuration(&cfg.Scan.FloorCacheTTL, "GIFTARB_SCAN_FLOOR_CACHE_TTL")
	setStringSlice(&cfg.Scan.Strategies, "GIFTARB_SCAN_STRATEGIES")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "GIFTARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "GIFTARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GIFTARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GIFTARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "GIFTARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "GIFTARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "GIFTARB_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "GIFTARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "GIFTARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "GIFTARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "GIFTARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "GIFTARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "GIFTARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "GIFTARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "GIFTARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "GIFTARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "GIFTARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "GIFTARB_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "GIFTARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "GIFTARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "GIFTARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "GIFTARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "GIFTARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "GIFTARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "GIFTARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "GIFTARB_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "GIFTARB_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "GIFTARB_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Cron, "GIFTARB_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "GIFTARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "GIFTARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "GIFTARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "GIFTARB_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "GIFTARB_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "GIFTARB_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "GIFTARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GIFTARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GIFTARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "GIFTARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "GIFTARB_MODE")
	setStr(&cfg.LogLevel, "GIFTARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setInt64Slice(dst *[]int64, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]int64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				continue
			}
			cleaned = append(cleaned, n)
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
