package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Telegram
	out.Telegram = cfg.Telegram
	redact(&out.Telegram.Token)

	// Marketplace sessions
	out.Tonnel = cfg.Tonnel
	redact(&out.Tonnel.AuthData)
	redact(&out.Tonnel.CFClearance)
	redact(&out.Tonnel.ProxyURL)
	out.Portals = cfg.Portals
	redact(&out.Portals.AuthData)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Telegram.AllowedChats != nil {
		out.Telegram.AllowedChats = make([]int64, len(cfg.Telegram.AllowedChats))
		copy(out.Telegram.AllowedChats, cfg.Telegram.AllowedChats)
	}
	if cfg.Scan.Strategies != nil {
		out.Scan.Strategies = make([]string, len(cfg.Scan.Strategies))
		copy(out.Scan.Strategies, cfg.Scan.Strategies)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
