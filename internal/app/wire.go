package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/tonarb/giftarb/internal/blob/s3"
	"github.com/tonarb/giftarb/internal/cache/redis"
	"github.com/tonarb/giftarb/internal/config"
	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/notify"
	"github.com/tonarb/giftarb/internal/platform/portals"
	"github.com/tonarb/giftarb/internal/platform/tonnel"
	"github.com/tonarb/giftarb/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function. Optional subsystems (Redis, Postgres, S3) leave their
// fields nil when disabled in config.
type Dependencies struct {
	// Marketplace clients
	Tonnel  *tonnel.Client
	Portals *portals.Client

	// Persistence
	ScanStore *postgres.ScanStore

	// Redis-backed coordination
	FloorCache  domain.FloorCache
	LockManager domain.LockManager
	RateLimiter domain.RateLimiter

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Marketplace clients ---
	tonnelClient, err := tonnel.NewClient(tonnel.ClientConfig{
		BaseURL:     cfg.Tonnel.BaseURL,
		StatsURL:    cfg.Tonnel.StatsURL,
		AuthData:    cfg.Tonnel.AuthData,
		CFClearance: cfg.Tonnel.CFClearance,
		ProxyURL:    cfg.Tonnel.ProxyURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: tonnel client: %w", err)
	}
	deps.Tonnel = tonnelClient

	deps.Portals = portals.NewClient(portals.ClientConfig{
		BaseURL:  cfg.Portals.BaseURL,
		AuthData: cfg.Portals.AuthData,
	})

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.FloorCache = redis.NewFloorCache(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.ScanStore = postgres.NewScanStore(pgClient.Pool())
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		// Archiver needs a store to drain.
		if deps.ScanStore != nil {
			deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.ScanStore)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
