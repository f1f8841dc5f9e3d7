package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonarb/giftarb/internal/arbitrage"
	"github.com/tonarb/giftarb/internal/bot"
	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/pipeline"
	"github.com/tonarb/giftarb/internal/scan"
	"github.com/tonarb/giftarb/internal/server"
	"github.com/tonarb/giftarb/internal/server/handler"
	"github.com/tonarb/giftarb/internal/server/ws"
	"github.com/tonarb/giftarb/internal/service"
)

// BotMode runs the Telegram command bot. Scans are triggered on demand by
// chat commands.
func (a *App) BotMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting bot mode")

	g, ctx := errgroup.WithContext(ctx)

	svc := a.buildScanService(deps, nil)
	a.startBot(ctx, g, deps, svc)

	return g.Wait()
}

// ScanMode runs a single scan with the configured defaults and logs the
// result. Useful for cron jobs and smoke tests.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	svc := a.buildScanService(deps, nil)
	result, err := svc.Run(ctx, a.defaultScanRequest("cli"))
	if err != nil {
		return err
	}

	for i, c := range result.Candidates {
		a.logger.InfoContext(ctx, "candidate",
			slog.Int("rank", i+1),
			slog.String("gift", c.Gift),
			slog.String("model", c.Model),
			slog.String("buy_market", string(c.BuyMarket)),
			slog.String("sell_market", string(c.SellMarket)),
			slog.Float64("profit", c.Profit),
			slog.Float64("profit_percent", c.ProfitPercent),
			slog.String("strategy", c.Strategy),
		)
	}
	for _, w := range result.Warnings {
		a.logger.WarnContext(ctx, "scan warning", slog.String("warning", w.String()))
	}
	return nil
}

// ServeMode runs the HTTP + WebSocket API server, with scans triggered via
// POST /api/scan.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := a.startHub(ctx, g)
	svc := a.buildScanService(deps, hub)

	archiveTriggerCh := a.startArchiver(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps, svc, hub, archiveTriggerCh)

	return g.Wait()
}

// FullMode runs every subsystem: the Telegram bot, the HTTP + WebSocket API
// server, and the archive cron.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := a.startHub(ctx, g)
	svc := a.buildScanService(deps, hub)

	a.startBot(ctx, g, deps, svc)

	archiveTriggerCh := a.startArchiver(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svc, hub, archiveTriggerCh)
	}

	return g.Wait()
}

// buildFees maps the configured commission schedule into the strategy layer.
func (a *App) buildFees() arbitrage.Fees {
	return arbitrage.Fees{
		Commission: map[domain.Market]float64{
			domain.MarketTonnel:  a.cfg.Fees.TonnelCommission,
			domain.MarketPortals: a.cfg.Fees.PortalsCommission,
		},
		TransferFee: a.cfg.Fees.TransferFee,
	}
}

// buildStrategies returns the flip strategies selected by scan.strategies,
// or all registered strategies when the list is empty.
func (a *App) buildStrategies() []arbitrage.Strategy {
	fees := a.buildFees()

	reg := arbitrage.NewRegistry()
	reg.Register(arbitrage.NewGiftFlip(fees, a.logger))
	reg.Register(arbitrage.NewModelFlip(fees, a.logger))
	reg.Register(arbitrage.NewAuctionFlip(fees, a.logger))
	reg.Register(arbitrage.NewFloorSpread(fees, a.logger))

	names := a.cfg.Scan.Strategies
	if len(names) == 0 {
		names = reg.List()
	}

	strategies := make([]arbitrage.Strategy, 0, len(names))
	for _, name := range names {
		s, err := reg.Get(name)
		if err != nil {
			a.logger.Warn("unknown scan strategy, skipping",
				slog.String("strategy", name),
			)
			continue
		}
		strategies = append(strategies, s)
	}
	return strategies
}

// buildScanService assembles the scanner and wraps it in the coordinating
// service. publisher may be nil when no WebSocket hub is running.
func (a *App) buildScanService(deps *Dependencies, publisher service.CandidatePublisher) *service.ScanService {
	scanner := scan.New(
		deps.Tonnel,
		deps.Portals,
		a.buildStrategies(),
		deps.FloorCache,
		scan.Config{
			PageLimit:       a.cfg.Scan.PageLimit,
			MaxListingPages: a.cfg.Scan.MaxListingPages,
			MaxAuctionPages: a.cfg.Scan.MaxAuctionPages,
			FloorCacheTTL:   a.cfg.Scan.FloorCacheTTL.Duration,
		},
		a.logger,
	)

	// Avoid a typed-nil store reaching the interface field.
	var store domain.ScanStore
	if deps.ScanStore != nil {
		store = deps.ScanStore
	}

	return service.NewScanService(scanner, store, deps.LockManager, deps.Notifier, publisher, a.logger)
}

// defaultScanRequest builds a scan request from the configured defaults.
func (a *App) defaultScanRequest(requestedBy string) scan.Request {
	return scan.Request{
		PriceMin:         a.cfg.Scan.PriceMin,
		PriceMax:         a.cfg.Scan.PriceMax,
		MinProfitPercent: a.cfg.Scan.MinProfitPercent,
		RequestedBy:      requestedBy,
	}
}

// startBot adds the Telegram bot long-poll loop to the errgroup.
func (a *App) startBot(ctx context.Context, g *errgroup.Group, deps *Dependencies, svc *service.ScanService) {
	client := bot.NewClient(bot.ClientConfig{
		Token:       a.cfg.Telegram.Token,
		PollTimeout: a.cfg.Telegram.PollTimeout.Duration,
	})
	b := bot.New(client, svc, deps.RateLimiter, bot.Config{
		PollTimeout:             a.cfg.Telegram.PollTimeout.Duration,
		AllowedChats:            a.cfg.Telegram.AllowedChats,
		DefaultPriceMin:         a.cfg.Scan.PriceMin,
		DefaultPriceMax:         a.cfg.Scan.PriceMax,
		DefaultMinProfitPercent: a.cfg.Scan.MinProfitPercent,
		ScanLimit:               a.cfg.Telegram.ScanLimit,
		ScanWindow:              a.cfg.Telegram.ScanWindow.Duration,
	}, a.logger)

	g.Go(func() error {
		return b.Run(ctx)
	})
}

// startHub adds the WebSocket hub loop to the errgroup and returns the hub.
func (a *App) startHub(ctx context.Context, g *errgroup.Group) *ws.Hub {
	hub := ws.NewHub(a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})
	return hub
}

// startArchiver adds the archive cron loop to the errgroup when archival is
// enabled and its stores are wired. It returns the manual trigger channel, or
// nil when the archiver is not running.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) chan struct{} {
	if !a.cfg.Archive.Enabled || deps.Archiver == nil || deps.ScanStore == nil {
		return nil
	}

	triggerCh := make(chan struct{}, 1)
	arch := pipeline.NewArchiver(deps.Archiver, deps.ScanStore, deps.Notifier, a.cfg.Archive.RetentionDays, a.logger)
	g.Go(func() error {
		return arch.RunCron(ctx, a.cfg.Archive.Cron, triggerCh)
	})
	return triggerCh
}

// startHTTPServer adds the HTTP server and its graceful shutdown to the
// errgroup. archiveTriggerCh is optional; when non-nil, POST
// /api/archive/trigger requests one out-of-schedule archive run.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	svc *service.ScanService,
	hub *ws.Hub,
	archiveTriggerCh chan struct{},
) {
	scanH := handler.NewScanHandler(svc, handler.ScanDefaults{
		PriceMin:         a.cfg.Scan.PriceMin,
		PriceMax:         a.cfg.Scan.PriceMax,
		MinProfitPercent: a.cfg.Scan.MinProfitPercent,
	}, a.logger)

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Scan:   scanH,
	}
	if archiveTriggerCh != nil {
		handlers.Archive = handler.NewArchiveHandler(a.logger).WithTriggerChannel(archiveTriggerCh)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
