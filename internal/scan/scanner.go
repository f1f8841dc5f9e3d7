package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonarb/giftarb/internal/arbitrage"
	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/platform/portals"
	"github.com/tonarb/giftarb/internal/platform/tonnel"
)

// TonnelSource is the slice of the Tonnel client a scan needs.
type TonnelSource interface {
	GiftsPage(ctx context.Context, q tonnel.PageQuery) ([]tonnel.Gift, error)
	AuctionsPage(ctx context.Context, q tonnel.PageQuery) ([]tonnel.Auction, error)
	ModelFloors(ctx context.Context) ([]tonnel.ModelFloorEntry, error)
}

// PortalsSource is the slice of the Portals client a scan needs.
type PortalsSource interface {
	Floors(ctx context.Context) ([]portals.FloorEntry, error)
	Search(ctx context.Context, q portals.SearchQuery) ([]portals.Listing, error)
}

// Config bounds how much of each market a scan pulls in.
type Config struct {
	// PageLimit is the page size requested from paginated endpoints.
	PageLimit int
	// MaxListingPages and MaxAuctionPages cap pagination per source.
	MaxListingPages int
	MaxAuctionPages int
	// FloorCacheTTL is how long fetched Portals floors stay valid in the
	// floor cache. Zero disables caching even when a cache is configured.
	FloorCacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageLimit <= 0 {
		c.PageLimit = 30
	}
	if c.MaxListingPages <= 0 {
		c.MaxListingPages = 20
	}
	if c.MaxAuctionPages <= 0 {
		c.MaxAuctionPages = 5
	}
	return c
}

// Request is one scan invocation: a price band and a profit threshold. The
// band applies to every quote a scan considers, including per-model depth
// quotes whose endpoints cannot filter server-side.
type Request struct {
	PriceMin         float64
	PriceMax         float64
	MinProfitPercent float64
	// RequestedBy identifies the initiator for audit records. Optional.
	RequestedBy string
}

// contains reports whether price falls inside the requested band.
func (r Request) contains(price float64) bool {
	return price >= r.PriceMin && price <= r.PriceMax
}

// Result is the outcome of one scan. Warnings describe sources that were
// truncated or substituted; they never imply the candidates are wrong, only
// that fewer quotes were considered than requested.
type Result struct {
	Candidates []domain.Candidate
	Warnings   []Warning
	StartedAt  time.Time
	FinishedAt time.Time
}

// Scanner fetches both marketplaces, joins their quotes into a Snapshot and
// runs the configured strategies over it.
type Scanner struct {
	tonnel     TonnelSource
	portals    PortalsSource
	strategies []arbitrage.Strategy
	floors     domain.FloorCache // optional
	cfg        Config
	logger     *slog.Logger
}

// New creates a Scanner. floors may be nil, in which case Portals floors
// are refetched on every scan.
func New(t TonnelSource, p PortalsSource, strategies []arbitrage.Strategy, floors domain.FloorCache, cfg Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		tonnel:     t,
		portals:    p,
		strategies: strategies,
		floors:     floors,
		cfg:        cfg.withDefaults(),
		logger:     logger.With(slog.String("component", "scanner")),
	}
}

// Scan runs one full scan of both markets. It returns an error only when a
// market rejects the session or the context ends; every lesser failure
// degrades to a Warning and the scan continues on partial data. A scan that
// finds nothing returns an empty candidate list and no error.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	started := time.Now().UTC()

	var (
		listings      []domain.Listing
		auctions      []domain.AuctionListing
		tonnelModels  []tonnel.ModelFloorEntry
		portalsFloors domain.FloorMap
		tonnelWarns   []Warning
		portalsWarns  []Warning
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, auctions, tonnelModels, tonnelWarns, err = s.fetchTonnel(gctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		portalsFloors, portalsWarns, err = s.fetchPortalsFloors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	warnings := append(tonnelWarns, portalsWarns...)

	snap := arbitrage.Snapshot{
		TonnelFloors:       make(domain.FloorMap),
		PortalsFloors:      portalsFloors,
		TonnelModelFloors:  make(domain.ModelFloorMap),
		PortalsModelFloors: make(domain.ModelFloorMap),
		PortalsDepth:       make(map[domain.ModelKey]domain.DepthQuote),
		Auctions:           auctions,
		Clean:              make(map[domain.CanonicalKey]bool),
		MinProfitPercent:   req.MinProfitPercent,
	}

	// Gift-level Tonnel floors come from the listings themselves, which also
	// carry the only signature information either market exposes. A gift is
	// clean only if every sampled listing of it was clean.
	for _, l := range listings {
		key := domain.Canonicalize(l.Gift)
		if key == "" {
			continue
		}
		snap.TonnelFloors.UpdateFloor(key, l.Price)
		if clean, seen := snap.Clean[key]; seen {
			snap.Clean[key] = clean && l.Clean()
		} else {
			snap.Clean[key] = l.Clean()
		}
	}
	for _, e := range tonnelModels {
		snap.TonnelModelFloors.UpdateFloor(domain.NewModelKey(e.Gift, e.Model), e.Price)
	}

	depthWarns, err := s.fetchPortalsDepth(ctx, req, tonnelModels, auctions, &snap)
	warnings = append(warnings, depthWarns...)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	var candidates []domain.Candidate
	for _, strat := range s.strategies {
		found, err := strat.Detect(ctx, snap)
		if err != nil {
			warnings = append(warnings, Warning{Stage: "strategy " + strat.Name(), Err: err})
			continue
		}
		candidates = append(candidates, found...)
	}
	ranked := arbitrage.Rank(candidates, req.MinProfitPercent)

	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("listings", len(listings)),
		slog.Int("auctions", len(auctions)),
		slog.Int("candidates", len(ranked)),
		slog.Int("warnings", len(warnings)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return &Result{
		Candidates: ranked,
		Warnings:   warnings,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}, nil
}

// fetchTonnel pulls listings, auctions and per-model floors. The three
// stages are independent: each can truncate or fail without taking the
// others down, except for session errors which abort the scan.
func (s *Scanner) fetchTonnel(ctx context.Context, req Request) ([]domain.Listing, []domain.AuctionListing, []tonnel.ModelFloorEntry, []Warning, error) {
	var warnings []Warning

	gifts, warn, err := collectPages(ctx, func(ctx context.Context, page int) ([]tonnel.Gift, error) {
		return s.tonnel.GiftsPage(ctx, tonnel.PageQuery{
			Page: page, Limit: s.cfg.PageLimit,
			PriceMin: req.PriceMin, PriceMax: req.PriceMax,
		})
	}, s.cfg.PageLimit, s.cfg.MaxListingPages)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if warn != nil {
		warnings = append(warnings, Warning{Market: domain.MarketTonnel, Stage: "listings", Err: warn})
	}

	listings := make([]domain.Listing, 0, len(gifts))
	for _, g := range gifts {
		price, ok := g.PriceValue()
		if !ok {
			continue
		}
		listings = append(listings, domain.Listing{
			Gift:      g.DisplayName(),
			Model:     g.Model,
			Price:     price,
			Market:    domain.MarketTonnel,
			Signature: g.Signature,
		})
	}

	rawAuctions, warn, err := collectPages(ctx, func(ctx context.Context, page int) ([]tonnel.Auction, error) {
		return s.tonnel.AuctionsPage(ctx, tonnel.PageQuery{
			Page: page, Limit: s.cfg.PageLimit,
			PriceMin: req.PriceMin, PriceMax: req.PriceMax,
		})
	}, s.cfg.PageLimit, s.cfg.MaxAuctionPages)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if warn != nil {
		warnings = append(warnings, Warning{Market: domain.MarketTonnel, Stage: "auctions", Err: warn})
	}

	auctions := make([]domain.AuctionListing, 0, len(rawAuctions))
	for _, a := range rawAuctions {
		bid, ok := a.BidPrice()
		if !ok {
			continue
		}
		auctions = append(auctions, domain.AuctionListing{
			Gift:   a.DisplayName(),
			Model:  a.Model,
			Bid:    bid,
			Market: domain.MarketTonnel,
		})
	}

	models, err := s.tonnel.ModelFloors(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || ctx.Err() != nil {
			return nil, nil, nil, nil, err
		}
		warnings = append(warnings, Warning{Market: domain.MarketTonnel, Stage: "model floors", Err: err})
		models = nil
	}

	// The stats endpoint covers the whole market, so the band is applied
	// here. Out-of-band models also skip their Portals depth lookup.
	inBand := models[:0:len(models)]
	for _, e := range models {
		if req.contains(e.Price) {
			inBand = append(inBand, e)
		}
	}

	return listings, auctions, inBand, warnings, nil
}

// fetchPortalsFloors pulls the Portals gift-level floor map, falling back
// to the floor cache when the live fetch degrades.
func (s *Scanner) fetchPortalsFloors(ctx context.Context) (domain.FloorMap, []Warning, error) {
	floors := make(domain.FloorMap)

	entries, err := s.portals.Floors(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || ctx.Err() != nil {
			return nil, nil, err
		}
		warn := Warning{Market: domain.MarketPortals, Stage: "floors", Err: err}
		if s.floors != nil {
			cached, cerr := s.floors.GetFloors(ctx, domain.MarketPortals)
			if cerr == nil {
				return cached, []Warning{warn}, nil
			}
		}
		return floors, []Warning{warn}, nil
	}

	for _, e := range entries {
		key := domain.Canonicalize(e.Name)
		if key == "" {
			continue
		}
		floors.UpdateFloor(key, e.Price)
	}

	if s.floors != nil && s.cfg.FloorCacheTTL > 0 {
		if err := s.floors.SetFloors(ctx, domain.MarketPortals, floors, s.cfg.FloorCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "floor cache write failed", slog.Any("error", err))
		}
	}
	return floors, nil, nil
}

// fetchPortalsDepth runs the per-model Portals searches: one-deep for
// Tonnel model-floor keys, two-deep for auctioned models. Individual query
// failures skip the key; a rate limit stops the remaining queries since
// they would all hit the same wall, and a session error aborts the scan.
func (s *Scanner) fetchPortalsDepth(ctx context.Context, req Request, tonnelModels []tonnel.ModelFloorEntry, auctions []domain.AuctionListing, snap *arbitrage.Snapshot) ([]Warning, error) {
	var warnings []Warning

	auctionIx := CollectModelKeys(auctions)
	floorIx := NewModelKeyIndex()
	for _, e := range tonnelModels {
		floorIx.Add(e.Gift, e.Model)
	}

	for _, entry := range auctionIx.Entries() {
		prices, err := s.searchPrices(ctx, req, entry, 2)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) || ctx.Err() != nil {
				return warnings, err
			}
			warnings = append(warnings, Warning{Market: domain.MarketPortals, Stage: "auction depth", Err: err})
			if errors.Is(err, domain.ErrRateLimited) {
				return warnings, nil
			}
			continue
		}
		quote := domain.DepthQuote{}
		if len(prices) > 0 {
			quote.Floor = &prices[0]
		}
		if len(prices) > 1 {
			quote.Second = &prices[1]
		}
		snap.PortalsDepth[entry.Key] = quote
	}

	for _, entry := range floorIx.Entries() {
		prices, err := s.searchPrices(ctx, req, entry, 1)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) || ctx.Err() != nil {
				return warnings, err
			}
			warnings = append(warnings, Warning{Market: domain.MarketPortals, Stage: "model floor", Err: err})
			if errors.Is(err, domain.ErrRateLimited) {
				return warnings, nil
			}
			continue
		}
		if len(prices) > 0 {
			snap.PortalsModelFloors.UpdateFloor(entry.Key, prices[0])
		}
	}

	return warnings, nil
}

// searchPrices fetches the cheapest asks for one (gift, model) pair. The
// search endpoint cannot bound by price, so quotes outside the requested
// band are dropped here rather than becoming sell legs.
func (s *Scanner) searchPrices(ctx context.Context, req Request, entry KeyEntry, limit int) ([]float64, error) {
	results, err := s.portals.Search(ctx, portals.SearchQuery{
		GiftName: entry.Gift,
		Model:    entry.Model,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	prices := make([]float64, 0, len(results))
	for _, l := range results {
		price, ok := l.PriceValue()
		if !ok || !req.contains(price) {
			continue
		}
		prices = append(prices, price)
	}
	return prices, nil
}
