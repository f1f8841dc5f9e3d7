package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonarb/giftarb/internal/domain"
)

// AuctionFlip detects flips from Tonnel auctions into Portals listings:
// win the auction at the current bid, sell into the counter-market's next
// cheapest slot. Auctions are always cross-market in this design, so the
// transfer fee always applies.
type AuctionFlip struct {
	fees   Fees
	logger *slog.Logger
}

// NewAuctionFlip creates the auction-to-floor flip strategy.
func NewAuctionFlip(fees Fees, logger *slog.Logger) *AuctionFlip {
	return &AuctionFlip{fees: fees, logger: logger.With(slog.String("strategy", "auction_flip"))}
}

// Name returns the strategy identifier.
func (a *AuctionFlip) Name() string { return "auction_flip" }

// Detect pairs each auction with its Portals sell price and scores the flip
// at the current bid.
func (a *AuctionFlip) Detect(ctx context.Context, snap Snapshot) ([]domain.Candidate, error) {
	joins := JoinAuctions(snap.Auctions, snap.PortalsDepth)

	var candidates []domain.Candidate
	for _, j := range joins {
		cost, profit, percent, ok := a.fees.Flip(j.Auction.Bid, j.Sell, domain.MarketTonnel, domain.MarketPortals)
		if !ok || percent < snap.MinProfitPercent {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			ID:            uuid.New().String(),
			Gift:          j.Auction.Gift,
			Model:         j.Auction.Model,
			BuyMarket:     domain.MarketTonnel,
			SellMarket:    domain.MarketPortals,
			BuyPrice:      cost,
			SellPrice:     j.Sell,
			Profit:        profit,
			ProfitPercent: percent,
			Clean:         snap.CleanStatus(j.Key.Gift),
			Strategy:      a.Name(),
			DetectedAt:    time.Now().UTC(),
		})
	}

	if len(candidates) > 0 {
		a.logger.DebugContext(ctx, "auction flips detected", slog.Int("count", len(candidates)))
	}
	return candidates, nil
}
