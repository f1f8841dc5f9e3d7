package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonarb/giftarb/internal/domain"
)

// GiftFlip detects gift-level cross-market flips: the same gift listed
// cheaper in one market than the other's floor. Either direction qualifies.
type GiftFlip struct {
	fees   Fees
	logger *slog.Logger
}

// NewGiftFlip creates the gift-level flip strategy.
func NewGiftFlip(fees Fees, logger *slog.Logger) *GiftFlip {
	return &GiftFlip{fees: fees, logger: logger.With(slog.String("strategy", "gift_flip"))}
}

// Name returns the strategy identifier.
func (g *GiftFlip) Name() string { return "gift_flip" }

// Detect joins the two gift-level floor maps and scores each pair.
func (g *GiftFlip) Detect(ctx context.Context, snap Snapshot) ([]domain.Candidate, error) {
	joins := JoinGiftFloors(snap.TonnelFloors, snap.PortalsFloors)

	var candidates []domain.Candidate
	for _, j := range joins {
		cost, profit, percent, ok := g.fees.Flip(j.Buy, j.Sell, j.BuyMarket, j.SellMarket)
		if !ok || percent < snap.MinProfitPercent {
			continue
		}

		// Cleanliness is only determinable when the buy side is Tonnel,
		// where plain listings carry a signature field.
		clean := true
		if j.BuyMarket == domain.MarketTonnel {
			clean = snap.CleanStatus(j.Key)
		}

		candidates = append(candidates, domain.Candidate{
			ID:            uuid.New().String(),
			Gift:          string(j.Key),
			BuyMarket:     j.BuyMarket,
			SellMarket:    j.SellMarket,
			BuyPrice:      cost,
			SellPrice:     j.Sell,
			Profit:        profit,
			ProfitPercent: percent,
			Clean:         clean,
			Strategy:      g.Name(),
			DetectedAt:    time.Now().UTC(),
		})
	}

	if len(candidates) > 0 {
		g.logger.DebugContext(ctx, "gift flips detected", slog.Int("count", len(candidates)))
	}
	return candidates, nil
}
