package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonarb/giftarb/internal/domain"
)

// ModelFlip detects model-level cross-market flips. Only the
// buy-on-Tonnel, sell-on-Portals direction is considered; see
// JoinModelFloors for the directional restriction.
type ModelFlip struct {
	fees   Fees
	logger *slog.Logger
}

// NewModelFlip creates the model-level flip strategy.
func NewModelFlip(fees Fees, logger *slog.Logger) *ModelFlip {
	return &ModelFlip{fees: fees, logger: logger.With(slog.String("strategy", "model_flip"))}
}

// Name returns the strategy identifier.
func (m *ModelFlip) Name() string { return "model_flip" }

// Detect joins the per-model floor maps and scores each pair. Model flips
// always cross markets, so the transfer fee always applies.
func (m *ModelFlip) Detect(ctx context.Context, snap Snapshot) ([]domain.Candidate, error) {
	joins := JoinModelFloors(snap.TonnelModelFloors, snap.PortalsModelFloors)

	var candidates []domain.Candidate
	for _, j := range joins {
		cost, profit, percent, ok := m.fees.Flip(j.Buy, j.Sell, domain.MarketTonnel, domain.MarketPortals)
		if !ok || percent < snap.MinProfitPercent {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			ID:            uuid.New().String(),
			Gift:          string(j.Key.Gift),
			Model:         string(j.Key.Model),
			BuyMarket:     domain.MarketTonnel,
			SellMarket:    domain.MarketPortals,
			BuyPrice:      cost,
			SellPrice:     j.Sell,
			Profit:        profit,
			ProfitPercent: percent,
			Clean:         snap.CleanStatus(j.Key.Gift),
			Strategy:      m.Name(),
			DetectedAt:    time.Now().UTC(),
		})
	}

	if len(candidates) > 0 {
		m.logger.DebugContext(ctx, "model flips detected", slog.Int("count", len(candidates)))
	}
	return candidates, nil
}
