package arbitrage

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tonarb/giftarb/internal/domain"
)

// FloorSpread detects flips entirely inside Portals: buy a model at its
// floor and resell into the second-cheapest slot. Both legs stay in one
// market, so no transfer fee applies.
type FloorSpread struct {
	fees   Fees
	logger *slog.Logger
}

// NewFloorSpread creates the internal floor-spread strategy.
func NewFloorSpread(fees Fees, logger *slog.Logger) *FloorSpread {
	return &FloorSpread{fees: fees, logger: logger.With(slog.String("strategy", "floor_spread"))}
}

// Name returns the strategy identifier.
func (f *FloorSpread) Name() string { return "floor_spread" }

// Detect scores floor-to-second spreads for every model with two known
// Portals quotes.
func (f *FloorSpread) Detect(ctx context.Context, snap Snapshot) ([]domain.Candidate, error) {
	keys := make([]domain.ModelKey, 0, len(snap.PortalsDepth))
	for key := range snap.PortalsDepth {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Gift != keys[j].Gift {
			return keys[i].Gift < keys[j].Gift
		}
		return keys[i].Model < keys[j].Model
	})

	var candidates []domain.Candidate
	for _, key := range keys {
		quote := snap.PortalsDepth[key]
		if quote.Floor == nil || quote.Second == nil {
			continue
		}

		cost, profit, percent, ok := f.fees.Flip(*quote.Floor, *quote.Second, domain.MarketPortals, domain.MarketPortals)
		if !ok || percent < snap.MinProfitPercent {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			ID:            uuid.New().String(),
			Gift:          string(key.Gift),
			Model:         string(key.Model),
			BuyMarket:     domain.MarketPortals,
			SellMarket:    domain.MarketPortals,
			BuyPrice:      cost,
			SellPrice:     *quote.Second,
			Profit:        profit,
			ProfitPercent: percent,
			Clean:         true, // Portals listings expose no signature
			Strategy:      f.Name(),
			DetectedAt:    time.Now().UTC(),
		})
	}

	if len(candidates) > 0 {
		f.logger.DebugContext(ctx, "floor spreads detected", slog.Int("count", len(candidates)))
	}
	return candidates, nil
}
