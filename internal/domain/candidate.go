package domain

import "time"

// Candidate is one detected arbitrage opportunity: buy a gift in one market
// and realize a higher fee-adjusted price in the other (or in the same
// market, for floor-spread flips). Immutable once constructed.
type Candidate struct {
	ID         string
	Gift       string
	Model      string // empty for gift-level flips
	BuyMarket  Market
	SellMarket Market

	// BuyPrice is the fee-inclusive cost of acquiring the gift. SellPrice is
	// the raw listing price the sell side would target, before the sell-side
	// commission is deducted.
	BuyPrice  float64
	SellPrice float64

	// Profit is proceeds minus cost minus any transfer fee. ProfitPercent is
	// always 100*Profit/BuyPrice.
	Profit        float64
	ProfitPercent float64

	Clean      bool
	Strategy   string
	DetectedAt time.Time
}
