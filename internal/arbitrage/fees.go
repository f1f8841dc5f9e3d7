// Package arbitrage provides the fee-aware flip strategies that turn joined
// cross-market price data into ranked arbitrage candidates.
package arbitrage

import "github.com/tonarb/giftarb/internal/domain"

// Fees holds the commission schedule of each market and the fixed on-chain
// cost of moving a gift between markets.
type Fees struct {
	// Commission maps a market to its fractional commission rate, applied on
	// top of the price when buying and deducted from proceeds when selling.
	Commission map[domain.Market]float64
	// TransferFee is charged once per flip whose buy and sell legs are in
	// different markets.
	TransferFee float64
}

// commission returns the commission rate for a market, zero when unknown.
func (f Fees) commission(m domain.Market) float64 {
	return f.Commission[m]
}

// Flip computes the fee-adjusted economics of buying at buy in buyMarket and
// selling at sell in sellMarket. The transfer fee applies only when the two
// legs cross markets. It returns ok=false when the flip is unprofitable or
// the cost is non-positive.
//
// All four strategies are call sites of this one function; they differ only
// in which prices they join, never in the fee arithmetic.
func (f Fees) Flip(buy, sell float64, buyMarket, sellMarket domain.Market) (cost, profit, percent float64, ok bool) {
	cost = buy * (1 + f.commission(buyMarket))
	proceeds := sell * (1 - f.commission(sellMarket))
	profit = proceeds - cost
	if buyMarket != sellMarket {
		profit -= f.TransferFee
	}
	if cost <= 0 || profit <= 0 {
		return 0, 0, 0, false
	}
	percent = profit / cost * 100
	return cost, profit, percent, true
}
