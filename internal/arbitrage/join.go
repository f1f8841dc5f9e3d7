package arbitrage

import (
	"sort"

	"github.com/tonarb/giftarb/internal/domain"
)

// GiftJoin is one gift present in both markets' floor maps, with the cheaper
// side assigned as the buy leg.
type GiftJoin struct {
	Key        domain.CanonicalKey
	Buy        float64
	Sell       float64
	BuyMarket  domain.Market
	SellMarket domain.Market
}

// JoinGiftFloors joins two gift-level floor maps on their key intersection.
// The lower price becomes the buy side; keys with exactly equal prices are
// dropped, since there is no spread to capture. Results are ordered by key
// so downstream output is reproducible.
func JoinGiftFloors(tonnel, portals domain.FloorMap) []GiftJoin {
	var joins []GiftJoin
	for key, tonnelPrice := range tonnel {
		portalsPrice, ok := portals[key]
		if !ok {
			continue
		}
		switch {
		case tonnelPrice < portalsPrice:
			joins = append(joins, GiftJoin{
				Key: key, Buy: tonnelPrice, Sell: portalsPrice,
				BuyMarket: domain.MarketTonnel, SellMarket: domain.MarketPortals,
			})
		case portalsPrice < tonnelPrice:
			joins = append(joins, GiftJoin{
				Key: key, Buy: portalsPrice, Sell: tonnelPrice,
				BuyMarket: domain.MarketPortals, SellMarket: domain.MarketTonnel,
			})
		}
	}
	sort.Slice(joins, func(i, j int) bool { return joins[i].Key < joins[j].Key })
	return joins
}

// ModelJoin is one model whose Tonnel floor undercuts its Portals floor.
type ModelJoin struct {
	Key  domain.ModelKey
	Buy  float64 // Tonnel floor
	Sell float64 // Portals floor
}

// JoinModelFloors joins per-model floor maps on their key intersection,
// keeping only the buy-on-Tonnel, sell-on-Portals direction. The reverse
// direction is dropped outright rather than scored lower: Portals is the
// preferred sell venue for model-level flips (liquidity preference), and
// equal floors carry no spread.
func JoinModelFloors(tonnel, portals domain.ModelFloorMap) []ModelJoin {
	var joins []ModelJoin
	for key, tonnelPrice := range tonnel {
		portalsPrice, ok := portals[key]
		if !ok {
			continue
		}
		if tonnelPrice >= portalsPrice {
			continue
		}
		joins = append(joins, ModelJoin{Key: key, Buy: tonnelPrice, Sell: portalsPrice})
	}
	sort.Slice(joins, func(i, j int) bool {
		a, b := joins[i].Key, joins[j].Key
		if a.Gift != b.Gift {
			return a.Gift < b.Gift
		}
		return a.Model < b.Model
	})
	return joins
}

// AuctionJoin pairs one Tonnel auction with its Portals sell price.
type AuctionJoin struct {
	Auction domain.AuctionListing
	Key     domain.ModelKey
	Sell    float64
}

// JoinAuctions pairs each auction with a sell price from the counter-market
// depth map: the second-lowest quote when the market is two deep, else the
// floor. Auctions whose model has no Portals quote at all, or whose bid
// price is unusable, produce no join. Input order is preserved.
func JoinAuctions(auctions []domain.AuctionListing, depth map[domain.ModelKey]domain.DepthQuote) []AuctionJoin {
	var joins []AuctionJoin
	for _, a := range auctions {
		if a.Gift == "" || a.Model == "" {
			continue
		}
		key := domain.NewModelKey(a.Gift, a.Model)
		quote, ok := depth[key]
		if !ok {
			continue
		}
		sell, ok := quote.SellPrice()
		if !ok {
			continue
		}
		joins = append(joins, AuctionJoin{Auction: a, Key: key, Sell: sell})
	}
	return joins
}
