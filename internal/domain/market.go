package domain

// Market identifies one of the two gift marketplaces.
type Market string

const (
	MarketTonnel  Market = "tonnel"
	MarketPortals Market = "portals"
)

// Listing is one gift offered for sale at a fixed price. Listings are
// transient: they exist only for the duration of the scan that fetched them.
type Listing struct {
	Gift      string
	Model     string // optional; empty when the market lists at gift level
	Price     float64
	Market    Market
	Signature string // provenance signature; empty means the gift is clean
}

// Clean reports whether the listing carries no provenance signature.
func (l Listing) Clean() bool { return l.Signature == "" }

// AuctionListing is a gift being auctioned. Bid is the current highest bid,
// falling back to the starting price when nobody has bid yet. Auctions carry
// no fixed ask price and no signature.
type AuctionListing struct {
	Gift   string
	Model  string
	Bid    float64
	Market Market
}

// DepthQuote holds the two lowest asking prices for one ModelKey in a market.
// Either value may be absent when the market has less than two listings in
// range.
type DepthQuote struct {
	Floor  *float64
	Second *float64
}

// SellPrice selects the sell-side basis for an auction flip: the second
// quote when the market is at least two deep, else the floor. The boolean is
// false when neither price is known.
func (q DepthQuote) SellPrice() (float64, bool) {
	if q.Second != nil {
		return *q.Second, true
	}
	if q.Floor != nil {
		return *q.Floor, true
	}
	return 0, false
}

// FloorMap maps canonical gift keys to the lowest observed price in a market.
type FloorMap map[CanonicalKey]float64

// ModelFloorMap maps model keys to the lowest observed price in a market.
type ModelFloorMap map[ModelKey]float64

// UpdateFloor records price for key, keeping the minimum seen so far.
func (m FloorMap) UpdateFloor(key CanonicalKey, price float64) {
	if cur, ok := m[key]; !ok || price < cur {
		m[key] = price
	}
}

// UpdateFloor records price for key, keeping the minimum seen so far.
func (m ModelFloorMap) UpdateFloor(key ModelKey, price float64) {
	if cur, ok := m[key]; !ok || price < cur {
		m[key] = price
	}
}
