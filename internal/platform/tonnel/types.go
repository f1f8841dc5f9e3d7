package tonnel

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexPrice unmarshals from a JSON number or a numeric string. Malformed
// values decode as invalid instead of failing the surrounding record, so a
// single bad price never poisons a whole page.
type flexPrice struct {
	Value float64
	Valid bool
}

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	p.Value, p.Valid = 0, false

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		p.Value, p.Valid = f, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	p.Value, p.Valid = f, true
	return nil
}

// Gift is one fixed-price listing as returned by the pageGifts endpoint.
type Gift struct {
	Name      string    `json:"name"`
	GiftName  string    `json:"gift_name"`
	Model     string    `json:"model"`
	Backdrop  string    `json:"backdrop"`
	Symbol    string    `json:"symbol"`
	Price     flexPrice `json:"price"`
	Signature string    `json:"signature"`
	Asset     string    `json:"asset"`
}

// DisplayName returns the gift's name, preferring the explicit gift_name
// field used on some payload variants.
func (g Gift) DisplayName() string {
	if g.GiftName != "" {
		return g.GiftName
	}
	return g.Name
}

// PriceValue returns the parsed listing price, false when it was malformed.
func (g Gift) PriceValue() (float64, bool) {
	return g.Price.Value, g.Price.Valid
}

// Bid is the highest-bid object attached to an auction.
type Bid struct {
	Amount flexPrice `json:"amount"`
}

// Auction is one auction lot as returned by the pageGifts endpoint when
// filtered by auction_id presence.
type Auction struct {
	Name       string    `json:"name"`
	GiftName   string    `json:"gift_name"`
	Model      string    `json:"model"`
	Backdrop   string    `json:"backdrop"`
	Symbol     string    `json:"symbol"`
	Price      flexPrice `json:"price"`
	StartPrice flexPrice `json:"startPrice"`
	HighestBid *Bid      `json:"highestBid"`
}

// DisplayName returns the auctioned gift's name.
func (a Auction) DisplayName() string {
	if a.GiftName != "" {
		return a.GiftName
	}
	return a.Name
}

// BidPrice returns the effective buy price of the auction: the current
// highest bid when one exists, otherwise the starting price. It returns
// false when neither is usable.
func (a Auction) BidPrice() (float64, bool) {
	if a.HighestBid != nil && a.HighestBid.Amount.Valid {
		return a.HighestBid.Amount.Value, true
	}
	if a.Price.Valid {
		return a.Price.Value, true
	}
	if a.StartPrice.Valid {
		return a.StartPrice.Value, true
	}
	return 0, false
}

// ModelFloorEntry is one per-model floor price from the filter stats
// endpoint. Names are raw display names; canonicalization is the caller's
// concern.
type ModelFloorEntry struct {
	Gift  string
	Model string
	Price float64
}

// statsResponse is the raw shape of the filterStats endpoint: a status plus
// a map of gift name to its per-model breakdown. The breakdown mixes an
// aggregate "data" entry with one entry per model, so it is decoded lazily.
type statsResponse struct {
	Status string                     `json:"status"`
	Data   map[string]json.RawMessage `json:"data"`
}

type statsEntry struct {
	FloorPrice flexPrice `json:"floorPrice"`
}

// modelFloors flattens the stats payload into per-model floors, skipping the
// aggregate "data" entry and anything unparsable.
func (r statsResponse) modelFloors() []ModelFloorEntry {
	var out []ModelFloorEntry
	for gift, raw := range r.Data {
		var breakdown map[string]json.RawMessage
		if err := json.Unmarshal(raw, &breakdown); err != nil {
			continue
		}
		for model, entryRaw := range breakdown {
			if model == "data" {
				continue
			}
			var entry statsEntry
			if err := json.Unmarshal(entryRaw, &entry); err != nil || !entry.FloorPrice.Valid {
				continue
			}
			out = append(out, ModelFloorEntry{Gift: gift, Model: model, Price: entry.FloorPrice.Value})
		}
	}
	return out
}
