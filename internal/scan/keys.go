package scan

import "github.com/tonarb/giftarb/internal/domain"

// KeyEntry pairs a canonical model key with the display names it was first
// seen under. Depth queries need the display names because the marketplaces
// search by them, not by canonical keys.
type KeyEntry struct {
	Key   domain.ModelKey
	Gift  string
	Model string
}

// ModelKeyIndex is a dedup set of (gift, model) pairs keyed canonically.
// It bounds the number of per-model depth queries a scan issues: however
// many listings mention a model, it is queried once.
type ModelKeyIndex struct {
	seen  map[domain.ModelKey]struct{}
	order []KeyEntry
}

// NewModelKeyIndex returns an empty index.
func NewModelKeyIndex() *ModelKeyIndex {
	return &ModelKeyIndex{seen: make(map[domain.ModelKey]struct{})}
}

// Add records the pair unless an equivalent spelling was already added.
// Pairs with an empty gift or model name are ignored.
func (ix *ModelKeyIndex) Add(gift, model string) {
	key := domain.NewModelKey(gift, model)
	if key.Gift == "" || key.Model == "" {
		return
	}
	if _, ok := ix.seen[key]; ok {
		return
	}
	ix.seen[key] = struct{}{}
	ix.order = append(ix.order, KeyEntry{Key: key, Gift: gift, Model: model})
}

// Entries returns the collected pairs in first-seen order.
func (ix *ModelKeyIndex) Entries() []KeyEntry {
	return ix.order
}

// Len returns the number of distinct keys collected.
func (ix *ModelKeyIndex) Len() int { return len(ix.order) }

// CollectModelKeys indexes the model keys of the given auctions.
func CollectModelKeys(auctions []domain.AuctionListing) *ModelKeyIndex {
	ix := NewModelKeyIndex()
	for _, a := range auctions {
		ix.Add(a.Gift, a.Model)
	}
	return ix
}
