package arbitrage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tonarb/giftarb/internal/domain"
)

// Snapshot is the joined view of both markets that one scan produced. Floor
// maps are keyed canonically, so lookups across markets match regardless of
// each market's naming conventions. All fields are read-only for strategies.
type Snapshot struct {
	// TonnelFloors is the lowest listing price per gift observed on Tonnel
	// within the scanned price band.
	TonnelFloors domain.FloorMap
	// PortalsFloors is the gift-level floor map from Portals.
	PortalsFloors domain.FloorMap

	// TonnelModelFloors and PortalsModelFloors hold per-model floors.
	TonnelModelFloors  domain.ModelFloorMap
	PortalsModelFloors domain.ModelFloorMap

	// PortalsDepth holds the two cheapest Portals listings for each model
	// observed at auction on Tonnel.
	PortalsDepth map[domain.ModelKey]domain.DepthQuote

	// Auctions are the active Tonnel auctions in the scanned price band.
	Auctions []domain.AuctionListing

	// Clean records whether each gift is signature-free, sampled from plain
	// Tonnel listings. Gifts absent from the map default to clean.
	Clean map[domain.CanonicalKey]bool

	// MinProfitPercent is the caller's profitability threshold.
	MinProfitPercent float64
}

// CleanStatus returns the sampled cleanliness for a gift, defaulting to
// clean when the gift was never seen in a plain listing (auctions and
// Portals listings expose no signature).
func (s Snapshot) CleanStatus(gift domain.CanonicalKey) bool {
	if clean, ok := s.Clean[gift]; ok {
		return clean
	}
	return true
}

// Strategy is one flip strategy evaluated against a scan snapshot.
type Strategy interface {
	Name() string
	// Detect returns zero or more candidates meeting the snapshot's profit
	// threshold. Detection is pure; the error return exists for interface
	// symmetry with future strategies that may consult external state.
	Detect(ctx context.Context, snap Snapshot) ([]domain.Candidate, error)
}

// Registry holds named strategies for selection by config.
type Registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewRegistry returns an empty registry. Call Register to add strategies.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its own name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the strategy by name, or an error if not found.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("arbitrage strategy %q not found", name)
	}
	return s, nil
}

// List returns all registered strategy names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
