package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tonarb/giftarb/internal/domain"
)

// FloorCache implements domain.FloorCache with one JSON value per market.
//
// Key schema:
//
//	floors:{market} - JSON-encoded FloorMap, expiring with the caller's TTL
type FloorCache struct {
	rdb *redis.Client
}

// NewFloorCache creates a FloorCache backed by the given Client.
func NewFloorCache(c *Client) *FloorCache {
	return &FloorCache{rdb: c.Underlying()}
}

func floorsKey(market domain.Market) string {
	return "floors:" + string(market)
}

// SetFloors stores the floor map for a market. A zero TTL stores nothing,
// since an immortal floor map would serve arbitrarily stale prices.
func (fc *FloorCache) SetFloors(ctx context.Context, market domain.Market, floors domain.FloorMap, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(floors)
	if err != nil {
		return fmt.Errorf("redis: marshal floors %s: %w", market, err)
	}
	if err := fc.rdb.Set(ctx, floorsKey(market), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set floors %s: %w", market, err)
	}
	return nil
}

// GetFloors returns the cached floor map for a market, or domain.ErrNotFound
// when no fresh entry exists.
func (fc *FloorCache) GetFloors(ctx context.Context, market domain.Market) (domain.FloorMap, error) {
	data, err := fc.rdb.Get(ctx, floorsKey(market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get floors %s: %w", market, err)
	}

	var floors domain.FloorMap
	if err := json.Unmarshal(data, &floors); err != nil {
		return nil, fmt.Errorf("redis: unmarshal floors %s: %w", market, err)
	}
	return floors, nil
}

// Compile-time interface check.
var _ domain.FloorCache = (*FloorCache)(nil)
