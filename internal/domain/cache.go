package domain

import (
	"context"
	"time"
)

// FloorCache caches per-market floor maps between scans so back-to-back
// scans do not refetch the full catalog.
type FloorCache interface {
	// SetFloors stores the floor map for a market with the given TTL.
	SetFloors(ctx context.Context, market Market, floors FloorMap, ttl time.Duration) error
	// GetFloors returns the cached floor map for a market, or ErrNotFound
	// when no fresh entry exists.
	GetFloors(ctx context.Context, market Market) (FloorMap, error)
}

// LockManager provides distributed mutual exclusion, used to keep one chat
// from running overlapping scans.
type LockManager interface {
	// Acquire obtains the lock for key with the given TTL and returns an
	// unlock function. It returns ErrLockHeld when the lock is taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter throttles repeated actions per key, used to cap how often a
// single chat can trigger scans.
type RateLimiter interface {
	// Allow reports whether one more action under key fits in the sliding
	// window, counting it when it does.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Wait blocks until an action under key is allowed or ctx ends.
	Wait(ctx context.Context, key string) error
}
