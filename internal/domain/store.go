package domain

import (
	"context"
	"time"
)

// ScanRecord summarizes one scan request and its outcome. Emitted candidates
// are stored alongside the record; raw market prices are not persisted.
type ScanRecord struct {
	ID               string
	PriceMin         float64
	PriceMax         float64
	MinProfitPercent float64
	RequestedBy      string // chat ID, "api", or "cli"
	Candidates       int
	Warnings         int
	StartedAt        time.Time
	FinishedAt       time.Time
}

// ScanStore persists scan records and their candidates.
type ScanStore interface {
	RecordScan(ctx context.Context, rec ScanRecord, candidates []Candidate) error
	ListRecentCandidates(ctx context.Context, limit int) ([]Candidate, error)
	// ListScansBefore returns scan records finished strictly before the
	// cutoff, for archival.
	ListScansBefore(ctx context.Context, before time.Time) ([]ScanRecord, error)
	// DeleteScansBefore removes archived scans and their candidates,
	// returning the number of scan rows deleted.
	DeleteScansBefore(ctx context.Context, before time.Time) (int64, error)
}
