// Package service holds the orchestration layer between the scan engine and
// its front ends (Telegram bot, HTTP API, one-shot CLI runs).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/notify"
	"github.com/tonarb/giftarb/internal/scan"
)

// scanLockTTL bounds how long a crashed scan can hold the lock.
const scanLockTTL = 3 * time.Minute

// Scanner runs one market scan.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Result, error)
}

// CandidatePublisher pushes freshly detected candidates to live subscribers.
type CandidatePublisher interface {
	PublishCandidates(candidates []domain.Candidate)
}

// ScanService runs scans behind a distributed lock, records their outcome,
// and fans results out to notification channels and live subscribers. Every
// dependency except the scanner itself is optional; absent ones are skipped.
type ScanService struct {
	scanner   Scanner
	store     domain.ScanStore
	locks     domain.LockManager
	notifier  *notify.Notifier
	publisher CandidatePublisher
	logger    *slog.Logger
}

// NewScanService creates a ScanService. store, locks, notifier and publisher
// may each be nil.
func NewScanService(
	scanner Scanner,
	store domain.ScanStore,
	locks domain.LockManager,
	notifier *notify.Notifier,
	publisher CandidatePublisher,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		scanner:   scanner,
		store:     store,
		locks:     locks,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "scan_service")),
	}
}

// Run executes one scan. Concurrent runs are serialized through the lock
// manager: a second caller gets domain.ErrLockHeld instead of a duplicate
// scan. Recording and fan-out failures never fail the scan itself.
func (s *ScanService) Run(ctx context.Context, req scan.Request) (*scan.Result, error) {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "scan", scanLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return nil, fmt.Errorf("scan_service: %w", domain.ErrLockHeld)
			}
			return nil, fmt.Errorf("scan_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	res, err := s.scanner.Scan(ctx, req)
	if err != nil {
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, notify.EventScanFailed, "Scan failed", err.Error())
		}
		return nil, err
	}

	rec := domain.ScanRecord{
		ID:               uuid.New().String(),
		PriceMin:         req.PriceMin,
		PriceMax:         req.PriceMax,
		MinProfitPercent: req.MinProfitPercent,
		RequestedBy:      req.RequestedBy,
		Candidates:       len(res.Candidates),
		Warnings:         len(res.Warnings),
		StartedAt:        res.StartedAt,
		FinishedAt:       res.FinishedAt,
	}
	if s.store != nil {
		if err := s.store.RecordScan(ctx, rec, res.Candidates); err != nil {
			s.logger.WarnContext(ctx, "scan_service: record scan failed",
				slog.String("scan_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.publisher != nil && len(res.Candidates) > 0 {
		s.publisher.PublishCandidates(res.Candidates)
	}

	if s.notifier != nil && len(res.Candidates) > 0 {
		title := fmt.Sprintf("%d flip candidates", len(res.Candidates))
		_ = s.notifier.Notify(ctx, notify.EventScanComplete, title, summarize(res.Candidates))
	}

	s.logger.InfoContext(ctx, "scan_service: scan recorded",
		slog.String("scan_id", rec.ID),
		slog.String("requested_by", rec.RequestedBy),
		slog.Int("candidates", rec.Candidates),
		slog.Int("warnings", rec.Warnings),
	)
	return res, nil
}

// RecentCandidates returns the most recently detected candidates from the
// audit store, or an empty list when no store is configured.
func (s *ScanService) RecentCandidates(ctx context.Context, limit int) ([]domain.Candidate, error) {
	if s.store == nil {
		return nil, nil
	}
	candidates, err := s.store.ListRecentCandidates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("scan_service: list recent: %w", err)
	}
	return candidates, nil
}

// summarize renders a short notification body for the top candidates.
func summarize(candidates []domain.Candidate) string {
	const maxLines = 5
	out := ""
	for i, c := range candidates {
		if i == maxLines {
			out += fmt.Sprintf("... and %d more\n", len(candidates)-maxLines)
			break
		}
		out += fmt.Sprintf("%s %s->%s +%.2f TON (%.1f%%)\n",
			c.Gift, c.BuyMarket, c.SellMarket, c.Profit, c.ProfitPercent)
	}
	return out
}
