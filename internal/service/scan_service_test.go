package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

type fakeScanner struct {
	res *scan.Result
	err error
}

func (f *fakeScanner) Scan(context.Context, scan.Request) (*scan.Result, error) {
	return f.res, f.err
}

type fakeStore struct {
	recorded   []domain.ScanRecord
	candidates []domain.Candidate
}

func (f *fakeStore) RecordScan(_ context.Context, rec domain.ScanRecord, candidates []domain.Candidate) error {
	f.recorded = append(f.recorded, rec)
	f.candidates = append(f.candidates, candidates...)
	return nil
}

func (f *fakeStore) ListRecentCandidates(context.Context, int) ([]domain.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeStore) ListScansBefore(context.Context, time.Time) ([]domain.ScanRecord, error) {
	return nil, nil
}

func (f *fakeStore) DeleteScansBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type fakePublisher struct {
	published []domain.Candidate
}

func (f *fakePublisher) PublishCandidates(candidates []domain.Candidate) {
	f.published = append(f.published, candidates...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunRecordsAndPublishes(t *testing.T) {
	now := time.Now().UTC()
	scanner := &fakeScanner{res: &scan.Result{
		Candidates: []domain.Candidate{{ID: "c1", Gift: "plushpepe", Profit: 1}},
		Warnings:   []scan.Warning{{Stage: "listings"}},
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
	}}
	store := &fakeStore{}
	locks := &fakeLocks{}
	pub := &fakePublisher{}

	svc := NewScanService(scanner, store, locks, nil, pub, testLogger())
	res, err := svc.Run(context.Background(), scan.Request{PriceMax: 100, RequestedBy: "cli"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("candidates = %+v", res.Candidates)
	}

	if locks.acquired != 1 || locks.released != 1 {
		t.Errorf("lock acquired=%d released=%d, want 1/1", locks.acquired, locks.released)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("recorded %d scans, want 1", len(store.recorded))
	}
	rec := store.recorded[0]
	if rec.Candidates != 1 || rec.Warnings != 1 || rec.RequestedBy != "cli" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ID == "" {
		t.Error("record has no ID")
	}
	if len(pub.published) != 1 || pub.published[0].ID != "c1" {
		t.Errorf("published = %+v", pub.published)
	}
}

func TestRunLockHeld(t *testing.T) {
	scanner := &fakeScanner{res: &scan.Result{}}
	svc := NewScanService(scanner, nil, &fakeLocks{held: true}, nil, nil, testLogger())

	_, err := svc.Run(context.Background(), scan.Request{})
	if !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("err = %v, want ErrLockHeld", err)
	}
}

func TestRunScanErrorPropagates(t *testing.T) {
	scanErr := errors.New("session expired")
	store := &fakeStore{}
	svc := NewScanService(&fakeScanner{err: scanErr}, store, nil, nil, nil, testLogger())

	_, err := svc.Run(context.Background(), scan.Request{})
	if !errors.Is(err, scanErr) {
		t.Fatalf("err = %v, want scan error", err)
	}
	if len(store.recorded) != 0 {
		t.Errorf("failed scan should not be recorded, got %+v", store.recorded)
	}
}

func TestRunWithoutOptionalDeps(t *testing.T) {
	scanner := &fakeScanner{res: &scan.Result{}}
	svc := NewScanService(scanner, nil, nil, nil, nil, testLogger())

	res, err := svc.Run(context.Background(), scan.Request{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %+v", res.Candidates)
	}
}
