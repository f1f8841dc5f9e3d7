package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeBlobArchiver struct {
	path  string
	count int
	err   error
	calls int
}

func (f *fakeBlobArchiver) ArchiveScans(context.Context, time.Time) (string, int, error) {
	f.calls++
	return f.path, f.count, f.err
}

type fakePruner struct {
	deleted int64
	calls   int
	before  time.Time
}

func (f *fakePruner) DeleteScansBefore(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.before = before
	return f.deleted, nil
}

func TestArchiverRunPrunesAfterUpload(t *testing.T) {
	blob := &fakeBlobArchiver{path: "archive/scans/2026-08.jsonl", count: 3}
	pruner := &fakePruner{deleted: 3}
	a := NewArchiver(blob, pruner, nil, 30, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if blob.calls != 1 || pruner.calls != 1 {
		t.Fatalf("expected one archive and one prune call, got %d/%d", blob.calls, pruner.calls)
	}
	if time.Since(pruner.before) < 29*24*time.Hour {
		t.Errorf("prune cutoff %v not pushed back by retention", pruner.before)
	}
}

func TestArchiverRunSkipsPruneWhenEmpty(t *testing.T) {
	blob := &fakeBlobArchiver{count: 0}
	pruner := &fakePruner{}
	a := NewArchiver(blob, pruner, nil, 30, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.calls != 0 {
		t.Fatalf("expected no prune call on empty archive, got %d", pruner.calls)
	}
}

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 8, 15, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"daily", "0 3 * * *", time.Date(2026, 8, 15, 3, 0, 0, 0, time.UTC)},
		{"monthly", "0 3 1 * *", time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)},
		{"every minute", "* * * * *", time.Date(2026, 8, 15, 2, 31, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			if err != nil {
				t.Fatalf("nextCronTime(%q): %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("nextCronTime(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}

	if _, err := nextCronTime("bad expr", after); err == nil {
		t.Error("expected error for malformed expression")
	}
}
