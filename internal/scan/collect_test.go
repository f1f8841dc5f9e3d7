package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tonarb/giftarb/internal/domain"
)

func TestCollectPagesStopsOnShortPage(t *testing.T) {
	pages := [][]int{
		{1, 2, 3},
		{4, 5, 6},
		{7}, // short: collection ends here
		{8, 9, 10},
	}
	var calls int
	items, warn, err := collectPages(context.Background(), func(_ context.Context, page int) ([]int, error) {
		calls++
		return pages[page-1], nil
	}, 3, 10)
	if err != nil || warn != nil {
		t.Fatalf("err=%v warn=%v", err, warn)
	}
	if calls != 3 {
		t.Errorf("fetched %d pages, want 3", calls)
	}
	if len(items) != 7 || items[6] != 7 {
		t.Errorf("items = %v", items)
	}
}

func TestCollectPagesBoundedByMaxPages(t *testing.T) {
	var calls int
	items, warn, err := collectPages(context.Background(), func(_ context.Context, page int) ([]int, error) {
		calls++
		return []int{page, page, page}, nil
	}, 3, 5)
	if err != nil || warn != nil {
		t.Fatalf("err=%v warn=%v", err, warn)
	}
	if calls != 5 {
		t.Errorf("fetched %d pages, want cap of 5", calls)
	}
	if len(items) != 15 {
		t.Errorf("got %d items, want 15", len(items))
	}
}

func TestCollectPagesTruncatesOnPageError(t *testing.T) {
	pageErr := fmt.Errorf("connection reset")
	items, warn, err := collectPages(context.Background(), func(_ context.Context, page int) ([]int, error) {
		if page == 3 {
			return nil, pageErr
		}
		return []int{page, page}, nil
	}, 2, 10)
	if err != nil {
		t.Fatalf("page error should not be fatal, got %v", err)
	}
	if !errors.Is(warn, pageErr) {
		t.Errorf("warn = %v, want wrapped page error", warn)
	}
	if len(items) != 4 {
		t.Errorf("got %d items, want the 2 full pages before the failure", len(items))
	}
}

func TestCollectPagesAuthErrorFatal(t *testing.T) {
	items, warn, err := collectPages(context.Background(), func(_ context.Context, page int) ([]int, error) {
		if page == 2 {
			return nil, fmt.Errorf("status 401: %w", domain.ErrUnauthorized)
		}
		return []int{1, 2}, nil
	}, 2, 10)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if items != nil || warn != nil {
		t.Errorf("fatal error should return no items or warning, got %v / %v", items, warn)
	}
}

func TestCollectPagesContextCancelFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, warn, err := collectPages(ctx, func(_ context.Context, page int) ([]int, error) {
		if page == 2 {
			cancel()
			return nil, ctx.Err()
		}
		return []int{1, 2}, nil
	}, 2, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if warn != nil {
		t.Errorf("warn = %v, want nil", warn)
	}
}

func TestModelKeyIndexDedup(t *testing.T) {
	ix := NewModelKeyIndex()
	ix.Add("Plush Pepe", "Cool Shades")
	ix.Add("plush-pepe", "cool shades") // same key, different spelling
	ix.Add("Plush Pepe", "Top Hat")
	ix.Add("", "Top Hat")
	ix.Add("Plush Pepe", "")

	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}
	entries := ix.Entries()
	if entries[0].Gift != "Plush Pepe" || entries[0].Model != "Cool Shades" {
		t.Errorf("first-seen names not kept: %+v", entries[0])
	}
	if entries[1].Key != domain.NewModelKey("Plush Pepe", "Top Hat") {
		t.Errorf("second entry = %+v", entries[1])
	}
}
