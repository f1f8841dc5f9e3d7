// Package scan orchestrates one market scan: fetch both marketplaces,
// join their quotes, run the detection strategies and rank the result.
package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonarb/giftarb/internal/domain"
)

// Warning records a non-fatal degradation of a scan: a truncated source, a
// stale cache fallback, a skipped depth query. Warnings travel with the
// result so the caller can surface them next to the candidates.
type Warning struct {
	Market domain.Market
	Stage  string
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: %v", w.Market, w.Stage, w.Err)
}

type pageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// collectPages fetches pages 1..maxPages, stopping early on a page shorter
// than pageLimit. A failing page truncates the collection: everything
// fetched so far is returned together with the page error as warn. Only
// session errors and context cancellation abort outright, since no later
// page can succeed after those.
func collectPages[T any](ctx context.Context, fetch pageFunc[T], pageLimit, maxPages int) (items []T, warn error, err error) {
	for page := 1; page <= maxPages; page++ {
		batch, ferr := fetch(ctx, page)
		if ferr != nil {
			if errors.Is(ferr, domain.ErrUnauthorized) || ctx.Err() != nil {
				return nil, nil, ferr
			}
			return items, ferr, nil
		}
		items = append(items, batch...)
		if len(batch) < pageLimit {
			break
		}
	}
	return items, nil, nil
}
