package arbitrage

import (
	"sort"

	"github.com/tonarb/giftarb/internal/domain"
)

// Rank filters out candidates below the minimum profit percentage and
// stable-sorts the survivors by absolute profit, highest first. Ties keep
// their emission order. The result is the final artifact handed to the
// presentation layer.
func Rank(candidates []domain.Candidate, minProfitPercent float64) []domain.Candidate {
	ranked := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ProfitPercent < minProfitPercent {
			continue
		}
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Profit > ranked[j].Profit
	})
	return ranked
}
