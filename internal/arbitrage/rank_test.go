package arbitrage

import (
	"testing"

	"github.com/tonarb/giftarb/internal/domain"
)

func TestRank(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "a", Profit: 0.5, ProfitPercent: 6},
		{ID: "b", Profit: 2.0, ProfitPercent: 10},
		{ID: "c", Profit: 1.0, ProfitPercent: 3}, // below threshold
		{ID: "d", Profit: 2.0, ProfitPercent: 8}, // ties with b, keeps emission order
		{ID: "e", Profit: 0.9, ProfitPercent: 5},
	}

	ranked := Rank(candidates, 5)
	wantOrder := []string{"b", "d", "e", "a"}
	if len(ranked) != len(wantOrder) {
		t.Fatalf("got %d candidates, want %d", len(ranked), len(wantOrder))
	}
	for i, id := range wantOrder {
		if ranked[i].ID != id {
			t.Errorf("ranked[%d].ID = %s, want %s (full order %+v)", i, ranked[i].ID, id, ranked)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Profit > ranked[i-1].Profit {
			t.Errorf("not sorted descending at %d: %v > %v", i, ranked[i].Profit, ranked[i-1].Profit)
		}
	}
	for _, c := range ranked {
		if c.ProfitPercent < 5 {
			t.Errorf("candidate %s below threshold survived filtering", c.ID)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	if ranked := Rank(nil, 5); len(ranked) != 0 {
		t.Errorf("ranking no candidates should yield none, got %+v", ranked)
	}
}
