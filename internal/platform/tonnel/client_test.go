package tonnel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tonarb/giftarb/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, AuthData: "session-token"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGiftsPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pageGifts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload["authData"] != "session-token" {
			t.Errorf("authData = %v", payload["authData"])
		}
		if payload["page"] != float64(2) || payload["limit"] != float64(30) {
			t.Errorf("page/limit = %v/%v", payload["page"], payload["limit"])
		}
		w.Write([]byte(`[
			{"name": "Plush Pepe", "model": "Cool Shades", "price": 12.5, "signature": ""},
			{"gift_name": "Durov Cap", "model": "Gold", "price": "7.25", "signature": "signed by durov"},
			{"name": "Lol Pop", "model": "Red", "price": "not-a-number"}
		]`))
	})

	gifts, err := c.GiftsPage(context.Background(), PageQuery{Page: 2, Limit: 30, PriceMin: 1, PriceMax: 100})
	if err != nil {
		t.Fatalf("GiftsPage: %v", err)
	}
	if len(gifts) != 3 {
		t.Fatalf("got %d gifts, want 3", len(gifts))
	}

	if p, ok := gifts[0].PriceValue(); !ok || p != 12.5 {
		t.Errorf("gifts[0] price = %v/%v", p, ok)
	}
	// String prices parse like numbers.
	if p, ok := gifts[1].PriceValue(); !ok || p != 7.25 {
		t.Errorf("gifts[1] price = %v/%v", p, ok)
	}
	if gifts[1].DisplayName() != "Durov Cap" {
		t.Errorf("gifts[1] name = %q", gifts[1].DisplayName())
	}
	// A malformed price marks the record invalid without failing the page.
	if _, ok := gifts[2].PriceValue(); ok {
		t.Error("gifts[2] price should be invalid")
	}
}

func TestGiftsPageUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.GiftsPage(context.Background(), PageQuery{Page: 1, Limit: 30})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestGiftsPageRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GiftsPage(context.Background(), PageQuery{Page: 1, Limit: 30})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestGiftsPageBadPayload(t *testing.T) {
	// Invalid sessions come back as a bare string instead of a list.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"Invalid authorization"`))
	})

	_, err := c.GiftsPage(context.Background(), PageQuery{Page: 1, Limit: 30})
	if !errors.Is(err, domain.ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}

func TestAuctionBidPrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantOK  bool
	}{
		{"highest bid wins", `{"price": 5, "startPrice": 3, "highestBid": {"amount": 8}}`, 8, true},
		{"falls back to price", `{"price": 5, "startPrice": 3}`, 5, true},
		{"falls back to start price", `{"startPrice": "3.5"}`, 3.5, true},
		{"nothing usable", `{"price": "n/a"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Auction
			if err := json.Unmarshal([]byte(tt.raw), &a); err != nil {
				t.Fatal(err)
			}
			got, ok := a.BidPrice()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BidPrice() = %v/%v, want %v/%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestModelFloors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/filterStats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "ok",
			"data": {
				"Plush Pepe": {
					"data": {"floorPrice": 1},
					"Cool Shades": {"floorPrice": 11.5},
					"Broken": {"floorPrice": "n/a"}
				},
				"Durov Cap": {
					"Gold": {"floorPrice": "22"}
				}
			}
		}`))
	})

	floors, err := c.ModelFloors(context.Background())
	if err != nil {
		t.Fatalf("ModelFloors: %v", err)
	}

	got := make(map[string]float64, len(floors))
	for _, f := range floors {
		got[f.Gift+"/"+f.Model] = f.Price
	}
	want := map[string]float64{
		"Plush Pepe/Cool Shades": 11.5,
		"Durov Cap/Gold":         22,
	}
	if len(got) != len(want) {
		t.Fatalf("floors = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("floor %s = %v, want %v", k, got[k], v)
		}
	}
}

func TestModelFloorsMissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	})

	_, err := c.ModelFloors(context.Background())
	if !errors.Is(err, domain.ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}
