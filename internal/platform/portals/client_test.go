package portals

import (
	"context"
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
	return NewClient(ClientConfig{BaseURL: srv.URL, AuthData: "tma token"})
}

func TestFloorsMapShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/nfts/floors" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "tma token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"Plush Pepe": "11.5", "Durov Cap": 20, "Broken": "n/a"}`))
	})

	floors, err := c.Floors(context.Background())
	if err != nil {
		t.Fatalf("Floors: %v", err)
	}

	got := make(map[string]float64, len(floors))
	for _, f := range floors {
		got[f.Name] = f.Price
	}
	if len(got) != 2 || got["Plush Pepe"] != 11.5 || got["Durov Cap"] != 20 {
		t.Errorf("floors = %v", got)
	}
}

func TestFloorsListShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "Lol Pop", "price": 3.2}, {"name": "", "price": 1}]`))
	})

	floors, err := c.Floors(context.Background())
	if err != nil {
		t.Fatalf("Floors: %v", err)
	}
	if len(floors) != 1 || floors[0].Name != "Lol Pop" || floors[0].Price != 3.2 {
		t.Errorf("floors = %v", floors)
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/nfts/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("gift_name") != "Plush Pepe" || q.Get("model") != "Cool Shades" {
			t.Errorf("query = %v", q)
		}
		if q.Get("limit") != "2" || q.Get("sort") != "price_asc" {
			t.Errorf("limit/sort = %s/%s", q.Get("limit"), q.Get("sort"))
		}
		w.Write([]byte(`[
			{"id": "a", "name": "Plush Pepe", "model": "Cool Shades", "price": "12"},
			{"id": "b", "name": "Plush Pepe", "model": "Cool Shades", "price": "oops"},
			{"id": "c", "name": "Plush Pepe", "model": "Cool Shades", "price": 14}
		]`))
	})

	listings, err := c.Search(context.Background(), SearchQuery{GiftName: "Plush Pepe", Model: "Cool Shades", Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// The record with the unparsable price is dropped, the rest survive.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].ID != "a" || listings[1].ID != "c" {
		t.Errorf("listings = %v", listings)
	}
}

func TestSearchWrappedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"id": "a", "name": "Durov Cap", "model": "Gold", "price": 25}]}`))
	})

	listings, err := c.Search(context.Background(), SearchQuery{GiftName: "Durov Cap", Limit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(listings) != 1 || listings[0].Name != "Durov Cap" {
		t.Errorf("listings = %v", listings)
	}
}

func TestSearchUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), SearchQuery{GiftName: "Plush Pepe", Limit: 1})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFloorsBadPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"maintenance"`))
	})

	_, err := c.Floors(context.Background())
	if !errors.Is(err, domain.ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}
