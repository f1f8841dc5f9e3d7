// Package portals is the REST client for the Portals gift marketplace.
package portals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
)

// ClientConfig holds connection and session parameters for the Portals API.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://portals-market.com".
	BaseURL string
	// AuthData is the opaque session token ("tma ..."), obtained by the
	// session bootstrapper and passed through on every call.
	AuthData string
}

// Client is the Portals marketplace REST client.
type Client struct {
	baseURL    string
	authData   string
	httpClient *http.Client
}

// NewClient creates a Portals client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		authData: cfg.AuthData,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Floors returns the lowest asking price per gift across the whole market.
// Entries with missing or unparsable prices are dropped.
func (c *Client) Floors(ctx context.Context) ([]FloorEntry, error) {
	body, err := c.doGet(ctx, "/api/nfts/floors")
	if err != nil {
		return nil, fmt.Errorf("portals: floors: %w", err)
	}

	var payload floorsPayload
	if err := json.Unmarshal(body, &payload); err != nil || !payload.ok {
		return nil, fmt.Errorf("portals: floors: %w: got %s", domain.ErrBadPayload, truncate(body, 80))
	}
	return payload.entries, nil
}

// SearchQuery narrows a listings search to one gift (and optionally one
// model), cheapest first.
type SearchQuery struct {
	GiftName string
	Model    string
	Limit    int
}

// Search returns the cheapest listings matching the query. Listings with
// unparsable prices are dropped.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Listing, error) {
	params := url.Values{}
	params.Set("sort", "price_asc")
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("gift_name", q.GiftName)
	if q.Model != "" {
		params.Set("model", q.Model)
	}

	body, err := c.doGet(ctx, "/api/nfts/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("portals: search %s/%s: %w", q.GiftName, q.Model, err)
	}

	var payload searchPayload
	if err := json.Unmarshal(body, &payload); err != nil || !payload.ok {
		return nil, fmt.Errorf("portals: search %s/%s: %w", q.GiftName, q.Model, domain.ErrBadPayload)
	}

	listings := payload.listings[:0:len(payload.listings)]
	for _, l := range payload.listings {
		if _, ok := l.PriceValue(); ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// doGet sends a GET with the session token attached and returns the raw
// response body. HTTP 401/403 map to domain.ErrUnauthorized.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authData)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 120))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
