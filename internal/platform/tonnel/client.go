// Package tonnel is the REST client for the Tonnel gift marketplace. The
// marketplace sits behind Cloudflare, so the client supports an outbound
// proxy and an optional clearance cookie on every request.
package tonnel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
)

// ClientConfig holds connection and session parameters for the Tonnel API.
type ClientConfig struct {
	// BaseURL is the listings API root, e.g. "https://gifts2.tonnel.network".
	BaseURL string
	// StatsURL is the filter-stats API root, e.g. "https://gifts3.tonnel.network".
	// Defaults to BaseURL when empty.
	StatsURL string
	// AuthData is the opaque session token (web-initData), passed through on
	// every call.
	AuthData string
	// CFClearance, when set, is sent as a __cf_clearance cookie so Cloudflare
	// accepts requests from flagged IPs.
	CFClearance string
	// ProxyURL routes all requests through the given HTTP proxy when set.
	ProxyURL string
}

// Client is the Tonnel marketplace REST client.
type Client struct {
	baseURL     string
	statsURL    string
	authData    string
	cfClearance string
	httpClient  *http.Client
}

// NewClient creates a Tonnel client. It returns an error only when the
// configured proxy URL cannot be parsed.
func NewClient(cfg ClientConfig) (*Client, error) {
	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("tonnel: parse proxy url: %w", err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	statsURL := cfg.StatsURL
	if statsURL == "" {
		statsURL = cfg.BaseURL
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		statsURL:    statsURL,
		authData:    cfg.AuthData,
		cfClearance: cfg.CFClearance,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}, nil
}

// PageQuery selects one page of listings or auctions within a price band.
type PageQuery struct {
	Page     int
	Limit    int
	PriceMin float64
	PriceMax float64
}

// GiftsPage returns one page of fixed-price listings, cheapest first.
func (c *Client) GiftsPage(ctx context.Context, q PageQuery) ([]Gift, error) {
	payload := map[string]any{
		"page":        q.Page,
		"limit":       q.Limit,
		"sort":        "price_asc",
		"price_range": []float64{q.PriceMin, q.PriceMax},
		"asset":       "TON",
		"authData":    c.authData,
	}

	body, err := c.doPost(ctx, c.baseURL+"/api/pageGifts", payload)
	if err != nil {
		return nil, fmt.Errorf("tonnel: gifts page %d: %w", q.Page, err)
	}

	var gifts []Gift
	if err := decodeList(body, &gifts); err != nil {
		return nil, fmt.Errorf("tonnel: gifts page %d: %w", q.Page, err)
	}
	return gifts, nil
}

// AuctionsPage returns one page of active auctions, cheapest first.
func (c *Client) AuctionsPage(ctx context.Context, q PageQuery) ([]Auction, error) {
	payload := map[string]any{
		"page":        q.Page,
		"limit":       q.Limit,
		"sort":        "price_asc",
		"price_range": []float64{q.PriceMin, q.PriceMax},
		"asset":       "TON",
		"auction":     true,
		"authData":    c.authData,
	}

	body, err := c.doPost(ctx, c.baseURL+"/api/pageGifts", payload)
	if err != nil {
		return nil, fmt.Errorf("tonnel: auctions page %d: %w", q.Page, err)
	}

	var auctions []Auction
	if err := decodeList(body, &auctions); err != nil {
		return nil, fmt.Errorf("tonnel: auctions page %d: %w", q.Page, err)
	}
	return auctions, nil
}

// ModelFloors returns the lowest asking price per (gift, model) pair across
// the whole market. Entries with missing or unparsable prices are dropped.
func (c *Client) ModelFloors(ctx context.Context) ([]ModelFloorEntry, error) {
	stats, err := c.filterStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("tonnel: model floors: %w", err)
	}
	return stats.modelFloors(), nil
}

func (c *Client) filterStats(ctx context.Context) (statsResponse, error) {
	payload := map[string]any{"authData": c.authData}

	body, err := c.doPost(ctx, c.statsURL+"/api/filterStats", payload)
	if err != nil {
		return statsResponse{}, err
	}

	var resp statsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return statsResponse{}, fmt.Errorf("%w: %v", domain.ErrBadPayload, err)
	}
	if resp.Data == nil {
		return statsResponse{}, fmt.Errorf("%w: missing data section", domain.ErrBadPayload)
	}
	return resp, nil
}

// doPost sends a JSON POST and returns the raw response body. HTTP 401/403
// map to domain.ErrUnauthorized so callers can distinguish dead sessions
// from transient page failures.
func (c *Client) doPost(ctx context.Context, fullURL string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfClearance != "" {
		req.Header.Set("Cookie", "__cf_clearance="+c.cfClearance)
	}

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

// decodeList decodes body into dst, which must be a pointer to a slice. The
// endpoint occasionally returns a bare string or an error object instead of
// a list (invalid session, Cloudflare challenge page served as JSON); those
// shapes map to domain.ErrBadPayload rather than a decode error.
func decodeList(body []byte, dst any) error {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadPayload, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: got %s", domain.ErrBadPayload, truncate(trimmed, 80))
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadPayload, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
