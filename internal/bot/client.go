// Package bot is the Telegram front end: a long-poll command loop that
// triggers scans and replies with the ranked candidates.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxMessageLen is Telegram's hard limit on message text length.
const maxMessageLen = 4096

// Update is one incoming event from the getUpdates endpoint.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Client is a minimal Telegram Bot API client covering the two calls the
// bot loop needs.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// ClientConfig holds Telegram API connection parameters.
type ClientConfig struct {
	// Token is the bot token from BotFather.
	Token string
	// BaseURL overrides the API root, mainly for tests. Defaults to the
	// public Telegram API.
	BaseURL string
	// PollTimeout is the long-poll duration for getUpdates.
	PollTimeout time.Duration
}

// NewClient creates a Telegram client. The HTTP timeout is set above the
// poll timeout so long polls are not cut short client-side.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		client:  &http.Client{Timeout: poll + 15*time.Second},
	}
}

func (c *Client) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, name)
}

// GetUpdates long-polls for updates after the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}

	body, err := c.post(ctx, "getUpdates", payload)
	if err != nil {
		return nil, fmt.Errorf("bot: get updates: %w", err)
	}

	var resp struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bot: decode updates: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("bot: get updates: api returned ok=false")
	}
	return resp.Result, nil
}

// SendMessage sends text to a chat, splitting it into multiple messages on
// newline boundaries when it exceeds Telegram's length limit.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range chunkText(text, maxMessageLen) {
		payload := map[string]any{
			"chat_id": strconv.FormatInt(chatID, 10),
			"text":    chunk,
		}
		if _, err := c.post(ctx, "sendMessage", payload); err != nil {
			return fmt.Errorf("bot: send message: %w", err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, method string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.method(method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
