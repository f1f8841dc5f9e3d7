package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

type fakeAPI struct {
	sent []string
}

func (f *fakeAPI) GetUpdates(context.Context, int64, time.Duration) ([]Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, _ int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fakeRunner struct {
	req    scan.Request
	res    *scan.Result
	err    error
	recent []domain.Candidate
}

func (f *fakeRunner) Run(_ context.Context, req scan.Request) (*scan.Result, error) {
	f.req = req
	return f.res, f.err
}

func (f *fakeRunner) RecentCandidates(context.Context, int) ([]domain.Candidate, error) {
	return f.recent, nil
}

func newTestBot(api API, runner ScanRunner) *Bot {
	cfg := Config{
		DefaultPriceMin:         1,
		DefaultPriceMax:         500,
		DefaultMinProfitPercent: 5,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(api, runner, nil, cfg, logger)
}

func TestParseScanArgs(t *testing.T) {
	b := newTestBot(&fakeAPI{}, &fakeRunner{})

	tests := []struct {
		name    string
		args    []string
		want    scan.Request
		wantErr bool
	}{
		{
			name: "no args uses defaults",
			want: scan.Request{PriceMin: 1, PriceMax: 500, MinProfitPercent: 5},
		},
		{
			name: "full args",
			args: []string{"10", "200", "7.5"},
			want: scan.Request{PriceMin: 10, PriceMax: 200, MinProfitPercent: 7.5},
		},
		{
			name: "partial args keep remaining defaults",
			args: []string{"10", "200"},
			want: scan.Request{PriceMin: 10, PriceMax: 200, MinProfitPercent: 5},
		},
		{
			name:    "non-numeric",
			args:    []string{"cheap"},
			wantErr: true,
		},
		{
			name:    "too many args",
			args:    []string{"1", "2", "3", "4"},
			wantErr: true,
		},
		{
			name:    "inverted band",
			args:    []string{"200", "10"},
			wantErr: true,
		},
		{
			name:    "negative",
			args:    []string{"-5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.parseScanArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScanArgs: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args []string
	}{
		{"/scan 10 200", "/scan", []string{"10", "200"}},
		{"/scan@giftarb_bot 10", "/scan", []string{"10"}},
		{"  /start  ", "/start", nil},
		{"hello there", "", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		cmd, args := splitCommand(tt.text)
		if cmd != tt.cmd || len(args) != len(tt.args) {
			t.Errorf("splitCommand(%q) = %q %v, want %q %v", tt.text, cmd, args, tt.cmd, tt.args)
		}
	}
}

func TestHandleScanRepliesWithCandidates(t *testing.T) {
	api := &fakeAPI{}
	runner := &fakeRunner{res: &scan.Result{
		Candidates: []domain.Candidate{{
			Gift: "plushpepe", BuyMarket: domain.MarketTonnel, SellMarket: domain.MarketPortals,
			BuyPrice: 10.6, SellPrice: 12, Profit: 0.65, ProfitPercent: 6.13,
			Clean: true, Strategy: "gift_flip",
		}},
	}}
	b := newTestBot(api, runner)

	b.handleMessage(context.Background(), Message{Chat: Chat{ID: 42}, Text: "/scan 5 100 3"})

	if runner.req.PriceMin != 5 || runner.req.PriceMax != 100 || runner.req.MinProfitPercent != 3 {
		t.Errorf("scan request = %+v", runner.req)
	}
	if runner.req.RequestedBy != "42" {
		t.Errorf("RequestedBy = %q, want chat id", runner.req.RequestedBy)
	}
	if len(api.sent) != 2 {
		t.Fatalf("sent %d messages, want ack + result: %v", len(api.sent), api.sent)
	}
	if !strings.Contains(api.sent[1], "plushpepe") || !strings.Contains(api.sent[1], "gift_flip") {
		t.Errorf("result message = %q", api.sent[1])
	}
}

func TestHandleScanLockHeld(t *testing.T) {
	api := &fakeAPI{}
	runner := &fakeRunner{err: domain.ErrLockHeld}
	b := newTestBot(api, runner)

	b.handleMessage(context.Background(), Message{Chat: Chat{ID: 42}, Text: "/scan"})

	last := api.sent[len(api.sent)-1]
	if !strings.Contains(last, "already running") {
		t.Errorf("reply = %q, want lock-held notice", last)
	}
}

func TestDisallowedChatIgnored(t *testing.T) {
	api := &fakeAPI{}
	runner := &fakeRunner{res: &scan.Result{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := New(api, runner, nil, Config{AllowedChats: []int64{1}, DefaultPriceMax: 100}, logger)

	b.handleMessage(context.Background(), Message{Chat: Chat{ID: 42}, Text: "/scan"})
	if len(api.sent) != 0 {
		t.Errorf("disallowed chat got replies: %v", api.sent)
	}
}

func TestChunkText(t *testing.T) {
	t.Run("short text single chunk", func(t *testing.T) {
		chunks := chunkText("hello", 100)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("chunks = %v", chunks)
		}
	})

	t.Run("splits on newlines", func(t *testing.T) {
		text := strings.Repeat("0123456789\n", 10)
		chunks := chunkText(text, 25)
		var total string
		for i, c := range chunks {
			if len(c) > 25 {
				t.Errorf("chunk longer than max: %d", len(c))
			}
			// Every chunk except possibly the last should end at a line break.
			if i < len(chunks)-1 && !strings.HasSuffix(c, "\n") {
				t.Errorf("chunk does not end on newline: %q", c)
			}
			total += c
		}
		if total != text {
			t.Error("chunks do not reassemble to original text")
		}
	})

	t.Run("oversized line split mid-line", func(t *testing.T) {
		text := strings.Repeat("x", 70)
		chunks := chunkText(text, 25)
		var total string
		for _, c := range chunks {
			if len(c) > 25 {
				t.Errorf("chunk longer than max: %d", len(c))
			}
			total += c
		}
		if total != text {
			t.Error("chunks do not reassemble to original text")
		}
	})
}
