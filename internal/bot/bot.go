package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

const welcomeText = `Gift flip scanner.

Commands:
/scan [min] [max] [profit%] - scan both markets for flips
   min/max bound the price band in TON, profit filters by percent
/recent - show the last recorded candidates
/help - this message`

// API is the slice of the Telegram client the bot loop uses.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ScanRunner runs scans and serves recent history; the scan service
// satisfies it.
type ScanRunner interface {
	Run(ctx context.Context, req scan.Request) (*scan.Result, error)
	RecentCandidates(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// Config holds the bot's behavior parameters.
type Config struct {
	// PollTimeout is the getUpdates long-poll duration.
	PollTimeout time.Duration
	// AllowedChats restricts who may command the bot. Empty allows all.
	AllowedChats []int64
	// Defaults fill in /scan arguments the user omits.
	DefaultPriceMin         float64
	DefaultPriceMax         float64
	DefaultMinProfitPercent float64
	// ScanLimit and ScanWindow rate-limit scans per chat. Zero limit
	// disables the check.
	ScanLimit  int
	ScanWindow time.Duration
}

// Bot is the long-poll Telegram command loop.
type Bot struct {
	api     API
	scans   ScanRunner
	limiter domain.RateLimiter // optional
	cfg     Config
	logger  *slog.Logger
}

// New creates a Bot. limiter may be nil, disabling per-chat rate limiting.
func New(api API, scans ScanRunner, limiter domain.RateLimiter, cfg Config, logger *slog.Logger) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	return &Bot{
		api:     api,
		scans:   scans,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "bot")),
	}
}

// Run polls for updates until ctx ends. Individual update failures are
// logged and polling continues; only context cancellation stops the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "bot started")

	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.WarnContext(ctx, "poll failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			b.handleMessage(ctx, *u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg Message) {
	if !b.chatAllowed(msg.Chat.ID) {
		b.logger.WarnContext(ctx, "message from disallowed chat", slog.Int64("chat_id", msg.Chat.ID))
		return
	}

	cmd, args := splitCommand(msg.Text)
	switch cmd {
	case "/start", "/help":
		b.reply(ctx, msg.Chat.ID, welcomeText)
	case "/scan":
		b.handleScan(ctx, msg.Chat.ID, args)
	case "/recent":
		b.handleRecent(ctx, msg.Chat.ID)
	default:
		// Non-command chatter is ignored.
	}
}

func (b *Bot) handleScan(ctx context.Context, chatID int64, args []string) {
	req, err := b.parseScanArgs(args)
	if err != nil {
		b.reply(ctx, chatID, fmt.Sprintf("Bad arguments: %v\nUsage: /scan [min] [max] [profit%%]", err))
		return
	}
	req.RequestedBy = strconv.FormatInt(chatID, 10)

	if b.limiter != nil && b.cfg.ScanLimit > 0 {
		allowed, err := b.limiter.Allow(ctx, "scan:"+req.RequestedBy, b.cfg.ScanLimit, b.cfg.ScanWindow)
		if err != nil {
			b.logger.WarnContext(ctx, "rate limit check failed", slog.String("error", err.Error()))
		} else if !allowed {
			b.reply(ctx, chatID, "Too many scans, try again in a bit.")
			return
		}
	}

	b.reply(ctx, chatID, fmt.Sprintf("Scanning %.0f-%.0f TON, min profit %.1f%%...",
		req.PriceMin, req.PriceMax, req.MinProfitPercent))

	res, err := b.scans.Run(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			b.reply(ctx, chatID, "A scan is already running, try again shortly.")
			return
		}
		b.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
		b.reply(ctx, chatID, fmt.Sprintf("Scan failed: %v", err))
		return
	}

	b.reply(ctx, chatID, formatResult(res))
}

func (b *Bot) handleRecent(ctx context.Context, chatID int64) {
	candidates, err := b.scans.RecentCandidates(ctx, 10)
	if err != nil {
		b.logger.ErrorContext(ctx, "recent lookup failed", slog.String("error", err.Error()))
		b.reply(ctx, chatID, "Could not load recent candidates.")
		return
	}
	if len(candidates) == 0 {
		b.reply(ctx, chatID, "No recorded candidates yet.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d candidates:\n\n", len(candidates))
	for i, c := range candidates {
		sb.WriteString(formatCandidate(i+1, c))
	}
	b.reply(ctx, chatID, sb.String())
}

// parseScanArgs fills a scan request from up to three positional numbers:
// price min, price max, min profit percent. Omitted values use defaults.
func (b *Bot) parseScanArgs(args []string) (scan.Request, error) {
	req := scan.Request{
		PriceMin:         b.cfg.DefaultPriceMin,
		PriceMax:         b.cfg.DefaultPriceMax,
		MinProfitPercent: b.cfg.DefaultMinProfitPercent,
	}

	fields := []*float64{&req.PriceMin, &req.PriceMax, &req.MinProfitPercent}
	if len(args) > len(fields) {
		return req, fmt.Errorf("expected at most %d numbers", len(fields))
	}
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return req, fmt.Errorf("%q is not a number", arg)
		}
		if v < 0 {
			return req, fmt.Errorf("%q must not be negative", arg)
		}
		*fields[i] = v
	}

	if req.PriceMax <= req.PriceMin {
		return req, fmt.Errorf("max price %.2f must exceed min price %.2f", req.PriceMax, req.PriceMin)
	}
	return req, nil
}

func (b *Bot) chatAllowed(chatID int64) bool {
	if len(b.cfg.AllowedChats) == 0 {
		return true
	}
	for _, id := range b.cfg.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		b.logger.WarnContext(ctx, "send failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// splitCommand extracts the leading /command (bot-name suffix stripped) and
// its arguments.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := fields[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, fields[1:]
}
