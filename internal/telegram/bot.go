package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

const telegramAPI = "https://api.telegram.org/bot"

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// Latest exposes the most recent report to bot commands.
type Latest interface {
	LatestBundle() *report.Bundle
	LatestRun() *report.RunSummary
}

type Bot struct {
	token   string
	chatID  int64
	baseURL string
	latest  Latest
	logger  *slog.Logger
	client  *http.Client
	offset  int64

	// retryDelay is the pause after a failed poll.
	retryDelay time.Duration
}

// NewBot creates a bot that posts to chatID. latest may be nil when the bot
// is only used to send messages.
func NewBot(token string, chatID int64, latest Latest, logger *slog.Logger) *Bot {
	return &Bot{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		latest:  latest,
		logger:  logger,
		client:  &http.Client{Timeout: 40 * time.Second},

		retryDelay: 5 * time.Second,
	}
}

// ParseChatID accepts numeric chat ids, including negative group ids.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", s, err)
	}
	return id, nil
}

func (b *Bot) endpoint(method string) string {
	return b.baseURL + b.token + "/" + method
}

// SendMessage sends a text message to a Telegram chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     truncate(text, maxMessageLen),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}

// Notify sends text to the configured chat.
func (b *Bot) Notify(ctx context.Context, text string) error {
	return b.SendMessage(ctx, b.chatID, text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the long-polling loop for incoming Telegram messages.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.poll(ctx)
		}
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (b *Bot) poll(ctx context.Context) {
	url := fmt.Sprintf("%s?offset=%d&timeout=30", b.endpoint("getUpdates"), b.offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.logger.Error("create poll request", "error", err)
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("poll updates", "error", err)
		sleep(ctx, b.retryDelay)
		return
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool     `json:"ok"`
		Description string   `json:"description"`
		Result      []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		b.logger.Error("decode updates", "error", err)
		sleep(ctx, b.retryDelay)
		return
	}
	// A bad token (401) or a second poller (409) keeps failing; back off.
	if resp.StatusCode != http.StatusOK || !result.OK {
		b.logger.Error("poll updates rejected", "status", resp.StatusCode, "description", result.Description)
		sleep(ctx, b.retryDelay)
		return
	}

	for _, u := range result.Result {
		b.offset = u.UpdateID + 1
		if u.Message == nil {
			continue
		}
		reply := b.handle(strings.TrimSpace(u.Message.Text))
		if err := b.SendMessage(ctx, u.Message.Chat.ID, reply); err != nil {
			b.logger.Warn("telegram reply failed", "chat_id", u.Message.Chat.ID, "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// handle maps a command to its reply text.
func (b *Bot) handle(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "Send /help for available commands."
	}
	// Commands may arrive as "/latest@botname" in groups.
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/start":
		return "👋 Welcome to the Web3 Daily Report bot.\n\nSend /latest for today's highlights or /help for all commands."
	case "/help":
		return "🤖 <b>Web3 Daily Report Bot</b>\n\n" +
			"Commands:\n" +
			"/latest - Highlights of the latest report\n" +
			"/status - Result of the last run\n" +
			"/help - Show this message"
	case "/latest":
		return b.latestText()
	case "/status":
		return b.statusText()
	}
	return "Unknown command. Send /help for available commands."
}

func (b *Bot) latestText() string {
	var bundle *report.Bundle
	if b.latest != nil {
		bundle = b.latest.LatestBundle()
	}
	if bundle == nil {
		return "No report has been generated yet."
	}
	return Digest(bundle)
}

func (b *Bot) statusText() string {
	var run *report.RunSummary
	if b.latest != nil {
		run = b.latest.LatestRun()
	}
	if run == nil {
		return "No run recorded yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Last run</b> %s\n\n", html.EscapeString(run.ID))
	fmt.Fprintf(&sb, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&sb, "Delivery: %s\n", html.EscapeString(run.Delivery))
	if run.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", html.EscapeString(run.Error))
	}
	sb.WriteString("\n")
	for _, c := range report.Categories {
		fmt.Fprintf(&sb, "• %s: %d (%s)\n", c, run.Counts[c], run.Steps[c])
	}
	return sb.String()
}

// Digest renders the highlights of a bundle as a Telegram HTML message.
func Digest(b *report.Bundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Web3 Daily Report %s</b>\n\n", html.EscapeString(b.Date))
	if b.Summary.HasBTC {
		fmt.Fprintf(&sb, "BTC: %s\n", report.FormatPrice(b.Summary.BTCPrice))
	}
	if m := b.Summary.Mood; m != nil {
		fmt.Fprintf(&sb, "Mood: %.0f (%s)\n", m.Index, html.EscapeString(m.Classification))
	}
	fmt.Fprintf(&sb, "News %d · Projects %d · Airdrops %d · Unlocks %d\n\n",
		len(b.News), len(b.Fundraising), len(b.Airdrops), len(b.Unlocks))
	for _, h := range b.Highlights {
		fmt.Fprintf(&sb, "• %s\n", html.EscapeString(h.Text))
	}
	return sb.String()
}
