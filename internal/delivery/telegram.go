package delivery

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Notifier posts a text message to a preconfigured chat.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Telegram adapts a bot to both the primary and the alert role.
type Telegram struct {
	bot Notifier
}

func NewTelegram(bot Notifier) *Telegram { return &Telegram{bot: bot} }

func (t *Telegram) Name() string { return "telegram" }

// Send posts the digest followed by the attachment names. sendMessage cannot
// carry files, so they are only listed.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	var sb strings.Builder
	if msg.Digest != "" {
		sb.WriteString(msg.Digest)
	} else {
		sb.WriteString(html.EscapeString(msg.Text))
	}
	if len(msg.Attachments) > 0 {
		names := make([]string, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			names = append(names, html.EscapeString(a.Name))
		}
		sb.WriteString("\n📎 ")
		sb.WriteString(strings.Join(names, ", "))
	}
	if err := t.bot.Notify(ctx, sb.String()); err != nil {
		return fmt.Errorf("telegram digest: %w", err)
	}
	return nil
}

// Alert posts a failure notice.
func (t *Telegram) Alert(ctx context.Context, text string) error {
	return t.bot.Notify(ctx, html.EscapeString(text))
}
