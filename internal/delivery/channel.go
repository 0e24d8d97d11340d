// Package delivery sends the finished report through the configured
// channels and raises an alert on a secondary channel when the primary
// delivery fails.
package delivery

import (
	"context"
	"fmt"

	"github.com/web3-frozen/daily-report/internal/render"
)

// Message is one outgoing report.
type Message struct {
	Subject     string
	Text        string // markdown narrative, also used as the plain-text body
	HTML        string // HTML body
	Digest      string // short Telegram HTML summary
	Attachments []render.Artifact
}

// Channel delivers a message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Alerter is a channel able to carry a short failure notice.
type Alerter interface {
	Name() string
	Alert(ctx context.Context, text string) error
}

// DeliveryError wraps a failure of one channel.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
