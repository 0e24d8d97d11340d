package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/web3-frozen/daily-report/internal/metrics"
	"github.com/web3-frozen/daily-report/internal/report"
)

// Deduper remembers which failure alerts already went out.
type Deduper interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string, ttl time.Duration) error
	Clear(ctx context.Context, key string)
}

const alertTTL = 24 * time.Hour

// Dispatcher sends a report through every primary channel and falls back to
// an alert when any of them fails.
type Dispatcher struct {
	primary []Channel
	alerter Alerter
	dedup   Deduper
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher. alerter and dedup may be nil.
func NewDispatcher(primary []Channel, alerter Alerter, dedup Deduper, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{primary: primary, alerter: alerter, dedup: dedup, logger: logger}
}

// Enabled reports whether at least one primary channel is configured.
func (d *Dispatcher) Enabled() bool { return len(d.primary) > 0 }

// Deliver sends msg and returns the outcome recorded on the run. The error is
// nil when every primary channel succeeded or when the failure alert went out.
func (d *Dispatcher) Deliver(ctx context.Context, date string, msg Message) (string, error) {
	if !d.Enabled() {
		return report.DeliveryDisabled, nil
	}

	var failures []error
	for _, ch := range d.primary {
		if err := ch.Send(ctx, msg); err != nil {
			d.logger.Error("delivery failed", "channel", ch.Name(), "error", err)
			metrics.DeliveryTotal.WithLabelValues(ch.Name(), "failed").Inc()
			failures = append(failures, &DeliveryError{Channel: ch.Name(), Err: err})
			continue
		}
		d.logger.Info("report delivered", "channel", ch.Name(), "attachments", len(msg.Attachments))
		metrics.DeliveryTotal.WithLabelValues(ch.Name(), "sent").Inc()
	}
	key := alertKey(date)
	if len(failures) == 0 {
		// A delivered report re-arms the alert for a later failure the same day.
		if d.dedup != nil {
			d.dedup.Clear(ctx, key)
		}
		return report.DeliverySent, nil
	}

	failure := errors.Join(failures...)
	if d.alerter == nil {
		return report.DeliveryFailed, failure
	}

	if d.dedup != nil && d.dedup.AlreadySent(ctx, key) {
		d.logger.Info("failure alert already sent", "key", key)
		metrics.AlertsDeduplicatedTotal.WithLabelValues(d.alerter.Name()).Inc()
		return report.DeliveryAlerted, nil
	}

	text := fmt.Sprintf("⚠️ Web3 Daily Report %s could not be delivered.\n\n%v", date, failure)
	if err := d.alerter.Alert(ctx, text); err != nil {
		d.logger.Error("failure alert not sent", "channel", d.alerter.Name(), "error", err)
		metrics.DeliveryTotal.WithLabelValues(d.alerter.Name(), "failed").Inc()
		return report.DeliveryFailed, errors.Join(failure, &DeliveryError{Channel: d.alerter.Name(), Err: err})
	}
	metrics.DeliveryTotal.WithLabelValues(d.alerter.Name(), "alerted").Inc()
	if d.dedup != nil {
		if err := d.dedup.Record(ctx, key, alertTTL); err != nil {
			d.logger.Warn("record alert", "key", key, "error", err)
		}
	}
	return report.DeliveryAlerted, nil
}

func alertKey(date string) string { return "report:alert:" + date }
