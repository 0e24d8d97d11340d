package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

const fngAPI = "https://api.alternative.me/fng/"

// FearGreed reads the Alternative.me crypto Fear & Greed index.
type FearGreed struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewFearGreed(logger *slog.Logger) *FearGreed {
	return &FearGreed{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: fngAPI,
		logger:  logger,
	}
}

func (f *FearGreed) Name() string { return "feargreed" }

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// FetchMood returns today's index, or nil when it is unavailable.
func (f *FearGreed) FetchMood(ctx context.Context) (*report.MarketMood, error) {
	mood, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn("provider fetch failed", "provider", f.Name(), "op", "mood",
			"error", &report.ProviderError{Provider: f.Name(), Op: "mood", Err: err})
		return nil, nil
	}
	return mood, nil
}

func (f *FearGreed) fetch(ctx context.Context) (*report.MarketMood, error) {
	var fng fngResponse
	if err := getJSON(ctx, f.client, f.baseURL, nil, &fng); err != nil {
		return nil, fmt.Errorf("fear & greed API: %w", err)
	}
	if len(fng.Data) == 0 {
		return nil, errors.New("no fear & greed data")
	}
	val := parseFloat(fng.Data[0].Value)
	if fng.Data[0].Value == "" {
		return nil, errors.New("empty fear & greed value")
	}
	return &report.MarketMood{Index: val, Classification: classifyFng(val)}, nil
}

func classifyFng(v float64) string {
	switch {
	case v <= 25:
		return "Extreme Fear"
	case v <= 45:
		return "Fear"
	case v <= 55:
		return "Neutral"
	case v <= 75:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}
