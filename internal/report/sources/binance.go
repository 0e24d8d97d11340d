package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

const binanceAPI = "https://api.binance.com"

// Binance serves 24h ticker statistics for USDT pairs. It stands in for the
// primary market feed when that one is down.
type Binance struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewBinance(logger *slog.Logger) *Binance {
	return &Binance{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: binanceAPI,
		logger:  logger,
	}
}

func (b *Binance) Name() string { return "binance" }

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	CloseTime          int64  `json:"closeTime"`
}

var binanceSkipBases = map[string]bool{
	"USDC": true, "FDUSD": true, "TUSD": true, "BUSD": true, "DAI": true, "USDP": true, "EUR": true,
}

// FetchMarketData returns the most traded USDT pairs as market quotes.
func (b *Binance) FetchMarketData(ctx context.Context, limit int) ([]report.MarketQuote, error) {
	if limit <= 0 {
		limit = 100
	}
	var raw []binanceTicker
	if err := getJSON(ctx, b.client, b.baseURL+"/api/v3/ticker/24hr", nil, &raw); err != nil {
		b.logger.Warn("provider fetch failed", "provider", b.Name(), "op", "markets",
			"error", &report.ProviderError{Provider: b.Name(), Op: "markets", Err: fmt.Errorf("binance API: %w", err)})
		return []report.MarketQuote{}, nil
	}

	type ranked struct {
		quote  report.MarketQuote
		volume float64
	}
	listed := make(map[string]bool, len(raw))
	for _, t := range raw {
		if base, ok := strings.CutSuffix(t.Symbol, "USDT"); ok {
			listed[base] = true
		}
	}

	var pairs []ranked
	for _, t := range raw {
		base, ok := strings.CutSuffix(t.Symbol, "USDT")
		if !ok || base == "" || binanceSkipBases[base] || leveraged(base, listed) {
			continue
		}
		price := parseFloat(t.LastPrice)
		if price <= 0 {
			continue
		}
		q := report.MarketQuote{
			Symbol:    base,
			Name:      base,
			Price:     price,
			Change24h: parseFloat(t.PriceChangePercent),
			Source:    report.SourceBinance,
		}
		if t.CloseTime > 0 {
			q.LastUpdated = time.UnixMilli(t.CloseTime).UTC().Format(time.RFC3339)
		}
		pairs = append(pairs, ranked{quote: q, volume: parseFloat(t.QuoteVolume)})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].volume > pairs[j].volume })
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}

	out := make([]report.MarketQuote, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.quote)
	}
	return out, nil
}

// leveraged reports whether base is a leveraged token such as BTCUP, which
// only exists next to its listed underlying. JUP is a real asset because
// there is no "J" pair.
func leveraged(base string, listed map[string]bool) bool {
	for _, sfx := range []string{"UP", "DOWN"} {
		if under, ok := strings.CutSuffix(base, sfx); ok && under != "" && listed[under] {
			return true
		}
	}
	return false
}
