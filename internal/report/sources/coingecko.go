package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/web3-frozen/daily-report/internal/report"
)

const coinGeckoAPI = "https://api.coingecko.com/api/v3"

// CoinGecko fetches market quotes and the trending list. The public tier is
// heavily rate limited, so requests share one limiter.
type CoinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewCoinGecko(apiKey string, logger *slog.Logger) *CoinGecko {
	return &CoinGecko{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: coinGeckoAPI,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
		logger:  logger,
	}
}

func (c *CoinGecko) Name() string { return "coingecko" }

type cgMarket struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Price       *float64 `json:"current_price"`
	Change24h   *float64 `json:"price_change_percentage_24h"`
	MarketCap   *float64 `json:"market_cap"`
	LastUpdated string   `json:"last_updated"`
}

type cgTrending struct {
	Coins []struct {
		Item struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
			Score  int    `json:"score"`
		} `json:"item"`
	} `json:"coins"`
}

func (c *CoinGecko) get(ctx context.Context, path string, q url.Values, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var h http.Header
	if c.apiKey != "" {
		h = http.Header{"X-Cg-Demo-Api-Key": []string{c.apiKey}}
	}
	return getJSON(ctx, c.client, u, h, v)
}

// FetchMarketData returns the top quotes by market cap.
func (c *CoinGecko) FetchMarketData(ctx context.Context, limit int) ([]report.MarketQuote, error) {
	if limit <= 0 || limit > 250 {
		limit = 100
	}
	q := url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(limit)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}
	var raw []cgMarket
	if err := c.get(ctx, "/coins/markets", q, &raw); err != nil {
		c.logger.Warn("provider fetch failed", "provider", c.Name(), "op", "markets",
			"error", &report.ProviderError{Provider: c.Name(), Op: "markets", Err: fmt.Errorf("coingecko API: %w", err)})
		return []report.MarketQuote{}, nil
	}

	out := make([]report.MarketQuote, 0, len(raw))
	for _, m := range raw {
		if m.Symbol == "" {
			continue
		}
		out = append(out, report.MarketQuote{
			Symbol:      strings.ToUpper(m.Symbol),
			Name:        m.Name,
			Price:       deref(m.Price),
			Change24h:   deref(m.Change24h),
			MarketCap:   deref(m.MarketCap),
			LastUpdated: m.LastUpdated,
			Source:      report.SourceCoinGecko,
		})
	}
	return out, nil
}

// FetchTrending returns the search-trending coins in rank order.
func (c *CoinGecko) FetchTrending(ctx context.Context) ([]report.TrendingEntry, error) {
	var raw cgTrending
	if err := c.get(ctx, "/search/trending", nil, &raw); err != nil {
		c.logger.Warn("provider fetch failed", "provider", c.Name(), "op", "trending",
			"error", &report.ProviderError{Provider: c.Name(), Op: "trending", Err: fmt.Errorf("coingecko API: %w", err)})
		return []report.TrendingEntry{}, nil
	}

	out := make([]report.TrendingEntry, 0, len(raw.Coins))
	for i, coin := range raw.Coins {
		out = append(out, report.TrendingEntry{
			Name:   coin.Item.Name,
			Symbol: strings.ToUpper(coin.Item.Symbol),
			Rank:   i + 1,
			Score:  coin.Item.Score + 1, // upstream score is 0-based
		})
	}
	return out, nil
}
