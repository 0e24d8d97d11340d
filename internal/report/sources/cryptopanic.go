package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

const cryptoPanicAPI = "https://cryptopanic.com/api/v1"

// translateBudget bounds the whole translation pass, not each title.
const translateBudget = 30 * time.Second

// Translator rewrites a headline into the reader's language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// CryptoPanic fetches rising news headlines.
type CryptoPanic struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	translator Translator
	budget     time.Duration
	logger     *slog.Logger
}

func NewCryptoPanic(apiKey string, translator Translator, logger *slog.Logger) *CryptoPanic {
	return &CryptoPanic{
		client:     &http.Client{Timeout: 15 * time.Second},
		baseURL:    cryptoPanicAPI,
		apiKey:     apiKey,
		translator: translator,
		budget:     translateBudget,
		logger:     logger,
	}
}

func (c *CryptoPanic) Name() string { return "cryptopanic" }

type cpPosts struct {
	Results []struct {
		Title       string `json:"title"`
		PublishedAt string `json:"published_at"`
		Domain      string `json:"domain"`
		URL         string `json:"url"`
		Source      *struct {
			Title string `json:"title"`
		} `json:"source"`
		Currencies []struct {
			Code string `json:"code"`
		} `json:"currencies"`
	} `json:"results"`
}

// FetchHotNews returns up to limit rising headlines. Without an API key it
// returns report.ErrMissingAPIKey and no data.
func (c *CryptoPanic) FetchHotNews(ctx context.Context, limit int) ([]report.NewsItem, error) {
	if c.apiKey == "" {
		return []report.NewsItem{}, report.ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = 200
	}

	q := url.Values{
		"auth_token": {c.apiKey},
		"public":     {"true"},
		"filter":     {"rising"},
		"kind":       {"news"},
	}
	var raw cpPosts
	if err := getJSON(ctx, c.client, c.baseURL+"/posts/?"+q.Encode(), nil, &raw); err != nil {
		c.logger.Warn("provider fetch failed", "provider", c.Name(), "op", "news",
			"error", &report.ProviderError{Provider: c.Name(), Op: "news", Err: fmt.Errorf("cryptopanic API: %w", err)})
		return []report.NewsItem{}, nil
	}

	results := raw.Results
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]report.NewsItem, 0, len(results))
	for _, r := range results {
		source := r.Domain
		if r.Source != nil && r.Source.Title != "" {
			source = r.Source.Title
		}
		if source == "" {
			source = "unknown"
		}
		codes := make([]string, 0, len(r.Currencies))
		for _, cur := range r.Currencies {
			if cur.Code != "" {
				codes = append(codes, cur.Code)
			}
		}
		out = append(out, report.NewsItem{
			Title:       r.Title,
			PublishedAt: r.PublishedAt,
			Source:      source,
			URL:         r.URL,
			Currencies:  strings.Join(codes, ", "),
		})
	}
	c.translateTitles(ctx, out)
	return out, nil
}

// translateTitles rewrites titles in place within one time budget. A failed
// title, and every title left when the budget runs out, keeps its original.
func (c *CryptoPanic) translateTitles(ctx context.Context, items []report.NewsItem) {
	if c.translator == nil || len(items) == 0 {
		return
	}
	budget := c.budget
	if budget <= 0 {
		budget = translateBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	for i := range items {
		if ctx.Err() != nil {
			c.logger.Warn("title translation budget exhausted", "translated", i, "total", len(items))
			return
		}
		title := items[i].Title
		if strings.TrimSpace(title) == "" {
			continue
		}
		t, err := c.translator.Translate(ctx, title)
		if err != nil || strings.TrimSpace(t) == "" {
			c.logger.Debug("title translation skipped", "error", err)
			continue
		}
		items[i].Title = t
	}
}
