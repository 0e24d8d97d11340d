package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the common surface of every data source adapter.
//
// Adapters never return transport or decode failures to the caller: they log
// them and return an empty slice. A non-nil error from a fetch method means a
// configuration problem (for example a missing API key) that the caller must
// decide whether to treat as fatal.
type Provider interface {
	// Name returns a unique identifier for this provider (e.g., "coingecko").
	Name() string
}

// MarketProvider supplies market quotes and trending coins.
type MarketProvider interface {
	Provider
	FetchMarketData(ctx context.Context, limit int) ([]MarketQuote, error)
}

// TrendingProvider supplies a popularity ranking.
type TrendingProvider interface {
	Provider
	FetchTrending(ctx context.Context) ([]TrendingEntry, error)
}

// NewsProvider supplies ranked headlines.
type NewsProvider interface {
	Provider
	FetchHotNews(ctx context.Context, limit int) ([]NewsItem, error)
}

// FundraisingProvider supplies structured funding rounds.
type FundraisingProvider interface {
	Provider
	FetchFundraising(ctx context.Context) ([]FundraisingEvent, error)
}

// AirdropProvider supplies structured airdrop signals.
type AirdropProvider interface {
	Provider
	FetchAirdrops(ctx context.Context) ([]AirdropSignal, error)
}

// UnlockProvider supplies scheduled token unlocks.
type UnlockProvider interface {
	Provider
	FetchTokenUnlocks(ctx context.Context) ([]TokenUnlockEvent, error)
}

// EcosystemProvider supplies chain ecosystem changes.
type EcosystemProvider interface {
	Provider
	FetchEcosystem(ctx context.Context) ([]EcosystemChange, error)
}

// MoodProvider supplies the market sentiment index.
type MoodProvider interface {
	Provider
	FetchMood(ctx context.Context) (*MarketMood, error)
}

// ErrMissingAPIKey is returned by adapters that cannot run without a key.
var ErrMissingAPIKey = errors.New("missing API key")

// ConfigError is a fatal configuration problem detected before any fetch.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) == 0 {
		return "configuration error: " + e.Reason
	}
	msg := "configuration error: missing " + strings.Join(e.Missing, ", ")
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// ProviderError describes why an adapter produced no data.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
