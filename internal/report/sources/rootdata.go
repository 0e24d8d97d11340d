package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/web3-frozen/daily-report/internal/report"
)

const rootDataAPI = "https://api.rootdata.com/open"

// RootData is the project database behind the fundraising, airdrop, unlock
// and ecosystem categories. Requests carry the API key and are retried a bounded
// number of times on transient failures.
type RootData struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	attempts  uint64
	retryWait time.Duration
	logger    *slog.Logger
}

func NewRootData(apiKey string, logger *slog.Logger) *RootData {
	return &RootData{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   rootDataAPI,
		apiKey:    apiKey,
		attempts:  3,
		retryWait: 2 * time.Second,
		logger:    logger,
	}
}

func (r *RootData) Name() string { return "rootdata" }

type record map[string]any

// fetchList downloads an endpoint and unwraps whichever envelope it uses:
// a bare array, or an object holding the array under data, items or list.
func (r *RootData) fetchList(ctx context.Context, endpoint string) ([]record, error) {
	if r.apiKey == "" {
		return nil, report.ErrMissingAPIKey
	}

	url := strings.TrimRight(r.baseURL, "/") + "/" + endpoint
	header := http.Header{"Apikey": {r.apiKey}, "Language": {"en"}}

	var raw json.RawMessage
	op := func() error {
		err := getJSON(ctx, r.client, url, header, &raw)
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	var policy backoff.BackOff = backoff.NewConstantBackOff(r.retryWait)
	if r.attempts > 1 {
		policy = backoff.WithMaxRetries(policy, r.attempts-1)
	} else {
		policy = &backoff.StopBackOff{}
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Debug("rootdata retry", "endpoint", endpoint, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		r.logger.Warn("provider fetch failed", "provider", r.Name(), "op", endpoint,
			"error", &report.ProviderError{Provider: r.Name(), Op: endpoint, Err: fmt.Errorf("rootdata API: %w", err)})
		return nil, nil
	}
	return unwrapEnvelope(raw), nil
}

func unwrapEnvelope(raw json.RawMessage) []record {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		for _, key := range []string{"data", "items", "list"} {
			inner, ok := obj[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(inner, &list); err == nil && len(list) > 0 {
				break
			}
			// Some endpoints nest one level deeper: {"data": {"items": [...]}}.
			if nested := unwrapEnvelope(inner); len(nested) > 0 {
				return nested
			}
		}
	}

	out := make([]record, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			out = append(out, record(m))
		}
	}
	return out
}

// str returns the first non-empty field among keys, stringified.
func (rec record) str(keys ...string) string {
	for _, k := range keys {
		if s := stringify(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return record(t).str("name", "title", "project_name")
	}
	return fmt.Sprint(v)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// FetchFundraising returns recent funding rounds.
func (r *RootData) FetchFundraising(ctx context.Context) ([]report.FundraisingEvent, error) {
	recs, err := r.fetchList(ctx, "fundraising_projects")
	if err != nil {
		return []report.FundraisingEvent{}, err
	}
	out := make([]report.FundraisingEvent, 0, len(recs))
	for _, rec := range recs {
		ev := report.FundraisingEvent{
			ProjectName: orDefault(rec.str("project_name", "name"), "Unknown"),
			Amount:      orDefault(rec.str("amount", "money"), "N/A"),
			Round:       rec.str("round", "stage"),
			Sector:      rec.str("sector", "category", "tags"),
			Investors:   rec.str("investors", "institution"),
			Date:        rec.str("date", "time"),
			Sources:     []string{},
			Notes:       rec.str("description", "desc"),
		}
		if u := rec.str("url", "source_url"); u != "" {
			ev.Sources = []string{u}
		}
		out = append(out, ev)
	}
	return out, nil
}

// FetchAirdrops returns airdrop signals tracked by the database.
func (r *RootData) FetchAirdrops(ctx context.Context) ([]report.AirdropSignal, error) {
	recs, err := r.fetchList(ctx, "airdrops")
	if err != nil {
		return []report.AirdropSignal{}, err
	}
	out := make([]report.AirdropSignal, 0, len(recs))
	for _, rec := range recs {
		out = append(out, report.AirdropSignal{
			ProjectName: orDefault(rec.str("project_name", "name"), "Unknown"),
			Signal:      rec.str("status", "desc"),
			TaskURL:     rec.str("url"),
			TGEDate:     rec.str("tge_date", "date"),
			Notes:       "RootData",
		})
	}
	return out, nil
}

// FetchTokenUnlocks returns scheduled unlocks.
func (r *RootData) FetchTokenUnlocks(ctx context.Context) ([]report.TokenUnlockEvent, error) {
	recs, err := r.fetchList(ctx, "token_unlocks")
	if err != nil {
		return []report.TokenUnlockEvent{}, err
	}
	out := make([]report.TokenUnlockEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, report.TokenUnlockEvent{
			ProjectName: orDefault(rec.str("project_name", "name"), "Unknown"),
			Token:       rec.str("token", "symbol"),
			Change:      rec.str("percent"),
			UnlockDate:  rec.str("unlock_date", "date"),
			Amount:      orDefault(rec.str("amount"), "0"),
			Impact:      "Scheduled unlock",
			Source:      "RootData",
		})
	}
	return out, nil
}

// FetchEcosystem returns notable changes on the major chains.
func (r *RootData) FetchEcosystem(ctx context.Context) ([]report.EcosystemChange, error) {
	recs, err := r.fetchList(ctx, "ecosystem_changes")
	if err != nil {
		return []report.EcosystemChange{}, err
	}
	out := make([]report.EcosystemChange, 0, len(recs))
	for _, rec := range recs {
		out = append(out, report.EcosystemChange{
			Chain:       orDefault(rec.str("chain", "ecosystem"), "Unknown"),
			ChangeType:  rec.str("type", "change_type"),
			Description: rec.str("description", "desc"),
			Metrics:     rec.str("metrics", "tvl"),
			Source:      orDefault(rec.str("url", "source"), "RootData"),
		})
	}
	return out, nil
}
