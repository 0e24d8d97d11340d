package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

const alphaAPI = "https://alpha123.uk/api/data?fresh=1"

type alphaAirdropResp struct {
	Token  string `json:"token"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Points int    `json:"points"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

type alphaResp struct {
	Airdrops []alphaAirdropResp `json:"airdrops"`
}

// Alpha reads the airdrop calendar published by alpha123.uk.
type Alpha struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewAlpha(logger *slog.Logger) *Alpha {
	return &Alpha{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: alphaAPI,
		logger:  logger,
	}
}

func (a *Alpha) Name() string { return "alpha" }
func (a *Alpha) URL() string  { return "https://alpha123.uk/" }

// FetchAirdrops returns the upcoming airdrop events as signals.
func (a *Alpha) FetchAirdrops(ctx context.Context) ([]report.AirdropSignal, error) {
	var body alphaResp
	if err := getJSON(ctx, a.client, a.baseURL, nil, &body); err != nil {
		a.logger.Warn("provider fetch failed", "provider", a.Name(), "op", "airdrops",
			"error", &report.ProviderError{Provider: a.Name(), Op: "airdrops", Err: fmt.Errorf("alpha API: %w", err)})
		return []report.AirdropSignal{}, nil
	}

	out := make([]report.AirdropSignal, 0, len(body.Airdrops))
	for _, it := range body.Airdrops {
		project := it.Name
		if project == "" {
			project = it.Token
		}
		if project == "" {
			continue
		}
		signal := "Airdrop"
		if it.Token != "" && it.Token != project {
			signal += " " + it.Token
		}
		if it.Points > 0 {
			signal += fmt.Sprintf(" (%d points)", it.Points)
		}
		out = append(out, report.AirdropSignal{
			ProjectName: project,
			Signal:      signal,
			TaskURL:     a.URL(),
			TGEDate:     strings.TrimSpace(it.Date + " " + it.Time),
			Notes:       orDefault(it.Type, "alpha123"),
		})
	}
	return out, nil
}
