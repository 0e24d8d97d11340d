package aggregate

import (
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

// Inputs are the raw per-category results of one collection pass. Any slice
// may be nil or empty.
type Inputs struct {
	Markets     []report.MarketQuote
	Trending    []report.TrendingEntry
	News        []report.NewsItem
	Fundraising []report.FundraisingEvent
	Airdrops    []report.AirdropSignal
	Unlocks     []report.TokenUnlockEvent
	Ecosystem   []report.EcosystemChange
	Mood        *report.MarketMood

	// Steps carries waterfall stages already decided during collection,
	// for example markets served by the secondary exchange feed.
	Steps map[report.Category]report.Step
}

type stage[T any] struct {
	step report.Step
	run  func() []T
}

// waterfall returns the output of the first stage that produces anything.
// Later stages are never evaluated once an earlier one succeeds.
func waterfall[T any](stages ...stage[T]) ([]T, report.Step) {
	for _, s := range stages {
		if out := s.run(); len(out) > 0 {
			return out, s.step
		}
	}
	return []T{}, report.StepEmpty
}

func given[T any](step report.Step, items []T) stage[T] {
	return stage[T]{step: step, run: func() []T { return items }}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Build assembles the report bundle. It is pure: the same inputs, params
// and now always produce the same bundle.
func Build(in Inputs, p Params, now time.Time) *report.Bundle {
	p = p.withDefaults()

	b := &report.Bundle{
		GeneratedAt: now,
		Date:        now.Format("2006-01-02"),
		Markets:     nonNil(in.Markets),
		Trending:    nonNil(in.Trending),
		News:        nonNil(in.News),
		Ecosystem:   nonNil(in.Ecosystem),
		Steps:       make(map[report.Category]report.Step, len(report.Categories)),
	}

	direct := func(c report.Category, n int) {
		switch {
		case n == 0:
			b.Steps[c] = report.StepEmpty
		case in.Steps[c] != "":
			b.Steps[c] = in.Steps[c]
		default:
			b.Steps[c] = report.StepPrimary
		}
	}
	direct(report.CategoryMarkets, len(b.Markets))
	direct(report.CategoryTrending, len(b.Trending))
	direct(report.CategoryNews, len(b.News))
	direct(report.CategoryEcosystem, len(b.Ecosystem))

	primary := func(c report.Category) report.Step {
		if s := in.Steps[c]; s != "" {
			return s
		}
		return report.StepPrimary
	}

	b.Fundraising, b.Steps[report.CategoryFundraising] = waterfall(
		given(primary(report.CategoryFundraising), in.Fundraising),
		stage[report.FundraisingEvent]{step: report.StepNews, run: func() []report.FundraisingEvent {
			return fundraisingFromNews(b.News, p)
		}},
		stage[report.FundraisingEvent]{step: report.StepLastResort, run: func() []report.FundraisingEvent {
			return fundraisingFromTrending(b.Trending, p.TrendingFallbackN)
		}},
	)

	b.Airdrops, b.Steps[report.CategoryAirdrops] = waterfall(
		given(primary(report.CategoryAirdrops), in.Airdrops),
		stage[report.AirdropSignal]{step: report.StepNews, run: func() []report.AirdropSignal {
			return airdropsFromNews(b.News, p)
		}},
	)

	b.Unlocks, b.Steps[report.CategoryUnlocks] = waterfall(
		given(primary(report.CategoryUnlocks), in.Unlocks),
		stage[report.TokenUnlockEvent]{step: report.StepNews, run: func() []report.TokenUnlockEvent {
			return unlocksFromNews(b.News, p)
		}},
		stage[report.TokenUnlockEvent]{step: report.StepLastResort, run: func() []report.TokenUnlockEvent {
			return riskAlertsFromLosers(b.Markets, p.LoserFallbackN)
		}},
	)

	b.Summary = summarize(b, in.Mood, p)
	b.Highlights = highlights(b, p)
	b.Tables = tables(b)
	return b
}
