package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3-frozen/daily-report/internal/aggregate"
	"github.com/web3-frozen/daily-report/internal/delivery"
	"github.com/web3-frozen/daily-report/internal/render"
	"github.com/web3-frozen/daily-report/internal/report"
)

type fakeMarkets struct {
	name   string
	quotes []report.MarketQuote
	err    error
	panic  bool
	calls  int
}

func (f *fakeMarkets) Name() string { return f.name }

func (f *fakeMarkets) FetchMarketData(context.Context, int) ([]report.MarketQuote, error) {
	f.calls++
	if f.panic {
		panic("decoder exploded")
	}
	return f.quotes, f.err
}

type fakeNews struct{ items []report.NewsItem }

func (f fakeNews) Name() string { return "news" }
func (f fakeNews) FetchHotNews(context.Context, int) ([]report.NewsItem, error) {
	return f.items, nil
}

type fakeTrending struct{ entries []report.TrendingEntry }

func (f fakeTrending) Name() string { return "trending" }
func (f fakeTrending) FetchTrending(context.Context) ([]report.TrendingEntry, error) {
	return f.entries, nil
}

type fakeProjects struct {
	name     string
	funding  []report.FundraisingEvent
	airdrops []report.AirdropSignal
	unlocks  []report.TokenUnlockEvent
	chains   []report.EcosystemChange
	err      error
}

func (f fakeProjects) Name() string { return f.name }
func (f fakeProjects) FetchFundraising(context.Context) ([]report.FundraisingEvent, error) {
	return f.funding, f.err
}
func (f fakeProjects) FetchAirdrops(context.Context) ([]report.AirdropSignal, error) {
	return f.airdrops, f.err
}
func (f fakeProjects) FetchTokenUnlocks(context.Context) ([]report.TokenUnlockEvent, error) {
	return f.unlocks, f.err
}
func (f fakeProjects) FetchEcosystem(context.Context) ([]report.EcosystemChange, error) {
	return f.chains, f.err
}

type fakeMood struct{}

func (fakeMood) Name() string { return "mood" }
func (fakeMood) FetchMood(context.Context) (*report.MarketMood, error) {
	return &report.MarketMood{Index: 72, Classification: "Greed"}, nil
}

type fakeRenderer struct {
	artifacts []render.Artifact
	err       error
}

func (f fakeRenderer) Formats() []render.Format {
	return []render.Format{render.FormatHTML, render.FormatPDF}
}
func (f fakeRenderer) Render(context.Context, *report.Bundle) ([]render.Artifact, error) {
	return f.artifacts, f.err
}

type fakeDeliverer struct {
	status string
	err    error
	msgs   []delivery.Message
	dates  []string
}

func (f *fakeDeliverer) Deliver(_ context.Context, date string, msg delivery.Message) (string, error) {
	f.dates = append(f.dates, date)
	f.msgs = append(f.msgs, msg)
	return f.status, f.err
}

type fakeArchive struct{ runs []*report.RunSummary }

func (f *fakeArchive) InsertRun(_ context.Context, run *report.RunSummary) error {
	f.runs = append(f.runs, run)
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixedNow() time.Time { return time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC) }

func newTestEngine(p Providers, r Renderer, d Deliverer, a Archive) *Engine {
	hk, _ := time.LoadLocation("Asia/Hong_Kong")
	e := NewEngine(p, Options{Params: aggregate.DefaultParams(), Location: hk}, r, d, a, quietLogger())
	e.now = fixedNow
	return e
}

func TestRunEndToEnd(t *testing.T) {
	coingecko := &fakeMarkets{name: "coingecko"}
	binance := &fakeMarkets{name: "binance", quotes: []report.MarketQuote{
		{Symbol: "BTC", Name: "Bitcoin", Price: 50000, Change24h: 2},
		{Symbol: "ETH", Name: "Ethereum", Price: 3000, Change24h: -6},
	}}
	p := Providers{
		Markets:     []report.MarketProvider{coingecko, binance},
		News:        fakeNews{items: []report.NewsItem{{Title: "XYZ raises $10M", Currencies: "XYZ"}}},
		Trending:    fakeTrending{},
		Fundraising: []report.FundraisingProvider{fakeProjects{name: "rootdata"}},
		Airdrops: []report.AirdropProvider{
			fakeProjects{name: "rootdata"},
			fakeProjects{name: "alpha", airdrops: []report.AirdropSignal{{ProjectName: "Alpha", Signal: "Airdrop ALPHA"}}},
		},
		Unlocks: []report.UnlockProvider{fakeProjects{name: "rootdata"}},
		Ecosystem: []report.EcosystemProvider{fakeProjects{name: "rootdata", chains: []report.EcosystemChange{
			{Chain: "Solana", ChangeType: "TVL", Source: "RootData"},
		}}},
		Mood: fakeMood{},
	}
	html := render.Artifact{Format: render.FormatHTML, Name: "Web3_Daily_Report_2026-03-14.html", Data: []byte("<html>")}
	d := &fakeDeliverer{status: report.DeliverySent}
	a := &fakeArchive{}
	e := newTestEngine(p, fakeRenderer{artifacts: []render.Artifact{html}}, d, a)

	run, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, coingecko.calls)
	assert.Equal(t, 1, binance.calls)
	assert.Equal(t, "2026-03-14", run.ReportDate, "report date follows the configured zone")
	assert.Equal(t, report.DeliverySent, run.Delivery)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, []string{"Web3_Daily_Report_2026-03-14.html"}, run.Artifacts)

	assert.Equal(t, report.StepSecondary, run.Steps[report.CategoryMarkets])
	assert.Equal(t, report.StepNews, run.Steps[report.CategoryFundraising])
	assert.Equal(t, report.StepSecondary, run.Steps[report.CategoryAirdrops])
	assert.Equal(t, report.StepLastResort, run.Steps[report.CategoryUnlocks])
	assert.Equal(t, report.StepEmpty, run.Steps[report.CategoryTrending])
	assert.Equal(t, report.StepPrimary, run.Steps[report.CategoryEcosystem])
	assert.Equal(t, 1, run.Counts[report.CategoryEcosystem])

	b := e.LatestBundle()
	require.NotNil(t, b)
	require.Len(t, b.Fundraising, 1)
	assert.Equal(t, "XYZ", b.Fundraising[0].ProjectName)
	require.Len(t, b.Unlocks, 1)
	assert.Equal(t, "ETH", b.Unlocks[0].ProjectName)
	assert.Equal(t, "-6.00%", b.Unlocks[0].Amount)
	require.NotNil(t, b.Summary.Mood)

	require.Len(t, d.msgs, 1)
	msg := d.msgs[0]
	assert.Equal(t, "2026-03-14", d.dates[0])
	assert.Contains(t, msg.Subject, "2026-03-14")
	assert.Contains(t, msg.Text, "## Highlights")
	assert.Contains(t, msg.HTML, "<h2>Highlights</h2>")
	assert.Contains(t, msg.Digest, "Web3 Daily Report 2026-03-14")
	assert.Len(t, msg.Attachments, 1)

	require.Len(t, a.runs, 1)
	assert.Same(t, run, a.runs[0])
	assert.Same(t, run, e.LatestRun())
}

func TestPrimaryMarketsSkipFallback(t *testing.T) {
	coingecko := &fakeMarkets{name: "coingecko", quotes: []report.MarketQuote{{Symbol: "BTC", Price: 1}}}
	binance := &fakeMarkets{name: "binance", quotes: []report.MarketQuote{{Symbol: "ETH", Price: 1}}}
	e := newTestEngine(Providers{Markets: []report.MarketProvider{coingecko, binance}}, nil, nil, nil)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, binance.calls)
	assert.Equal(t, report.StepPrimary, run.Steps[report.CategoryMarkets])
	assert.Equal(t, report.DeliveryDisabled, run.Delivery)
}

func TestProviderPanicDegradesToEmpty(t *testing.T) {
	broken := &fakeMarkets{name: "coingecko", panic: true}
	backup := &fakeMarkets{name: "binance", quotes: []report.MarketQuote{{Symbol: "BTC", Price: 1}}}
	e := newTestEngine(Providers{Markets: []report.MarketProvider{broken, backup}}, nil, nil, nil)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counts[report.CategoryMarkets])
	assert.Equal(t, report.StepSecondary, run.Steps[report.CategoryMarkets])
}

func TestMissingKeyDisablesProvider(t *testing.T) {
	p := Providers{Fundraising: []report.FundraisingProvider{fakeProjects{name: "rootdata", err: report.ErrMissingAPIKey}}}
	e := newTestEngine(p, nil, nil, nil)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.Counts[report.CategoryFundraising])
	assert.Equal(t, report.StepEmpty, run.Steps[report.CategoryFundraising])
}

func TestAllEmptyRun(t *testing.T) {
	e := newTestEngine(Providers{}, nil, nil, nil)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	for _, c := range report.Categories {
		assert.Zero(t, run.Counts[c], c)
	}
	require.Len(t, run.Highlights, 1)
	assert.Equal(t, aggregate.DefaultParams().Placeholder, run.Highlights[0])
}

func TestDeliveryFailureFailsRun(t *testing.T) {
	d := &fakeDeliverer{status: report.DeliveryFailed, err: errors.New("deliver via email: 535")}
	e := newTestEngine(Providers{}, nil, d, nil)

	run, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, report.DeliveryFailed, run.Delivery)
	assert.Contains(t, run.Error, "535")
	assert.Same(t, run, e.LatestRun())
}

func TestRenderFailureKeepsDelivering(t *testing.T) {
	html := render.Artifact{Format: render.FormatHTML, Name: "r.html"}
	r := fakeRenderer{artifacts: []render.Artifact{html}, err: errors.New("render pdf: chrome not found")}
	d := &fakeDeliverer{status: report.DeliverySent}
	e := newTestEngine(Providers{}, r, d, nil)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.DeliverySent, run.Delivery)
	require.Len(t, d.msgs, 1)
	assert.Equal(t, []render.Artifact{html}, d.msgs[0].Attachments)
}

func TestRunInProgress(t *testing.T) {
	e := newTestEngine(Providers{}, nil, nil, nil)
	e.runMu.Lock()
	defer e.runMu.Unlock()

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestLatestBeforeFirstRun(t *testing.T) {
	e := newTestEngine(Providers{}, nil, nil, nil)
	assert.Nil(t, e.LatestBundle())
	assert.Nil(t, e.LatestRun())
}
