// Package pipeline runs one report end to end: collect from every provider,
// aggregate, render, deliver and archive.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/web3-frozen/daily-report/internal/aggregate"
	"github.com/web3-frozen/daily-report/internal/delivery"
	"github.com/web3-frozen/daily-report/internal/metrics"
	"github.com/web3-frozen/daily-report/internal/render"
	"github.com/web3-frozen/daily-report/internal/report"
	"github.com/web3-frozen/daily-report/internal/telegram"
	"github.com/web3-frozen/daily-report/internal/tracing"
)

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("a report run is already in progress")

// Providers lists the adapters per category. Slices are tried in order and
// the first non-empty result wins; any entry may be absent.
type Providers struct {
	Markets     []report.MarketProvider
	Trending    report.TrendingProvider
	News        report.NewsProvider
	Fundraising []report.FundraisingProvider
	Airdrops    []report.AirdropProvider
	Unlocks     []report.UnlockProvider
	Ecosystem   []report.EcosystemProvider
	Mood        report.MoodProvider
}

// Renderer produces the report artifacts.
type Renderer interface {
	Formats() []render.Format
	Render(ctx context.Context, b *report.Bundle) ([]render.Artifact, error)
}

// Deliverer sends the finished report.
type Deliverer interface {
	Deliver(ctx context.Context, date string, msg delivery.Message) (string, error)
}

// Archive stores run summaries.
type Archive interface {
	InsertRun(ctx context.Context, run *report.RunSummary) error
}

type Options struct {
	MarketLimit int
	NewsLimit   int
	Params      aggregate.Params
	Location    *time.Location
}

type Engine struct {
	providers Providers
	opts      Options
	renderer  Renderer
	deliverer Deliverer
	archive   Archive
	logger    *slog.Logger
	now       func() time.Time

	runMu sync.Mutex

	mu        sync.RWMutex
	latest    *report.Bundle
	latestRun *report.RunSummary
}

// NewEngine wires a pipeline. deliverer and archive may be nil.
func NewEngine(p Providers, opts Options, r Renderer, d Deliverer, a Archive, logger *slog.Logger) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MarketLimit <= 0 {
		opts.MarketLimit = 100
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = 200
	}
	return &Engine{
		providers: p,
		opts:      opts,
		renderer:  r,
		deliverer: d,
		archive:   a,
		logger:    logger,
		now:       time.Now,
	}
}

// LatestBundle returns the bundle of the last completed run, or nil.
func (e *Engine) LatestBundle() *report.Bundle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// LatestRun returns the summary of the last run, or nil.
func (e *Engine) LatestRun() *report.RunSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latestRun
}

// Run executes one report. The returned error is non-nil only when the
// report could not be delivered and no alert went out.
func (e *Engine) Run(ctx context.Context) (*report.RunSummary, error) {
	if !e.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.runMu.Unlock()

	run := &report.RunSummary{ID: uuid.NewString(), StartedAt: e.now()}
	logger := e.logger.With("run_id", run.ID)
	logger.Info("report run started")

	ctx, span := tracing.Start(ctx, "report.run", attribute.String("run.id", run.ID))
	err := e.run(ctx, run, logger)
	tracing.End(span, err)

	run.FinishedAt = e.now()
	if err != nil {
		run.Error = err.Error()
	}
	e.finish(ctx, run, logger)
	return run, err
}

func (e *Engine) run(ctx context.Context, run *report.RunSummary, logger *slog.Logger) error {
	in := e.collect(ctx, logger)

	_, span := tracing.Start(ctx, "report.aggregate")
	b := aggregate.Build(in, e.opts.Params, run.StartedAt.In(e.opts.Location))
	span.End()

	run.Summarize(b)
	for _, c := range report.Categories {
		metrics.CategoryRecords.WithLabelValues(string(c)).Set(float64(b.Count(c)))
		metrics.FallbackStepTotal.WithLabelValues(string(c), string(b.Steps[c])).Inc()
	}
	logger.Info("report aggregated", "date", b.Date, "steps", b.Steps, "highlights", len(b.Highlights))

	e.mu.Lock()
	e.latest = b
	e.mu.Unlock()

	artifacts := e.render(ctx, b, logger)
	for _, a := range artifacts {
		name := a.Name
		if a.Path != "" {
			name = a.Path
		}
		run.Artifacts = append(run.Artifacts, name)
	}

	if e.deliverer == nil {
		run.Delivery = report.DeliveryDisabled
		return nil
	}

	ctx, span = tracing.Start(ctx, "report.deliver")
	status, err := e.deliverer.Deliver(ctx, b.Date, e.message(b, artifacts, logger))
	tracing.End(span, err)
	run.Delivery = status
	return err
}

// render never fails the run; a missing artifact only drops the attachment.
func (e *Engine) render(ctx context.Context, b *report.Bundle, logger *slog.Logger) []render.Artifact {
	if e.renderer == nil {
		return nil
	}
	ctx, span := tracing.Start(ctx, "report.render")
	artifacts, err := e.renderer.Render(ctx, b)
	tracing.End(span, err)
	if err != nil {
		logger.Error("render failure", "error", err)
		done := make(map[render.Format]bool, len(artifacts))
		for _, a := range artifacts {
			done[a.Format] = true
		}
		for _, f := range e.renderer.Formats() {
			if !done[f] {
				metrics.RenderFailuresTotal.WithLabelValues(string(f)).Inc()
			}
		}
	}
	return artifacts
}

func (e *Engine) message(b *report.Bundle, artifacts []render.Artifact, logger *slog.Logger) delivery.Message {
	text := render.Narrative(b)
	body, err := render.MarkdownToHTML(text)
	if err != nil {
		logger.Warn("narrative html", "error", err)
	}
	return delivery.Message{
		Subject:     render.Subject(b),
		Text:        text,
		HTML:        body,
		Digest:      telegram.Digest(b),
		Attachments: artifacts,
	}
}

func (e *Engine) finish(ctx context.Context, run *report.RunSummary, logger *slog.Logger) {
	status := "success"
	switch {
	case run.Error != "":
		status = "failed"
	case run.Delivery == report.DeliveryAlerted:
		status = "alerted"
	}
	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	if status != "failed" {
		metrics.RunLastSuccess.Set(float64(run.FinishedAt.Unix()))
	}

	e.mu.Lock()
	e.latestRun = run
	e.mu.Unlock()

	if e.archive != nil {
		if err := e.archive.InsertRun(ctx, run); err != nil {
			logger.Warn("archive run", "error", err)
		}
	}
	logger.Info("report run finished",
		"status", status,
		"delivery", run.Delivery,
		"duration", run.FinishedAt.Sub(run.StartedAt).String(),
		"counts", run.Counts,
	)
}

// collect fetches every category concurrently into independent slots.
func (e *Engine) collect(ctx context.Context, logger *slog.Logger) aggregate.Inputs {
	ctx, span := tracing.Start(ctx, "report.collect")
	defer span.End()

	var (
		in       aggregate.Inputs
		marketsS report.Step
		airdropS report.Step
	)
	p := e.providers
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		in.Markets, marketsS = firstOf(gctx, logger, p.Markets, func(ctx context.Context, mp report.MarketProvider) ([]report.MarketQuote, error) {
			return mp.FetchMarketData(ctx, e.opts.MarketLimit)
		})
		return nil
	})
	if p.Trending != nil {
		g.Go(func() error {
			in.Trending = fetch(gctx, logger, p.Trending.Name(), p.Trending.FetchTrending)
			return nil
		})
	}
	if p.News != nil {
		g.Go(func() error {
			in.News = fetch(gctx, logger, p.News.Name(), func(ctx context.Context) ([]report.NewsItem, error) {
				return p.News.FetchHotNews(ctx, e.opts.NewsLimit)
			})
			return nil
		})
	}
	g.Go(func() error {
		in.Fundraising, _ = firstOf(gctx, logger, p.Fundraising, func(ctx context.Context, fp report.FundraisingProvider) ([]report.FundraisingEvent, error) {
			return fp.FetchFundraising(ctx)
		})
		return nil
	})
	g.Go(func() error {
		in.Airdrops, airdropS = firstOf(gctx, logger, p.Airdrops, func(ctx context.Context, ap report.AirdropProvider) ([]report.AirdropSignal, error) {
			return ap.FetchAirdrops(ctx)
		})
		return nil
	})
	g.Go(func() error {
		in.Unlocks, _ = firstOf(gctx, logger, p.Unlocks, func(ctx context.Context, up report.UnlockProvider) ([]report.TokenUnlockEvent, error) {
			return up.FetchTokenUnlocks(ctx)
		})
		return nil
	})
	g.Go(func() error {
		in.Ecosystem, _ = firstOf(gctx, logger, p.Ecosystem, func(ctx context.Context, ep report.EcosystemProvider) ([]report.EcosystemChange, error) {
			return ep.FetchEcosystem(ctx)
		})
		return nil
	})
	if p.Mood != nil {
		g.Go(func() error {
			in.Mood = fetchMood(gctx, logger, p.Mood)
			return nil
		})
	}
	_ = g.Wait()

	in.Steps = map[report.Category]report.Step{}
	if marketsS == report.StepSecondary {
		in.Steps[report.CategoryMarkets] = marketsS
	}
	if airdropS == report.StepSecondary {
		in.Steps[report.CategoryAirdrops] = airdropS
	}
	return in
}

// firstOf tries providers in order. Results from any provider after the
// first are marked as the secondary step.
func firstOf[P report.Provider, T any](ctx context.Context, logger *slog.Logger, providers []P, call func(context.Context, P) ([]T, error)) ([]T, report.Step) {
	for i, prov := range providers {
		items := fetch(ctx, logger, prov.Name(), func(ctx context.Context) ([]T, error) {
			return call(ctx, prov)
		})
		if len(items) > 0 {
			if i == 0 {
				return items, report.StepPrimary
			}
			logger.Info("category served by fallback provider", "provider", prov.Name())
			return items, report.StepSecondary
		}
	}
	return nil, report.StepEmpty
}

// fetch calls one adapter. Errors and panics degrade to an empty result.
func fetch[T any](ctx context.Context, logger *slog.Logger, name string, call func(context.Context) ([]T, error)) (items []T) {
	start := time.Now()
	defer func() {
		metrics.ProviderFetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			logger.Error("provider panic", "provider", name, "panic", r)
			metrics.ProviderFetchTotal.WithLabelValues(name, "panic").Inc()
			items = nil
		}
	}()

	items, err := call(ctx)
	switch {
	case errors.Is(err, report.ErrMissingAPIKey):
		logger.Warn("provider disabled", "provider", name, "error", err)
		metrics.ProviderFetchTotal.WithLabelValues(name, "disabled").Inc()
		return nil
	case err != nil:
		logger.Warn("provider fetch failed", "provider", name, "error", err)
		metrics.ProviderFetchTotal.WithLabelValues(name, "error").Inc()
		return nil
	case len(items) == 0:
		metrics.ProviderFetchTotal.WithLabelValues(name, "empty").Inc()
	default:
		metrics.ProviderFetchTotal.WithLabelValues(name, "ok").Inc()
	}
	metrics.ProviderRecords.WithLabelValues(name).Set(float64(len(items)))
	logger.Debug("provider fetched", "provider", name, "records", len(items))
	return items
}

func fetchMood(ctx context.Context, logger *slog.Logger, p report.MoodProvider) *report.MarketMood {
	var mood *report.MarketMood
	fetch(ctx, logger, p.Name(), func(ctx context.Context) ([]struct{}, error) {
		m, err := p.FetchMood(ctx)
		if err != nil || m == nil {
			return nil, err
		}
		mood = m
		return []struct{}{{}}, nil
	})
	return mood
}

// Describe summarizes a run on one line.
func Describe(run *report.RunSummary) string {
	return fmt.Sprintf("run %s for %s: delivery=%s artifacts=%d", run.ID, run.ReportDate, run.Delivery, len(run.Artifacts))
}
