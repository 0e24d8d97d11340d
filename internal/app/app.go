// Package app builds every component from the validated configuration and
// exposes the two ways to run the reporter: a single batch run and the
// long-running server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/web3-frozen/daily-report/internal/config"
	"github.com/web3-frozen/daily-report/internal/dedup"
	"github.com/web3-frozen/daily-report/internal/delivery"
	"github.com/web3-frozen/daily-report/internal/metrics"
	"github.com/web3-frozen/daily-report/internal/pipeline"
	"github.com/web3-frozen/daily-report/internal/render"
	"github.com/web3-frozen/daily-report/internal/report"
	"github.com/web3-frozen/daily-report/internal/report/sources"
	"github.com/web3-frozen/daily-report/internal/store"
	"github.com/web3-frozen/daily-report/internal/telegram"
)

const pushJob = "web3_daily_report"

type App struct {
	cfg    config.Config
	logger *slog.Logger

	Engine *pipeline.Engine
	bot    *telegram.Bot
	dedup  *dedup.Deduplicator
	store  *store.Store
}

// New validates cfg and wires the pipeline. Validation happens before any
// connection is opened, so a configuration error never touches the network.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}

	var chatID int64
	if cfg.Telegram.Enabled {
		id, err := telegram.ParseChatID(cfg.Telegram.ChatID)
		if err != nil {
			return nil, &report.ConfigError{Reason: err.Error()}
		}
		chatID = id
	}

	a.connect(ctx)

	var (
		channels []delivery.Channel
		alerter  delivery.Alerter
		deduper  delivery.Deduper
		archive  pipeline.Archive
	)
	if cfg.Email.Enabled {
		channels = append(channels, delivery.NewEmail(delivery.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			To:       cfg.Email.To,
			UseSSL:   cfg.Email.SSL(),
		}))
	}
	if cfg.Telegram.Enabled {
		a.bot = telegram.NewBot(cfg.Telegram.BotToken, chatID, a, logger)
		tg := delivery.NewTelegram(a.bot)
		if cfg.Telegram.SendReport {
			channels = append(channels, tg)
		}
		alerter = tg
	}
	if a.dedup != nil {
		deduper = a.dedup
	}
	if a.store != nil {
		archive = a.store
	}

	var pdf *render.PDFPrinter
	formats := render.ParseFormats(strings.Join(cfg.Formats, ","))
	for _, f := range formats {
		if f == render.FormatPDF {
			pdf = render.NewPDFPrinter(cfg.PDF.ChromePath, cfg.PDF.Timeout)
		}
	}

	a.Engine = pipeline.NewEngine(
		buildProviders(cfg, logger),
		pipeline.Options{
			MarketLimit: cfg.MarketLimit,
			NewsLimit:   cfg.NewsLimit,
			Params:      cfg.Aggregate,
			Location:    cfg.Location(),
		},
		render.NewRenderer(cfg.OutputDir, formats, pdf, logger),
		delivery.NewDispatcher(channels, alerter, deduper, logger),
		archive,
		logger,
	)
	logger.Info("reporter configured",
		"formats", formats,
		"email", cfg.Email.Enabled,
		"telegram", cfg.Telegram.Enabled,
		"dedup", a.dedup != nil,
		"archive", a.store != nil,
	)
	return a, nil
}

// connect opens the optional Redis and Postgres backends. Both only add
// bookkeeping, so a failure is logged and the backend left out.
func (a *App) connect(ctx context.Context) {
	if a.cfg.Redis.URL != "" {
		dd, err := dedup.New(a.cfg.Redis.URL, a.cfg.Redis.Password)
		if err != nil {
			a.logger.Warn("redis unavailable, failure alerts are not deduplicated", "error", err)
		} else {
			a.dedup = dd
			a.logger.Info("redis connected for alert dedup")
		}
	}

	if a.cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := store.New(dbCtx, a.cfg.DatabaseURL)
		if err != nil {
			a.logger.Warn("database unavailable, runs are not archived", "error", err)
			return
		}
		if err := db.Migrate(dbCtx); err != nil {
			a.logger.Warn("database migration failed, runs are not archived", "error", err)
			db.Close()
			return
		}
		a.store = db
		a.logger.Info("database connected and migrated")
	}
}

func buildProviders(cfg config.Config, logger *slog.Logger) pipeline.Providers {
	var p pipeline.Providers
	src := cfg.Sources

	if src.CoinGecko.Enabled {
		cg := sources.NewCoinGecko(src.CoinGecko.APIKey, logger)
		p.Markets = append(p.Markets, cg)
		p.Trending = cg
	}
	if src.Binance.Enabled {
		p.Markets = append(p.Markets, sources.NewBinance(logger))
	}

	if src.CryptoPanic.Enabled {
		if src.CryptoPanic.APIKey == "" {
			logger.Warn("CRYPTOPANIC_API_KEY not set, news provider disabled")
		} else {
			var tr sources.Translator
			if cfg.Translate.Enabled {
				tr = sources.NewGoogleTranslate(cfg.Translate.Target)
			}
			p.News = sources.NewCryptoPanic(src.CryptoPanic.APIKey, tr, logger)
		}
	}

	if src.RootData.Enabled {
		if src.RootData.APIKey == "" {
			logger.Warn("ROOTDATA_API_KEY not set, project database disabled")
		} else {
			rd := sources.NewRootData(src.RootData.APIKey, logger)
			p.Fundraising = append(p.Fundraising, rd)
			p.Airdrops = append(p.Airdrops, rd)
			p.Unlocks = append(p.Unlocks, rd)
			p.Ecosystem = append(p.Ecosystem, rd)
		}
	}
	if src.Alpha.Enabled {
		p.Airdrops = append(p.Airdrops, sources.NewAlpha(logger))
	}
	if src.FearGreed.Enabled {
		p.Mood = sources.NewFearGreed(logger)
	}
	return p
}

// LatestBundle and LatestRun let the bot answer before the engine exists.
func (a *App) LatestBundle() *report.Bundle {
	if a.Engine == nil {
		return nil
	}
	return a.Engine.LatestBundle()
}

func (a *App) LatestRun() *report.RunSummary {
	if a.Engine == nil {
		return nil
	}
	return a.Engine.LatestRun()
}

// RunOnce performs one report and pushes the run metrics.
func (a *App) RunOnce(ctx context.Context) (*report.RunSummary, error) {
	run, err := a.Engine.Run(ctx)
	if perr := metrics.Push(a.cfg.PushgatewayURL, pushJob); perr != nil {
		a.logger.Warn("metrics push failed", "error", perr)
	}
	if err != nil {
		return run, fmt.Errorf("report run: %w", err)
	}
	return run, nil
}

// Close releases the optional backends.
func (a *App) Close() {
	if a.dedup != nil {
		a.dedup.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
