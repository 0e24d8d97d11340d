package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/daily-report/internal/handler"
	"github.com/web3-frozen/daily-report/internal/middleware"
	"github.com/web3-frozen/daily-report/internal/pipeline"
)

// Router returns the serve-mode HTTP API.
func (a *App) Router() http.Handler {
	deps := map[string]handler.Pinger{}
	if a.dedup != nil {
		deps["redis"] = a.dedup
	}
	if a.store != nil {
		deps["postgres"] = a.store
	}
	var archive handler.RunLister
	if a.store != nil {
		archive = a.store
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(a.logger))
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(a.cfg.Server.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(deps))
	r.Get("/report", handler.ReportPage(a.Engine, a.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/report/latest", handler.LatestReport(a.Engine))
		r.Get("/runs", handler.Runs(archive, a.Engine))
		r.With(middleware.RequireToken(a.cfg.Server.APIToken)).Post("/run", handler.TriggerRun(a.Engine, a.logger))
	})
	return r
}

// Serve runs the HTTP API, the cron schedule and the bot command loop until
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	sched, err := pipeline.NewScheduler(a.cfg.Schedule, a.cfg.Location(), func(ctx context.Context) {
		if _, err := a.RunOnce(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}, a.logger)
	if err != nil {
		return err
	}
	go sched.Run(ctx)

	if a.bot != nil {
		go a.bot.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // POST /api/run waits for a full run
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
