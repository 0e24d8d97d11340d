package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/web3-frozen/daily-report/internal/pipeline"
	"github.com/web3-frozen/daily-report/internal/render"
	"github.com/web3-frozen/daily-report/internal/report"
)

// Latest exposes the most recent in-memory report.
type Latest interface {
	LatestBundle() *report.Bundle
	LatestRun() *report.RunSummary
}

// RunLister reads the run archive.
type RunLister interface {
	LatestRuns(ctx context.Context, limit int) ([]report.RunSummary, error)
}

// Runner starts a report run.
type Runner interface {
	Run(ctx context.Context) (*report.RunSummary, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LatestReport returns the full bundle of the last run.
func LatestReport(src Latest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := src.LatestBundle()
		if b == nil {
			http.Error(w, `{"error":"no report available yet"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = render.JSON(w, b)
	}
}

// ReportPage serves the latest report as the tabbed HTML page.
func ReportPage(src Latest, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := src.LatestBundle()
		if b == nil {
			http.Error(w, "no report available yet", http.StatusServiceUnavailable)
			return
		}
		page, err := render.HTMLBytes(b)
		if err != nil {
			logger.Error("render report page", "error", err)
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

// Runs lists archived runs. Without an archive it returns the last
// in-memory run, if any.
func Runs(archive RunLister, src Latest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		if archive == nil {
			runs := []report.RunSummary{}
			if run := src.LatestRun(); run != nil {
				runs = append(runs, *run)
			}
			writeJSON(w, http.StatusOK, runs)
			return
		}

		runs, err := archive.LatestRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"failed to list runs"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

// TriggerRun runs a report synchronously and returns its summary. The run
// keeps going if the client disconnects.
func TriggerRun(runner Runner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := runner.Run(context.WithoutCancel(r.Context()))
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			http.Error(w, `{"error":"a run is already in progress"}`, http.StatusConflict)
		case err != nil:
			logger.Error("triggered run failed", "error", err)
			writeJSON(w, http.StatusBadGateway, run)
		default:
			writeJSON(w, http.StatusOK, run)
		}
	}
}
