package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/web3-frozen/daily-report/internal/aggregate"
	"github.com/web3-frozen/daily-report/internal/pipeline"
	"github.com/web3-frozen/daily-report/internal/report"
)

type fakeLatest struct {
	bundle *report.Bundle
	run    *report.RunSummary
}

func (f fakeLatest) LatestBundle() *report.Bundle  { return f.bundle }
func (f fakeLatest) LatestRun() *report.RunSummary { return f.run }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeLister struct {
	runs  []report.RunSummary
	limit int
	err   error
}

func (f *fakeLister) LatestRuns(_ context.Context, limit int) ([]report.RunSummary, error) {
	f.limit = limit
	return f.runs, f.err
}

type fakeRunner struct {
	run *report.RunSummary
	err error
}

func (f fakeRunner) Run(context.Context) (*report.RunSummary, error) { return f.run, f.err }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleBundle() *report.Bundle {
	return aggregate.Build(aggregate.Inputs{
		Markets: []report.MarketQuote{{Symbol: "BTC", Name: "Bitcoin", Price: 50000, Change24h: 2}},
	}, aggregate.DefaultParams(), testTime)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name string
		deps map[string]Pinger
		want int
	}{
		{"no deps", nil, http.StatusOK},
		{"healthy", map[string]Pinger{"redis": fakePinger{}, "postgres": nil}, http.StatusOK},
		{"redis down", map[string]Pinger{"redis": fakePinger{err: errors.New("dial tcp: refused")}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Ready(tt.deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLatestReport(t *testing.T) {
	rec := httptest.NewRecorder()
	LatestReport(fakeLatest{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report/latest", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("empty: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	LatestReport(fakeLatest{bundle: sampleBundle()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Date   string `json:"date"`
		Tables []struct {
			Category string `json:"category"`
		} `json:"tables"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Date != "2026-03-14" || len(got.Tables) != len(report.Categories) {
		t.Errorf("bundle = %+v", got)
	}
}

func TestReportPage(t *testing.T) {
	rec := httptest.NewRecorder()
	ReportPage(fakeLatest{bundle: sampleBundle()}, discard()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Bitcoin") {
		t.Error("page should contain the market table")
	}
}

func TestRuns(t *testing.T) {
	run := &report.RunSummary{ID: "r1", Delivery: report.DeliverySent}

	rec := httptest.NewRecorder()
	Runs(nil, fakeLatest{run: run}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	var runs []report.RunSummary
	_ = json.NewDecoder(rec.Body).Decode(&runs)
	if len(runs) != 1 || runs[0].ID != "r1" {
		t.Errorf("in-memory runs = %+v", runs)
	}

	lister := &fakeLister{runs: []report.RunSummary{{ID: "a"}, {ID: "b"}}}
	rec = httptest.NewRecorder()
	Runs(lister, fakeLatest{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil))
	runs = nil
	_ = json.NewDecoder(rec.Body).Decode(&runs)
	if len(runs) != 2 || lister.limit != 2 {
		t.Errorf("archived runs = %+v (limit %d)", runs, lister.limit)
	}

	rec = httptest.NewRecorder()
	Runs(&fakeLister{err: errors.New("db down")}, fakeLatest{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("archive error: status = %d", rec.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	tests := []struct {
		name   string
		runner fakeRunner
		want   int
	}{
		{"ok", fakeRunner{run: &report.RunSummary{ID: "r1"}}, http.StatusOK},
		{"busy", fakeRunner{err: pipeline.ErrRunInProgress}, http.StatusConflict},
		{"delivery failed", fakeRunner{run: &report.RunSummary{ID: "r2"}, err: errors.New("smtp")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			TriggerRun(tt.runner, discard()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

var testTime = mustTime("2026-03-14T08:00:00Z")

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
