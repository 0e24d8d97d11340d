package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/web3-frozen/daily-report/internal/report"
)

type fakeLatest struct {
	bundle *report.Bundle
	run    *report.RunSummary
}

func (f fakeLatest) LatestBundle() *report.Bundle  { return f.bundle }
func (f fakeLatest) LatestRun() *report.RunSummary { return f.run }

func testBot(srvURL string, latest Latest) *Bot {
	b := NewBot("TOKEN", 42, latest, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.baseURL = srvURL + "/bot"
	return b
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	b := testBot(srv.URL, nil)
	if err := b.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["chat_id"] != float64(42) || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
}

func TestSendMessageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := testBot(srv.URL, nil).SendMessage(context.Background(), 1, "x")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v", err)
	}
}

func TestParseChatID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12345", 12345, false},
		{" -100987 ", -100987, false},
		{"@channel", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseChatID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseChatID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestHandleCommands(t *testing.T) {
	bundle := &report.Bundle{
		Date:       "2026-03-14",
		Summary:    report.Summary{HasBTC: true, BTCPrice: 50000},
		Highlights: []report.Highlight{{Kind: report.HighlightRisk, Text: "ETH fell <6%>"}},
	}
	start := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	run := &report.RunSummary{
		ID: "run-1", StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Delivery: report.DeliverySent,
		Counts:   map[report.Category]int{report.CategoryNews: 7},
		Steps:    map[report.Category]report.Step{report.CategoryNews: report.StepPrimary},
	}
	b := testBot("http://unused", fakeLatest{bundle: bundle, run: run})

	tests := []struct {
		text string
		want string
	}{
		{"/start", "Welcome"},
		{"/help", "/latest"},
		{"/latest", "ETH fell &lt;6%&gt;"},
		{"/latest@report_bot", "$50,000.00"},
		{"/status", "news: 7 (primary)"},
		{"/status", "Duration: 1.5s"},
		{"/nope", "Unknown command"},
		{"", "/help"},
	}
	for _, tt := range tests {
		if got := b.handle(tt.text); !strings.Contains(got, tt.want) {
			t.Errorf("handle(%q) = %q, want it to contain %q", tt.text, got, tt.want)
		}
	}

	empty := testBot("http://unused", fakeLatest{})
	if got := empty.handle("/latest"); !strings.Contains(got, "No report") {
		t.Errorf("latest without report = %q", got)
	}
	if got := empty.handle("/status"); !strings.Contains(got, "No run") {
		t.Errorf("status without run = %q", got)
	}
}

func TestPollRepliesAndAdvancesOffset(t *testing.T) {
	var replies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") != "0" {
				t.Errorf("offset = %q", r.URL.Query().Get("offset"))
			}
			w.Write([]byte(`{"ok":true,"result":[{"update_id":10,"message":{"chat":{"id":5},"text":"/help"}},{"update_id":11}]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var m map[string]any
			json.NewDecoder(r.Body).Decode(&m)
			replies = append(replies, m)
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	b := testBot(srv.URL, nil)
	b.poll(context.Background())

	if b.offset != 12 {
		t.Errorf("offset = %d, want 12", b.offset)
	}
	if len(replies) != 1 || replies[0]["chat_id"] != float64(5) {
		t.Errorf("replies = %v", replies)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("界", maxMessageLen+10)
	got := truncate(long, maxMessageLen)
	if n := len([]rune(got)); n != maxMessageLen {
		t.Errorf("rune length = %d, want %d", n, maxMessageLen)
	}
	if truncate("short", maxMessageLen) != "short" {
		t.Error("short text must be unchanged")
	}
}

func TestRunBacksOffOnRejectedPoll(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"ok":false,"error_code":401,"description":"Unauthorized"}`},
		{"conflict", http.StatusConflict, `{"ok":false,"error_code":409,"description":"Conflict"}`},
		{"ok false", http.StatusOK, `{"ok":false,"description":"Bad Request"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var polls atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				polls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b := testBot(srv.URL, nil)
			b.retryDelay = 100 * time.Millisecond

			ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
			defer cancel()
			b.Run(ctx)

			if n := polls.Load(); n > 4 {
				t.Errorf("getUpdates called %d times in 250ms, want a pause between rejected polls", n)
			}
		})
	}
}
