package report

import "time"

// Delivery outcomes recorded for a run.
const (
	DeliverySent     = "sent"
	DeliveryAlerted  = "alerted"
	DeliveryFailed   = "failed"
	DeliverySkipped  = "skipped"
	DeliveryDisabled = "disabled"
)

// RunSummary is the archived outcome of one run.
type RunSummary struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	ReportDate string            `json:"report_date"`
	Counts     map[Category]int  `json:"counts"`
	Steps      map[Category]Step `json:"steps"`
	Highlights []string          `json:"highlights"`
	Artifacts  []string          `json:"artifacts"`
	Delivery   string            `json:"delivery"`
	Error      string            `json:"error,omitempty"`
}

// Summarize copies the bookkeeping of a bundle into a run summary.
func (s *RunSummary) Summarize(b *Bundle) {
	s.ReportDate = b.Date
	s.Counts = make(map[Category]int, len(Categories))
	s.Steps = make(map[Category]Step, len(Categories))
	for _, c := range Categories {
		s.Counts[c] = b.Count(c)
		s.Steps[c] = b.Steps[c]
	}
	s.Highlights = make([]string, 0, len(b.Highlights))
	for _, h := range b.Highlights {
		s.Highlights = append(s.Highlights, h.Text)
	}
}
