package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/web3-frozen/daily-report/internal/report"
)

// Store archives run summaries. The report pipeline only writes to it.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// InsertRun archives one run. Re-inserting the same id replaces the row.
func (s *Store) InsertRun(ctx context.Context, run *report.RunSummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_runs (id, started_at, finished_at, report_date, counts, steps, highlights, artifacts, delivery, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
			SET finished_at = $3, report_date = $4, counts = $5, steps = $6,
			    highlights = $7, artifacts = $8, delivery = $9, error = $10`,
		run.ID, run.StartedAt, run.FinishedAt, run.ReportDate, nonNilMap(run.Counts), nonNilMap(run.Steps),
		nonNil(run.Highlights), nonNil(run.Artifacts), run.Delivery, run.Error)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRuns returns up to limit runs, newest first.
func (s *Store) LatestRuns(ctx context.Context, limit int) ([]report.RunSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, report_date, counts, steps, highlights, artifacts, delivery, error
		FROM report_runs ORDER BY started_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []report.RunSummary{}
	for rows.Next() {
		var r report.RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.ReportDate, &r.Counts, &r.Steps,
			&r.Highlights, &r.Artifacts, &r.Delivery, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

const maxRuns = 100

func clampLimit(n int) int {
	if n <= 0 {
		return 20
	}
	if n > maxRuns {
		return maxRuns
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
