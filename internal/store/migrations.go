package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS report_runs (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    report_date TEXT NOT NULL DEFAULT '',
    counts JSONB NOT NULL DEFAULT '{}'::jsonb,
    steps JSONB NOT NULL DEFAULT '{}'::jsonb,
    highlights TEXT[] NOT NULL DEFAULT '{}',
    artifacts TEXT[] NOT NULL DEFAULT '{}',
    delivery TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS report_runs_started_at_idx ON report_runs (started_at DESC);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
