package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"smartgoal/internal/goal"
	"smartgoal/internal/util/jsonutil"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS analyzer_runs (
  id BIGSERIAL PRIMARY KEY,
  model_id TEXT NOT NULL DEFAULT '',
  data_source TEXT NOT NULL DEFAULT '',
  run_timestamp TEXT NOT NULL DEFAULT '',
  record TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analyzer_runs_timestamp ON analyzer_runs (run_timestamp);
`)
	})
	return s.schemaErr
}

func (s *Store) appendDB(ctx context.Context, run goal.AnalyzerRun) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	rec, err := jsonutil.MarshalNoEscape(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO analyzer_runs (model_id, data_source, run_timestamp, record)
VALUES ($1,$2,$3,$4)`,
		run.ModelID, run.DataSource, run.Timestamp, string(rec))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) loadDB(ctx context.Context) ([]any, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM analyzer_runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []any{}
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(rec), &v); err != nil {
			continue
		}
		runs = append(runs, v)
	}
	return runs, rows.Err()
}
