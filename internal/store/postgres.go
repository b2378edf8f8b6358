package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// ExecSQL executes raw SQL (used for schema bootstrap).
// Caller is responsible for idempotency (schema.sql should be).
func (s *Store) ExecSQL(ctx context.Context, sql string) error {
	_, err := s.pool.Exec(ctx, sql)
	return err
}

func (s *Store) CreateRun(ctx context.Context, r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusRunning
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tfw.runs (run_id, experiment, task, model_type, model_name, phase, status, config_ref, config_sha, args, metrics)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11::jsonb)
	`, r.RunID, r.Experiment, r.TaskName, r.ModelType, r.ModelName, r.Phase, r.Status,
		nullIfEmpty(r.ConfigRef), nullIfEmpty(r.ConfigSHA),
		jsonOrArray(r.ArgsJSON), jsonOrEmpty(r.MetricsJSON),
	)
	if err != nil {
		return "", err
	}
	return r.RunID, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, exitCode int, metricsJSON []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tfw.runs
		SET status=$2, exit_code=$3, finished_at=now(), metrics=$4::jsonb
		WHERE run_id=$1
	`, runID, status, exitCode, jsonOrEmpty(metricsJSON))
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, experiment, task, model_type, model_name, phase, status,
		       COALESCE(config_ref,''), COALESCE(config_sha,''), exit_code,
		       started_at, finished_at, args, metrics
		FROM tfw.runs
		WHERE run_id=$1
	`, runID)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", runID, err)
	}
	return r, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, experiment, task, model_type, model_name, phase, status,
		       COALESCE(config_ref,''), COALESCE(config_sha,''), exit_code,
		       started_at, finished_at, args, metrics
		FROM tfw.runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RecordCheckpoint(ctx context.Context, cp CheckpointRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tfw.checkpoints (run_id, step, path, metrics)
		VALUES ($1,$2,$3,$4::jsonb)
		ON CONFLICT (run_id, step) DO UPDATE SET
		  path=EXCLUDED.path,
		  metrics=EXCLUDED.metrics
	`, cp.RunID, cp.Step, cp.Path, jsonOrEmpty(cp.MetricsJSON))
	return err
}

func (s *Store) ListCheckpoints(ctx context.Context, runID string) ([]CheckpointRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, step, path, metrics, created_at
		FROM tfw.checkpoints
		WHERE run_id=$1
		ORDER BY step
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CheckpointRecord
	for rows.Next() {
		var cp CheckpointRecord
		if err := rows.Scan(&cp.RunID, &cp.Step, &cp.Path, &cp.MetricsJSON, &cp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	err := row.Scan(&r.RunID, &r.Experiment, &r.TaskName, &r.ModelType, &r.ModelName,
		&r.Phase, &r.Status, &r.ConfigRef, &r.ConfigSHA, &r.ExitCode,
		&r.StartedAt, &r.FinishedAt, &r.ArgsJSON, &r.MetricsJSON)
	return r, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonOrEmpty(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

func jsonOrArray(b []byte) string {
	if len(b) == 0 {
		return "[]"
	}
	return string(b)
}
