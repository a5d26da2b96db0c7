// Package db provides PostgreSQL access for analysis run tracking. It is an
// optional observability layer: consumers treat every error here as
// warn-and-continue, never as an analysis failure.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
//
// Expected tables:
//
//	analysis_runs(id uuid pk, card_id text, status text, failure_kind text,
//	              failure_reason text, started_at timestamptz, completed_at timestamptz)
//	stage_artifacts(run_id uuid, stage text, content jsonb, created_at timestamptz,
//	                unique(run_id, stage))
type DB struct {
	pool *pgxpool.Pool
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded analysis run.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	CardID        string     `json:"card_id"`
	Status        string     `json:"status"`
	FailureKind   string     `json:"failure_kind,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// New establishes a connection pool to the database.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateRun records the start of an analysis run and returns its id.
func (db *DB) CreateRun(ctx context.Context, cardID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO analysis_runs (card_id, status, started_at)
		 VALUES ($1, $2, NOW())
		 RETURNING id`,
		cardID, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SaveStageArtifact stores the delta a stage produced, replacing any earlier
// artifact for the same stage of the same run.
func (db *DB) SaveStageArtifact(ctx context.Context, runID uuid.UUID, stage string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO stage_artifacts (run_id, stage, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, stage) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, stage, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished. kind and reason are empty for a
// successful run.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, kind, reason string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE analysis_runs
		 SET status = $1, failure_kind = $2, failure_reason = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, kind, reason, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, card_id, status,
		        COALESCE(failure_kind, ''), COALESCE(failure_reason, ''),
		        started_at, completed_at
		 FROM analysis_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.CardID, &run.Status, &run.FailureKind, &run.FailureReason,
		&run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// StageArtifacts returns the recorded artifacts of a run keyed by stage name.
func (db *DB) StageArtifacts(ctx context.Context, runID uuid.UUID) (map[string]json.RawMessage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT stage, content FROM stage_artifacts
		 WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := make(map[string]json.RawMessage)
	for rows.Next() {
		var stage string
		var content json.RawMessage
		if err := rows.Scan(&stage, &content); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts[stage] = content
	}
	return artifacts, rows.Err()
}

// RecordRun is a convenience for run-to-completion callers: create, complete.
func (db *DB) RecordRun(ctx context.Context, cardID, status, kind, reason string) (uuid.UUID, error) {
	runID, err := db.CreateRun(ctx, cardID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := db.CompleteRun(ctx, runID, status, kind, reason); err != nil {
		return runID, err
	}
	return runID, nil
}
