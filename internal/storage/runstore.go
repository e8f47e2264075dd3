package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded planning cycle.
type Run struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	PlanningMode  int           `json:"planning_mode"`
	Feasible      bool          `json:"feasible"`
	Candidates    int           `json:"candidates"`
	BestCost      float64       `json:"best_cost"`
	Costs         []float64     `json:"costs,omitempty"`
	Duration      time.Duration `json:"duration"`
	CmdVelLinear  float64       `json:"cmd_vel_linear"`
	CmdVelAngular float64       `json:"cmd_vel_angular"`
}

// RecordRun inserts one planning cycle. A missing ID is filled with a fresh
// UUID; the stored ID is returned.
func (db *DB) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	costsJSON, err := json.Marshal(run.Costs)
	if err != nil {
		return "", fmt.Errorf("encode cost vector: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO planning_runs (
			run_id, started_at, planning_mode, feasible, candidates,
			best_cost, costs_json, duration_us, cmd_vel_linear, cmd_vel_angular
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.PlanningMode, run.Feasible, run.Candidates,
		run.BestCost, string(costsJSON), run.Duration.Microseconds(),
		run.CmdVelLinear, run.CmdVelAngular,
	)
	if err != nil {
		return "", fmt.Errorf("insert planning run: %w", err)
	}
	return run.ID, nil
}

// GetRun fetches one run by ID. sql.ErrNoRows is passed through so callers
// can distinguish absence from failure.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT run_id, started_at, planning_mode, feasible, candidates,
		       best_cost, costs_json, duration_us, cmd_vel_linear, cmd_vel_angular
		FROM planning_runs WHERE run_id = ?`, id)
	return scanRun(row)
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, started_at, planning_mode, feasible, candidates,
		       best_cost, costs_json, duration_us, cmd_vel_linear, cmd_vel_angular
		FROM planning_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query planning runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunStats summarizes the stored planning history.
type RunStats struct {
	Total       int           `json:"total"`
	Feasible    int           `json:"feasible"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// Stats aggregates over all stored runs.
func (db *DB) Stats(ctx context.Context) (RunStats, error) {
	row := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(feasible), 0),
		       COALESCE(AVG(duration_us), 0)
		FROM planning_runs`)

	var stats RunStats
	var avgUS float64
	if err := row.Scan(&stats.Total, &stats.Feasible, &avgUS); err != nil {
		return RunStats{}, fmt.Errorf("aggregate planning runs: %w", err)
	}
	stats.AvgDuration = time.Duration(avgUS) * time.Microsecond
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var costsJSON string
	var durationUS int64
	err := row.Scan(&run.ID, &run.StartedAt, &run.PlanningMode, &run.Feasible,
		&run.Candidates, &run.BestCost, &costsJSON, &durationUS,
		&run.CmdVelLinear, &run.CmdVelAngular)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan planning run: %w", err)
	}
	run.Duration = time.Duration(durationUS) * time.Microsecond
	if costsJSON != "" && costsJSON != "null" {
		if err := json.Unmarshal([]byte(costsJSON), &run.Costs); err != nil {
			return Run{}, fmt.Errorf("decode cost vector: %w", err)
		}
	}
	return run, nil
}
