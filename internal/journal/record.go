package journal

import (
	"context"
	"fmt"
	"time"
)

// Run is one stage execution.
type Run struct {
	ID         string
	Stage      string
	Seed       string
	Trials     int
	Inputs     int
	StartedAt  time.Time
	FinishedAt time.Time
	// Finalized is set when this run left no contest open, so the audit as
	// a whole terminated here.
	Finalized bool
}

// ContestResult is one contest's measurement within a run.
type ContestResult struct {
	Contest      string
	Risk         float64
	Failures     int
	Trials       int
	SampleSize   int
	StatusBefore string
	StatusAfter  string
}

// CollectionPlan is one collection's next-stage workload within a run.
type CollectionPlan struct {
	Collection     string
	AuditedSoFar   int
	NextIncrement  int
	EstimatedTotal int
}

// Record stores a run with its results and plans in a single transaction.
func (j *Journal) Record(ctx context.Context, run Run, results []ContestResult, plans []CollectionPlan) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
            INSERT INTO runs (run_id, stage, seed, trials, inputs_hashed, started_at, finished_at, finalized)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Stage, run.Seed, run.Trials, run.Inputs,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			boolToInt(run.Finalized),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, r := range results {
			_, err = tx.ExecContext(ctx, `
                INSERT INTO contest_results (run_id, contest, measured_risk, failures, trials, sample_size, status_before, status_after)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, r.Contest, r.Risk, r.Failures, r.Trials, r.SampleSize, r.StatusBefore, r.StatusAfter,
			)
			if err != nil {
				return fmt.Errorf("insert contest result %s: %w", r.Contest, err)
			}
		}
		for _, p := range plans {
			_, err = tx.ExecContext(ctx, `
                INSERT INTO collection_plans (run_id, collection, audited_so_far, next_increment, estimated_total)
                VALUES (?, ?, ?, ?, ?)`,
				run.ID, p.Collection, p.AuditedSoFar, p.NextIncrement, p.EstimatedTotal,
			)
			if err != nil {
				return fmt.Errorf("insert collection plan %s: %w", p.Collection, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit run: %w", err)
		}
		return nil
	})
}

// Runs returns every recorded run, most recent first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	ctx = ensureContext(ctx)
	rows, err := j.db.QueryContext(ctx, `
        SELECT run_id, stage, seed, trials, inputs_hashed, started_at, finished_at, finalized
        FROM runs ORDER BY started_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			finalized         int
		)
		if err := rows.Scan(&run.ID, &run.Stage, &run.Seed, &run.Trials, &run.Inputs,
			&started, &finished, &finalized); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		run.Finalized = finalized != 0
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run, or false when the journal is empty.
func (j *Journal) LatestRun(ctx context.Context) (Run, bool, error) {
	runs, err := j.Runs(ctx)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

// Results returns a run's contest measurements ordered by contest id.
func (j *Journal) Results(ctx context.Context, runID string) ([]ContestResult, error) {
	ctx = ensureContext(ctx)
	rows, err := j.db.QueryContext(ctx, `
        SELECT contest, measured_risk, failures, trials, sample_size, status_before, status_after
        FROM contest_results WHERE run_id = ? ORDER BY contest`, runID)
	if err != nil {
		return nil, fmt.Errorf("list contest results: %w", err)
	}
	defer rows.Close()

	var out []ContestResult
	for rows.Next() {
		var r ContestResult
		if err := rows.Scan(&r.Contest, &r.Risk, &r.Failures, &r.Trials,
			&r.SampleSize, &r.StatusBefore, &r.StatusAfter); err != nil {
			return nil, fmt.Errorf("scan contest result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Plans returns a run's collection plans ordered by collection id.
func (j *Journal) Plans(ctx context.Context, runID string) ([]CollectionPlan, error) {
	ctx = ensureContext(ctx)
	rows, err := j.db.QueryContext(ctx, `
        SELECT collection, audited_so_far, next_increment, estimated_total
        FROM collection_plans WHERE run_id = ? ORDER BY collection`, runID)
	if err != nil {
		return nil, fmt.Errorf("list collection plans: %w", err)
	}
	defer rows.Close()

	var out []CollectionPlan
	for rows.Next() {
		var p CollectionPlan
		if err := rows.Scan(&p.Collection, &p.AuditedSoFar, &p.NextIncrement, &p.EstimatedTotal); err != nil {
			return nil, fmt.Errorf("scan collection plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse journal timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
