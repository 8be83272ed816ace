// Package stage drives one audit stage of an election directory from
// locked start to emitted artifacts.
//
// A run takes an exclusive lock on the directory, verifies the
// environment with preflight checks, and walks a fixed sequence of
// phases: load the model and freeze the sampling order, ingest audited
// votes, measure risks, publish the plan. Stage 000 is setup: it reads
// the seed, writes the per-collection sampling orders, and publishes the
// opening workload plan. Stages 001 and up measure risks against the
// cumulative audited sample and must run consecutively.
//
// Every artifact is computed in memory before anything is written, and
// writes go through the versioned-file discipline, so a failed run
// leaves no partial outputs and a re-run over unchanged inputs produces
// byte-identical files.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/emit"
	"ballotproof/internal/journal"
	"ballotproof/internal/layout"
	"ballotproof/internal/logging"
	"ballotproof/internal/preflight"
	"ballotproof/internal/risk"
	"ballotproof/internal/snapshot"
)

// Phase names one step of a stage run's lifecycle, in execution order.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseOrderFrozen  Phase = "sampling_order_frozen"
	PhaseIngesting    Phase = "ingesting"
	PhaseRisks        Phase = "risks_computed"
	PhasePlanEmitted  Phase = "plan_emitted"
	PhaseFinalized    Phase = "finalized"
)

// LockFile is the name of the stage lock at the election directory root.
const LockFile = ".ballotproof.lock"

// DefaultLockWait bounds how long a run waits for the directory lock.
const DefaultLockWait = 10 * time.Second

// Options configures a Controller.
type Options struct {
	// Dir is the election directory.
	Dir string
	// Workers caps risk-measurement concurrency; zero means GOMAXPROCS.
	Workers int
	// TrialChunk sizes the estimator's work units; zero selects
	// risk.ChunkTrials.
	TrialChunk int
	// Retry is the policy for re-reading input files that arrive over
	// flaky shares.
	Retry csvio.Retry
	// LockWait bounds the wait for the directory lock; zero means
	// DefaultLockWait.
	LockWait time.Duration
	// JournalPath is the sqlite run journal location; empty disables
	// journaling.
	JournalPath string
	// MinFreeDisk is forwarded to preflight; zero selects its default.
	MinFreeDisk uint64
	// Log may be nil.
	Log *slog.Logger
}

// Result summarizes one completed stage run.
type Result struct {
	// Stage is the three-digit stage label.
	Stage string
	// RunID identifies the run in logs and the journal.
	RunID string
	// Measurements holds the risk estimates of this stage, empty for
	// stage 000.
	Measurements []risk.Measurement
	// Plan is the per-collection workload for the next stage.
	Plan []emit.PlanRow
	// Inputs lists the snapshotted input files, empty for stage 000.
	Inputs []snapshot.File
	// Finalized reports that the audit as a whole terminated at this
	// stage: every contest settled, or no open active contest remains to
	// grow the sample.
	Finalized bool
}

// Controller runs audit stages for one election directory.
type Controller struct {
	opts Options
	log  *slog.Logger
}

// New returns a Controller for the directory named in opts.
func New(opts Options) *Controller {
	if opts.LockWait <= 0 {
		opts.LockWait = DefaultLockWait
	}
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	return &Controller{opts: opts, log: logging.WithComponent(log, "stage")}
}

// Run executes one stage. Stage 0 is setup; stages 1 and up must be run
// in order, each building on the outputs of the one before.
func (c *Controller) Run(ctx context.Context, number int) (*Result, error) {
	if number < 0 {
		return nil, auditerr.New(auditerr.ParameterOutOfRange,
			"stage number %d is negative", number)
	}
	runID := uuid.NewString()
	log := c.log.With(
		logging.FieldStage, layout.StageLabel(number),
		logging.FieldRun, runID)

	unlock, err := c.acquireLock(ctx, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := c.preflight(log); err != nil {
		return nil, err
	}

	started := time.Now()
	log.Info("stage started", logging.FieldElection, filepath.Base(c.opts.Dir))

	var res *Result
	if number == 0 {
		res, err = c.setup(ctx, log, runID)
	} else {
		res, err = c.audit(ctx, log, runID, number)
	}
	if err != nil {
		log.Error("stage failed", "error", err)
		return nil, err
	}

	log.Info("stage completed",
		"phase", string(PhaseFinalized),
		"measured", len(res.Measurements),
		"finalized", res.Finalized,
		"duration", time.Since(started).Round(time.Millisecond).String())
	return res, nil
}

// acquireLock takes the directory flock, retrying until LockWait runs
// out. The returned function releases it.
func (c *Controller) acquireLock(ctx context.Context, log *slog.Logger) (func(), error) {
	lock := flock.New(filepath.Join(c.opts.Dir, LockFile))
	lockCtx, cancel := context.WithTimeout(ctx, c.opts.LockWait)
	defer cancel()

	ok, err := lock.TryLockContext(lockCtx, 250*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New("election directory is locked by another audit run")
		}
		return nil, fmt.Errorf("acquire stage lock: %w", err)
	}
	if !ok {
		return nil, errors.New("election directory is locked by another audit run")
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release stage lock", "error", err)
		}
	}, nil
}

func (c *Controller) preflight(log *slog.Logger) error {
	results := preflight.RunAll(preflight.Options{
		Dir:         c.opts.Dir,
		JournalPath: c.opts.JournalPath,
		MinFreeDisk: c.opts.MinFreeDisk,
	})
	for _, r := range results {
		if r.Passed {
			log.Debug("preflight check passed", "check", r.Name)
		} else {
			log.Error("preflight check failed", "check", r.Name, "detail", r.Detail)
		}
	}
	failures := preflight.Failures(results)
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Name
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
}

func (c *Controller) phase(log *slog.Logger, p Phase) {
	log.Info("phase entered", "phase", string(p))
}

// record stores the run in the journal. The CSV artifacts are the
// authoritative record, so a journal failure is logged and the stage
// still succeeds.
func (c *Controller) record(ctx context.Context, log *slog.Logger, e *election.Election, res *Result, started time.Time) {
	if c.opts.JournalPath == "" {
		return
	}
	j, err := journal.Open(c.opts.JournalPath)
	if err != nil {
		log.Warn("journal unavailable; run not recorded", "error", err)
		return
	}
	defer j.Close()

	run := journal.Run{
		ID:         res.RunID,
		Stage:      res.Stage,
		Seed:       e.Seed,
		Trials:     e.Trials,
		Inputs:     len(res.Inputs),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Finalized:  res.Finalized,
	}
	results := make([]journal.ContestResult, 0, len(res.Measurements))
	for _, m := range res.Measurements {
		results = append(results, journal.ContestResult{
			Contest:      m.Contest,
			Risk:         m.Risk,
			Failures:     m.Failures,
			Trials:       m.Trials,
			SampleSize:   m.SampleSize,
			StatusBefore: string(m.StatusBefore),
			StatusAfter:  string(m.StatusAfter),
		})
	}
	plans := make([]journal.CollectionPlan, 0, len(res.Plan))
	for _, p := range res.Plan {
		plans = append(plans, journal.CollectionPlan{
			Collection:     p.Collection,
			AuditedSoFar:   p.AuditedSoFar,
			NextIncrement:  p.NextIncrement,
			EstimatedTotal: p.EstimatedTotal,
		})
	}
	if err := j.Record(ctx, run, results, plans); err != nil {
		log.Warn("journal record failed", "error", err)
		return
	}
	log.Info("run recorded", "results", len(results), "plans", len(plans))
}
