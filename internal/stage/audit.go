package stage

import (
	"context"
	"log/slog"
	"time"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/election"
	"ballotproof/internal/emit"
	"ballotproof/internal/layout"
	"ballotproof/internal/load"
	"ballotproof/internal/risk"
	"ballotproof/internal/sampler"
	"ballotproof/internal/snapshot"
	"ballotproof/internal/tally"
)

// loadModel reads the election spec, reported results, seed, and audit
// parameters into a fresh model.
func (c *Controller) loadModel() (*election.Election, *load.Loader, error) {
	l := load.New(c.opts.Dir, c.opts.Retry, c.log)
	e, err := l.Structure()
	if err != nil {
		return nil, nil, err
	}
	if err := l.Reported(e); err != nil {
		return nil, nil, err
	}
	if err := l.Seed(e); err != nil {
		return nil, nil, err
	}
	if err := l.AuditSpec(e); err != nil {
		return nil, nil, err
	}
	return e, l, nil
}

// setup runs stage 000: derive the sampling orders from the published
// seed, write them, and publish the opening workload plan.
func (c *Controller) setup(ctx context.Context, log *slog.Logger, runID string) (*Result, error) {
	started := time.Now().UTC()
	c.phase(log, PhaseInitializing)

	e, _, err := c.loadModel()
	if err != nil {
		return nil, err
	}

	orders := sampler.Orders(e)
	c.phase(log, PhaseOrderFrozen)

	w := emit.New(c.opts.Dir, c.log)
	if err := w.Orders(e, orders); err != nil {
		return nil, err
	}
	log.Info("sampling orders written", "collections", len(e.CollectionIDs))

	label := layout.StageLabel(0)
	plan := buildPlan(e, nil, nil)
	if err := w.Plan(label, plan); err != nil {
		return nil, err
	}
	c.phase(log, PhasePlanEmitted)

	res := &Result{
		Stage:     label,
		RunID:     runID,
		Plan:      plan,
		Finalized: auditFinalized(e),
	}
	c.record(ctx, log, e, res, started)
	return res, nil
}

// audit runs stage number >= 1: bind the inputs, ingest the cumulative
// audited sample, measure risks, and publish the stage artifacts.
func (c *Controller) audit(ctx context.Context, log *slog.Logger, runID string, number int) (*Result, error) {
	started := time.Now().UTC()
	label := layout.StageLabel(number)
	c.phase(log, PhaseInitializing)

	e, l, err := c.loadModel()
	if err != nil {
		return nil, err
	}
	if number > e.MaxAuditStages {
		return nil, auditerr.New(auditerr.ParameterOutOfRange,
			"stage %s exceeds the declared maximum of %d audit stages", label, e.MaxAuditStages)
	}

	hist, err := readOutputHistory(c.opts.Dir, c.opts.Retry)
	if err != nil {
		return nil, err
	}
	if err := hist.checkSequence(number); err != nil {
		return nil, err
	}
	hist.overlayStatuses(e)

	orders := sampler.Orders(e)
	orderFiles := l.OrderFiles(e)
	for _, pbcid := range e.CollectionIDs {
		if orderFiles[pbcid] == "" {
			return nil, auditerr.New(auditerr.MissingInput,
				"collection %s has no sampling order file; run stage 000 first", pbcid)
		}
	}
	c.phase(log, PhaseOrderFrozen)

	if err := l.Audited(e); err != nil {
		return nil, err
	}
	files, err := snapshot.Take(c.opts.Dir, l.Sources(), c.opts.Retry)
	if err != nil {
		return nil, err
	}
	sample, err := tally.Build(e, orders)
	if err != nil {
		return nil, err
	}
	c.phase(log, PhaseIngesting)

	est := &risk.Estimator{
		Trials:    e.Trials,
		Stage:     label,
		Workers:   c.opts.Workers,
		ChunkSize: c.opts.TrialChunk,
		Log:       c.log,
	}
	ms, err := est.Measure(ctx, e, sample)
	if err != nil {
		return nil, err
	}
	risk.Apply(e, ms)
	c.phase(log, PhaseRisks)

	plan := buildPlan(e, measuredRisks(ms), hist.latestRisks())
	finalized := auditFinalized(e)

	w := emit.New(c.opts.Dir, c.log)
	if err := w.Snapshot(label, files); err != nil {
		return nil, err
	}
	if err := w.Output(label, e, ms); err != nil {
		return nil, err
	}
	if err := w.Plan(label, plan); err != nil {
		return nil, err
	}
	c.phase(log, PhasePlanEmitted)

	res := &Result{
		Stage:        label,
		RunID:        runID,
		Measurements: ms,
		Plan:         plan,
		Inputs:       files,
		Finalized:    finalized,
	}
	c.record(ctx, log, e, res, started)
	return res, nil
}

func measuredRisks(ms []risk.Measurement) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Contest] = m.Risk
	}
	return out
}
