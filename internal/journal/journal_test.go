package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func testRun(stage string, at time.Time) Run {
	return Run{
		ID:         uuid.NewString(),
		Stage:      stage,
		Seed:       "13456201235197891138",
		Trials:     2000,
		Inputs:     9,
		StartedAt:  at,
		FinishedAt: at.Add(3 * time.Second),
	}
}

func TestRecordAndQueryRuns(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2017, 11, 22, 10, 0, 0, 0, time.UTC)

	first := testRun("001", base)
	second := testRun("002", base.Add(time.Hour))
	second.Finalized = true

	results := []ContestResult{
		{Contest: "Prop-1", Risk: 0.31, Failures: 620, Trials: 2000, SampleSize: 4, StatusBefore: "Open", StatusAfter: "Open"},
		{Contest: "Mayor", Risk: 0.012, Failures: 24, Trials: 2000, SampleSize: 6, StatusBefore: "Open", StatusAfter: "Passed"},
	}
	plans := []CollectionPlan{
		{Collection: "DEN", AuditedSoFar: 6, NextIncrement: 10, EstimatedTotal: 26},
		{Collection: "LOG", AuditedSoFar: 0, NextIncrement: 8, EstimatedTotal: 6},
	}
	if err := j.Record(ctx, first, results, plans); err != nil {
		t.Fatalf("Record first: %v", err)
	}
	if err := j.Record(ctx, second, nil, nil); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	runs, err := j.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("runs not newest-first: %v %v", runs[0].Stage, runs[1].Stage)
	}
	if !runs[0].Finalized || runs[1].Finalized {
		t.Fatalf("finalized flags wrong: %+v", runs)
	}
	if !runs[1].StartedAt.Equal(first.StartedAt) || !runs[1].FinishedAt.Equal(first.FinishedAt) {
		t.Fatalf("timestamps did not round-trip: %+v", runs[1])
	}

	got, err := j.Results(ctx, first.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(got) != 2 || got[0].Contest != "Mayor" || got[1].Contest != "Prop-1" {
		t.Fatalf("results not ordered by contest: %+v", got)
	}
	if got[0].Risk != 0.012 || got[0].StatusAfter != "Passed" {
		t.Fatalf("result values changed: %+v", got[0])
	}

	gotPlans, err := j.Plans(ctx, first.ID)
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(gotPlans) != 2 || gotPlans[0].Collection != "DEN" || gotPlans[1].NextIncrement != 8 {
		t.Fatalf("plans changed: %+v", gotPlans)
	}

	latest, ok, err := j.LatestRun(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestRun: %v %v", ok, err)
	}
	if latest.Stage != "002" {
		t.Fatalf("latest run is %s, want 002", latest.Stage)
	}
}

func TestLatestRunOnEmptyJournal(t *testing.T) {
	j := openTestJournal(t)
	_, ok, err := j.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if ok {
		t.Fatal("empty journal reported a run")
	}
}

func TestDuplicateRunIDRejected(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	run := testRun("001", time.Now())
	if err := j.Record(ctx, run, nil, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, run, nil, nil); err == nil {
		t.Fatal("duplicate run id accepted")
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("corrupt version: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("reopen: got %v, want schema mismatch", err)
	}
}
