package main

import (
	"testing"

	"ballotproof/internal/synth"
	"ballotproof/internal/testsupport"
)

func TestStageCommandRunsAuditToTermination(t *testing.T) {
	s, dir := testsupport.WriteScenario(t, synth.Landslide())
	cfgPath := testConfigPath(t)

	out, _, err := runCLI(t, cfgPath, "stage", "000", dir)
	if err != nil {
		t.Fatalf("stage 000: %v", err)
	}
	requireContains(t, out, "Stage 000 complete")
	requireContains(t, out, "Next stage plan:")

	testsupport.WriteAudited(t, s, dir, "001", map[string]int{"J": 40})

	out, _, err = runCLI(t, cfgPath, "stage", "001", dir)
	if err != nil {
		t.Fatalf("stage 001: %v", err)
	}
	requireContains(t, out, "Stage 001 complete")
	requireContains(t, out, "C: risk")
	requireContains(t, out, "status Passed")
	requireContains(t, out, "Audit finalized")
}

func TestStageCommandRejectsBadNumber(t *testing.T) {
	cfgPath := testConfigPath(t)
	_, _, err := runCLI(t, cfgPath, "stage", "abc", t.TempDir())
	if err == nil {
		t.Fatal("expected a parse error for a non-numeric stage")
	}
	requireContains(t, err.Error(), "non-negative integer")
}

func TestStageCommandEnforcesSequence(t *testing.T) {
	_, dir := testsupport.WriteScenario(t, synth.Landslide())
	cfgPath := testConfigPath(t)

	if _, _, err := runCLI(t, cfgPath, "stage", "002", dir); err == nil {
		t.Fatal("expected stage 002 to fail before stage 000 ran")
	}
}

func TestStatusAndHistoryAfterStages(t *testing.T) {
	s, dir := testsupport.WriteScenario(t, synth.Landslide())
	cfgPath := testConfigPath(t)

	out, _, err := runCLI(t, cfgPath, "status", dir)
	if err != nil {
		t.Fatalf("status before any stage: %v", err)
	}
	requireContains(t, out, "No audit stages have run yet.")

	if _, _, err := runCLI(t, cfgPath, "stage", "000", dir); err != nil {
		t.Fatalf("stage 000: %v", err)
	}
	out, _, err = runCLI(t, cfgPath, "status", dir)
	if err != nil {
		t.Fatalf("status after stage 000: %v", err)
	}
	requireContains(t, out, "Stage 000")
	requireContains(t, out, "collection J:")

	testsupport.WriteAudited(t, s, dir, "001", map[string]int{"J": 40})
	if _, _, err := runCLI(t, cfgPath, "stage", "001", dir); err != nil {
		t.Fatalf("stage 001: %v", err)
	}

	// A bytes.Buffer is not a terminal, so both views print plain lines.
	out, _, err = runCLI(t, cfgPath, "status", dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Stage 001")
	requireContains(t, out, "contest C:")
	requireContains(t, out, "status=Passed")

	out, _, err = runCLI(t, cfgPath, "history", dir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "stage=000")
	requireContains(t, out, "stage=001")
	requireContains(t, out, "finalized=yes")
}

func TestHistoryWithJournalingDisabled(t *testing.T) {
	_, dir := testsupport.WriteScenario(t, synth.Landslide())
	cfgPath := testConfigPath(t, testsupport.WithoutJournal())

	_, _, err := runCLI(t, cfgPath, "history", dir)
	if err == nil {
		t.Fatal("expected history to fail with journaling disabled")
	}
	requireContains(t, err.Error(), "journaling is disabled")
}
